package domain

import (
	"context"
	"time"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestApproved  RequestStatus = "APPROVED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestWithdrawn RequestStatus = "WITHDRAWN"
)

// Active PENDING / APPROVED 占用 (travel, passenger) 唯一名额
func (s RequestStatus) Active() bool { return s == RequestPending || s == RequestApproved }

type TravelRequest struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	TravelID    string        `gorm:"index:idx_request_pair;size:36;not null" json:"travelId"`
	PassengerID string        `gorm:"index:idx_request_pair;size:36;not null" json:"passengerId"`
	Status      RequestStatus `gorm:"size:16;not null;default:PENDING;index" json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func (TravelRequest) TableName() string { return "travel_requests" }

type TravelRequestRepository interface {
	Create(ctx context.Context, r *TravelRequest) error
	FindByID(ctx context.Context, id string) (*TravelRequest, error)
	ExistsActive(ctx context.Context, travelID, passengerID string) (bool, error)
	ExistsWithStatus(ctx context.Context, travelID, passengerID string, status RequestStatus) (bool, error)
	ListByTravel(ctx context.Context, travelID string) ([]TravelRequest, error)
	ListByPassenger(ctx context.Context, passengerID string) ([]TravelRequest, error)
	// UpdateStatus 仅当当前状态为 from 时更新；返回 false 表示状态已被改动
	UpdateStatus(ctx context.Context, id string, from, to RequestStatus) (bool, error)
	RejectPendingByTravel(ctx context.Context, travelID string) (int64, error)
}
