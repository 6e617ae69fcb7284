package repo

import (
	"context"

	"gorm.io/gorm"

	"carpool/internal/domain"
)

type RequestRepo struct{ db *gorm.DB }

func (r *RequestRepo) Create(ctx context.Context, req *domain.TravelRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepo) FindByID(ctx context.Context, id string) (*domain.TravelRequest, error) {
	return first[domain.TravelRequest](r.db.WithContext(ctx), "id = ?", id)
}

func (r *RequestRepo) ExistsActive(ctx context.Context, travelID, passengerID string) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&domain.TravelRequest{}).
		Where("travel_id = ? AND passenger_id = ? AND status IN ?", travelID, passengerID,
			[]domain.RequestStatus{domain.RequestPending, domain.RequestApproved}))
}

func (r *RequestRepo) ExistsWithStatus(ctx context.Context, travelID, passengerID string, status domain.RequestStatus) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&domain.TravelRequest{}).
		Where("travel_id = ? AND passenger_id = ? AND status = ?", travelID, passengerID, status))
}

func (r *RequestRepo) ListByTravel(ctx context.Context, travelID string) ([]domain.TravelRequest, error) {
	var out []domain.TravelRequest
	err := r.db.WithContext(ctx).Where("travel_id = ?", travelID).Order("created_at asc").Find(&out).Error
	return out, err
}

func (r *RequestRepo) ListByPassenger(ctx context.Context, passengerID string) ([]domain.TravelRequest, error) {
	var out []domain.TravelRequest
	err := r.db.WithContext(ctx).Where("passenger_id = ?", passengerID).Order("created_at desc").Find(&out).Error
	return out, err
}

// 带上旧状态做条件更新，并发审批时只有一个能成功
func (r *RequestRepo) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.TravelRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RequestRepo) RejectPendingByTravel(ctx context.Context, travelID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.TravelRequest{}).
		Where("travel_id = ? AND status = ?", travelID, domain.RequestPending).
		Update("status", domain.RequestRejected)
	return res.RowsAffected, res.Error
}
