package domain

import (
	"context"
	"time"
)

type Vehicle struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   string    `gorm:"index;size:36;not null" json:"ownerId"`
	Make      string    `gorm:"size:64;not null" json:"make" binding:"required,max=64"`
	Model     string    `gorm:"size:64;not null" json:"model" binding:"required,max=64"`
	Plate     string    `gorm:"uniqueIndex;size:32;not null" json:"plate" binding:"required,max=32"`
	Color     string    `gorm:"size:32" json:"color" binding:"omitempty,max=32"`
	Year      int       `json:"year" binding:"omitempty,min=1950,max=2100"`
	Capacity  int       `gorm:"not null;default:4" json:"capacity" binding:"omitempty,min=1,max=50"`
	IsDeleted bool      `gorm:"not null;default:false;index" json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Vehicle) TableName() string { return "vehicles" }

type VehicleRepository interface {
	FindByID(ctx context.Context, id string) (*Vehicle, error)
}
