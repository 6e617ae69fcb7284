package repo

import (
	"context"

	"gorm.io/gorm"

	"carpool/internal/domain"
)

// VehicleRepo 只读；增删改走 ez.Crud
type VehicleRepo struct{ db *gorm.DB }

func (r *VehicleRepo) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	return first[domain.Vehicle](r.db.WithContext(ctx), "id = ?", id)
}
