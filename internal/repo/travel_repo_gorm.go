package repo

import (
	"context"

	"gorm.io/gorm"

	"carpool/internal/domain"
)

type TravelRepo struct{ db *gorm.DB }

func (r *TravelRepo) Create(ctx context.Context, t *domain.Travel) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TravelRepo) FindByID(ctx context.Context, id string) (*domain.Travel, error) {
	return first[domain.Travel](r.db.WithContext(ctx), "id = ?", id)
}

var travelSorts = map[string]string{
	"departure_time": "departure_time",
	"free_spots":     "free_spots",
	"created_at":     "created_at",
	"distance_km":    "distance_km",
}

func (r *TravelRepo) Search(ctx context.Context, f domain.TravelFilter, p domain.Page) ([]domain.Travel, int64, error) {
	p = p.Normalize()
	q := r.db.WithContext(ctx).Model(&domain.Travel{})
	if !f.WithDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	if f.DeparturePoint != nil {
		q = q.Where("departure_point LIKE ?", "%"+*f.DeparturePoint+"%")
	}
	if f.ArrivalPoint != nil {
		q = q.Where("arrival_point LIKE ?", "%"+*f.ArrivalPoint+"%")
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	if f.DepartureAfter != nil {
		q = q.Where("departure_time >= ?", *f.DepartureAfter)
	}
	if f.MinFreeSpots != nil {
		q = q.Where("free_spots >= ?", *f.MinFreeSpots)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Travel
	if err := q.Order(orderBy(p.Sort, travelSorts, "departure_time asc")).
		Offset(p.Offset).Limit(p.Limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *TravelRepo) Update(ctx context.Context, t *domain.Travel) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// 条件更新保证 free_spots 不会小于 0
func (r *TravelRepo) TakeSpot(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Travel{}).
		Where("id = ? AND free_spots > 0", id).
		Update("free_spots", gorm.Expr("free_spots - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TravelRepo) ReleaseSpot(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Travel{}).
		Where("id = ?", id).
		Update("free_spots", gorm.Expr("free_spots + 1")).Error
}

func (r *TravelRepo) ExistsByDriverAndStatus(ctx context.Context, driverID string, status domain.TravelStatus) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&domain.Travel{}).
		Where("driver_id = ? AND status = ? AND is_deleted = ?", driverID, status, false))
}

func (r *TravelRepo) ExistsActiveAsPassenger(ctx context.Context, passengerID string) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&domain.TravelRequest{}).
		Joins("JOIN travels ON travels.id = travel_requests.travel_id").
		Where("travel_requests.passenger_id = ? AND travel_requests.status = ? AND travels.status = ? AND travels.is_deleted = ?",
			passengerID, domain.RequestApproved, domain.TravelActive, false))
}

func (r *TravelRepo) CancelPlannedByDriver(ctx context.Context, driverID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Travel{}).
		Where("driver_id = ? AND status = ? AND is_deleted = ?", driverID, domain.TravelPlanned, false).
		Updates(map[string]any{"status": domain.TravelCanceled, "is_deleted": true, "hidden_by": driverID})
	return res.RowsAffected, res.Error
}

// 恢复可见性，状态保持 CANCELED；司机自己删除的不动
func (r *TravelRepo) RestoreCanceledByDriver(ctx context.Context, driverID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Travel{}).
		Where("driver_id = ? AND hidden_by = ? AND status = ? AND is_deleted = ?", driverID, driverID, domain.TravelCanceled, true).
		Updates(map[string]any{"is_deleted": false, "hidden_by": ""})
	return res.RowsAffected, res.Error
}
