package repo

import (
	"context"

	"gorm.io/gorm"

	"carpool/internal/domain"
)

type FeedbackRepo struct{ db *gorm.DB }

func (r *FeedbackRepo) Create(ctx context.Context, f *domain.Feedback) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FeedbackRepo) FindByID(ctx context.Context, id string) (*domain.Feedback, error) {
	return first[domain.Feedback](r.db.WithContext(ctx), "id = ?", id)
}

func (r *FeedbackRepo) FindByTriple(ctx context.Context, travelID, creatorID, recipientID string) (*domain.Feedback, error) {
	return first[domain.Feedback](r.db.WithContext(ctx),
		"travel_id = ? AND creator_id = ? AND recipient_id = ?", travelID, creatorID, recipientID)
}

func (r *FeedbackRepo) ListByRecipient(ctx context.Context, recipientID string) ([]domain.Feedback, error) {
	var out []domain.Feedback
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND is_deleted = ?", recipientID, false).
		Order("created_at desc").Find(&out).Error
	return out, err
}

func (r *FeedbackRepo) Update(ctx context.Context, f *domain.Feedback) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *FeedbackRepo) SoftDeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Feedback{}).
		Where("(creator_id = ? OR recipient_id = ?) AND is_deleted = ?", userID, userID, false).
		Updates(map[string]any{"is_deleted": true, "hidden_by": userID})
	return res.RowsAffected, res.Error
}

func (r *FeedbackRepo) RestoreByUser(ctx context.Context, userID string) (int64, error) {
	db := r.db.WithContext(ctx)
	active := r.db.Model(&domain.User{}).Select("id").Where("status = ?", domain.UserActive)
	res := db.Model(&domain.Feedback{}).
		Where("hidden_by = ? AND is_deleted = ?", userID, true).
		Where("(creator_id = ? AND recipient_id IN (?)) OR (recipient_id = ? AND creator_id IN (?))",
			userID, active, userID, active).
		Updates(map[string]any{"is_deleted": false, "hidden_by": ""})
	if res.Error != nil {
		return 0, res.Error
	}
	// 剩下的是对方不可用的，改由对方恢复时处理
	err := db.Model(&domain.Feedback{}).
		Where("hidden_by = ? AND is_deleted = ?", userID, true).
		Update("hidden_by", gorm.Expr("CASE WHEN creator_id = ? THEN recipient_id ELSE creator_id END", userID)).Error
	return res.RowsAffected, err
}
