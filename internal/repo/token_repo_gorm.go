package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"carpool/internal/domain"
)

type TokenRepo struct{ db *gorm.DB }

func (r *TokenRepo) Replace(ctx context.Context, t *domain.VerificationToken) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", t.UserID).Delete(&domain.VerificationToken{}).Error; err != nil {
		return err
	}
	return db.Create(t).Error
}

func (r *TokenRepo) FindByToken(ctx context.Context, token string) (*domain.VerificationToken, error) {
	return first[domain.VerificationToken](r.db.WithContext(ctx), "token = ?", token)
}

func (r *TokenRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.VerificationToken{}).Error
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.VerificationToken{})
	return res.RowsAffected, res.Error
}
