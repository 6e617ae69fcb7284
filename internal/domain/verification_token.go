package domain

import (
	"context"
	"time"
)

const VerificationTokenTTL = time.Hour

type VerificationToken struct {
	ID        string    `gorm:"primaryKey;size:36" json:"-"`
	UserID    string    `gorm:"uniqueIndex;size:36;not null" json:"-"`
	Token     string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"-"`
	CreatedAt time.Time `json:"-"`
}

func (VerificationToken) TableName() string { return "verification_tokens" }

func (t *VerificationToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

type VerificationTokenRepository interface {
	// Replace 删除用户已有 token 后写入新 token
	Replace(ctx context.Context, t *VerificationToken) error
	FindByToken(ctx context.Context, token string) (*VerificationToken, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
