package domain

import (
	"context"
	"time"
)

type Feedback struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	TravelID    string    `gorm:"index:idx_feedback_triple;size:36;not null" json:"travelId"`
	CreatorID   string    `gorm:"index:idx_feedback_triple;size:36;not null" json:"creatorId"`
	RecipientID string    `gorm:"index:idx_feedback_triple;index;size:36;not null" json:"recipientId"`
	Rating      int       `gorm:"not null" json:"rating"`
	Comment     string    `gorm:"size:1024" json:"comment,omitempty"`
	IsDeleted   bool      `gorm:"not null;default:false;index" json:"isDeleted"`
	HiddenBy    string    `gorm:"size:36;index" json:"-"` // 级联隐藏时记录是哪个用户导致的
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Feedback) TableName() string { return "feedbacks" }

const (
	MinRating = 1
	MaxRating = 5
)

type FeedbackRepository interface {
	Create(ctx context.Context, f *Feedback) error
	FindByID(ctx context.Context, id string) (*Feedback, error)
	// FindByTriple 包含已软删的记录
	FindByTriple(ctx context.Context, travelID, creatorID, recipientID string) (*Feedback, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]Feedback, error)
	Update(ctx context.Context, f *Feedback) error
	// SoftDeleteByUser 隐藏该用户相关的可见反馈并记下 HiddenBy
	SoftDeleteByUser(ctx context.Context, userID string) (int64, error)
	// RestoreByUser 只恢复因该用户隐藏且对方仍为 ACTIVE 的反馈；
	// 对方不可用时 HiddenBy 转给对方，等对方恢复时再显示
	RestoreByUser(ctx context.Context, userID string) (int64, error)
}
