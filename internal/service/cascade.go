package service

import (
	"context"

	"go.uber.org/zap"

	"carpool/internal/domain"
)

// cascadeDown 封禁/删除：隐藏该用户相关的反馈，取消其未出发的行程
func cascadeDown(ctx context.Context, tx domain.Store, userID string, l *zap.Logger) error {
	fb, err := tx.Feedbacks().SoftDeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	tr, err := tx.Travels().CancelPlannedByDriver(ctx, userID)
	if err != nil {
		return err
	}
	l.Info("cascade down", zap.String("user", userID), zap.Int64("feedbacks", fb), zap.Int64("travels", tr))
	return nil
}

// cascadeUp 解封/恢复：对方仍为 ACTIVE 的反馈恢复可见；被取消的行程恢复可见但状态保持 CANCELED
func cascadeUp(ctx context.Context, tx domain.Store, userID string, l *zap.Logger) error {
	fb, err := tx.Feedbacks().RestoreByUser(ctx, userID)
	if err != nil {
		return err
	}
	tr, err := tx.Travels().RestoreCanceledByDriver(ctx, userID)
	if err != nil {
		return err
	}
	l.Info("cascade up", zap.String("user", userID), zap.Int64("feedbacks", fb), zap.Int64("travels", tr))
	return nil
}
