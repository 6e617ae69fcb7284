// Package service 业务规则：行程申请流程、用户生命周期级联、反馈资格校验等。
//
// 所有写操作都通过 domain.Store.Atomic 在单个事务里完成；
// 领域事件在事务提交后发布，发布失败只记录日志。
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"carpool/internal/core/events"
	"carpool/internal/domain"
)

func requireUser(u *domain.User) error {
	if u == nil {
		return domain.ErrAuthenticationFailure
	}
	return nil
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, domain.ErrEntityNotFound)
}

type notifier struct {
	pub events.Publisher
	log *zap.Logger
}

func (n notifier) emit(ctx context.Context, typ, entityID, actorID string, payload map[string]any) {
	if n.pub == nil {
		return
	}
	e := events.Event{Type: typ, EntityID: entityID, ActorID: actorID, Payload: payload, OccurredAt: time.Now()}
	if err := n.pub.Publish(ctx, e); err != nil {
		n.log.Warn("publish event failed", zap.String("type", typ), zap.String("entity", entityID), zap.Error(err))
	}
}

// 唯一约束冲突（并发注册时兜底）
func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
