// Package events 发布领域事件（申请审批、用户封禁等），供通知类下游订阅。
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Event struct {
	Type       string         `json:"type"` // 同时作为 routing key，如 travel_request.approved
	EntityID   string         `json:"entityId"`
	ActorID    string         `json:"actorId,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

const (
	RequestCreated   = "travel_request.created"
	RequestApproved  = "travel_request.approved"
	RequestRejected  = "travel_request.rejected"
	RequestWithdrawn = "travel_request.withdrawn"
	TravelStatus     = "travel.status_changed"
	UserLifecycle    = "user.lifecycle"
	FeedbackCreated  = "feedback.created"
)

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitPublisher 发到 topic exchange
type RabbitPublisher struct {
	ch       channel
	exchange string
	close    func() error
}

func DialRabbit(url, exchange string, l *zap.Logger) (*RabbitPublisher, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		l.Warn("rabbitmq not ready, retrying", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{ch: ch, exchange: exchange, close: conn.Close}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, e.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}
