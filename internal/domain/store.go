package domain

import "context"

type Page struct {
	Offset int
	Limit  int
	Sort   string // 形如 "departure_time asc"
}

// Normalize limit 默认 20，上限 100
func (p Page) Normalize() Page {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Store 聚合所有仓储；Atomic 内的 Store 绑定同一个事务
type Store interface {
	Users() UserRepository
	Vehicles() VehicleRepository
	Travels() TravelRepository
	Requests() TravelRequestRepository
	Feedbacks() FeedbackRepository
	Tokens() VerificationTokenRepository
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

// 所有实体，供 AutoMigrate 使用
func Models() []any {
	return []any{&User{}, &Vehicle{}, &Travel{}, &TravelRequest{}, &Feedback{}, &VerificationToken{}}
}
