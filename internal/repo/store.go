package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"carpool/internal/domain"
)

type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// DB 供通用 CRUD 直接使用
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Users() domain.UserRepository             { return &UserRepo{db: s.db} }
func (s *Store) Vehicles() domain.VehicleRepository       { return &VehicleRepo{db: s.db} }
func (s *Store) Travels() domain.TravelRepository         { return &TravelRepo{db: s.db} }
func (s *Store) Requests() domain.TravelRequestRepository { return &RequestRepo{db: s.db} }
func (s *Store) Feedbacks() domain.FeedbackRepository     { return &FeedbackRepo{db: s.db} }
func (s *Store) Tokens() domain.VerificationTokenRepository {
	return &TokenRepo{db: s.db}
}

// Atomic 级联操作统一走一个事务（连接默认 SkipDefaultTransaction）
func (s *Store) Atomic(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Migrate() error { return s.db.AutoMigrate(domain.Models()...) }

// first 查不到返回 (nil, nil)
func first[T any](q *gorm.DB, conds ...any) (*T, error) {
	var m T
	err := q.First(&m, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// 排序白名单，防注入
func orderBy(sort string, allowed map[string]string, def string) string {
	s := strings.Fields(strings.ToLower(strings.TrimSpace(sort)))
	if len(s) == 0 {
		return def
	}
	col, ok := allowed[s[0]]
	if !ok {
		return def
	}
	dir := "asc"
	if len(s) > 1 && s[1] == "desc" {
		dir = "desc"
	}
	return fmt.Sprintf("%s %s", col, dir)
}
