package repo

import (
	"context"

	"gorm.io/gorm"

	"carpool/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx), "id = ?", id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx), "username = ?", username)
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username))
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email))
}

func (r *UserRepo) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&domain.User{}).Where("phone_number = ?", phone))
}

var userSorts = map[string]string{
	"username":   "username",
	"created_at": "created_at",
	"email":      "email",
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter, p domain.Page) ([]domain.User, int64, error) {
	p = p.Normalize()
	q := r.db.WithContext(ctx).Model(&domain.User{})
	if f.Query != nil && *f.Query != "" {
		like := "%" + *f.Query + "%"
		q = q.Where("username LIKE ? OR email LIKE ? OR phone_number LIKE ?", like, like, like)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := q.Order(orderBy(p.Sort, userSorts, "created_at desc")).
		Offset(p.Offset).Limit(p.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
