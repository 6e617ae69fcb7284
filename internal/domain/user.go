package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type UserStatus string

const (
	UserActive  UserStatus = "ACTIVE"
	UserBlocked UserStatus = "BLOCKED"
	UserDeleted UserStatus = "DELETED"
)

type User struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Username    string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	FirstName   string     `gorm:"size:64" json:"firstName"`
	LastName    string     `gorm:"size:64" json:"lastName"`
	Email       string     `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PhoneNumber string     `gorm:"uniqueIndex;size:32;not null" json:"phoneNumber"`
	Password    string     `gorm:"size:191;not null" json:"-"` // 按 auth.password_scheme 存储
	Role        Role       `gorm:"size:16;not null;default:USER" json:"role"`
	Status      UserStatus `gorm:"size:16;not null;default:ACTIVE;index" json:"status"`
	Validated   bool       `gorm:"not null;default:false" json:"validated"`
	AvatarURL   string     `gorm:"size:512" json:"avatarUrl,omitempty"`
	AvatarRef   string     `gorm:"size:191" json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool  { return u != nil && u.Role == RoleAdmin }
func (u *User) IsActive() bool { return u != nil && u.Status == UserActive }

// CanEdit 本人或管理员
func (u *User) CanEdit(ownerID string) bool {
	return u != nil && (u.ID == ownerID || u.IsAdmin())
}

// UserFilter 所有字段可空，nil 即忽略该条件
type UserFilter struct {
	Query  *string // username/email/phone 模糊匹配
	Status *UserStatus
	Role   *Role
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error)
	List(ctx context.Context, f UserFilter, p Page) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
}
