package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"carpool/internal/core/auth"
	"carpool/internal/core/events"
	"carpool/internal/core/imagehost"
	"carpool/internal/domain"
	"carpool/pkg/utils"
)

type TokenIssuer interface {
	Issue(uid string, role domain.Role) (string, error)
}

type ImageHost interface {
	Upload(ctx context.Context, ownerID string, data []byte) (secureURL, ref string, err error)
	Destroy(ctx context.Context, ref string) error
}

type RegisterInput struct {
	Username        string `json:"username" binding:"required,min=3,max=64"`
	FirstName       string `json:"firstName" binding:"required,max=64"`
	LastName        string `json:"lastName" binding:"required,max=64"`
	Email           string `json:"email" binding:"required,email,max=191"`
	PhoneNumber     string `json:"phoneNumber" binding:"required,min=5,max=32"`
	Password        string `json:"password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type ProfileInput struct {
	FirstName   *string `json:"firstName" binding:"omitempty,max=64"`
	LastName    *string `json:"lastName" binding:"omitempty,max=64"`
	Email       *string `json:"email" binding:"omitempty,email,max=191"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,min=5,max=32"`
}

type PasswordInput struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type UserService struct {
	store  domain.Store
	scheme auth.PasswordScheme
	tokens TokenIssuer
	verify *VerificationService
	images ImageHost
	notifier
}

type UserDeps struct {
	Store  domain.Store
	Scheme auth.PasswordScheme
	Tokens TokenIssuer
	Verify *VerificationService // 可为 nil：注册后不发验证邮件
	Images ImageHost
	Events events.Publisher
	Log    *zap.Logger
}

func NewUserService(d UserDeps) *UserService {
	if d.Images == nil {
		d.Images = imagehost.Disabled{}
	}
	return &UserService{
		store:    d.Store,
		scheme:   d.Scheme,
		tokens:   d.Tokens,
		verify:   d.Verify,
		images:   d.Images,
		notifier: notifier{pub: d.Events, log: d.Log},
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	users := s.store.Users()
	if ok, err := users.ExistsByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if ok {
		return nil, domain.ErrDuplicateUsername
	}
	if ok, err := users.ExistsByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if ok {
		return nil, domain.ErrDuplicateEmail
	}
	if ok, err := users.ExistsByPhoneNumber(ctx, in.PhoneNumber); err != nil {
		return nil, err
	} else if ok {
		return nil, domain.ErrDuplicatePhoneNumber
	}
	hash, err := s.scheme.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:          utils.NewID(),
		Username:    in.Username,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Password:    hash,
		Role:        domain.RoleUser,
		Status:      domain.UserActive,
	}
	if err := users.Create(ctx, u); err != nil {
		if isDupKey(err) {
			return nil, fmt.Errorf("register %s: %w", u.Username, domain.ErrDuplicateEntity)
		}
		return nil, err
	}
	if s.verify != nil {
		// 邮件失败不影响注册，可通过 resend 重发
		if err := s.verify.Issue(ctx, u); err != nil {
			s.log.Warn("issue verification token failed", zap.String("user", u.ID), zap.Error(err))
		}
	}
	return u, nil
}

// Authenticate 用户名 + 密码；被封禁或删除的账号一律视为认证失败
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !s.scheme.Verify(password, u.Password) {
		return nil, domain.ErrAuthenticationFailure
	}
	if !u.IsActive() {
		return nil, fmt.Errorf("account %s: %w", u.Status, domain.ErrAuthenticationFailure)
	}
	return u, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: tok, User: u}, nil
}

// Principal 按 JWT 中的 uid 取当前用户
func (s *UserService) Principal(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, domain.ErrAuthenticationFailure
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string, viewer *domain.User) (*domain.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || (u.Status == domain.UserDeleted && !viewer.IsAdmin()) {
		return nil, notFound("user", id)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, f domain.UserFilter, p domain.Page, editor *domain.User) ([]domain.User, int64, error) {
	if !editor.IsAdmin() {
		return nil, 0, domain.ErrAuthorization
	}
	return s.store.Users().List(ctx, f, p.Normalize())
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileInput, editor *domain.User) (*domain.User, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	if !editor.CanEdit(id) {
		return nil, domain.ErrAuthorization
	}
	var out *domain.User
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		u, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil || u.Status == domain.UserDeleted {
			return notFound("user", id)
		}
		if in.FirstName != nil {
			u.FirstName = *in.FirstName
		}
		if in.LastName != nil {
			u.LastName = *in.LastName
		}
		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			if email != u.Email {
				if ok, err := tx.Users().ExistsByEmail(ctx, email); err != nil {
					return err
				} else if ok {
					return domain.ErrDuplicateEmail
				}
				u.Email = email
				u.Validated = false
			}
		}
		if in.PhoneNumber != nil && *in.PhoneNumber != u.PhoneNumber {
			if ok, err := tx.Users().ExistsByPhoneNumber(ctx, *in.PhoneNumber); err != nil {
				return err
			} else if ok {
				return domain.ErrDuplicatePhoneNumber
			}
			u.PhoneNumber = *in.PhoneNumber
		}
		out = u
		return tx.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChangePassword 只能改自己的密码（管理员也不行）
func (s *UserService) ChangePassword(ctx context.Context, id string, in PasswordInput, editor *domain.User) error {
	if err := requireUser(editor); err != nil {
		return err
	}
	if editor.ID != id {
		return domain.ErrAuthorization
	}
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return notFound("user", id)
	}
	if !s.scheme.Verify(in.OldPassword, u.Password) {
		return domain.ErrWrongPassword
	}
	if in.NewPassword != in.ConfirmPassword {
		return domain.ErrPasswordMismatch
	}
	hash, err := s.scheme.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.Password = hash
	return s.store.Users().Update(ctx, u)
}

func (s *UserService) UploadAvatar(ctx context.Context, id string, data []byte, editor *domain.User) (*domain.User, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	if !editor.CanEdit(id) {
		return nil, domain.ErrAuthorization
	}
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Status == domain.UserDeleted {
		return nil, notFound("user", id)
	}
	url, ref, err := s.images.Upload(ctx, u.ID, data)
	if err != nil {
		return nil, err
	}
	if u.AvatarRef != "" && u.AvatarRef != ref {
		if err := s.images.Destroy(ctx, u.AvatarRef); err != nil {
			s.log.Warn("destroy old avatar failed", zap.String("ref", u.AvatarRef), zap.Error(err))
		}
	}
	u.AvatarURL, u.AvatarRef = url, ref
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
