package service

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"carpool/internal/core/mailer"
	"carpool/internal/domain"
	"carpool/pkg/utils"
)

// VerificationService 邮箱验证：一人一个令牌，1 小时过期，一次性
type VerificationService struct {
	store   domain.Store
	mail    mailer.Sender
	baseURL string
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewVerificationService(store domain.Store, mail mailer.Sender, baseURL string, ttl time.Duration, l *zap.Logger) *VerificationService {
	if ttl <= 0 {
		ttl = domain.VerificationTokenTTL
	}
	return &VerificationService{
		store:   store,
		mail:    mail,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
		log:     l,
	}
}

// Issue 生成新令牌（覆盖旧的）并发送验证邮件
func (s *VerificationService) Issue(ctx context.Context, u *domain.User) error {
	now := s.now()
	t := &domain.VerificationToken{
		ID:        utils.NewID(),
		UserID:    u.ID,
		Token:     utils.NewID(),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Tokens().Replace(ctx, t); err != nil {
		return err
	}
	link := s.baseURL + "/verification/validate?token=" + url.QueryEscape(t.Token)
	body := fmt.Sprintf(`<p>Hi %s,</p><p>Please confirm your e-mail address within %d minutes:</p><p><a href="%s">%s</a></p>`,
		html.EscapeString(u.FirstName), int(s.ttl.Minutes()), link, link)
	if err := s.mail.SendHTML([]string{u.Email}, "Confirm your carpool account", body); err != nil {
		return fmt.Errorf("send verification mail to %s: %w", u.Email, err)
	}
	return nil
}

// Resend 当前用户重新获取验证邮件
func (s *VerificationService) Resend(ctx context.Context, u *domain.User) error {
	if err := requireUser(u); err != nil {
		return err
	}
	if u.Validated {
		return fmt.Errorf("account already validated: %w", domain.ErrInvalidOperation)
	}
	return s.Issue(ctx, u)
}

// Validate 令牌有效则标记用户已验证；过期令牌同样删除
func (s *VerificationService) Validate(ctx context.Context, token string) (*domain.User, error) {
	t, err := s.store.Tokens().FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound("verification token", "")
	}
	if t.Expired(s.now()) {
		if err := s.store.Tokens().Delete(ctx, t.ID); err != nil {
			return nil, err
		}
		return nil, domain.ErrTokenExpired
	}
	var out *domain.User
	err = s.store.Atomic(ctx, func(tx domain.Store) error {
		u, err := tx.Users().FindByID(ctx, t.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return notFound("user", t.UserID)
		}
		u.Validated = true
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		out = u
		return tx.Tokens().Delete(ctx, t.ID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VerificationService) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.Tokens().DeleteExpired(ctx, s.now())
}

// RunSweeper 定时清理过期令牌，ctx 取消后退出
func (s *VerificationService) RunSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Hour
	}
	tk := time.NewTicker(every)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				s.log.Warn("sweep verification tokens failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("expired verification tokens removed", zap.Int64("count", n))
			}
		}
	}
}
