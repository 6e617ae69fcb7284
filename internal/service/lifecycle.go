package service

import (
	"context"
	"fmt"

	"carpool/internal/core/events"
	"carpool/internal/domain"
)

// Block 管理员封禁；驾驶中的用户不能封禁
func (s *UserService) Block(ctx context.Context, userID string, editor *domain.User) (*domain.User, error) {
	return s.transition(ctx, "block", userID, editor, func(tx domain.Store, u *domain.User) error {
		if u.ID == editor.ID {
			return fmt.Errorf("cannot block yourself: %w", domain.ErrInvalidOperation)
		}
		if u.Status != domain.UserActive {
			return fmt.Errorf("user is %s: %w", u.Status, domain.ErrInvalidOperation)
		}
		driving, err := tx.Travels().ExistsByDriverAndStatus(ctx, u.ID, domain.TravelActive)
		if err != nil {
			return err
		}
		if driving {
			return domain.ErrActiveTravel
		}
		u.Status = domain.UserBlocked
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		return cascadeDown(ctx, tx, u.ID, s.log)
	})
}

func (s *UserService) Unblock(ctx context.Context, userID string, editor *domain.User) (*domain.User, error) {
	return s.transition(ctx, "unblock", userID, editor, func(tx domain.Store, u *domain.User) error {
		if u.Status != domain.UserBlocked {
			return fmt.Errorf("user is %s: %w", u.Status, domain.ErrInvalidOperation)
		}
		u.Status = domain.UserActive
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		return cascadeUp(ctx, tx, u.ID, s.log)
	})
}

// Delete 本人注销或管理员删除；司机或已获批乘客正在行程中时不允许
func (s *UserService) Delete(ctx context.Context, userID string, editor *domain.User) (*domain.User, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	if !editor.CanEdit(userID) {
		observe(lifecycleOps, "delete", domain.ErrAuthorization)
		return nil, domain.ErrAuthorization
	}
	var out *domain.User
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		u, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil || u.Status == domain.UserDeleted {
			return notFound("user", userID)
		}
		driving, err := tx.Travels().ExistsByDriverAndStatus(ctx, u.ID, domain.TravelActive)
		if err != nil {
			return err
		}
		riding, err := tx.Travels().ExistsActiveAsPassenger(ctx, u.ID)
		if err != nil {
			return err
		}
		if driving || riding {
			return domain.ErrActiveTravel
		}
		u.Status = domain.UserDeleted
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		out = u
		return cascadeDown(ctx, tx, u.ID, s.log)
	})
	observe(lifecycleOps, "delete", err)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.UserLifecycle, out.ID, editor.ID, map[string]any{"action": "delete", "status": out.Status})
	return out, nil
}

func (s *UserService) Restore(ctx context.Context, userID string, editor *domain.User) (*domain.User, error) {
	return s.transition(ctx, "restore", userID, editor, func(tx domain.Store, u *domain.User) error {
		if u.Status != domain.UserDeleted {
			return fmt.Errorf("user is %s: %w", u.Status, domain.ErrInvalidOperation)
		}
		u.Status = domain.UserActive
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		return cascadeUp(ctx, tx, u.ID, s.log)
	})
}

func (s *UserService) Upgrade(ctx context.Context, userID string, editor *domain.User) (*domain.User, error) {
	return s.transition(ctx, "upgrade", userID, editor, setRole(ctx, domain.RoleAdmin))
}

func (s *UserService) Downgrade(ctx context.Context, userID string, editor *domain.User) (*domain.User, error) {
	return s.transition(ctx, "downgrade", userID, editor, setRole(ctx, domain.RoleUser))
}

func setRole(ctx context.Context, role domain.Role) func(domain.Store, *domain.User) error {
	return func(tx domain.Store, u *domain.User) error {
		if u.Role == role {
			return fmt.Errorf("user is already %s: %w", role, domain.ErrInvalidOperation)
		}
		u.Role = role
		return tx.Users().Update(ctx, u)
	}
}

// transition 管理员操作的公共骨架：鉴权、取用户、单事务执行、计数、发事件
func (s *UserService) transition(ctx context.Context, op, userID string, editor *domain.User, fn func(tx domain.Store, u *domain.User) error) (*domain.User, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	if !editor.IsAdmin() {
		observe(lifecycleOps, op, domain.ErrAuthorization)
		return nil, fmt.Errorf("%s: %w", op, domain.ErrAuthorization)
	}
	var out *domain.User
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		u, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return notFound("user", userID)
		}
		if err := fn(tx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	observe(lifecycleOps, op, err)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.UserLifecycle, out.ID, editor.ID, map[string]any{"action": op, "status": out.Status, "role": out.Role})
	return out, nil
}
