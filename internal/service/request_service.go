package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"carpool/internal/core/events"
	"carpool/internal/domain"
	"carpool/pkg/utils"
)

// RequestService 乘客搭车申请：创建 / 审批 / 拒绝 / 撤回
type RequestService struct {
	store domain.Store
	notifier
}

func NewRequestService(store domain.Store, pub events.Publisher, l *zap.Logger) *RequestService {
	return &RequestService{store: store, notifier: notifier{pub: pub, log: l}}
}

func (s *RequestService) Create(ctx context.Context, travelID string, passenger *domain.User) (*domain.TravelRequest, error) {
	if err := requireUser(passenger); err != nil {
		return nil, err
	}
	var out *domain.TravelRequest
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		t, err := tx.Travels().FindByID(ctx, travelID)
		if err != nil {
			return err
		}
		if t == nil || t.IsDeleted {
			return notFound("travel", travelID)
		}
		if !t.Status.Open() {
			return fmt.Errorf("travel is %s: %w", t.Status, domain.ErrInvalidOperation)
		}
		if t.DriverID == passenger.ID {
			return fmt.Errorf("driver cannot join own travel: %w", domain.ErrInvalidOperation)
		}
		if t.FreeSpots <= 0 {
			return domain.ErrVehicleIsFull
		}
		dup, err := tx.Requests().ExistsActive(ctx, travelID, passenger.ID)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("request already exists: %w", domain.ErrDuplicateEntity)
		}
		out = &domain.TravelRequest{
			ID:          utils.NewID(),
			TravelID:    travelID,
			PassengerID: passenger.ID,
			Status:      domain.RequestPending,
		}
		return tx.Requests().Create(ctx, out)
	})
	observe(requestOps, "create", err)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.RequestCreated, out.ID, passenger.ID, map[string]any{"travelId": travelID})
	return out, nil
}

func (s *RequestService) Approve(ctx context.Context, requestID string, editor *domain.User) (*domain.TravelRequest, error) {
	req, err := s.decide(ctx, requestID, editor, domain.RequestApproved)
	observe(requestOps, "approve", err)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.RequestApproved, req.ID, editor.ID, map[string]any{"travelId": req.TravelID, "passengerId": req.PassengerID})
	return req, nil
}

func (s *RequestService) Reject(ctx context.Context, requestID string, editor *domain.User) (*domain.TravelRequest, error) {
	req, err := s.decide(ctx, requestID, editor, domain.RequestRejected)
	observe(requestOps, "reject", err)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.RequestRejected, req.ID, editor.ID, map[string]any{"travelId": req.TravelID, "passengerId": req.PassengerID})
	return req, nil
}

// decide 司机处理 PENDING 申请；批准时扣减座位
func (s *RequestService) decide(ctx context.Context, requestID string, editor *domain.User, to domain.RequestStatus) (*domain.TravelRequest, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	var out *domain.TravelRequest
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		req, err := tx.Requests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return notFound("travel request", requestID)
		}
		t, err := tx.Travels().FindByID(ctx, req.TravelID)
		if err != nil {
			return err
		}
		if t == nil {
			return notFound("travel", req.TravelID)
		}
		if t.DriverID != editor.ID {
			return fmt.Errorf("only the driver can decide on requests: %w", domain.ErrAuthorization)
		}
		if req.Status != domain.RequestPending {
			return fmt.Errorf("request is %s: %w", req.Status, domain.ErrInvalidOperation)
		}
		if to == domain.RequestApproved && (t.IsDeleted || !t.Status.Open()) {
			return fmt.Errorf("travel is %s: %w", t.Status, domain.ErrInvalidOperation)
		}
		if err := moveRequest(ctx, tx, req, to); err != nil {
			return err
		}
		if to == domain.RequestApproved {
			ok, err := tx.Travels().TakeSpot(ctx, t.ID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrVehicleIsFull
			}
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Withdraw 乘客本人或管理员撤回；已批准的归还座位
func (s *RequestService) Withdraw(ctx context.Context, requestID string, editor *domain.User) (*domain.TravelRequest, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	var out *domain.TravelRequest
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		req, err := tx.Requests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return notFound("travel request", requestID)
		}
		if !editor.CanEdit(req.PassengerID) {
			return fmt.Errorf("only the passenger can withdraw: %w", domain.ErrAuthorization)
		}
		if !req.Status.Active() {
			return fmt.Errorf("request is %s: %w", req.Status, domain.ErrInvalidOperation)
		}
		approved := req.Status == domain.RequestApproved
		if approved {
			// 行程结束或取消后座位和同行记录都不能再变
			t, err := tx.Travels().FindByID(ctx, req.TravelID)
			if err != nil {
				return err
			}
			if t == nil {
				return notFound("travel", req.TravelID)
			}
			if !t.Status.Open() {
				return fmt.Errorf("travel is %s: %w", t.Status, domain.ErrInvalidOperation)
			}
		}
		if err := moveRequest(ctx, tx, req, domain.RequestWithdrawn); err != nil {
			return err
		}
		if approved {
			if err := tx.Travels().ReleaseSpot(ctx, req.TravelID); err != nil {
				return err
			}
		}
		out = req
		return nil
	})
	observe(requestOps, "withdraw", err)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.RequestWithdrawn, out.ID, editor.ID, map[string]any{"travelId": out.TravelID})
	return out, nil
}

// moveRequest 以读到的状态为条件更新，被并发改动时报 ErrInvalidOperation
func moveRequest(ctx context.Context, tx domain.Store, req *domain.TravelRequest, to domain.RequestStatus) error {
	ok, err := tx.Requests().UpdateStatus(ctx, req.ID, req.Status, to)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("request %s changed concurrently: %w", req.ID, domain.ErrInvalidOperation)
	}
	req.Status = to
	return nil
}

// ListByTravel 司机或管理员查看某行程的申请
func (s *RequestService) ListByTravel(ctx context.Context, travelID string, editor *domain.User) ([]domain.TravelRequest, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	t, err := s.store.Travels().FindByID(ctx, travelID)
	if err != nil {
		return nil, err
	}
	if t == nil || (t.IsDeleted && !editor.IsAdmin()) {
		return nil, notFound("travel", travelID)
	}
	if !editor.CanEdit(t.DriverID) {
		return nil, domain.ErrAuthorization
	}
	return s.store.Requests().ListByTravel(ctx, travelID)
}

func (s *RequestService) ListMine(ctx context.Context, editor *domain.User) ([]domain.TravelRequest, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	return s.store.Requests().ListByPassenger(ctx, editor.ID)
}
