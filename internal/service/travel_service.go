package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"carpool/internal/core/events"
	"carpool/internal/core/geo"
	"carpool/internal/domain"
	"carpool/pkg/utils"
)

// RoutePlanner 解析起终点并估算里程，未配置地图服务时为 nil
type RoutePlanner interface {
	Route(ctx context.Context, from, to string) (*geo.Route, error)
}

type TravelInput struct {
	VehicleID      string    `json:"vehicleId" binding:"required"`
	DeparturePoint string    `json:"departurePoint" binding:"required,max=191"`
	ArrivalPoint   string    `json:"arrivalPoint" binding:"required,max=191"`
	DepartureTime  time.Time `json:"departureTime" binding:"required"`
	FreeSpots      int       `json:"freeSpots"`
	Comment        string    `json:"comment" binding:"max=512"`
}

type TravelPatch struct {
	DeparturePoint *string    `json:"departurePoint" binding:"omitempty,max=191"`
	ArrivalPoint   *string    `json:"arrivalPoint" binding:"omitempty,max=191"`
	DepartureTime  *time.Time `json:"departureTime"`
	FreeSpots      *int       `json:"freeSpots"`
	Comment        *string    `json:"comment" binding:"omitempty,max=512"`
}

type TravelService struct {
	store  domain.Store
	routes RoutePlanner
	now    func() time.Time
	notifier
}

func NewTravelService(store domain.Store, routes RoutePlanner, pub events.Publisher, l *zap.Logger) *TravelService {
	return &TravelService{store: store, routes: routes, now: time.Now, notifier: notifier{pub: pub, log: l}}
}

func (s *TravelService) Create(ctx context.Context, in TravelInput, driver *domain.User) (*domain.Travel, error) {
	if err := requireUser(driver); err != nil {
		return nil, err
	}
	v, err := s.store.Vehicles().FindByID(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if v == nil || v.IsDeleted {
		return nil, notFound("vehicle", in.VehicleID)
	}
	if v.OwnerID != driver.ID {
		return nil, fmt.Errorf("vehicle belongs to someone else: %w", domain.ErrAuthorization)
	}
	if in.FreeSpots < 1 || in.FreeSpots > v.Capacity {
		return nil, fmt.Errorf("%w: free spots must be between 1 and %d", domain.ErrInvalidTravel, v.Capacity)
	}
	if err := s.checkRoute(in.DeparturePoint, in.ArrivalPoint, in.DepartureTime); err != nil {
		return nil, err
	}
	t := &domain.Travel{
		ID:             utils.NewID(),
		DriverID:       driver.ID,
		VehicleID:      v.ID,
		DeparturePoint: strings.TrimSpace(in.DeparturePoint),
		ArrivalPoint:   strings.TrimSpace(in.ArrivalPoint),
		DepartureTime:  in.DepartureTime,
		FreeSpots:      in.FreeSpots,
		Comment:        in.Comment,
		Status:         domain.TravelPlanned,
	}
	if err := s.locate(ctx, t); err != nil {
		return nil, err
	}
	err = s.store.Travels().Create(ctx, t)
	observe(travelOps, "create", err)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TravelService) Get(ctx context.Context, id string, viewer *domain.User) (*domain.Travel, error) {
	t, err := s.store.Travels().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || (t.IsDeleted && !viewer.IsAdmin()) {
		return nil, notFound("travel", id)
	}
	return t, nil
}

// Search 非管理员看不到已删除的行程
func (s *TravelService) Search(ctx context.Context, f domain.TravelFilter, p domain.Page, viewer *domain.User) ([]domain.Travel, int64, error) {
	if !viewer.IsAdmin() {
		f.WithDeleted = false
	}
	return s.store.Travels().Search(ctx, f, p.Normalize())
}

// Update 仅 PLANNED 可改；座位数不能少于已批准的乘客
func (s *TravelService) Update(ctx context.Context, id string, in TravelPatch, editor *domain.User) (*domain.Travel, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	var out *domain.Travel
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		t, err := s.editable(ctx, tx, id, editor)
		if err != nil {
			return err
		}
		if t.Status != domain.TravelPlanned {
			return fmt.Errorf("travel is %s: %w", t.Status, domain.ErrInvalidOperation)
		}
		rerouted := false
		if in.DeparturePoint != nil && strings.TrimSpace(*in.DeparturePoint) != t.DeparturePoint {
			t.DeparturePoint = strings.TrimSpace(*in.DeparturePoint)
			rerouted = true
		}
		if in.ArrivalPoint != nil && strings.TrimSpace(*in.ArrivalPoint) != t.ArrivalPoint {
			t.ArrivalPoint = strings.TrimSpace(*in.ArrivalPoint)
			rerouted = true
		}
		if in.DepartureTime != nil {
			t.DepartureTime = *in.DepartureTime
		}
		if in.Comment != nil {
			t.Comment = *in.Comment
		}
		if in.FreeSpots != nil {
			if err := s.checkSpots(ctx, tx, t, *in.FreeSpots); err != nil {
				return err
			}
			t.FreeSpots = *in.FreeSpots
		}
		if err := s.checkRoute(t.DeparturePoint, t.ArrivalPoint, t.DepartureTime); err != nil {
			return err
		}
		if rerouted {
			if err := s.locate(ctx, t); err != nil {
				return err
			}
		}
		out = t
		return tx.Travels().Update(ctx, t)
	})
	observe(travelOps, "update", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TravelService) checkSpots(ctx context.Context, tx domain.Store, t *domain.Travel, spots int) error {
	v, err := tx.Vehicles().FindByID(ctx, t.VehicleID)
	if err != nil {
		return err
	}
	if v == nil {
		return notFound("vehicle", t.VehicleID)
	}
	reqs, err := tx.Requests().ListByTravel(ctx, t.ID)
	if err != nil {
		return err
	}
	approved := 0
	for _, r := range reqs {
		if r.Status == domain.RequestApproved {
			approved++
		}
	}
	if spots < 0 || spots+approved > v.Capacity {
		return fmt.Errorf("%w: %d approved passengers, capacity %d", domain.ErrInvalidTravel, approved, v.Capacity)
	}
	return nil
}

// Delete 软删除；未出发的同时取消，进行中的不允许删除
func (s *TravelService) Delete(ctx context.Context, id string, editor *domain.User) error {
	if err := requireUser(editor); err != nil {
		return err
	}
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		t, err := s.editable(ctx, tx, id, editor)
		if err != nil {
			return err
		}
		if t.Status == domain.TravelActive {
			return domain.ErrActiveTravel
		}
		if t.Status == domain.TravelPlanned {
			t.Status = domain.TravelCanceled
		}
		t.IsDeleted = true
		if _, err := tx.Requests().RejectPendingByTravel(ctx, t.ID); err != nil {
			return err
		}
		return tx.Travels().Update(ctx, t)
	})
	observe(travelOps, "delete", err)
	return err
}

func (s *TravelService) Start(ctx context.Context, id string, editor *domain.User) (*domain.Travel, error) {
	return s.move(ctx, "start", id, editor, false, domain.TravelActive, domain.TravelPlanned)
}

func (s *TravelService) Complete(ctx context.Context, id string, editor *domain.User) (*domain.Travel, error) {
	return s.move(ctx, "complete", id, editor, false, domain.TravelCompleted, domain.TravelActive)
}

// Cancel 司机或管理员取消，待处理的申请一并拒绝
func (s *TravelService) Cancel(ctx context.Context, id string, editor *domain.User) (*domain.Travel, error) {
	return s.move(ctx, "cancel", id, editor, true, domain.TravelCanceled, domain.TravelPlanned, domain.TravelActive)
}

func (s *TravelService) move(ctx context.Context, op, id string, editor *domain.User, adminOK bool, to domain.TravelStatus, from ...domain.TravelStatus) (*domain.Travel, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	var out *domain.Travel
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		t, err := tx.Travels().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if t == nil || t.IsDeleted {
			return notFound("travel", id)
		}
		if t.DriverID != editor.ID && !(adminOK && editor.IsAdmin()) {
			return domain.ErrAuthorization
		}
		allowed := false
		for _, f := range from {
			allowed = allowed || t.Status == f
		}
		if !allowed {
			return fmt.Errorf("cannot %s a %s travel: %w", op, t.Status, domain.ErrInvalidOperation)
		}
		t.Status = to
		if to == domain.TravelCanceled {
			if _, err := tx.Requests().RejectPendingByTravel(ctx, t.ID); err != nil {
				return err
			}
		}
		out = t
		return tx.Travels().Update(ctx, t)
	})
	observe(travelOps, op, err)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TravelStatus, out.ID, editor.ID, map[string]any{"status": out.Status})
	return out, nil
}

// editable 司机本人或管理员
func (s *TravelService) editable(ctx context.Context, tx domain.Store, id string, editor *domain.User) (*domain.Travel, error) {
	t, err := tx.Travels().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.IsDeleted {
		return nil, notFound("travel", id)
	}
	if !editor.CanEdit(t.DriverID) {
		return nil, domain.ErrAuthorization
	}
	return t, nil
}

func (s *TravelService) checkRoute(from, to string, departure time.Time) error {
	if strings.EqualFold(strings.TrimSpace(from), strings.TrimSpace(to)) {
		return fmt.Errorf("%w: departure and arrival are the same", domain.ErrInvalidTravel)
	}
	if !departure.After(s.now()) {
		return fmt.Errorf("%w: departure time must be in the future", domain.ErrInvalidTravel)
	}
	return nil
}

func (s *TravelService) locate(ctx context.Context, t *domain.Travel) error {
	if s.routes == nil {
		return nil
	}
	r, err := s.routes.Route(ctx, t.DeparturePoint, t.ArrivalPoint)
	if err != nil {
		return err
	}
	t.DepartureLat, t.DepartureLng = &r.From.Lat, &r.From.Lng
	t.ArrivalLat, t.ArrivalLng = &r.To.Lat, &r.To.Lng
	t.DistanceKm, t.DurationMin = r.DistanceKm, r.DurationMin
	return nil
}
