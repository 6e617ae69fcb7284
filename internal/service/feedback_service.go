package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"carpool/internal/core/events"
	"carpool/internal/domain"
	"carpool/pkg/utils"
)

type FeedbackInput struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment" binding:"max=1024"`
}

type FeedbackPatch struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment" binding:"omitempty,max=1024"`
}

type ReceivedFeedback struct {
	Items   []domain.Feedback `json:"items"`
	Average float64           `json:"average"`
	Count   int               `json:"count"`
}

type FeedbackService struct {
	store domain.Store
	notifier
}

func NewFeedbackService(store domain.Store, pub events.Publisher, l *zap.Logger) *FeedbackService {
	return &FeedbackService{store: store, notifier: notifier{pub: pub, log: l}}
}

// Create 行程结束后，同车的司机与乘客可互评，每个 (行程, 评价人, 被评人) 仅一次
func (s *FeedbackService) Create(ctx context.Context, travelID string, creator *domain.User, in FeedbackInput) (*domain.Feedback, error) {
	if err := requireUser(creator); err != nil {
		return nil, err
	}
	var out *domain.Feedback
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		t, err := tx.Travels().FindByID(ctx, travelID)
		if err != nil {
			return err
		}
		if t == nil || t.IsDeleted {
			return notFound("travel", travelID)
		}
		if in.RecipientID == creator.ID {
			return notFound("recipient", in.RecipientID)
		}
		r, err := tx.Users().FindByID(ctx, in.RecipientID)
		if err != nil {
			return err
		}
		if r == nil || r.Status == domain.UserDeleted {
			return notFound("recipient", in.RecipientID)
		}
		if t.Status != domain.TravelCompleted {
			return domain.ErrTravelNotCompleted
		}
		if err := checkRating(in.Rating); err != nil {
			return err
		}
		prev, err := tx.Feedbacks().FindByTriple(ctx, t.ID, creator.ID, r.ID)
		if err != nil {
			return err
		}
		if prev != nil {
			return fmt.Errorf("%w: feedback already given", domain.ErrInvalidFeedback)
		}
		together, err := haveTravelledTogether(ctx, tx, t, creator.ID, r.ID)
		if err != nil {
			return err
		}
		if !together {
			return fmt.Errorf("%w: users did not travel together", domain.ErrInvalidFeedback)
		}
		out = &domain.Feedback{
			ID:          utils.NewID(),
			TravelID:    t.ID,
			CreatorID:   creator.ID,
			RecipientID: r.ID,
			Rating:      in.Rating,
			Comment:     in.Comment,
		}
		return tx.Feedbacks().Create(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.FeedbackCreated, out.ID, creator.ID, map[string]any{"recipientId": out.RecipientID, "rating": out.Rating})
	return out, nil
}

// HaveTravelledTogether 一方是司机、另一方在该行程有 APPROVED 申请；与参数顺序无关
func (s *FeedbackService) HaveTravelledTogether(ctx context.Context, travelID, a, b string) (bool, error) {
	t, err := s.store.Travels().FindByID(ctx, travelID)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, notFound("travel", travelID)
	}
	return haveTravelledTogether(ctx, s.store, t, a, b)
}

func haveTravelledTogether(ctx context.Context, st domain.Store, t *domain.Travel, a, b string) (bool, error) {
	if a == b {
		return false, nil
	}
	var passenger string
	switch t.DriverID {
	case a:
		passenger = b
	case b:
		passenger = a
	default:
		return false, nil
	}
	return st.Requests().ExistsWithStatus(ctx, t.ID, passenger, domain.RequestApproved)
}

func (s *FeedbackService) Update(ctx context.Context, id string, in FeedbackPatch, editor *domain.User) (*domain.Feedback, error) {
	if err := requireUser(editor); err != nil {
		return nil, err
	}
	f, err := s.live(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.CreatorID != editor.ID {
		return nil, domain.ErrAuthorization
	}
	if in.Rating != nil {
		if err := checkRating(*in.Rating); err != nil {
			return nil, err
		}
		f.Rating = *in.Rating
	}
	if in.Comment != nil {
		f.Comment = *in.Comment
	}
	if err := s.store.Feedbacks().Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FeedbackService) Delete(ctx context.Context, id string, editor *domain.User) error {
	if err := requireUser(editor); err != nil {
		return err
	}
	f, err := s.live(ctx, id)
	if err != nil {
		return err
	}
	if !editor.CanEdit(f.CreatorID) {
		return domain.ErrAuthorization
	}
	f.IsDeleted = true
	return s.store.Feedbacks().Update(ctx, f)
}

// ListReceived 用户收到的可见反馈及平均分
func (s *FeedbackService) ListReceived(ctx context.Context, userID string) (*ReceivedFeedback, error) {
	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("user", userID)
	}
	items, err := s.store.Feedbacks().ListByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &ReceivedFeedback{Items: items, Count: len(items)}
	if len(items) > 0 {
		sum := 0
		for _, f := range items {
			sum += f.Rating
		}
		out.Average = float64(sum) / float64(len(items))
	}
	return out, nil
}

func (s *FeedbackService) live(ctx context.Context, id string) (*domain.Feedback, error) {
	f, err := s.store.Feedbacks().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil || f.IsDeleted {
		return nil, notFound("feedback", id)
	}
	return f, nil
}

func checkRating(r int) error {
	if r < domain.MinRating || r > domain.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidFeedback, domain.MinRating, domain.MaxRating)
	}
	return nil
}
