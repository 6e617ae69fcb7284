package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/domain"
)

// completedRide 司机 + 一名已批准乘客 + 一名被拒乘客，行程已结束
func completedRide(t *testing.T, f *fixture) (tr *domain.Travel, driver, passenger, rejected *domain.User) {
	t.Helper()
	driver, passenger, rejected = f.user(t, "driver"), f.user(t, "passenger"), f.user(t, "rejected")
	tr = f.travel(t, driver, domain.TravelPlanned, 3)
	f.approved(t, tr, driver, passenger)
	req, err := f.requests.Create(f.ctx, tr.ID, rejected)
	require.NoError(t, err)
	_, err = f.requests.Reject(f.ctx, req.ID, driver)
	require.NoError(t, err)
	_, err = f.travels.Start(f.ctx, tr.ID, driver)
	require.NoError(t, err)
	_, err = f.travels.Complete(f.ctx, tr.ID, driver)
	require.NoError(t, err)
	return tr, driver, passenger, rejected
}

func TestHaveTravelledTogetherIsSymmetric(t *testing.T) {
	f := newFixture(t)
	tr, driver, passenger, rejected := completedRide(t, f)
	stranger := f.user(t, "stranger")

	people := []*domain.User{driver, passenger, rejected, stranger}
	for _, a := range people {
		for _, b := range people {
			ab, err := f.feedbacks.HaveTravelledTogether(f.ctx, tr.ID, a.ID, b.ID)
			require.NoError(t, err)
			ba, err := f.feedbacks.HaveTravelledTogether(f.ctx, tr.ID, b.ID, a.ID)
			require.NoError(t, err)
			assert.Equal(t, ab, ba, "%s/%s", a.Username, b.Username)
		}
	}

	ok, err := f.feedbacks.HaveTravelledTogether(f.ctx, tr.ID, passenger.ID, driver.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.feedbacks.HaveTravelledTogether(f.ctx, tr.ID, driver.ID, rejected.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.feedbacks.HaveTravelledTogether(f.ctx, tr.ID, driver.ID, driver.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateFeedback(t *testing.T) {
	f := newFixture(t)
	tr, driver, passenger, rejected := completedRide(t, f)

	fb, err := f.feedbacks.Create(f.ctx, tr.ID, passenger, FeedbackInput{RecipientID: driver.ID, Rating: 5, Comment: "smooth"})
	require.NoError(t, err)
	assert.Equal(t, 5, fb.Rating)

	_, err = f.feedbacks.Create(f.ctx, tr.ID, passenger, FeedbackInput{RecipientID: driver.ID, Rating: 4})
	assert.ErrorIs(t, err, domain.ErrInvalidFeedback, "second feedback for the same triple")

	_, err = f.feedbacks.Create(f.ctx, tr.ID, driver, FeedbackInput{RecipientID: passenger.ID, Rating: 4})
	assert.NoError(t, err, "the reverse direction is a different triple")

	_, err = f.feedbacks.Create(f.ctx, tr.ID, rejected, FeedbackInput{RecipientID: driver.ID, Rating: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidFeedback)

	_, err = f.feedbacks.Create(f.ctx, tr.ID, driver, FeedbackInput{RecipientID: driver.ID, Rating: 3})
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	_, err = f.feedbacks.Create(f.ctx, tr.ID, driver, FeedbackInput{RecipientID: "ghost", Rating: 3})
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	_, err = f.feedbacks.Create(f.ctx, "ghost", driver, FeedbackInput{RecipientID: passenger.ID, Rating: 3})
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestFeedbackRatingBounds(t *testing.T) {
	f := newFixture(t)
	tr, driver, passenger, _ := completedRide(t, f)
	for _, r := range []int{0, 6, -1} {
		_, err := f.feedbacks.Create(f.ctx, tr.ID, passenger, FeedbackInput{RecipientID: driver.ID, Rating: r})
		assert.ErrorIs(t, err, domain.ErrInvalidFeedback, "rating %d", r)
	}
}

func TestFeedbackOnPlannedTravel(t *testing.T) {
	f := newFixture(t)
	driver, passenger := f.user(t, "driver"), f.user(t, "passenger")
	tr := f.travel(t, driver, domain.TravelPlanned, 2)
	f.approved(t, tr, driver, passenger)

	_, err := f.feedbacks.Create(f.ctx, tr.ID, passenger, FeedbackInput{RecipientID: driver.ID, Rating: 5})
	assert.ErrorIs(t, err, domain.ErrTravelNotCompleted)
}

func TestDeletedFeedbackStillBlocksRecreate(t *testing.T) {
	f := newFixture(t)
	tr, driver, passenger, _ := completedRide(t, f)
	admin := f.admin(t, "root")

	fb, err := f.feedbacks.Create(f.ctx, tr.ID, passenger, FeedbackInput{RecipientID: driver.ID, Rating: 2})
	require.NoError(t, err)
	assert.ErrorIs(t, f.feedbacks.Delete(f.ctx, fb.ID, driver), domain.ErrAuthorization)
	require.NoError(t, f.feedbacks.Delete(f.ctx, fb.ID, admin))

	_, err = f.feedbacks.Create(f.ctx, tr.ID, passenger, FeedbackInput{RecipientID: driver.ID, Rating: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidFeedback)
	assert.ErrorIs(t, f.feedbacks.Delete(f.ctx, fb.ID, admin), domain.ErrEntityNotFound)
}

func TestUpdateFeedbackAndAverage(t *testing.T) {
	f := newFixture(t)
	tr, driver, passenger, _ := completedRide(t, f)

	fb, err := f.feedbacks.Create(f.ctx, tr.ID, passenger, FeedbackInput{RecipientID: driver.ID, Rating: 2})
	require.NoError(t, err)

	rating := 4
	_, err = f.feedbacks.Update(f.ctx, fb.ID, FeedbackPatch{Rating: &rating}, driver)
	assert.ErrorIs(t, err, domain.ErrAuthorization)
	out, err := f.feedbacks.Update(f.ctx, fb.ID, FeedbackPatch{Rating: &rating}, passenger)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Rating)

	bad := 9
	_, err = f.feedbacks.Update(f.ctx, fb.ID, FeedbackPatch{Rating: &bad}, passenger)
	assert.ErrorIs(t, err, domain.ErrInvalidFeedback)

	other := f.user(t, "other")
	tr2 := f.travel(t, driver, domain.TravelPlanned, 2)
	f.approved(t, tr2, driver, other)
	_, err = f.travels.Start(f.ctx, tr2.ID, driver)
	require.NoError(t, err)
	_, err = f.travels.Complete(f.ctx, tr2.ID, driver)
	require.NoError(t, err)
	_, err = f.feedbacks.Create(f.ctx, tr2.ID, other, FeedbackInput{RecipientID: driver.ID, Rating: 5})
	require.NoError(t, err)

	got, err := f.feedbacks.ListReceived(f.ctx, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.InDelta(t, 4.5, got.Average, 0.0001)

	_, err = f.feedbacks.ListReceived(f.ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}
