package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/domain"
	"carpool/internal/repo/repotest"
	"carpool/pkg/utils"
)

func mkUser(t *testing.T, s domain.Store, name string, status domain.UserStatus) *domain.User {
	t.Helper()
	u := &domain.User{
		ID: utils.NewID(), Username: name, Email: name + "@x.io", PhoneNumber: "+1" + name,
		Password: "pw", Role: domain.RoleUser, Status: status,
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func mkTravel(t *testing.T, s domain.Store, driverID string, status domain.TravelStatus, spots int) *domain.Travel {
	t.Helper()
	tr := &domain.Travel{
		ID: utils.NewID(), DriverID: driverID, VehicleID: "v", DeparturePoint: "Sofia", ArrivalPoint: "Plovdiv",
		DepartureTime: time.Now().Add(24 * time.Hour), FreeSpots: spots, Status: status,
	}
	require.NoError(t, s.Travels().Create(context.Background(), tr))
	return tr
}

func TestFindMissingReturnsNil(t *testing.T) {
	s, _ := repotest.Open(t)
	ctx := context.Background()
	u, err := s.Users().FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, u)
	tr, err := s.Travels().FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, tr)
}

func TestUserExistsAndList(t *testing.T) {
	s, _ := repotest.Open(t)
	ctx := context.Background()
	mkUser(t, s, "alice", domain.UserActive)
	mkUser(t, s, "bob", domain.UserBlocked)

	ok, err := s.Users().ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Users().ExistsByEmail(ctx, "carol@x.io")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.Users().ExistsByPhoneNumber(ctx, "+1bob")
	require.NoError(t, err)
	assert.True(t, ok)

	blocked := domain.UserBlocked
	list, total, err := s.Users().List(ctx, domain.UserFilter{Status: &blocked}, domain.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "bob", list[0].Username)

	q := "ali"
	list, total, err = s.Users().List(ctx, domain.UserFilter{Query: &q}, domain.Page{Sort: "username desc"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "alice", list[0].Username)
}

func TestTakeSpotNeverGoesNegative(t *testing.T) {
	s, _ := repotest.Open(t)
	ctx := context.Background()
	d := mkUser(t, s, "driver", domain.UserActive)
	tr := mkTravel(t, s, d.ID, domain.TravelPlanned, 1)

	ok, err := s.Travels().TakeSpot(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Travels().TakeSpot(ctx, tr.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := s.Travels().FindByID(ctx, tr.ID)
	assert.Equal(t, 0, got.FreeSpots)

	require.NoError(t, s.Travels().ReleaseSpot(ctx, tr.ID))
	got, _ = s.Travels().FindByID(ctx, tr.ID)
	assert.Equal(t, 1, got.FreeSpots)
}

func TestSearchFilters(t *testing.T) {
	s, _ := repotest.Open(t)
	ctx := context.Background()
	d := mkUser(t, s, "driver", domain.UserActive)
	mkTravel(t, s, d.ID, domain.TravelPlanned, 3)
	mkTravel(t, s, d.ID, domain.TravelActive, 1)
	gone := mkTravel(t, s, d.ID, domain.TravelPlanned, 2)
	gone.IsDeleted = true
	require.NoError(t, s.Travels().Update(ctx, gone))

	all, total, err := s.Travels().Search(ctx, domain.TravelFilter{}, domain.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	planned := domain.TravelPlanned
	spots := 2
	dep := "Sof"
	got, total, err := s.Travels().Search(ctx, domain.TravelFilter{Status: &planned, MinFreeSpots: &spots, DeparturePoint: &dep}, domain.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, 3, got[0].FreeSpots)

	_, total, err = s.Travels().Search(ctx, domain.TravelFilter{WithDeleted: true}, domain.Page{Sort: "free_spots desc; drop table travels"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestCancelAndRestoreByDriver(t *testing.T) {
	s, _ := repotest.Open(t)
	ctx := context.Background()
	d := mkUser(t, s, "driver", domain.UserActive)
	planned := mkTravel(t, s, d.ID, domain.TravelPlanned, 3)
	done := mkTravel(t, s, d.ID, domain.TravelCompleted, 0)

	n, err := s.Travels().CancelPlannedByDriver(ctx, d.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, _ := s.Travels().FindByID(ctx, planned.ID)
	assert.Equal(t, domain.TravelCanceled, got.Status)
	assert.True(t, got.IsDeleted)
	got, _ = s.Travels().FindByID(ctx, done.ID)
	assert.Equal(t, domain.TravelCompleted, got.Status)
	assert.False(t, got.IsDeleted)

	selfDeleted := mkTravel(t, s, d.ID, domain.TravelCanceled, 3)
	selfDeleted.IsDeleted = true
	require.NoError(t, s.Travels().Update(ctx, selfDeleted))

	n, err = s.Travels().RestoreCanceledByDriver(ctx, d.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	got, _ = s.Travels().FindByID(ctx, selfDeleted.ID)
	assert.True(t, got.IsDeleted, "only rows hidden by the cascade come back")
	got, _ = s.Travels().FindByID(ctx, planned.ID)
	assert.Equal(t, domain.TravelCanceled, got.Status)
	assert.False(t, got.IsDeleted)
}

func TestExistsActiveAsPassenger(t *testing.T) {
	s, _ := repotest.Open(t)
	ctx := context.Background()
	d := mkUser(t, s, "driver", domain.UserActive)
	p := mkUser(t, s, "pass", domain.UserActive)
	tr := mkTravel(t, s, d.ID, domain.TravelActive, 2)
	req := &domain.TravelRequest{ID: utils.NewID(), TravelID: tr.ID, PassengerID: p.ID, Status: domain.RequestPending}
	require.NoError(t, s.Requests().Create(ctx, req))

	ok, err := s.Travels().ExistsActiveAsPassenger(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Requests().UpdateStatus(ctx, req.ID, domain.RequestApproved, domain.RequestRejected)
	require.NoError(t, err)
	assert.False(t, ok, "status is not APPROVED yet")
	ok, err = s.Requests().UpdateStatus(ctx, req.ID, domain.RequestPending, domain.RequestApproved)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Requests().UpdateStatus(ctx, req.ID, domain.RequestPending, domain.RequestApproved)
	require.NoError(t, err)
	assert.False(t, ok, "second approval loses")

	ok, err = s.Travels().ExistsActiveAsPassenger(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Requests().ExistsActive(ctx, tr.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFeedbackSoftDeleteAndRestore(t *testing.T) {
	s, _ := repotest.Open(t)
	ctx := context.Background()
	u := mkUser(t, s, "u", domain.UserActive)
	friend := mkUser(t, s, "friend", domain.UserActive)
	blocked := mkUser(t, s, "blocked", domain.UserBlocked)

	mk := func(creator, recipient string, deleted bool) *domain.Feedback {
		f := &domain.Feedback{ID: utils.NewID(), TravelID: "t", CreatorID: creator, RecipientID: recipient, Rating: 5, IsDeleted: deleted}
		require.NoError(t, s.Feedbacks().Create(ctx, f))
		return f
	}
	given := mk(u.ID, friend.ID, false)
	received := mk(friend.ID, u.ID, false)
	fromBlocked := mk(blocked.ID, u.ID, true)

	n, err := s.Feedbacks().SoftDeleteByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.Feedbacks().RestoreByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	for _, id := range []string{given.ID, received.ID} {
		f, _ := s.Feedbacks().FindByID(ctx, id)
		assert.False(t, f.IsDeleted)
		assert.Empty(t, f.HiddenBy)
	}
	f, _ := s.Feedbacks().FindByID(ctx, fromBlocked.ID)
	assert.True(t, f.IsDeleted)

	// 对方被封时隐藏权转给对方
	toBlocked := mk(u.ID, blocked.ID, false)
	_, err = s.Feedbacks().SoftDeleteByUser(ctx, u.ID)
	require.NoError(t, err)
	n, err = s.Feedbacks().RestoreByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	f, _ = s.Feedbacks().FindByID(ctx, toBlocked.ID)
	assert.True(t, f.IsDeleted)
	assert.Equal(t, blocked.ID, f.HiddenBy)

	byTriple, err := s.Feedbacks().FindByTriple(ctx, "t", u.ID, friend.ID)
	require.NoError(t, err)
	assert.Equal(t, given.ID, byTriple.ID)
}

func TestTokenReplaceAndExpire(t *testing.T) {
	s, _ := repotest.Open(t)
	ctx := context.Background()
	now := time.Now()
	old := &domain.VerificationToken{ID: utils.NewID(), UserID: "u1", Token: "old", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Tokens().Replace(ctx, old))
	fresh := &domain.VerificationToken{ID: utils.NewID(), UserID: "u1", Token: "new", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Tokens().Replace(ctx, fresh))

	got, err := s.Tokens().FindByToken(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)

	expired := &domain.VerificationToken{ID: utils.NewID(), UserID: "u2", Token: "exp", ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, s.Tokens().Replace(ctx, expired))
	n, err := s.Tokens().DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, _ = s.Tokens().FindByToken(ctx, "new")
	require.NotNil(t, got)
}

func TestAtomicRollsBack(t *testing.T) {
	s, _ := repotest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx domain.Store) error {
		mkUser(t, tx, "ghost", domain.UserActive)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	u, err := s.Users().FindByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)
}
