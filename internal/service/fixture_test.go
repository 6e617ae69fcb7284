package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"carpool/internal/core/auth"
	"carpool/internal/core/events"
	"carpool/internal/core/geo"
	"carpool/internal/domain"
	"carpool/internal/repo"
	"carpool/internal/repo/repotest"
	"carpool/pkg/utils"
)

type sentMail struct {
	to      []string
	subject string
	body    string
}

type captureMail struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *captureMail) SendHTML(to []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type capturePub struct {
	mu  sync.Mutex
	evs []events.Event
}

func (p *capturePub) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evs = append(p.evs, e)
	return nil
}

func (p *capturePub) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.evs))
	for _, e := range p.evs {
		out = append(out, e.Type)
	}
	return out
}

type fakeRoutes struct {
	route *geo.Route
	err   error
}

func (f fakeRoutes) Route(context.Context, string, string) (*geo.Route, error) { return f.route, f.err }

type fakeImages struct {
	uploads   int
	destroyed []string
}

func (f *fakeImages) Upload(_ context.Context, owner string, _ []byte) (string, string, error) {
	f.uploads++
	ref := owner + "-" + utils.NewID()[:8]
	return "https://img.example/" + ref, ref, nil
}

func (f *fakeImages) Destroy(_ context.Context, ref string) error {
	f.destroyed = append(f.destroyed, ref)
	return nil
}

type fixture struct {
	ctx       context.Context
	store     *repo.Store
	mail      *captureMail
	pub       *capturePub
	images    *fakeImages
	users     *UserService
	travels   *TravelService
	requests  *RequestService
	feedbacks *FeedbackService
	verify    *VerificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, _ := repotest.Open(t)
	l := zaptest.NewLogger(t)
	f := &fixture{
		ctx:    context.Background(),
		store:  s,
		mail:   &captureMail{},
		pub:    &capturePub{},
		images: &fakeImages{},
	}
	scheme, err := auth.NewPasswordScheme("plain")
	require.NoError(t, err)
	f.verify = NewVerificationService(s, f.mail, "http://localhost:8080", time.Hour, l)
	f.users = NewUserService(UserDeps{
		Store:  s,
		Scheme: scheme,
		Tokens: &auth.JWTer{Secret: []byte("test-secret"), Issuer: "carpool", TTL: time.Hour},
		Verify: f.verify,
		Images: f.images,
		Events: f.pub,
		Log:    l,
	})
	f.travels = NewTravelService(s, nil, f.pub, l)
	f.requests = NewRequestService(s, f.pub, l)
	f.feedbacks = NewFeedbackService(s, f.pub, l)
	return f
}

func (f *fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID: utils.NewID(), Username: name, FirstName: name, Email: name + "@carpool.test",
		PhoneNumber: "+359" + name, Password: "secret", Role: domain.RoleUser, Status: domain.UserActive,
	}
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return u
}

func (f *fixture) admin(t *testing.T, name string) *domain.User {
	t.Helper()
	u := f.user(t, name)
	u.Role = domain.RoleAdmin
	require.NoError(t, f.store.Users().Update(f.ctx, u))
	return u
}

func (f *fixture) vehicle(t *testing.T, owner *domain.User, capacity int) *domain.Vehicle {
	t.Helper()
	v := &domain.Vehicle{
		ID: utils.NewID(), OwnerID: owner.ID, Make: "Skoda", Model: "Octavia",
		Plate: "CA" + utils.NewID()[:6], Capacity: capacity,
	}
	require.NoError(t, f.store.DB().Create(v).Error)
	return v
}

// travel 直接落库，绕过出发时间等校验
func (f *fixture) travel(t *testing.T, driver *domain.User, status domain.TravelStatus, spots int) *domain.Travel {
	t.Helper()
	v := f.vehicle(t, driver, 4)
	tr := &domain.Travel{
		ID: utils.NewID(), DriverID: driver.ID, VehicleID: v.ID, DeparturePoint: "Sofia", ArrivalPoint: "Plovdiv",
		DepartureTime: time.Now().Add(24 * time.Hour), FreeSpots: spots, Status: status,
	}
	require.NoError(t, f.store.Travels().Create(f.ctx, tr))
	return tr
}

func (f *fixture) reload(t *testing.T, tr *domain.Travel) *domain.Travel {
	t.Helper()
	got, err := f.store.Travels().FindByID(f.ctx, tr.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

func (f *fixture) reloadUser(t *testing.T, u *domain.User) *domain.User {
	t.Helper()
	got, err := f.store.Users().FindByID(f.ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

// approved 乘客申请并被司机批准
func (f *fixture) approved(t *testing.T, tr *domain.Travel, driver, passenger *domain.User) *domain.TravelRequest {
	t.Helper()
	req, err := f.requests.Create(f.ctx, tr.ID, passenger)
	require.NoError(t, err)
	req, err = f.requests.Approve(f.ctx, req.ID, driver)
	require.NoError(t, err)
	return req
}
