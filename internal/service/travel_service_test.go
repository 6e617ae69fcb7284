package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/core/geo"
	"carpool/internal/domain"
)

func travelInput(v *domain.Vehicle, spots int) TravelInput {
	return TravelInput{
		VehicleID:      v.ID,
		DeparturePoint: "Sofia",
		ArrivalPoint:   "Varna",
		DepartureTime:  time.Now().Add(48 * time.Hour),
		FreeSpots:      spots,
	}
}

func TestCreateTravel(t *testing.T) {
	f := newFixture(t)
	driver, other := f.user(t, "driver"), f.user(t, "other")
	v := f.vehicle(t, driver, 3)

	tr, err := f.travels.Create(f.ctx, travelInput(v, 3), driver)
	require.NoError(t, err)
	assert.Equal(t, domain.TravelPlanned, tr.Status)
	assert.Equal(t, driver.ID, tr.DriverID)

	_, err = f.travels.Create(f.ctx, travelInput(v, 4), driver)
	assert.ErrorIs(t, err, domain.ErrInvalidTravel, "more seats than the vehicle has")
	_, err = f.travels.Create(f.ctx, travelInput(v, 0), driver)
	assert.ErrorIs(t, err, domain.ErrInvalidTravel)

	past := travelInput(v, 1)
	past.DepartureTime = time.Now().Add(-time.Minute)
	_, err = f.travels.Create(f.ctx, past, driver)
	assert.ErrorIs(t, err, domain.ErrInvalidTravel)

	same := travelInput(v, 1)
	same.ArrivalPoint = "sofia"
	_, err = f.travels.Create(f.ctx, same, driver)
	assert.ErrorIs(t, err, domain.ErrInvalidTravel)

	_, err = f.travels.Create(f.ctx, travelInput(v, 1), other)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	missing := travelInput(v, 1)
	missing.VehicleID = "nope"
	_, err = f.travels.Create(f.ctx, missing, driver)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestCreateTravelWithRoute(t *testing.T) {
	f := newFixture(t)
	f.travels.routes = fakeRoutes{route: &geo.Route{
		From: geo.Point{Lat: 42.69, Lng: 23.32}, To: geo.Point{Lat: 43.21, Lng: 27.91},
		DistanceKm: 443.2, DurationMin: 300,
	}}
	driver := f.user(t, "driver")

	tr, err := f.travels.Create(f.ctx, travelInput(f.vehicle(t, driver, 4), 2), driver)
	require.NoError(t, err)
	assert.InDelta(t, 443.2, tr.DistanceKm, 0.001)
	require.NotNil(t, tr.ArrivalLat)
	assert.InDelta(t, 43.21, *tr.ArrivalLat, 0.001)

	f.travels.routes = fakeRoutes{err: domain.ErrInvalidLocation}
	_, err = f.travels.Create(f.ctx, travelInput(f.vehicle(t, driver, 4), 2), driver)
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)
}

func TestTravelStatusFlow(t *testing.T) {
	f := newFixture(t)
	driver, p := f.user(t, "driver"), f.user(t, "p")
	admin := f.admin(t, "root")
	tr := f.travel(t, driver, domain.TravelPlanned, 2)

	_, err := f.travels.Complete(f.ctx, tr.ID, driver)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	_, err = f.travels.Start(f.ctx, tr.ID, admin)
	assert.ErrorIs(t, err, domain.ErrAuthorization, "only the driver starts")

	out, err := f.travels.Start(f.ctx, tr.ID, driver)
	require.NoError(t, err)
	assert.Equal(t, domain.TravelActive, out.Status)

	_, err = f.requests.Create(f.ctx, tr.ID, p)
	require.NoError(t, err)

	out, err = f.travels.Complete(f.ctx, tr.ID, driver)
	require.NoError(t, err)
	assert.Equal(t, domain.TravelCompleted, out.Status)

	_, err = f.travels.Cancel(f.ctx, tr.ID, driver)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestCancelRejectsPending(t *testing.T) {
	f := newFixture(t)
	driver, p := f.user(t, "driver"), f.user(t, "p")
	admin := f.admin(t, "root")
	tr := f.travel(t, driver, domain.TravelPlanned, 2)
	req, err := f.requests.Create(f.ctx, tr.ID, p)
	require.NoError(t, err)

	_, err = f.travels.Cancel(f.ctx, tr.ID, p)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	out, err := f.travels.Cancel(f.ctx, tr.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.TravelCanceled, out.Status)

	got, err := f.store.Requests().FindByID(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, got.Status)
}

func TestUpdateTravel(t *testing.T) {
	f := newFixture(t)
	driver, p := f.user(t, "driver"), f.user(t, "p")
	v := f.vehicle(t, driver, 3)
	tr, err := f.travels.Create(f.ctx, travelInput(v, 3), driver)
	require.NoError(t, err)
	f.approved(t, tr, driver, p)

	spots := 2
	comment := "no smoking"
	out, err := f.travels.Update(f.ctx, tr.ID, TravelPatch{FreeSpots: &spots, Comment: &comment}, driver)
	require.NoError(t, err)
	assert.Equal(t, 2, out.FreeSpots)
	assert.Equal(t, "no smoking", out.Comment)

	spots = 3
	_, err = f.travels.Update(f.ctx, tr.ID, TravelPatch{FreeSpots: &spots}, driver)
	assert.ErrorIs(t, err, domain.ErrInvalidTravel, "one seat is taken by an approved passenger")

	_, err = f.travels.Update(f.ctx, tr.ID, TravelPatch{Comment: &comment}, p)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	_, err = f.travels.Start(f.ctx, tr.ID, driver)
	require.NoError(t, err)
	_, err = f.travels.Update(f.ctx, tr.ID, TravelPatch{Comment: &comment}, driver)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestDeleteTravel(t *testing.T) {
	f := newFixture(t)
	driver, viewer := f.user(t, "driver"), f.user(t, "viewer")
	admin := f.admin(t, "root")

	active := f.travel(t, driver, domain.TravelActive, 2)
	assert.ErrorIs(t, f.travels.Delete(f.ctx, active.ID, driver), domain.ErrActiveTravel)

	tr := f.travel(t, driver, domain.TravelPlanned, 2)
	require.NoError(t, f.travels.Delete(f.ctx, tr.ID, driver))
	got := f.reload(t, tr)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, domain.TravelCanceled, got.Status)

	_, err := f.travels.Get(f.ctx, tr.ID, viewer)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	_, err = f.travels.Get(f.ctx, tr.ID, admin)
	assert.NoError(t, err)
}

func TestSearchHidesDeletedFromUsers(t *testing.T) {
	f := newFixture(t)
	driver := f.user(t, "driver")
	admin := f.admin(t, "root")
	f.travel(t, driver, domain.TravelPlanned, 2)
	gone := f.travel(t, driver, domain.TravelPlanned, 2)
	require.NoError(t, f.travels.Delete(f.ctx, gone.ID, driver))

	filter := domain.TravelFilter{DriverID: &driver.ID, WithDeleted: true}
	list, total, err := f.travels.Search(f.ctx, filter, domain.Page{}, driver)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	_, total, err = f.travels.Search(f.ctx, filter, domain.Page{}, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
