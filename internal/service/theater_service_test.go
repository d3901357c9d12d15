package service

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-booking/internal/authz"
	"github.com/iliyamo/theater-booking/internal/metrics"
	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/queue"
)

func grand() model.Theater {
	return model.Theater{Name: "Grand", Address: "1 Main St", SeatCount: 300}
}

func TestTheaterScenario_AdminCreatesManagerUpdatesOthersForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, bob, sue := f.as(t, "galkadi"), f.as(t, "bob"), f.as(t, "sue")

	created, err := f.theater.Create(ctx, admin, grand())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.ManagerID)

	// bob cannot touch it before he manages it
	next := *created
	next.SeatCount = 310
	_, err = f.theater.Update(ctx, bob, created.ID, next)
	assert.ErrorIs(t, err, model.ErrForbidden)

	assign := *created
	assign.ManagerID = &bob.UserID
	_, err = f.theater.Update(ctx, admin, created.ID, assign)
	require.NoError(t, err)

	next.ManagerID = &bob.UserID
	updated, err := f.theater.Update(ctx, bob, created.ID, next)
	require.NoError(t, err)
	assert.Equal(t, 310, updated.SeatCount)

	next.SeatCount = 320
	_, err = f.theater.Update(ctx, sue, created.ID, next)
	assert.ErrorIs(t, err, model.ErrForbidden)

	got, err := f.theater.Get(ctx, model.Anonymous, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 310, got.SeatCount)
}

func TestTheaterCreate_Outcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.as(t, "galkadi")

	_, err := f.theater.Create(ctx, model.Anonymous, grand())
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = f.theater.Create(ctx, f.as(t, "bob"), grand())
	assert.ErrorIs(t, err, model.ErrForbidden)

	bad := grand()
	bad.SeatCount = 0
	_, err = f.theater.Create(ctx, admin, bad)
	assert.ErrorIs(t, err, model.ErrValidation)

	missing := int64(9999)
	withGhost := grand()
	withGhost.ManagerID = &missing
	_, err = f.theater.Create(ctx, admin, withGhost)
	assert.ErrorIs(t, err, model.ErrInvalidManager)
}

func TestTheaterUpdate_Outcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.as(t, "galkadi")
	created, err := f.theater.Create(ctx, admin, grand())
	require.NoError(t, err)

	_, err = f.theater.Update(ctx, model.Anonymous, created.ID, grand())
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = f.theater.Update(ctx, admin, 9999, grand())
	assert.ErrorIs(t, err, model.ErrNotFound)

	blank := grand()
	blank.Name = "  "
	_, err = f.theater.Update(ctx, admin, created.ID, blank)
	assert.ErrorIs(t, err, model.ErrValidation)

	missing := int64(9999)
	ghost := grand()
	ghost.ManagerID = &missing
	_, err = f.theater.Update(ctx, admin, created.ID, ghost)
	assert.ErrorIs(t, err, model.ErrInvalidManager)
}

func TestTheaterUpdate_AdminOverridesOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	theaters, err := f.theater.List(ctx, model.Anonymous)
	require.NoError(t, err)
	owned := *theaters[0] // managed by bob

	owned.Address = "New address"
	updated, err := f.theater.Update(ctx, f.as(t, "galkadi"), owned.ID, owned)
	require.NoError(t, err)
	assert.Equal(t, "New address", updated.Address)
}

func TestTheaterDelete_ForbiddenBeforeNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.theater.Delete(ctx, f.as(t, "bob"), 9999), model.ErrForbidden)
	assert.ErrorIs(t, f.theater.Delete(ctx, model.Anonymous, 9999), model.ErrUnauthenticated)
	assert.ErrorIs(t, f.theater.Delete(ctx, f.as(t, "galkadi"), 9999), model.ErrNotFound)
}

func TestTheaterDelete_ManagerCannotDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	theaters, err := f.theater.List(ctx, model.Anonymous)
	require.NoError(t, err)

	err = f.theater.Delete(ctx, f.as(t, "bob"), theaters[0].ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, f.theater.Delete(ctx, f.as(t, "galkadi"), theaters[0].ID))
	_, err = f.theater.Get(ctx, model.Anonymous, theaters[0].ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTheaterMutationsAreAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.as(t, "galkadi")

	created, err := f.theater.Create(ctx, admin, grand())
	require.NoError(t, err)
	_, err = f.theater.Update(ctx, admin, created.ID, grand())
	require.NoError(t, err)
	require.NoError(t, f.theater.Delete(ctx, admin, created.ID))
	_, _ = f.theater.Create(ctx, f.as(t, "sue"), grand())

	assert.Equal(t, []string{
		queue.ActionTheaterCreated, queue.ActionTheaterUpdated, queue.ActionTheaterDeleted,
	}, f.events.actions())
	assert.Equal(t, admin.UserID, f.events.events[0].ActorID)
}

func TestTheaterReadsGoThroughAuthz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reads := metrics.AuthzDecisions.WithLabelValues("theater.read", "true", authz.ReasonPublic)
	before := testutil.ToFloat64(reads)

	theaters, err := f.theater.List(ctx, model.Anonymous)
	require.NoError(t, err)
	require.Len(t, theaters, 4)
	_, err = f.theater.Get(ctx, model.Anonymous, theaters[0].ID)
	require.NoError(t, err)

	assert.Equal(t, before+2, testutil.ToFloat64(reads))
}

func TestTheaterCreate_OverlongAddress(t *testing.T) {
	f := newFixture(t)
	th := grand()
	th.Address = strings.Repeat("a", model.MaxTheaterAddressLength+1)
	_, err := f.theater.Create(context.Background(), f.as(t, "galkadi"), th)
	assert.ErrorIs(t, err, model.ErrValidation)
}
