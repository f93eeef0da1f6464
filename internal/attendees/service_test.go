package attendees_test

import (
	"context"
	"testing"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/attendees"
	"gala-ticketing/internal/attendees/db"
	"gala-ticketing/internal/attendees/qr"
	"gala-ticketing/internal/database/dbtest"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) *attendees.Service {
	t.Helper()
	bdb := dbtest.New(t)
	ctx := context.Background()

	orders := []models.Order{
		{ID: "paid", CustomerEmail: "p@example.org", CustomerName: "Pat", Status: models.StatusPaid, PaymentMethod: models.PaymentCard},
		{ID: "check", CustomerEmail: "c@example.org", Status: models.StatusPendingCheck, PaymentMethod: models.PaymentCheck},
	}
	_, err := bdb.NewInsert().Model(&orders).Exec(ctx)
	require.NoError(t, err)

	tables := []models.Table{
		{ID: "t1", Name: "Table 1", Capacity: 1},
		{ID: "t2", Name: "Table 2", Capacity: 8},
	}
	_, err = bdb.NewInsert().Model(&tables).Exec(ctx)
	require.NoError(t, err)

	list := []models.Attendee{
		{ID: "a1", OrderID: "paid", Name: "Ann", TableID: "t1"},
		{ID: "a2", OrderID: "paid"},
		{ID: "a3", OrderID: "check", Name: "Cy"},
	}
	_, err = bdb.NewInsert().Model(&list).Exec(ctx)
	require.NoError(t, err)

	passes, err := qr.NewGenerator("test-secret")
	require.NoError(t, err)
	return attendees.NewService(&db.DB{Bun: bdb}, passes, logger.Discard())
}

func TestListOnlyPaid(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a1", list[0].ID)
	assert.Equal(t, "Table 1", list[0].TableName)
	assert.Equal(t, "p@example.org", list[0].OrderEmail)

	missing, err := svc.MissingNames(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "a2", missing[0].ID)
}

func TestUpdate(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	a, err := svc.Update(ctx, "a2", attendees.AttendeeUpdate{
		Name:                utils.Some(" Bo "),
		DietaryRestrictions: utils.Some("vegan"),
		TableID:             utils.Some("t2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bo", a.Name)
	assert.Equal(t, "vegan", a.DietaryRestrictions)
	assert.Equal(t, "Table 2", a.TableName)

	_, err = svc.Update(ctx, "a2", attendees.AttendeeUpdate{TableID: utils.Some("t1")})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	// staying at a full table is fine
	_, err = svc.Update(ctx, "a1", attendees.AttendeeUpdate{TableID: utils.Some("t1")})
	require.NoError(t, err)

	a, err = svc.Update(ctx, "a1", attendees.AttendeeUpdate{TableID: utils.Some("")})
	require.NoError(t, err)
	assert.Empty(t, a.TableID)

	_, err = svc.Update(ctx, "a1", attendees.AttendeeUpdate{})
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, err = svc.Update(ctx, "ghost", attendees.AttendeeUpdate{Name: utils.Some("x")})
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	_, err = svc.Update(ctx, "a2", attendees.AttendeeUpdate{TableID: utils.Some("nope")})
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestCheckIn(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.CheckIn(ctx, "a1"))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.True(t, list[0].CheckedIn)
	assert.NotNil(t, list[0].CheckedInAt)

	require.NoError(t, svc.UndoCheckIn(ctx, "a1"))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.False(t, list[0].CheckedIn)
	assert.Nil(t, list[0].CheckedInAt)

	assert.True(t, apperr.IsKind(svc.CheckIn(ctx, "ghost"), apperr.NotFound))
}

func TestScanCheckIn(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	token, err := svc.Passes.Token(qr.Claims{AttendeeID: "a1", OrderID: "paid"})
	require.NoError(t, err)

	res, err := svc.ScanCheckIn(ctx, token)
	require.NoError(t, err)
	assert.False(t, res.AlreadyChecked)
	assert.True(t, res.Attendee.CheckedIn)

	res, err = svc.ScanCheckIn(ctx, token)
	require.NoError(t, err)
	assert.True(t, res.AlreadyChecked)

	forged, _ := svc.Passes.Token(qr.Claims{AttendeeID: "a1", OrderID: "check"})
	_, err = svc.ScanCheckIn(ctx, forged)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, err = svc.ScanCheckIn(ctx, "garbage")
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	png, err := svc.Pass(ctx, "a2")
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
