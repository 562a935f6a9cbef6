package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

var rentRequestColumnNames = []string{"id", "user_id", "house_id", "message", "status", "created_at", "updated_at"}

func TestRentRequestHasPendingExcludesSelf(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRentRequestRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM rent_requests WHERE user_id = $1 AND house_id = $2 AND status = $3)")).
		WithArgs("u1", "h1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("AND status = $3 AND id <> $4)")).
		WithArgs("u1", "h1", "pending", "r1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.HasPending(context.Background(), "u1", "h1", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.HasPending(context.Background(), "u1", "h1", "r1")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRentRequestRejectPendingSiblingsReturnsChangedRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRentRequestRepository(db, nil)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE rent_requests rr SET status = $3")).
		WithArgs("h1", "r1", "rejected", sqlmock.AnyArg(), "pending").
		WillReturnRows(sqlmock.NewRows(rentRequestColumnNames).
			AddRow("r2", "u2", "h1", "", "rejected", now, now).
			AddRow("r3", "u3", "h1", "please", "rejected", now, now))

	changed, err := repo.RejectPendingSiblings(context.Background(), "h1", "r1")
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, "u2", changed[0].UserID)
	assert.Equal(t, domain.RentRequestRejected, changed[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRentRequestListJoinsHousesForLandlordScope(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRentRequestRepository(db, nil)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rent_requests rr JOIN houses h ON h.id = rr.house_id WHERE h.landlord_id = $1")).
		WithArgs("landlord-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY rr.created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("landlord-1", domain.DefaultPageLimit, 0).
		WillReturnRows(sqlmock.NewRows(rentRequestColumnNames).AddRow("r1", "u1", "h1", "", "pending", now, now))

	items, total, err := repo.List(context.Background(), domain.RentRequestFilter{LandlordID: "landlord-1"}, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, domain.RentRequestPending, items[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRentRequestUpdateStatusMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRentRequestRepository(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE rent_requests SET status = $2")).
		WithArgs("nope", "cancelled", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "nope", domain.RentRequestCancelled)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
