package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/coach-admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func payoutRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "coach_id", "gross_amount", "tds_amount", "net_amount", "status", "scheduled_for", "paid_at", "payment_method", "payment_reference", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "coach-1", int64(10000), int64(1000), int64(9000), "SCHEDULED", time.Now(), nil, nil, nil, time.Now(), time.Now())
	}
	return rows
}

func TestPayoutRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayoutRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payouts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payout := &models.Payout{
		CoachID:      "coach-1",
		GrossAmount:  10000,
		TDSAmount:    1000,
		NetAmount:    9000,
		ScheduledFor: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), payout))
	require.NotEmpty(t, payout.ID)
	require.Equal(t, models.PayoutStatusScheduled, payout.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayoutRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, coach_id, gross_amount")).
		WithArgs("p1", "p2").
		WillReturnRows(payoutRows("p1", "p2"))

	payouts, err := repo.FindByIDs(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepositoryMarkPaidCommitsFullMatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayoutRepository(db)
	paidAt := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payouts")).
		WithArgs(paidAt, "NEFT", "ref-1", string(models.PayoutStatusPaid), string(models.PayoutStatusScheduled), string(models.PayoutStatusProcessing), "p1", "p2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	affected, err := repo.MarkPaid(context.Background(), []string{"p1", "p2"}, paidAt, "NEFT", "ref-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepositoryMarkPaidRollsBackPartialMatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayoutRepository(db)
	paidAt := time.Now().UTC()
	// Only one of the two rows still matches the status guard; the update
	// must roll back so the matched row is not paid either.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payouts")).
		WithArgs(paidAt, "NEFT", "ref-1", string(models.PayoutStatusPaid), string(models.PayoutStatusScheduled), string(models.PayoutStatusProcessing), "p1", "p2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	affected, err := repo.MarkPaid(context.Background(), []string{"p1", "p2"}, paidAt, "NEFT", "ref-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepositoryCancelGuardsOnScheduled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayoutRepository(db)
	cancelledAt := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payouts SET status =")).
		WithArgs(cancelledAt, string(models.PayoutStatusCancelled), string(models.PayoutStatusScheduled), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := repo.Cancel(context.Background(), []string{"p1"}, cancelledAt)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepositoryCancelRollsBackPartialMatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayoutRepository(db)
	cancelledAt := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payouts SET status =")).
		WithArgs(cancelledAt, string(models.PayoutStatusCancelled), string(models.PayoutStatusScheduled), "p1", "p2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	affected, err := repo.Cancel(context.Background(), []string{"p1", "p2"}, cancelledAt)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepositoryEmptyBatchesAreNoOps(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayoutRepository(db)
	affected, err := repo.MarkPaid(context.Background(), nil, time.Now(), "", "")
	require.NoError(t, err)
	require.Zero(t, affected)

	payouts, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, payouts)
}
