package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/coach-admin-api/internal/models"
)

func withholdingEntry(payoutID string, amount int64) models.WithholdingEntry {
	return models.WithholdingEntry{
		PayoutID:   payoutID,
		CoachID:    "coach-1",
		Amount:     amount,
		Quarter:    "Q1",
		FiscalYear: "2026-27",
	}
}

func TestLedgerRepositoryInsertEntriesAssignsIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO withholding_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO withholding_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ids, err := repo.InsertEntries(context.Background(), []models.WithholdingEntry{
		withholdingEntry("p1", 1000),
		withholdingEntry("p2", 2000),
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.NotEmpty(t, ids[0])
	require.NotEmpty(t, ids[1])
	require.NotEqual(t, ids[0], ids[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryInsertEntriesRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO withholding_entries")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := repo.InsertEntries(context.Background(), []models.WithholdingEntry{withholdingEntry("p1", 1000)})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryInsertEntriesEmptyIsNoOp(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	ids, err := repo.InsertEntries(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestLedgerRepositoryDeleteEntries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM withholding_entries")).
		WithArgs("w1", "w2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteEntries(context.Background(), []string{"w1", "w2"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositorySummary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	rows := sqlmock.NewRows([]string{"entry_count", "total_amount", "deposited_count", "deposited_amount"}).
		AddRow(3, int64(4500), 1, int64(1500))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("Q2", "2026-27").
		WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), "Q2", "2026-27")
	require.NoError(t, err)
	require.Equal(t, 3, summary.EntryCount)
	require.Equal(t, int64(4500), summary.TotalAmount)
	require.Equal(t, "Q2", summary.Quarter)
	require.Equal(t, "2026-27", summary.FiscalYear)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryListByPeriod(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	rows := sqlmock.NewRows([]string{"id", "payout_id", "coach_id", "amount", "quarter", "fiscal_year", "deposited", "deposited_at", "created_at"}).
		AddRow("w1", "p1", "coach-1", int64(1000), "Q1", "2026-27", false, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, payout_id, coach_id")).
		WithArgs("Q1", "2026-27").
		WillReturnRows(rows)

	entries, err := repo.ListByPeriod(context.Background(), "Q1", "2026-27")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "w1", entries[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
