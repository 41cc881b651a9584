package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/coach-admin-api/internal/models"
)

func TestAuditRepositoryCreateAssignsIdentity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.AuditLog{
		Actor:    "user-1",
		Action:   models.AuditActionSettlementPaid,
		Resource: "payouts",
	}
	require.NoError(t, repo.Create(context.Background(), log))
	require.NotEmpty(t, log.ID)
	require.False(t, log.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListByResource(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	rows := sqlmock.NewRows([]string{"id", "actor", "action", "resource", "target_ids", "amounts", "detail", "ip_address", "user_agent", "created_at"}).
		AddRow("a1", "user-1", models.AuditActionPayoutSchedule, "payouts", []byte(`["p1"]`), []byte(`[9000]`), nil, "", "", time.Now()).
		AddRow("a2", "user-2", models.AuditActionSettlementCancel, "payouts", []byte(`["p2"]`), nil, nil, "", "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, actor, action, resource")).
		WithArgs("payouts", 50).
		WillReturnRows(rows)

	logs, err := repo.ListByResource(context.Background(), "payouts", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "a1", logs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
