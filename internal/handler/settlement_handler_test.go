package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/coach-admin-api/internal/models"
	"github.com/brightpath/coach-admin-api/internal/service"
	"github.com/brightpath/coach-admin-api/pkg/config"
)

type stubPayoutRepo struct {
	payouts map[string]models.Payout
}

func (s *stubPayoutRepo) List(context.Context, models.PayoutFilter) ([]models.Payout, int, error) {
	out := make([]models.Payout, 0, len(s.payouts))
	for _, p := range s.payouts {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *stubPayoutRepo) FindByIDs(_ context.Context, ids []string) ([]models.Payout, error) {
	var out []models.Payout
	for _, id := range ids {
		if p, ok := s.payouts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPayoutRepo) Create(_ context.Context, payout *models.Payout) error {
	payout.ID = "p-new"
	return nil
}

func (s *stubPayoutRepo) MarkPaid(_ context.Context, ids []string, _ time.Time, _, _ string) (int64, error) {
	return int64(len(ids)), nil
}

func (s *stubPayoutRepo) Cancel(_ context.Context, ids []string, _ time.Time) (int64, error) {
	return int64(len(ids)), nil
}

type stubLedgerRepo struct{}

func (stubLedgerRepo) InsertEntries(_ context.Context, entries []models.WithholdingEntry) ([]string, error) {
	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = "w-" + entries[i].PayoutID
	}
	return ids, nil
}

func (stubLedgerRepo) DeleteEntries(context.Context, []string) error { return nil }

type envelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

func newTestSettlementHandler(payouts map[string]models.Payout) *SettlementHandler {
	svc := service.NewSettlementService(
		&stubPayoutRepo{payouts: payouts},
		stubLedgerRepo{},
		nil,
		nil,
		config.SettlementConfig{TDSRateBps: 1000, MaxBatchSize: 50},
		nil,
		nil,
	)
	return NewSettlementHandler(svc)
}

func postJSON(t *testing.T, h gin.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h(c)
	return rec
}

func testPayout(id string, status models.PayoutStatus) models.Payout {
	return models.Payout{
		ID:           id,
		CoachID:      "coach-1",
		GrossAmount:  10000,
		TDSAmount:    1000,
		NetAmount:    9000,
		Status:       status,
		ScheduledFor: time.Now(),
	}
}

func TestProcessBatchHandlerMarksPaid(t *testing.T) {
	h := newTestSettlementHandler(map[string]models.Payout{
		"p1": testPayout("p1", models.PayoutStatusScheduled),
		"p2": testPayout("p2", models.PayoutStatusScheduled),
	})

	rec := postJSON(t, h.ProcessBatch, "/settlements/batch", map[string]interface{}{
		"payout_ids": []string{"p1", "p2"},
		"action":     "mark_paid",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, float64(2), env.Data["updated_count"])
	assert.Equal(t, float64(18000), env.Data["total_amount"])
	assert.Equal(t, float64(2), env.Data["ledger_entries_created"])
}

func TestProcessBatchHandlerUnknownIDConflict(t *testing.T) {
	h := newTestSettlementHandler(map[string]models.Payout{
		"p1": testPayout("p1", models.PayoutStatusScheduled),
	})

	rec := postJSON(t, h.ProcessBatch, "/settlements/batch", map[string]interface{}{
		"payout_ids": []string{"p1", "ghost"},
		"action":     "mark_paid",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_STATE", env.Error["code"])
}

func TestProcessBatchHandlerRejectsMalformedBody(t *testing.T) {
	h := newTestSettlementHandler(nil)

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/settlements/batch", bytes.NewReader([]byte("{not json")))

	h.ProcessBatch(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchedulePayoutHandlerCreates(t *testing.T) {
	h := newTestSettlementHandler(map[string]models.Payout{})

	rec := postJSON(t, h.SchedulePayout, "/payouts", map[string]interface{}{
		"coach_id":      "coach-1",
		"gross_amount":  10000,
		"scheduled_for": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, float64(1000), env.Data["tds_amount"])
	assert.Equal(t, float64(9000), env.Data["net_amount"])
	assert.Equal(t, "SCHEDULED", env.Data["status"])
}

func TestSchedulePayoutHandlerValidationError(t *testing.T) {
	h := newTestSettlementHandler(map[string]models.Payout{})

	rec := postJSON(t, h.SchedulePayout, "/payouts", map[string]interface{}{
		"coach_id": "coach-1",
		// gross_amount missing
		"scheduled_for": time.Now().Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
