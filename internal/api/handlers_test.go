package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slipalert-service/internal/models"
)

type fakeStore struct {
	warnings []models.Warning
	active   []models.Warning
	details  map[string][]models.WarningDetail
	logs     []models.InboundLog
}

func (f *fakeStore) ListWarnings(context.Context, int, int) ([]models.Warning, error) {
	return f.warnings, nil
}

func (f *fakeStore) ListActiveWarnings(context.Context, time.Time) ([]models.Warning, error) {
	return f.active, nil
}

func (f *fakeStore) GetWarningDetails(_ context.Context, warningID string) ([]models.WarningDetail, error) {
	return f.details[warningID], nil
}

func (f *fakeStore) ListInboundLogs(context.Context, int, int) ([]models.InboundLog, error) {
	return f.logs, nil
}

type fakeInbound struct {
	phone  string
	text   string
	status string
}

func (f *fakeInbound) Handle(_ context.Context, phone, text string) string {
	f.phone, f.text = phone, text
	return f.status
}

func newTestRouter(store *fakeStore, inbound *fakeInbound) http.Handler {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewRouter(store, inbound, prometheus.NewRegistry(), logger)
}

func TestReceiveSMSAcceptsJSON(t *testing.T) {
	inbound := &fakeInbound{status: models.InboundRegistered}
	router := newTestRouter(&fakeStore{}, inbound)

	body := strings.NewReader(`{"from": "+358401234567", "message": "JOIN Helsinki 8am"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v0/receive-sms", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+358401234567", inbound.phone)
	assert.Equal(t, "JOIN Helsinki 8am", inbound.text)
	assert.JSONEq(t, `{"status": "registered"}`, rec.Body.String())
}

func TestReceiveSMSAcceptsForm(t *testing.T) {
	inbound := &fakeInbound{status: models.InboundUnsubscribed}
	router := newTestRouter(&fakeStore{}, inbound)

	form := url.Values{"msisdn": {"+358401234567"}, "text": {"STOP"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v0/receive-sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+358401234567", inbound.phone)
	assert.Equal(t, "STOP", inbound.text)
}

func TestReceiveSMSRejectsMissingPhone(t *testing.T) {
	router := newTestRouter(&fakeStore{}, &fakeInbound{})

	req := httptest.NewRequest(http.MethodPost, "/api/v0/receive-sms", strings.NewReader(`{"message": "STOP"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListWarningsIncludesDetails(t *testing.T) {
	store := &fakeStore{
		warnings: []models.Warning{{ID: "w1", Status: models.WarningStatusActive}},
		details: map[string][]models.WarningDetail{
			"w1": {{WarningID: "w1", Lang: "fi", Headline: "Erittain liukasta"}},
		},
	}
	router := newTestRouter(store, &fakeInbound{})

	req := httptest.NewRequest(http.MethodGet, "/api/v0/warnings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []struct {
		ID      string                 `json:"id"`
		Details []models.WarningDetail `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "w1", got[0].ID)
	require.Len(t, got[0].Details, 1)
	assert.Equal(t, "fi", got[0].Details[0].Lang)
}

func TestListInboundLogsEmpty(t *testing.T) {
	router := newTestRouter(&fakeStore{}, &fakeInbound{})

	req := httptest.NewRequest(http.MethodGet, "/api/v0/sms-logs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeStore{}, &fakeInbound{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
