package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekcal/internal/config"
	"weekcal/internal/schedule"
	"weekcal/internal/view"
	"weekcal/internal/week"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	store := schedule.NewStore(map[week.DateKey][]schedule.SlotTime{
		"2025-09-01": {"09:00", "14:30"},
		"2025-09-02": {"10:15"},
		"2025-09-04": {"09:00", "10:00", "16:45", "12:21", "12:21", "12:21"},
	})
	ctrl := view.NewController(store, view.Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 9, 3, 10, 0, 0, 0, time.UTC) },
	})
	return NewServer(cfg, ctrl)
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	var st stateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	return st
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, nil).Handler(), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAPIWeek(t *testing.T) {
	rec := do(t, newTestServer(t, nil).Handler(), http.MethodGet, "/api/week")
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeState(t, rec)
	assert.Equal(t, week.DateKey("2025-09-01"), st.Week.Anchor)
	assert.Equal(t, []schedule.SlotTime{"09:00", "10:00", "12:21"}, st.Week.Days[3].Slots)
	assert.Equal(t, 3, st.Week.Days[3].Overflow)
	assert.False(t, st.Overlay.Open)
}

func TestAPINavigation(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	st := decodeState(t, do(t, h, http.MethodPost, "/api/week/next"))
	assert.Equal(t, week.DateKey("2025-09-08"), st.Week.Anchor)

	do(t, h, http.MethodPost, "/api/week/next")
	do(t, h, http.MethodPost, "/api/week/prev")
	st = decodeState(t, do(t, h, http.MethodPost, "/api/week/prev"))
	assert.Equal(t, week.DateKey("2025-09-01"), st.Week.Anchor)

	do(t, h, http.MethodPost, "/api/week/prev")
	st = decodeState(t, do(t, h, http.MethodPost, "/api/week/today"))
	assert.Equal(t, week.DateKey("2025-09-01"), st.Week.Anchor)

	rec := do(t, h, http.MethodPost, "/api/week/sideways")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIOverlay(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/overlay/select?day=2025-09-02")
	assert.Equal(t, http.StatusConflict, rec.Code)

	st := decodeState(t, do(t, h, http.MethodPost, "/api/overlay/open?day=2025-09-02"))
	assert.True(t, st.Overlay.Open)
	assert.Equal(t, []schedule.SlotTime{"10:15"}, st.Overlay.Slots)
	assert.Empty(t, st.Overlay.Placeholder)

	st = decodeState(t, do(t, h, http.MethodPost, "/api/overlay/select?day=2025-09-03"))
	assert.True(t, st.Overlay.Open)
	assert.Equal(t, week.DateKey("2025-09-03"), st.Overlay.Selected)
	assert.Empty(t, st.Overlay.Slots)
	assert.Equal(t, "No bookings", st.Overlay.Placeholder)

	rec = do(t, h, http.MethodPost, "/api/overlay/select?day=2025-09-13")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/overlay/open?day=13/09/2025")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	st = decodeState(t, do(t, h, http.MethodPost, "/api/overlay/close"))
	assert.False(t, st.Overlay.Open)
}

func TestPage(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-ready="true"`)
	assert.Contains(t, body, "Thu</strong> <small>04/09")
	assert.Contains(t, body, "+3 more")
	assert.NotContains(t, body, `role="dialog"`)

	form := url.Values{"day": {"2025-09-04"}}
	req := httptest.NewRequest(http.MethodPost, "/overlay/open", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	redirect := httptest.NewRecorder()
	h.ServeHTTP(redirect, req)
	assert.Equal(t, http.StatusSeeOther, redirect.Code)
	assert.Equal(t, "/", redirect.Header().Get("Location"))

	body = do(t, h, http.MethodGet, "/").Body.String()
	assert.Contains(t, body, `role="dialog"`)
	assert.Contains(t, body, "Thu - 04/09")
	assert.Contains(t, body, "16:45")
	assert.Contains(t, body, `value="2025-09-04" selected`)
	assert.NotContains(t, body, "No bookings")

	do(t, h, http.MethodPost, "/overlay/close")
	body = do(t, h, http.MethodGet, "/").Body.String()
	assert.NotContains(t, body, `role="dialog"`)
}

func TestPage_InvalidDay(t *testing.T) {
	rec := do(t, newTestServer(t, nil).Handler(), http.MethodPost, "/overlay/open?day=2025-09-07")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	h := newTestServer(t, cfg).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health").Code)

	rec := do(t, h, http.MethodGet, "/api/week")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/week", nil)
	req.SetBasicAuth("admin", "secret")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestBasicAuth_EmptyCredentialsDisable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin"}
	h := newTestServer(t, cfg).Handler()
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/week").Code)
}
