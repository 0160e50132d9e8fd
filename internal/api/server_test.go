package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/config"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/notify"
	"github.com/yourusername/pitwall/internal/service"
)

const (
	testJWTSecret  = "jwt-test-secret"
	testCronSecret = "cron-test-secret"
)

type stubSync struct {
	result  service.SyncResult
	sources []models.SyncSource
}

func (s *stubSync) Run(ctx context.Context, source models.SyncSource) service.SyncResult {
	s.sources = append(s.sources, source)
	return s.result
}

type stubUserStats struct {
	userID   uuid.UUID
	override *string
	result   service.UserStatsResult
}

func (s *stubUserStats) SyncUserStats(ctx context.Context, userID uuid.UUID, override *string) service.UserStatsResult {
	s.userID = userID
	s.override = override
	return s.result
}

type stubEvents struct {
	events  map[string]*models.Event
	lookups atomic.Int32
}

func (s *stubEvents) GetByExternalID(ctx context.Context, externalID string) (*models.Event, error) {
	s.lookups.Add(1)
	ev, ok := s.events[externalID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return ev, nil
}

func (s *stubEvents) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	s.lookups.Add(1)
	out := make([]models.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, *ev)
	}
	return out, nil
}

type stubSyncLogs struct {
	logs  []models.SyncLog
	err   error
	limit int
}

func (s *stubSyncLogs) ListRecent(ctx context.Context, limit int) ([]models.SyncLog, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.logs, nil
}

type stubDriverStats struct {
	stats map[uuid.UUID][]models.DriverStats
	err   error
}

func (s *stubDriverStats) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DriverStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stats[userID], nil
}

type stubNotifier struct {
	err error
}

func (n *stubNotifier) NotifyEvent(ctx context.Context, externalID string) (*notify.Payload, error) {
	if n.err != nil {
		return nil, n.err
	}
	return &notify.Payload{EventName: "Roar", Participants: []notify.Participant{{Name: "Alex"}}}, nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type stubUpstream string

func (u stubUpstream) State() string { return string(u) }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "pitwall",
			Environment: "development",
			LogLevel:    "info",
			BaseURL:     "https://pitwall.example.com",
			Timezone:    "UTC",
		},
		Server:  config.ServerConfig{Port: 8080},
		Sync:    config.SyncConfig{CronSecret: testCronSecret},
		Metrics: config.MetricsConfig{Enabled: false},
	}
}

func testEvent() *models.Event {
	start := time.Date(2026, 1, 24, 18, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:           uuid.New(),
		ExternalID:   "ir_228_9001_w0",
		Name:         "Special Event - Roar Before the 24",
		StartTime:    start,
		EndTime:      start.Add(3 * time.Hour),
		Track:        "Daytona International Speedway",
		DurationMins: 180,
		CarClasses:   []models.CarClass{{ExternalID: 4029, Name: "GTP Class", ShortName: "GTP"}},
		Races:        []models.Race{{ExternalID: "ir_228_9001_w0_s0", StartTime: start, EndTime: start.Add(3 * time.Hour)}},
	}
}

type harness struct {
	server      *Server
	sync        *stubSync
	userStats   *stubUserStats
	events      *stubEvents
	syncLogs    *stubSyncLogs
	driverStats *stubDriverStats
	pages       *cache.PageCache
	tokens      *TokenManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens, err := NewTokenManager(testJWTSecret)
	require.NoError(t, err)

	ev := testEvent()
	h := &harness{
		sync:        &stubSync{result: service.SyncResult{Success: true, Events: 2}},
		userStats:   &stubUserStats{result: service.UserStatsResult{Success: true, Licenses: 2}},
		events:      &stubEvents{events: map[string]*models.Event{ev.ExternalID: ev}},
		syncLogs:    &stubSyncLogs{},
		driverStats: &stubDriverStats{stats: map[uuid.UUID][]models.DriverStats{}},
		pages:       cache.NewPageCache(time.Minute),
		tokens:      tokens,
	}
	h.server = NewServer(testConfig(), Dependencies{
		Sync:        h.sync,
		UserStats:   h.userStats,
		Events:      h.events,
		Pages:       h.pages,
		SyncLogs:    h.syncLogs,
		DriverStats: h.driverStats,
		Notifier:    &stubNotifier{},
		DB:          stubPinger{},
		Upstream:    stubUpstream("closed"),
		Tokens:      tokens,
	}, "test", logger.Discard())
	return h
}

func (h *harness) do(t *testing.T, method, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) token(t *testing.T, role models.Role) string {
	t.Helper()
	tok, err := h.tokens.IssueToken(uuid.NewString(), role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("")
	assert.Error(t, err)
}

func TestTokenManager_RoundTripAndExpiry(t *testing.T) {
	tokens, err := NewTokenManager(testJWTSecret)
	require.NoError(t, err)

	tok, err := tokens.IssueToken("user-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	claims, err := tokens.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	expired, err := tokens.IssueToken("user-1", models.RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = tokens.ValidateToken(expired)
	assert.Error(t, err)

	other, err := NewTokenManager("another-secret")
	require.NoError(t, err)
	_, err = other.ValidateToken(tok)
	assert.Error(t, err)
}

func TestAdminSync_RequiresAdminToken(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		bearer string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"user role", h.token(t, models.RoleUser), http.StatusForbidden},
		{"admin role", h.token(t, models.RoleAdmin), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/api/admin/sync", tt.bearer)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, []models.SyncSource{models.SyncSourceManual}, h.sync.sources)
}

func TestAdminSync_ReportsOutcome(t *testing.T) {
	tests := []struct {
		name   string
		result service.SyncResult
		want   int
	}{
		{"success", service.SyncResult{Success: true, Events: 3}, http.StatusOK},
		{"disabled", service.SyncResult{Error: models.ErrIntegrationDisabled.Error()}, http.StatusServiceUnavailable},
		{"failure", service.SyncResult{Error: "upstream down", LogID: "abc"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.sync.result = tt.result

			rec := h.do(t, http.MethodPost, "/api/admin/sync", h.token(t, models.RoleAdmin))
			require.Equal(t, tt.want, rec.Code)

			var body service.SyncResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.result.Success, body.Success)
			assert.Equal(t, tt.result.Error, body.Error)
		})
	}
}

func TestAdminRoutes_WithoutTokenManager(t *testing.T) {
	srv := NewServer(testConfig(), Dependencies{Sync: &stubSync{}}, "test", logger.Discard())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/sync", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCronSync(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/cron/sync", "").Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/cron/sync", "wrong").Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/cron/sync", testCronSecret).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/cron/sync", testCronSecret).Code)

	assert.Equal(t, []models.SyncSource{models.SyncSourceCron, models.SyncSourceCron}, h.sync.sources)
}

func TestCronSync_EmptySecretRejectsAll(t *testing.T) {
	cfg := testConfig()
	cfg.Sync.CronSecret = ""
	srv := NewServer(cfg, Dependencies{Sync: &stubSync{}}, "test", logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/cron/sync", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserStats(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, models.RoleAdmin)
	userID := uuid.New()

	rec := h.do(t, http.MethodPost, "/api/admin/users/"+userID.String()+"/stats?customer_id=123456", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, h.userStats.userID)
	require.NotNil(t, h.userStats.override)
	assert.Equal(t, "123456", *h.userStats.override)

	rec = h.do(t, http.MethodPost, "/api/admin/users/"+userID.String()+"/stats", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, h.userStats.override)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/admin/users/nope/stats", admin).Code)

	h.userStats.result = service.UserStatsResult{Error: "no member found"}
	rec = h.do(t, http.MethodPost, "/api/admin/users/"+userID.String()+"/stats", admin)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "no member found")
}

func TestSyncLogs(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, models.RoleAdmin)
	errMsg := "failed to fetch events: context canceled"
	h.syncLogs.logs = []models.SyncLog{
		{ID: uuid.New(), Status: models.SyncStatusFailure, Source: models.SyncSourceCron, Error: &errMsg},
		{ID: uuid.New(), Status: models.SyncStatusSuccess, Source: models.SyncSourceManual, Count: 4},
	}

	rec := h.do(t, http.MethodGet, "/api/admin/sync-logs", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultSyncLogLimit, h.syncLogs.limit)

	var body struct {
		Logs []models.SyncLog `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Logs, 2)
	assert.Equal(t, models.SyncStatusFailure, body.Logs[0].Status)
	require.NotNil(t, body.Logs[0].Error)
	assert.Equal(t, errMsg, *body.Logs[0].Error)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/admin/sync-logs?limit=5000", admin).Code)
	assert.Equal(t, maxSyncLogLimit, h.syncLogs.limit)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/admin/sync-logs?limit=-1", admin).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/admin/sync-logs", "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/admin/sync-logs", h.token(t, models.RoleUser)).Code)

	h.syncLogs.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, h.do(t, http.MethodGet, "/api/admin/sync-logs", admin).Code)

	h.server.deps.SyncLogs = nil
	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, "/api/admin/sync-logs", admin).Code)
}

func TestStoredUserStats(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, models.RoleAdmin)
	userID := uuid.New()
	h.driverStats.stats[userID] = []models.DriverStats{
		{UserID: userID, CategoryID: 2, Category: "road", LicenseLevel: 18, IRating: 2450, GroupName: "Class A"},
	}

	rec := h.do(t, http.MethodGet, "/api/admin/users/"+userID.String()+"/stats", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"irating":2450`)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Equal(t, uuid.Nil, h.userStats.userID, "reading stored stats must not trigger a refresh")

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/admin/users/nope/stats", admin).Code)

	h.driverStats.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, h.do(t, http.MethodGet, "/api/admin/users/"+userID.String()+"/stats", admin).Code)

	h.server.deps.DriverStats = nil
	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, "/api/admin/users/"+userID.String()+"/stats", admin).Code)
}

func TestNotifyEvent(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, models.RoleAdmin)

	rec := h.do(t, http.MethodPost, "/api/admin/events/ir_228_9001_w0/notify", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"participants":1`)

	h.server.deps.Notifier = &stubNotifier{err: models.ErrNotFound}
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPost, "/api/admin/events/x/notify", admin).Code)

	h.server.deps.Notifier = &stubNotifier{err: errors.New("discord down")}
	assert.Equal(t, http.StatusBadGateway, h.do(t, http.MethodPost, "/api/admin/events/x/notify", admin).Code)

	h.server.deps.Notifier = &stubNotifier{err: notify.ErrDisabled}
	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodPost, "/api/admin/events/x/notify", admin).Code)

	h.server.deps.Notifier = nil
	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodPost, "/api/admin/events/x/notify", admin).Code)
}

func TestCalendarICS_IsCached(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/events/ir_228_9001_w0/calendar.ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Special Event - Roar Before the 24")
	assert.Contains(t, body, "UID:ir_228_9001_w0@")

	again := h.do(t, http.MethodGet, "/api/events/ir_228_9001_w0/calendar.ics", "")
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, body, again.Body.String())
	assert.Equal(t, int32(1), h.events.lookups.Load())

	h.pages.InvalidatePrefix(cache.EventPagePrefix("ir_228_9001_w0"))
	h.do(t, http.MethodGet, "/api/events/ir_228_9001_w0/calendar.ics", "")
	assert.Equal(t, int32(2), h.events.lookups.Load())
}

func TestCalendarICS_UnknownEvent(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/events/ir_0_0_w0/calendar.ics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, h.pages.ItemCount())
}

func TestCalendarLinks(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/events/ir_228_9001_w0/calendar-links", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var links map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &links))
	assert.True(t, strings.HasPrefix(links["google"], "https://calendar.google.com/"))
	assert.True(t, strings.HasPrefix(links["outlook"], "https://outlook.live.com/"))
}

func TestUpcomingEvents(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/events?limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []UpcomingEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "ir_228_9001_w0", rows[0].ExternalID)
	assert.Equal(t, 1, rows[0].Races)
	assert.Equal(t, []string{"GTP"}, rows[0].CarClasses)
	assert.Nil(t, rows[0].NextRace)

	assert.Equal(t, 1, h.pages.InvalidatePrefix(cache.ListPagePrefix))
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/events?limit=abc", "").Code)
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/live", "").Code)

	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, "/ready", "").Code)
	h.server.SetReady(true)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/ready", "").Code)

	h.server.deps.Upstream = stubUpstream("open")
	rec := h.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"upstream":"circuit_open"`)

	h.server.deps.DB = stubPinger{err: errors.New("connection refused")}
	rec = h.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Contains(t, body.Checks["database"], "connection refused")
}
