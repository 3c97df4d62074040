package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamshield/internal/api/handlers"
	apimiddleware "scamshield/internal/api/middleware"
	"scamshield/internal/config"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/community"
	"scamshield/internal/domain/services/patterns"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/internal/domain/services/scan"
	"scamshield/internal/domain/services/scoring"
	"scamshield/internal/infrastructure/cache"
	"scamshield/internal/infrastructure/memory"
	"scamshield/internal/streaming"
	"scamshield/pkg/logger"
)

const testSecret = "test-secret"

var (
	alice  = models.Actor{UserID: "alice", Name: "Alice", Role: models.RoleUser}
	bob    = models.Actor{UserID: "bob", Name: "Bob", Role: models.RoleUser}
	expert = models.Actor{UserID: "ada", Name: "Ada", Role: models.RoleExpert}
)

type testServer struct {
	handler http.Handler
	cfg     config.Config
}

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{Version: "test"},
		JWT: config.JWTConfig{Secret: testSecret, Issuer: "scamshield"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
		},
	}
}

func newTestServer(t *testing.T, cfg config.Config, limiter apimiddleware.RateLimitStore) *testServer {
	t.Helper()
	log := logger.Nop()

	bus := streaming.NewEventBus(nil, log)
	hub := streaming.NewWebSocketHub(log, phoneintel.NewNormalizer("NG"))
	events := streaming.NewEventBusPublisher(bus, hub)

	blacklist := community.NewBlacklistService(memory.NewBlacklistStore(), phoneintel.NewNormalizer("NG"), events, log)
	ledger := community.NewLedger(memory.NewReputationStore(), community.DefaultLeaderboardLimits(), log)
	workflow := community.NewWorkflow(memory.NewReportStore(), ledger, blacklist, events, community.DefaultRewards(), log)

	catalog, err := patterns.Default()
	require.NoError(t, err)
	analyzer := phoneintel.NewAnalyzer(blacklist, phoneintel.DefaultConfig(), log)
	scans := scan.NewService(scoring.NewScorer(catalog, analyzer, log), memory.NewScanStore(), log).WithReports(workflow)

	h := handlers.NewHandlers(handlers.Dependencies{
		Scans:     scans,
		Workflow:  workflow,
		Ledger:    ledger,
		Blacklist: blacklist,
		Checks: map[string]handlers.Checker{
			"memory": func(context.Context) error { return nil },
		},
		WSHub:    hub,
		EventBus: bus,
		Version:  cfg.App.Version,
		Logger:   log,
	})

	return &testServer{handler: NewRouter(cfg, h, limiter, log).Setup(), cfg: cfg}
}

func (s *testServer) do(t *testing.T, actor *models.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := apimiddleware.IssueToken(*actor, []byte(testSecret), s.cfg.JWT.Issuer, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestPublicEndpoints(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	rec := srv.do(t, nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	health := decode[handlers.HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)

	rec = srv.do(t, nil, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[handlers.HealthResponse](t, rec)
	assert.Equal(t, "healthy", ready.Checks["memory"])

	rec = srv.do(t, nil, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scamshield_api_")
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	rec := srv.do(t, nil, http.MethodGet, "/api/v1/reputation/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reputation/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	wrongIssuer, err := apimiddleware.IssueToken(alice, []byte(testSecret), "someone-else", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/reputation/me", nil)
	req.Header.Set("Authorization", "Bearer "+wrongIssuer)
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/reputation/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	progress := decode[models.ReputationProgress](t, rec)
	assert.Equal(t, "alice", progress.UserID)
	assert.Equal(t, 0, progress.Points)
	assert.Equal(t, models.LevelBeginner, progress.Level)
}

func TestScanEndpoints(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
		wantErr  string
	}{
		{"missing message", map[string]string{"phone": "08031234567"}, http.StatusBadRequest, "MISSING_FIELDS"},
		{"bad phone", map[string]string{"message": "hello", "phone": "12ab"}, http.StatusBadRequest, "INVALID_PHONE"},
		{"valid", map[string]string{"message": "URGENT: federal government contract requires your account number today", "phone": "0803 123 4567"}, http.StatusCreated, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, &alice, http.MethodPost, "/api/v1/scans", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode[handlers.ErrorResponse](t, rec).Code)
			}
		})
	}

	rec := srv.do(t, &alice, http.MethodGet, "/api/v1/scans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[handlers.ListResponse[*models.ScanReport]](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Total)
	scanID := list.Items[0].ID.String()
	assert.NotEqual(t, models.RiskLevelLow, list.Items[0].RiskLevel)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/scans/"+scanID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, &bob, http.MethodGet, "/api/v1/scans/"+scanID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/scans/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/scans/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.ScanStats](t, rec)
	assert.Equal(t, 1, stats.TotalScans)
	assert.Equal(t, 1, stats.ThreatsDetected)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/scans/analytics?days=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	analytics := decode[models.ScanAnalytics](t, rec)
	assert.Equal(t, 3, analytics.Days)
	assert.Equal(t, []int{0, 0, 1}, analytics.ScanCounts)
	assert.Equal(t, []int{0, 0, 1}, analytics.ThreatCounts)
	assert.NotEmpty(t, analytics.TopPatterns)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/scans/analytics?days=week", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_DAYS", decode[handlers.ErrorResponse](t, rec).Code)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activity := decode[handlers.ListResponse[models.ActivityItem]](t, rec)
	require.Len(t, activity.Items, 1)
	assert.Equal(t, models.ActivityThreat, activity.Items[0].Type)
	assert.Equal(t, scanID, activity.Items[0].RefID.String())

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/scans/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;"))
	export := decode[models.ScanExport](t, rec)
	assert.Equal(t, "alice", export.UserID)
	assert.Len(t, export.Reports, 1)
}

func TestCommunityVerificationFlow(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	rec := srv.do(t, &alice, http.MethodPost, "/api/v1/community/reports", models.SubmitReportRequest{
		PhoneNumber: "08091112233",
		Message:     "Congratulations, you won N500,000. Pay N5,000 processing fee",
		ScamType:    "lottery",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	report := decode[models.CommunityReport](t, rec)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	base := "/api/v1/community/reports/" + report.ID.String()

	rec = srv.do(t, &bob, http.MethodPost, base+"/vote", models.VoteRequest{Direction: models.VoteUp})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.VoteTally{Upvotes: 1}, decode[models.VoteTally](t, rec))

	rec = srv.do(t, &bob, http.MethodPost, base+"/vote", map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, &bob, http.MethodPost, base+"/verify", models.VerifyRequest{Decision: models.ReportStatusVerified})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, &expert, http.MethodPost, base+"/verify", models.VerifyRequest{Decision: models.ReportStatusVerified, Notes: "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.ReportStatusVerified, decode[models.CommunityReport](t, rec).Status)

	rec = srv.do(t, &expert, http.MethodPost, base+"/verify", models.VerifyRequest{Decision: models.ReportStatusRejected})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_RESOLVED", decode[handlers.ErrorResponse](t, rec).Code)

	rec = srv.do(t, &bob, http.MethodGet, "/api/v1/blacklist/08091112233", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entry := decode[models.BlacklistEntry](t, rec)
	assert.Equal(t, "+2348091112233", entry.Phone)
	assert.Equal(t, "alice", entry.ReportedBy)

	// The promoted number now feeds back into scoring
	rec = srv.do(t, &bob, http.MethodPost, "/api/v1/scans", map[string]string{"message": "hi", "phone": "08091112233"})
	require.Equal(t, http.StatusCreated, rec.Code)
	scanned := decode[models.ScanReport](t, rec)
	assert.Equal(t, models.BlacklistStatusBlacklisted, scanned.PhoneAnalysis.BlacklistStatus)

	rec = srv.do(t, &bob, http.MethodGet, "/api/v1/reputation/alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[models.ReputationProgress](t, rec)
	assert.Equal(t, 60, progress.Points)
	assert.Equal(t, 1, progress.ReportsSubmitted)
	assert.Equal(t, 1, progress.ReportsVerified)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/leaderboard?type=points", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[struct {
		Type    string                    `json:"type"`
		Entries []models.LeaderboardEntry `json:"entries"`
	}](t, rec)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "alice", board.Entries[0].UserID)
	assert.Equal(t, "ada", board.Entries[1].UserID)
	assert.Equal(t, 25, board.Entries[1].Points)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/leaderboard?type=karma", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/community/my-reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[handlers.ListResponse[*models.CommunityReport]](t, rec).Total)

	rec = srv.do(t, &bob, http.MethodGet, "/api/v1/community/my-reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[handlers.ListResponse[*models.CommunityReport]](t, rec).Total)

	rec = srv.do(t, &bob, http.MethodGet, "/api/v1/community/reports?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activity := decode[handlers.ListResponse[models.ActivityItem]](t, rec)
	require.Len(t, activity.Items, 1)
	assert.Equal(t, models.ActivityReport, activity.Items[0].Type)
	assert.Equal(t, report.ID, activity.Items[0].RefID)
	assert.Equal(t, "lottery report on 08091112233 is verified", activity.Items[0].Description)
}

func TestBlacklistEndpoints(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	rec := srv.do(t, &alice, http.MethodPost, "/api/v1/blacklist/report", models.ReportScammerRequest{
		Phone:  "+234 803 000 1111",
		Reason: "asked for my ATM PIN",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "+2348030001111", decode[models.BlacklistEntry](t, rec).Phone)

	rec = srv.do(t, &alice, http.MethodPost, "/api/v1/blacklist/report", map[string]string{"phone": "08030001111"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/blacklist", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[handlers.ListResponse[*models.BlacklistEntry]](t, rec).Total)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/blacklist/%2B2348030001111", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/blacklist/08099999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, &alice, http.MethodGet, "/api/v1/blacklist/08030001111/related", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	related := decode[map[string]any](t, rec)
	assert.Empty(t, related["related"])
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	limiter := cache.NewRedisFromClient(client, "test:", logger.Nop())

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	srv := newTestServer(t, cfg, limiter)

	for i := 0; i < 2; i++ {
		rec := srv.do(t, &alice, http.MethodGet, "/api/v1/reputation/me", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := srv.do(t, &alice, http.MethodGet, "/api/v1/reputation/me", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Limits are per user
	rec = srv.do(t, &bob, http.MethodGet, "/api/v1/reputation/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
