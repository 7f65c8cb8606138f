package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/config"
	"github.com/zapponejosh/lesson-designer/internal/congregation"
	"github.com/zapponejosh/lesson-designer/internal/content"
	"github.com/zapponejosh/lesson-designer/internal/database"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
	"github.com/zapponejosh/lesson-designer/internal/dataset/datasettest"
	"github.com/zapponejosh/lesson-designer/internal/lesson"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

// testEnv sets up a complete test environment with database, config, and handlers
type testEnv struct {
	db       *database.DB
	store    *dataset.Store
	cfg      *config.Config
	handlers *Handlers
	router   http.Handler
	adminKey string
}

// setupTest creates a fresh test environment serving the fixture dataset
// with "today" pinned to 2024-04-20.
func setupTest(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))

	db, err := database.Open(database.DefaultConfig(":memory:"), logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	if err := db.ImportDataset(ctx, datasettest.Dataset()); err != nil {
		t.Fatalf("import fixture: %v", err)
	}

	store, err := dataset.NewStore(ctx, db, logger)
	if err != nil {
		t.Fatalf("load store: %v", err)
	}

	adminKey := "admin-test-key-32-characters-minimum-length"
	cfg := &config.Config{
		Port:          8080,
		Env:           config.EnvDevelopment,
		DatabasePath:  ":memory:",
		AdminAPIKey:   adminKey,
		LogLevel:      "error",
		LogFormat:     "text",
		WindowDays:    21,
		MaxWindowDays: 180,
		MinCivilYear:  1900,
		MaxCivilYear:  2100,
	}

	service := lesson.NewService(store, cfg.YearRange(), logger)
	handlers := NewHandlers(service, store, db, cfg, logger)
	handlers.now = func() time.Time {
		return time.Date(2024, time.April, 20, 9, 0, 0, 0, time.UTC)
	}

	return &testEnv{
		db:       db,
		store:    store,
		cfg:      cfg,
		handlers: handlers,
		router:   SetupRoutes(handlers, cfg, logger),
		adminKey: adminKey,
	}
}

// do runs a request through the full router.
func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// makeRequest is a helper to make HTTP requests with optional API key
func makeRequest(method, path string, body any, apiKey string) *http.Request {
	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		bodyReader = strings.NewReader(b)
	default:
		jsonData, _ := json.Marshal(b)
		bodyReader = bytes.NewReader(jsonData)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	return req
}

// envelope mirrors Response with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

// parseResponse decodes the envelope and, when v is non-nil, its data.
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v, body: %s", err, rr.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("decode data: %v, data: %s", err, env.Data)
		}
	}
	return env
}

// expectError checks status and error code of a failed response.
func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Errorf("status = %d, want %d; body: %s", rr.Code, status, rr.Body.String())
	}
	env := parseResponse(t, rr, nil)
	if env.Success {
		t.Error("success = true, want false")
	}
	if env.Error == nil {
		t.Fatal("error payload missing")
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
	if env.Error.Detail == "" {
		t.Error("error detail is empty")
	}
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestRequestIDMiddleware_Generates(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodGet, "/health", nil, ""))
	if id := rr.Header().Get(RequestIDHeader); id == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestRequestIDMiddleware_ReusesIncoming(t *testing.T) {
	env := setupTest(t)

	const incoming = "5f0c3a4e-8f5b-4a43-9a53-6f3f3b1c2d11"
	req := makeRequest(http.MethodGet, "/health", nil, "")
	req.Header.Set(RequestIDHeader, incoming)

	rr := env.do(req)
	if got := rr.Header().Get(RequestIDHeader); got != incoming {
		t.Errorf("X-Request-ID = %q, want %q", got, incoming)
	}

	req = makeRequest(http.MethodGet, "/health", nil, "")
	req.Header.Set(RequestIDHeader, "not a uuid")
	rr = env.do(req)
	if got := rr.Header().Get(RequestIDHeader); got == "not a uuid" || got == "" {
		t.Errorf("X-Request-ID = %q, want a fresh id", got)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodOptions, "/api/v1/lessons", nil, ""))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	expectError(t, rr, http.StatusInternalServerError, CodeInternal)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "guess", http.StatusUnauthorized},
		{"admin key", env.adminKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest(http.MethodPost, "/api/v1/admin/reload", nil, tt.key))
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d; body: %s", rr.Code, tt.status, rr.Body.String())
			}
		})
	}
}

func TestAdminOnlyMiddleware_DevelopmentWithoutKey(t *testing.T) {
	env := setupTest(t)
	env.cfg.AdminAPIKey = ""

	rr := env.do(makeRequest(http.MethodPost, "/api/v1/admin/reload", nil, ""))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 in development without a key", rr.Code)
	}

	env.cfg.Env = config.EnvProduction
	rr = env.do(makeRequest(http.MethodPost, "/api/v1/admin/reload", nil, "anything"))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 in production without a key", rr.Code)
	}
}

// =============================================================================
// HEALTH & ROUTING TESTS
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodGet, "/health", nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var data map[string]string
	parseResponse(t, rr, &data)
	if diff := cmp.Diff(map[string]string{"status": "healthy", "dataset_version": "fixture-1"}, data); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	env := setupTest(t)
	env.db.Close()

	rr := env.do(makeRequest(http.MethodGet, "/health", nil, ""))
	expectError(t, rr, http.StatusServiceUnavailable, CodeUnavailable)
}

func TestUnknownRoute(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodGet, "/api/v1/nothing", nil, ""))
	expectError(t, rr, http.StatusNotFound, CodeNotFound)
}

// =============================================================================
// LESSON TESTS
// =============================================================================

func TestGenerateLesson_Success(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodPost, "/api/v1/lessons", map[string]any{
		"audience":          "adults",
		"occasion":          "Sunday worship",
		"date":              "2024-04-20",
		"topic_or_passage":  "Genesis 12:1-3",
		"lesson_type":       "sermon",
		"estimated_minutes": 35,
		"congregation_id":   datasettest.Congregation,
	}, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp lesson.Response
	env2 := parseResponse(t, rr, &resp)
	if !env2.Success {
		t.Error("success = false")
	}

	if resp.Lesson.Title != "Genesis 12:1-3: Sermon" {
		t.Errorf("title = %q", resp.Lesson.Title)
	}
	if resp.RuntimeMinutes != 35 {
		t.Errorf("runtime_minutes = %d, want 35", resp.RuntimeMinutes)
	}

	festivals := make([]string, 0, len(resp.Festivals))
	for _, f := range resp.Festivals {
		festivals = append(festivals, f.EventID)
	}
	if diff := cmp.Diff([]string{"passover", "unleavened-bread"}, festivals); diff != "" {
		t.Errorf("festivals mismatch (-want +got):\n%s", diff)
	}

	events := make([]string, 0, len(resp.Congregation.Events))
	for _, e := range resp.Congregation.Events {
		events = append(events, e.EventID)
	}
	if diff := cmp.Diff([]string{"community-seder", "youth-retreat", "anniversary", "baptism-sunday"}, events); diff != "" {
		t.Errorf("congregation events mismatch (-want +got):\n%s", diff)
	}
	if len(resp.GithubSources) == 0 {
		t.Error("github_sources is empty")
	}
}

func TestGenerateLesson_DefaultsDateToToday(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodPost, "/api/v1/lessons", map[string]any{
		"passage":     "genesis-12",
		"lesson_type": "bible_study",
		"interpreted": true,
	}, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp lesson.Response
	parseResponse(t, rr, &resp)
	if len(resp.Festivals) == 0 || resp.Festivals[0].Date != calendar.Date(2024, time.April, 23) {
		t.Errorf("festivals = %+v, want passover on 2024-04-23 first", resp.Festivals)
	}
	if resp.RuntimeMinutes != 22 {
		t.Errorf("runtime_minutes = %d, want 22", resp.RuntimeMinutes)
	}
	if resp.Congregation.Name != "" || resp.Congregation.Events == nil {
		t.Errorf("congregation = %+v, want empty context", resp.Congregation)
	}
}

func TestGenerateLesson_Errors(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"empty body", "", http.StatusBadRequest, CodeBadRequest},
		{"malformed JSON", "{not json", http.StatusBadRequest, CodeBadRequest},
		{"missing topic", map[string]any{"lesson_type": "sermon", "date": "2024-04-20"}, http.StatusBadRequest, CodeBadRequest},
		{"unknown lesson type", map[string]any{"topic": "genesis-12", "lesson_type": "homily", "date": "2024-04-20"}, http.StatusBadRequest, CodeBadRequest},
		{"impossible date", map[string]any{"topic": "genesis-12", "lesson_type": "sermon", "date": "2024-02-30"}, http.StatusBadRequest, CodeInvalidDate},
		{"date out of range", map[string]any{"topic": "genesis-12", "lesson_type": "sermon", "date": "1850-01-01"}, http.StatusBadRequest, CodeInvalidDate},
		{"window too wide", map[string]any{"topic": "genesis-12", "lesson_type": "sermon", "date": "2024-04-20", "window_days": 400}, http.StatusBadRequest, CodeBadRequest},
		{"unknown topic", map[string]any{"topic": "jonah-1", "lesson_type": "sermon", "date": "2024-04-20"}, http.StatusNotFound, CodeNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest(http.MethodPost, "/api/v1/lessons", tt.body, ""))
			expectError(t, rr, tt.status, tt.code)
		})
	}
}

// =============================================================================
// CALENDAR & CONTEXT TESTS
// =============================================================================

func TestGetFestivals(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodGet, "/api/v1/festivals?date=2024-04-20&window=21", nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var data struct {
		Date       calendar.CivilDate     `json:"date"`
		WindowDays int                    `json:"window_days"`
		Festivals  []calendar.Correlation `json:"festivals"`
	}
	parseResponse(t, rr, &data)

	want := []calendar.Correlation{
		{
			EventID: "passover", Festival: "Passover (Pesach)", Anchor: "15th of Nisan",
			Date: calendar.Date(2024, time.April, 23), DaysApart: 3, Order: 1,
			Emphasis: "Celebrates redemption from Egypt and anticipates ultimate deliverance.",
		},
		{
			EventID: "unleavened-bread", Festival: "Feast of Unleavened Bread", Anchor: "21st of Nisan",
			Date: calendar.Date(2024, time.April, 29), DaysApart: 9, Order: 2,
			Emphasis: "Calls to remove leaven, symbolizing holiness and readiness.",
		},
	}
	if diff := cmp.Diff(want, data.Festivals); diff != "" {
		t.Errorf("festivals mismatch (-want +got):\n%s", diff)
	}
	if data.Date != calendar.Date(2024, time.April, 20) || data.WindowDays != 21 {
		t.Errorf("echo = %s/%d, want 2024-04-20/21", data.Date, data.WindowDays)
	}
}

func TestGetFestivals_ZeroWindowIsEmptyList(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodGet, "/api/v1/festivals?date=2024-04-20&window=0", nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"festivals":[]`) {
		t.Errorf("body = %s, want an empty festivals array", rr.Body.String())
	}
}

func TestGetFestivals_BadQuery(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"bad date", "date=20-04-2024", CodeInvalidDate},
		{"negative window", "window=-1", CodeBadRequest},
		{"window not a number", "window=three", CodeBadRequest},
		{"window above maximum", "window=181", CodeBadRequest},
		{"bad first_adar", "first_adar=maybe", CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest(http.MethodGet, "/api/v1/festivals?"+tt.query, nil, ""))
			expectError(t, rr, http.StatusBadRequest, tt.code)
		})
	}
}

func TestGetCongregationContext(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodGet, "/api/v1/congregations/grace-chapel/context?date=2024-04-20", nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var cc congregation.Context
	parseResponse(t, rr, &cc)
	if cc.Name != "Grace Chapel" || cc.Location != "Portland, OR" {
		t.Errorf("context = %+v", cc)
	}
	if len(cc.Events) != 4 || cc.Events[0].DaysApart != 2 {
		t.Errorf("events = %+v, want 4 with community seder first", cc.Events)
	}
}

func TestGetCongregationContext_NotFound(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodGet, "/api/v1/congregations/nowhere/context", nil, ""))
	expectError(t, rr, http.StatusNotFound, CodeNotFound)
}

func TestGetTopics(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodGet, "/api/v1/topics", nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var data struct {
		DatasetVersion string                 `json:"dataset_version"`
		Topics         []content.TopicSummary `json:"topics"`
	}
	parseResponse(t, rr, &data)

	keys := make([]string, 0, len(data.Topics))
	for _, topic := range data.Topics {
		keys = append(keys, topic.Key)
	}
	if diff := cmp.Diff([]string{datasettest.TopicGenesis, datasettest.TopicPsalm, datasettest.TopicBare}, keys); diff != "" {
		t.Errorf("topic keys mismatch (-want +got):\n%s", diff)
	}
}

// =============================================================================
// ADMIN TESTS
// =============================================================================

func TestReloadDataset_PicksUpImport(t *testing.T) {
	env := setupTest(t)

	raw := datasettest.Raw()
	raw.Version = "fixture-2"
	if err := env.db.ImportDataset(context.Background(), dataset.MustPrepare(raw)); err != nil {
		t.Fatalf("import: %v", err)
	}

	rr := env.do(makeRequest(http.MethodPost, "/api/v1/admin/reload", nil, env.adminKey))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	var data map[string]string
	parseResponse(t, rr, &data)
	if diff := cmp.Diff(map[string]string{"previous_version": "fixture-1", "version": "fixture-2"}, data); diff != "" {
		t.Errorf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestReloadDataset_KeepsServingOnInvalidData(t *testing.T) {
	env := setupTest(t)

	// Write a dataset that fails validation directly, bypassing Import.
	raw := datasettest.Raw()
	raw.Version = "broken"
	raw.Festivals[0].Anchor.Day = 31
	if err := env.db.ImportDataset(context.Background(), &raw); err == nil {
		t.Fatal("import of day 31 succeeded; schema should reject it")
	}

	raw = datasettest.Raw()
	raw.Version = "broken"
	raw.Topics[0].HebrewFocus = ""
	if err := env.db.ImportDataset(context.Background(), &raw); err != nil {
		t.Fatalf("import: %v", err)
	}

	rr := env.do(makeRequest(http.MethodPost, "/api/v1/admin/reload", nil, env.adminKey))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body: %s", rr.Code, rr.Body.String())
	}
	if got := env.store.Snapshot().Version; got != "fixture-1" {
		t.Errorf("serving version = %q, want fixture-1", got)
	}
}

func TestGetDatasetStats(t *testing.T) {
	env := setupTest(t)

	raw := datasettest.Raw()
	if err := env.db.Import(context.Background(), &raw, "test"); err != nil {
		t.Fatalf("import: %v", err)
	}

	rr := env.do(makeRequest(http.MethodGet, "/api/v1/admin/dataset", nil, env.adminKey))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var data struct {
		ServingVersion string                    `json:"serving_version"`
		Stored         database.Stats            `json:"stored"`
		Imports        []database.ImportLogEntry `json:"imports"`
	}
	parseResponse(t, rr, &data)
	if data.ServingVersion != "fixture-1" || data.Stored.Topics != 3 {
		t.Errorf("stats = %+v", data)
	}
	if len(data.Imports) != 1 || !data.Imports[0].Success {
		t.Errorf("imports = %+v, want one successful import", data.Imports)
	}
}
