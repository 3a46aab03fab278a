package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"trustlens-server-go/internal/utils"
)

func writeConfig(t *testing.T, server, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
server:
  ip: 127.0.0.1
  port: 18080
%s
log:
  log_level: info
  log_dir: %q
  log_file: test.log
upload:
  dir: %q
metrics:
  enabled: true
  path: /metrics
%s`, server, filepath.Join(dir, "logs"), filepath.Join(dir, "uploads"), extra)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func initState(t *testing.T, configPath string) *appState {
	t.Helper()
	gin.SetMode(gin.TestMode)

	state := &appState{options: Options{ConfigPath: configPath, Version: "test"}}
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		state.close()
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	t.Cleanup(state.close)
	return state
}

func TestInitGraphOrder(t *testing.T) {
	want := []string{
		"config:load",
		"logging:init-provider",
		"observability:setup-hooks",
		"storage:init-history",
		"events:init-bus",
		"auth:init-tokens",
		"analysis:init-scorers",
	}
	steps := InitGraph()
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestExecuteInitStepsChecksDependencies(t *testing.T) {
	steps := []initStep{{
		ID:        "b",
		DependsOn: []string{"a"},
		Execute:   func(context.Context, *appState) error { return nil },
	}}
	if err := executeInitSteps(context.Background(), steps, &appState{}); err == nil {
		t.Fatal("expected unsatisfied dependency error")
	}
}

func TestExecuteInitStepsRejectsDuplicateIDs(t *testing.T) {
	ran := false
	noop := func(context.Context, *appState) error { ran = true; return nil }
	steps := []initStep{{ID: "a", Execute: noop}, {ID: "a", Execute: noop}}
	if err := executeInitSteps(context.Background(), steps, &appState{}); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if ran {
		t.Fatal("no step may run when the graph is invalid")
	}
}

func TestExecuteInitGraphWithSQLiteHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	state := initState(t, writeConfig(t, "", fmt.Sprintf(`
history:
  enabled: true
  driver: sqlite
  sqlite:
    path: %q
`, dbPath)))

	if state.config == nil || state.logger == nil {
		t.Fatal("config/logger not initialised")
	}
	if state.db == nil || state.history == nil {
		t.Fatal("sqlite history not initialised")
	}
	if state.bus == nil || state.mediaScorer == nil || state.jobScorer == nil || state.pipeline == nil {
		t.Fatal("analysis components not initialised")
	}
	if state.observabilityShutdown == nil {
		t.Fatal("observability shutdown hook not set")
	}
	if state.tokens != nil {
		t.Fatal("auth disabled but tokens initialised")
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestRouterRecordsAnalysesInHistory(t *testing.T) {
	state := initState(t, writeConfig(t, "", `
history:
  enabled: true
  driver: memory
`))
	router, err := buildRouter(context.Background(), state)
	if err != nil {
		t.Fatalf("buildRouter error: %v", err)
	}

	body := `{"title":"Work from home","description":"Easy money! Earn thousands weekly, no experience needed, urgent hiring, act now!","salary":"$5000 per week"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-job", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze-job status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AnalysisID string `json:"analysis_id"`
		RiskScore  int    `json:"risk_score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RiskScore != 100 {
		t.Fatalf("expected risk 100, got %d", resp.RiskScore)
	}

	state.bus.WaitAsync()

	rec = httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/"+resp.AnalysisID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history lookup status %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `trustlens_analyses_total{kind="job",outcome="fraudulent"} 1`) {
		t.Fatalf("analysis counter missing from metrics:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status %d", rec.Code)
	}
}

func TestAuthEnabledGuardsAPI(t *testing.T) {
	state := initState(t, writeConfig(t, `
  token: bootstrap-secret
  auth:
    enabled: true`, `
history:
  enabled: false
`))
	if state.tokens == nil {
		t.Fatal("expected token verifier")
	}
	router, err := buildRouter(context.Background(), state)
	if err != nil {
		t.Fatalf("buildRouter error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-job", strings.NewReader(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := state.tokens.GenerateToken("test")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/api/analyze-job", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", rec.Code)
	}
}

func TestLogBootstrapGraphOutput(t *testing.T) {
	tmp := t.TempDir()
	logCfg := &utils.LogCfg{
		LogLevel: "info",
		LogDir:   tmp,
		LogFile:  "graph.log",
	}
	logger, err := utils.NewLogger(logCfg)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logBootstrapGraph(InitGraph(), logger)
	logger.Close()

	data, err := os.ReadFile(filepath.Join(tmp, logCfg.LogFile))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	for _, step := range InitGraph() {
		if !strings.Contains(content, step.ID) {
			t.Fatalf("expected graph output to contain %q, got: %s", step.ID, content)
		}
	}
}
