package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	domainauth "trustlens-server-go/internal/domain/auth"
	"trustlens-server-go/internal/platform/observability"
	platformtesting "trustlens-server-go/internal/platform/testing"
	"trustlens-server-go/internal/utils"
)

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestBuildRequiresConfig(t *testing.T) {
	if _, err := Build(Options{}); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRouterServesDocsAndMetrics(t *testing.T) {
	cfg := platformtesting.SetupTestConfig(t)
	router, err := Build(Options{
		Config:  cfg,
		Logger:  utils.NewDiscardLogger(),
		Metrics: observability.NewMetrics(),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	rec := serve(router.Engine, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("openapi status %d", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("openapi document is not JSON: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/api/detect-deepfake"]; !ok {
		t.Fatalf("detect route missing from document")
	}

	rec = serve(router.Engine, httptest.NewRequest(http.MethodGet, "/docs", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/openapi.json") {
		t.Fatalf("docs page not served: %d", rec.Code)
	}

	rec = serve(router.Engine, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("metrics not served: %d", rec.Code)
	}
}

func TestRouterUnknownAPIRoute(t *testing.T) {
	cfg := platformtesting.SetupTestConfig(t)
	router, err := Build(Options{Config: cfg, Logger: utils.NewDiscardLogger()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	rec := serve(router.Engine, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestRouterServesStaticIndex(t *testing.T) {
	cfg := platformtesting.SetupTestConfig(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>trustlens</h1>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	cfg.Web.Enabled = true
	cfg.Web.StaticDir = dir

	router, err := Build(Options{Config: cfg, Logger: utils.NewDiscardLogger()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	rec := serve(router.Engine, httptest.NewRequest(http.MethodGet, "/some/client/route", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "trustlens") {
		t.Fatalf("expected index fallback, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestBearerAuth(t *testing.T) {
	cfg := platformtesting.SetupTestConfig(t)
	tokens := domainauth.NewAuthToken("secret")
	router, err := Build(Options{
		Config:         cfg,
		Logger:         utils.NewDiscardLogger(),
		AuthMiddleware: BearerAuth(tokens, utils.NewDiscardLogger()),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	router.Protected().GET("/ping", func(c *gin.Context) {
		RespondSuccess(c, http.StatusOK, gin.H{"subject": c.GetString(SubjectKey)}, "")
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if rec := serve(router.Engine, req); rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}

	token, err := tokens.GenerateToken("dashboard")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(router.Engine, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "dashboard") {
		t.Fatalf("expected authorised request, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequestIDHeader(t *testing.T) {
	cfg := platformtesting.SetupTestConfig(t)
	router, err := Build(Options{Config: cfg, Logger: utils.NewDiscardLogger()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	router.API.GET("/echo", func(c *gin.Context) {
		RespondSuccess(c, http.StatusOK, gin.H{"id": c.GetString(RequestIDKey)}, "")
	})

	rec := serve(router.Engine, httptest.NewRequest(http.MethodGet, "/api/echo", nil))
	minted := rec.Header().Get("X-Request-ID")
	if len(minted) != 36 || !strings.Contains(rec.Body.String(), minted) {
		t.Fatalf("expected minted uuid, got %q body %s", minted, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/echo", nil)
	req.Header.Set("X-Request-ID", "caller-123")
	rec = serve(router.Engine, req)
	if got := rec.Header().Get("X-Request-ID"); got != "caller-123" {
		t.Fatalf("expected caller id to be kept, got %q", got)
	}
}
