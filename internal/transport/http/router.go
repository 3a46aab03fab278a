// Package httptransport builds the gin engine shared by the analysis, history and
// system services.
package httptransport

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"trustlens-server-go/internal/platform/config"
	"trustlens-server-go/internal/platform/observability"
	"trustlens-server-go/internal/utils"
)

const defaultMetricsPath = "/metrics"

// Options configures the HTTP router builder.
type Options struct {
	Config *config.Config
	Logger *utils.Logger
	// AuthMiddleware guards the Secured group. Nil leaves /api open.
	AuthMiddleware gin.HandlerFunc
	// Metrics is mounted at Config.Metrics.Path when non-nil.
	Metrics *observability.Metrics
}

// Router holds the engine plus the /api groups services register on.
type Router struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	Secured *gin.RouterGroup
}

// Protected returns the group analysis routes belong to: Secured when auth is on,
// API otherwise.
func (r *Router) Protected() *gin.RouterGroup {
	if r.Secured != nil {
		return r.Secured
	}
	return r.API
}

// Build returns an engine with recovery, request ids, access logging, CORS,
// the optional SPA bundle, metrics and API docs already mounted.
func Build(opts Options) (*Router, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("http router requires config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.DefaultLogger
	}

	gin.SetMode(ginMode(cfg.Log.Level))
	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("configure trusted proxies: %w", err)
	}
	engine.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		accessMiddleware(logger),
		cors.New(corsConfig()),
	)

	mountWeb(engine, cfg.Web)
	if opts.Metrics != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = defaultMetricsPath
		}
		engine.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}
	mountDocs(engine, logger)

	router := &Router{Engine: engine, API: engine.Group("/api")}
	if opts.AuthMiddleware != nil {
		router.Secured = router.API.Group("", opts.AuthMiddleware)
	}
	return router, nil
}

func ginMode(level string) string {
	if strings.EqualFold(level, "debug") {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

func corsConfig() cors.Config {
	return cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
}

// mountWeb serves the dashboard bundle and falls back to its index.html for
// client-side routes. Unknown /api paths always get the JSON 404.
func mountWeb(engine *gin.Engine, web config.WebConfig) {
	root := ""
	if web.Enabled && isDir(web.StaticDir) {
		root = web.StaticDir
		engine.Use(static.Serve("/", static.LocalFile(root, false)))
	}

	engine.NoRoute(func(c *gin.Context) {
		if root != "" && !strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.File(filepath.Join(root, "index.html"))
			return
		}
		RespondError(c, http.StatusNotFound, "not found")
	})
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
