// Package system serves health and scorer metadata.
package system

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	domainhistory "trustlens-server-go/internal/domain/history"
	domainimage "trustlens-server-go/internal/domain/image"
	platformerrors "trustlens-server-go/internal/platform/errors"
	"trustlens-server-go/internal/utils"
)

// ServiceName is reported by /health.
const ServiceName = "TrustLens Analysis Service"

const statsTimeout = 2 * time.Second

// HealthResponse is the /health body.
type HealthResponse struct {
	Status    string               `json:"status"`
	Service   string               `json:"service"`
	Version   string               `json:"version"`
	Timestamp string               `json:"timestamp"`
	Uptime    string               `json:"uptime"`
	Models    map[string]string    `json:"models"`
	History   *HistoryHealth       `json:"history,omitempty"`
	Images    *domainimage.Metrics `json:"images,omitempty"`
	Host      HostStats            `json:"host"`
}

// HistoryHealth reports whether the history store answered.
type HistoryHealth struct {
	OK    bool           `json:"ok"`
	Stats map[string]any `json:"stats,omitempty"`
	Error string         `json:"error,omitempty"`
}

// HostStats is a best-effort snapshot; fields stay zero when gopsutil fails.
type HostStats struct {
	Goroutines    int     `json:"goroutines"`
	CPUCount      int     `json:"cpu_count"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryTotal   uint64  `json:"memory_total"`
	MemoryUsed    uint64  `json:"memory_used"`
	MemoryPercent float64 `json:"memory_percent"`
}

// ModelInfo describes one scorer.
type ModelInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// Options wires the system service. History and Pipeline are optional.
type Options struct {
	Logger   *utils.Logger
	Version  string
	History  domainhistory.Store
	Pipeline *domainimage.Pipeline
}

// Service answers health and metadata probes.
type Service struct {
	logger   *utils.Logger
	version  string
	history  domainhistory.Store
	pipeline *domainimage.Pipeline
	started  time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.Logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "system.new", "logger is required")
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Service{
		logger:   opts.Logger,
		version:  version,
		history:  opts.History,
		pipeline: opts.Pipeline,
		started:  time.Now(),
	}, nil
}

// Register mounts /health and /api/models/info on the root group.
func (s *Service) Register(ctx context.Context, root *gin.RouterGroup) error {
	root.GET("/health", s.handleHealth)
	root.GET("/api/models/info", s.handleModelsInfo)

	s.logger.InfoTag("HTTP", "system routes registered")
	return nil
}

// handleHealth reports liveness plus host statistics.
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Service) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), statsTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Version:   s.version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Models: map[string]string{
			"deepfake_detector":  "loaded",
			"job_fraud_detector": "loaded",
		},
		Host: s.hostStats(ctx),
	}

	if s.history != nil {
		stats, err := s.history.Stats(ctx)
		if err != nil {
			s.logger.WarnTag("Health", "history stats failed: %v", err)
			resp.History = &HistoryHealth{OK: false, Error: err.Error()}
			resp.Status = "degraded"
		} else {
			resp.History = &HistoryHealth{OK: true, Stats: stats}
		}
	}
	if s.pipeline != nil {
		metrics := s.pipeline.Metrics()
		resp.Images = &metrics
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Service) hostStats(ctx context.Context) HostStats {
	stats := HostStats{Goroutines: runtime.NumGoroutine()}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.CPUCount = n
	}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryTotal = vm.Total
		stats.MemoryUsed = vm.Used
		stats.MemoryPercent = vm.UsedPercent
	} else {
		s.logger.DebugTag("Health", "memory stats unavailable: %v", err)
	}
	return stats
}

// handleModelsInfo describes the two scorers.
// @Summary Scorer metadata
// @Tags System
// @Produce json
// @Success 200 {object} map[string]ModelInfo
// @Router /api/models/info [get]
func (s *Service) handleModelsInfo(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]ModelInfo{
		"deepfake_detector": {
			Name:         "Heuristic Media Authenticity Scorer",
			Version:      "1.0",
			Description:  "Blur, artifact and texture-consistency statistics combined into a fake probability",
			Capabilities: []string{"image_analysis", "video_analysis", "artifact_detection"},
		},
		"job_fraud_detector": {
			Name:         "Rule-based Job Fraud Scorer",
			Version:      "1.0",
			Description:  "Keyword, salary-pattern and structure rules combined into a fraud probability",
			Capabilities: []string{"text_analysis", "pattern_detection", "risk_scoring"},
		},
	})
}
