// Package history serves stored analysis records.
package history

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainhistory "trustlens-server-go/internal/domain/history"
	platformerrors "trustlens-server-go/internal/platform/errors"
	httptransport "trustlens-server-go/internal/transport/http"
	"trustlens-server-go/internal/utils"
)

// maxListLimit caps ?limit= on the list route.
const maxListLimit = 500

// Service exposes the history store over HTTP.
type Service struct {
	store  domainhistory.Store
	logger *utils.Logger
}

func NewService(store domainhistory.Store, logger *utils.Logger) (*Service, error) {
	if store == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "history.new", "store is required")
	}
	if logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "history.new", "logger is required")
	}
	return &Service{store: store, logger: logger}, nil
}

// Register mounts the history routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	group := router.Group("/history")
	group.GET("", s.handleList)
	group.GET("/stats", s.handleStats)
	group.GET("/:id", s.handleGet)
	group.DELETE("/:id", s.handleDelete)

	s.logger.InfoTag("HTTP", "history routes registered")
	return nil
}

// handleList returns the newest records.
// @Summary List analyses
// @Tags History
// @Produce json
// @Param limit query int false "maximum records (default 50)"
// @Success 200 {object} httptransport.APIResponse
// @Router /api/history [get]
func (s *Service) handleList(c *gin.Context) {
	limit := domainhistory.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httptransport.RespondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxListLimit)
	}

	records, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		s.storageFailure(c, "list", err)
		return
	}
	if records == nil {
		records = []domainhistory.Record{}
	}
	httptransport.RespondSuccess(c, http.StatusOK, records, "")
}

// handleGet returns one record.
// @Summary Get an analysis
// @Tags History
// @Produce json
// @Param id path string true "analysis id"
// @Success 200 {object} httptransport.APIResponse
// @Failure 404 {object} httptransport.APIResponse
// @Router /api/history/{id} [get]
func (s *Service) handleGet(c *gin.Context) {
	record, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domainhistory.ErrNotFound) {
		httptransport.RespondError(c, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		s.storageFailure(c, "get", err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, record, "")
}

// handleDelete removes one record. Removing an unknown id succeeds.
// @Summary Delete an analysis
// @Tags History
// @Produce json
// @Param id path string true "analysis id"
// @Success 200 {object} httptransport.APIResponse
// @Router /api/history/{id} [delete]
func (s *Service) handleDelete(c *gin.Context) {
	if err := s.store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		s.storageFailure(c, "remove", err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"id": c.Param("id")}, "deleted")
}

// handleStats reports driver statistics.
// @Summary History store statistics
// @Tags History
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /api/history/stats [get]
func (s *Service) handleStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.storageFailure(c, "stats", err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, stats, "")
}

func (s *Service) storageFailure(c *gin.Context, op string, err error) {
	s.logger.ErrorTag("History", "%s failed: %v", op, err)
	httptransport.RespondError(c, http.StatusInternalServerError, "history store unavailable")
}
