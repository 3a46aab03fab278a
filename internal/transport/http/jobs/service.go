// Package jobs serves the job-posting fraud endpoint.
package jobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trustlens-server-go/internal/domain/eventbus"
	"trustlens-server-go/internal/domain/history"
	"trustlens-server-go/internal/domain/jobfraud"
	platformerrors "trustlens-server-go/internal/platform/errors"
	"trustlens-server-go/internal/platform/observability"
	httptransport "trustlens-server-go/internal/transport/http"
	"trustlens-server-go/internal/utils"
)

// maxBodyBytes bounds a posting body.
const maxBodyBytes = 1 << 20

// AnalyzeResponse is the body returned for a scored posting.
type AnalyzeResponse struct {
	Success         bool           `json:"success"`
	AnalysisID      string         `json:"analysis_id"`
	IsFraudulent    bool           `json:"is_fraudulent"`
	RiskScore       int            `json:"risk_score"`
	Confidence      float64        `json:"confidence"`
	FraudIndicators []string       `json:"fraud_indicators"`
	Explanation     string         `json:"explanation"`
	Details         jobfraud.Stats `json:"details"`
}

// Service scores job postings.
type Service struct {
	logger    *utils.Logger
	scorer    *jobfraud.Scorer
	publisher eventbus.Publisher
}

func NewService(scorer *jobfraud.Scorer, publisher eventbus.Publisher, logger *utils.Logger) (*Service, error) {
	if scorer == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "jobs.new", "scorer is required")
	}
	if logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "jobs.new", "logger is required")
	}
	return &Service{logger: logger, scorer: scorer, publisher: publisher}, nil
}

// Register mounts the job routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/analyze-job", s.handleAnalyze)

	s.logger.InfoTag("HTTP", "job analysis routes registered")
	return nil
}

// handleAnalyze scores one job posting.
// @Summary Analyze a job posting
// @Description Score a job posting for fraud signals
// @Tags Jobs
// @Accept json
// @Produce json
// @Param posting body jobfraud.Posting true "job posting"
// @Success 200 {object} AnalyzeResponse
// @Failure 400 {object} httptransport.APIResponse
// @Router /api/analyze-job [post]
func (s *Service) handleAnalyze(c *gin.Context) {
	start := time.Now()

	posting, ok := s.decodePosting(c)
	if !ok {
		return
	}

	ctx, spanEnd := observability.StartSpan(c.Request.Context(), "jobs", "analyze")
	result := s.scorer.Score(posting)
	spanEnd(nil)

	response := AnalyzeResponse{
		Success:         true,
		AnalysisID:      uuid.NewString(),
		IsFraudulent:    result.IsFraudulent,
		RiskScore:       result.RiskScore,
		Confidence:      result.Confidence,
		FraudIndicators: result.Indicators,
		Explanation:     fmt.Sprintf("This job posting has a %d%% fraud probability.", result.RiskScore),
		Details:         result.Stats,
	}

	s.publish(response, posting)
	observability.ObserveAnalysis(ctx, string(history.KindJob), outcome(result.IsFraudulent), result.RiskScore, time.Since(start))
	s.logger.InfoTag("Jobs", "posting %q -> risk=%d indicators=%d", posting.Title, result.RiskScore, len(result.Indicators))

	c.JSON(http.StatusOK, response)
}

// decodePosting reads the JSON body. An absent body, null or an object with no
// keys is rejected the same way as malformed JSON.
func (s *Service) decodePosting(c *gin.Context) (jobfraud.Posting, bool) {
	var posting jobfraud.Posting

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "No data provided")
		return posting, false
	}
	if len(body) > maxBodyBytes {
		httptransport.RespondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
		return posting, false
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		httptransport.RespondError(c, http.StatusBadRequest, "No data provided")
		return posting, false
	}

	// decode once loosely so null and whitespace-only objects read as empty
	var fields map[string]any
	if err := sonic.Unmarshal(trimmed, &fields); err != nil {
		s.logger.WarnTag("Jobs", "malformed posting body: %v", err)
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid JSON body")
		return posting, false
	}
	if len(fields) == 0 {
		httptransport.RespondError(c, http.StatusBadRequest, "No data provided")
		return posting, false
	}
	if err := sonic.Unmarshal(trimmed, &posting); err != nil {
		s.logger.WarnTag("Jobs", "malformed posting body: %v", err)
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid JSON body")
		return posting, false
	}
	return posting, true
}

func (s *Service) publish(response AnalyzeResponse, posting jobfraud.Posting) {
	if s.publisher == nil {
		return
	}

	label := "Legitimate"
	if response.IsFraudulent {
		label = "Fraudulent"
	}
	s.publisher.PublishAsync(eventbus.EventAnalysisCompleted, history.Record{
		ID:         response.AnalysisID,
		Kind:       history.KindJob,
		Label:      label,
		Flagged:    response.IsFraudulent,
		RiskScore:  response.RiskScore,
		Confidence: response.Confidence,
		Indicators: response.FraudIndicators,
		Details: map[string]any{
			"keyword_matches":    response.Details.KeywordMatches,
			"text_length":        response.Details.TextLength,
			"legitimate_signals": response.Details.LegitimateSignalCount,
		},
		Source: posting.Title,
	})
}

func outcome(fraudulent bool) string {
	if fraudulent {
		return "fraudulent"
	}
	return "legitimate"
}
