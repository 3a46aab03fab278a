// Package detect serves the media authenticity endpoint.
package detect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trustlens-server-go/internal/domain/authenticity"
	"trustlens-server-go/internal/domain/eventbus"
	"trustlens-server-go/internal/domain/history"
	domainimage "trustlens-server-go/internal/domain/image"
	"trustlens-server-go/internal/domain/media"
	"trustlens-server-go/internal/platform/config"
	platformerrors "trustlens-server-go/internal/platform/errors"
	"trustlens-server-go/internal/platform/observability"
	httptransport "trustlens-server-go/internal/transport/http"
	"trustlens-server-go/internal/utils"
)

// multipartSlack is the allowance on top of the file limit for multipart framing.
const multipartSlack = 1 << 20

// FrameSampler extracts frames from a container video on disk.
type FrameSampler interface {
	Sample(ctx context.Context, path string, maxFrames int) ([]authenticity.FrameSample, error)
}

// Options wires the detect service.
type Options struct {
	Config    *config.Config
	Logger    *utils.Logger
	Pipeline  *domainimage.Pipeline
	Scorer    *authenticity.Scorer
	Sampler   FrameSampler
	Publisher eventbus.Publisher
}

// Service handles media uploads.
type Service struct {
	logger    *utils.Logger
	config    *config.Config
	pipeline  *domainimage.Pipeline
	scorer    *authenticity.Scorer
	sampler   FrameSampler
	publisher eventbus.Publisher
	allowed   map[string]struct{}
}

// analysis is one scored upload.
type analysis struct {
	kind   media.Kind
	result authenticity.Result
}

// NewService validates the dependencies and prepares the upload directory.
func NewService(opts Options) (*Service, error) {
	if opts.Config == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "detect.new", "config is required")
	}
	if opts.Logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "detect.new", "logger is required")
	}
	if opts.Pipeline == nil || opts.Scorer == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "detect.new", "image pipeline and scorer are required")
	}
	if err := os.MkdirAll(opts.Config.Upload.Dir, 0o755); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "detect.new", "failed to create upload directory", err)
	}

	allowed := make(map[string]struct{}, len(opts.Config.Upload.AllowedExtensions))
	for _, ext := range opts.Config.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if media.Classify(ext) != media.KindUnknown {
			allowed[ext] = struct{}{}
		}
	}

	return &Service{
		logger:    opts.Logger,
		config:    opts.Config,
		pipeline:  opts.Pipeline,
		scorer:    opts.Scorer,
		sampler:   opts.Sampler,
		publisher: opts.Publisher,
		allowed:   allowed,
	}, nil
}

// Register mounts the detect routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/detect-deepfake", s.handleDetect)

	s.logger.InfoTag("HTTP", "detect routes registered")
	return nil
}

// handleDetect scores an uploaded image, animation or video.
// @Summary Detect manipulated media
// @Description Upload an image, GIF or video and receive a heuristic fake probability
// @Tags Detection
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "media file"
// @Success 200 {object} DetectResponse
// @Failure 400 {object} httptransport.APIResponse
// @Failure 413 {object} httptransport.APIResponse
// @Failure 422 {object} httptransport.APIResponse
// @Router /api/detect-deepfake [post]
func (s *Service) handleDetect(c *gin.Context) {
	start := time.Now()
	maxSize := s.config.Upload.MaxFileSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartSlack)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httptransport.RespondError(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		httptransport.RespondError(c, http.StatusBadRequest, "No file provided")
		return
	}
	if header.Filename == "" {
		httptransport.RespondError(c, http.StatusBadRequest, "No file selected")
		return
	}

	ext := media.Extension(header.Filename)
	if _, ok := s.allowed[ext]; !ok {
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid file type")
		return
	}
	if header.Size > maxSize {
		httptransport.RespondError(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	path := filepath.Join(s.config.Upload.Dir, uuid.NewString()+"."+ext)
	if err := c.SaveUploadedFile(header, path); err != nil {
		s.logger.ErrorTag("Detect", "failed to store upload %s: %v", header.Filename, err)
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.WarnTag("Detect", "failed to remove upload %s: %v", path, err)
		}
	}()

	ctx := c.Request.Context()
	if timeout := s.config.Media.AnalysisTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, spanEnd := observability.StartSpan(ctx, "detect", "analyze")
	out, err := s.analyze(ctx, path, ext)
	spanEnd(err)
	if err != nil {
		s.fail(ctx, c, header.Filename, err, time.Since(start))
		return
	}

	response := s.buildResponse(out)
	s.publish(response, out, header.Filename)
	observability.ObserveAnalysis(ctx, string(history.KindMedia), outcome(out.result.IsFake), out.result.RiskScore, time.Since(start))
	s.logger.InfoTag("Detect", "%s %s -> %s risk=%d (%s)",
		out.kind, header.Filename, response.Result, response.RiskScore, time.Since(start))

	c.JSON(http.StatusOK, response)
}

func (s *Service) analyze(ctx context.Context, path, ext string) (analysis, error) {
	kind := media.Classify(ext)
	maxFrames := s.config.Media.MaxFrames

	switch kind {
	case media.KindImage, media.KindAnimation:
		file, err := os.Open(path)
		if err != nil {
			return analysis{}, fmt.Errorf("open upload: %w", err)
		}
		defer file.Close()

		decoded, err := s.pipeline.Process(ctx, domainimage.Input{
			Reader:         file,
			DeclaredFormat: ext,
			Source:         "upload",
		})
		if err != nil {
			return analysis{}, err
		}

		if decoded.Format == "gif" {
			frames, err := media.DecodeGIFBytes(decoded.Bytes, maxFrames)
			if err != nil {
				return analysis{}, err
			}
			if len(frames) > 1 {
				result, err := s.scorer.ScoreVideoFrames(ctx, frames)
				return analysis{kind: media.KindAnimation, result: result}, err
			}
		}

		result, err := s.scorer.ScoreImage(decoded.Image)
		return analysis{kind: media.KindImage, result: result}, err

	case media.KindVideo:
		if s.sampler == nil {
			return analysis{}, errors.New("video analysis is not available")
		}
		frames, err := s.sampler.Sample(ctx, path, maxFrames)
		if err != nil {
			return analysis{}, err
		}
		result, err := s.scorer.ScoreVideoFrames(ctx, frames)
		return analysis{kind: media.KindVideo, result: result}, err

	default:
		return analysis{}, &domainimage.ValidationError{Risk: "unsupported type", Err: fmt.Errorf("extension %q", ext)}
	}
}

func (s *Service) fail(ctx context.Context, c *gin.Context, filename string, err error, elapsed time.Duration) {
	status, message := classify(err)
	observability.ObserveAnalysis(ctx, string(history.KindMedia), observability.OutcomeError, 0, elapsed)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorTag("Detect", "analysis of %s failed: %v", filename, err)
	} else {
		s.logger.WarnTag("Detect", "analysis of %s rejected: %v", filename, err)
	}

	if s.publisher != nil {
		s.publisher.PublishAsync(eventbus.EventAnalysisFailed, eventbus.AnalysisFailedData{
			Kind:   history.KindMedia,
			Source: filename,
			Reason: err.Error(),
		})
	}
	httptransport.RespondError(c, status, message)
}

// classify maps an analysis error to a status code and client message.
func classify(err error) (int, string) {
	var validation *domainimage.ValidationError
	switch {
	case errors.Is(err, domainimage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.As(err, &validation):
		return http.StatusBadRequest, "Rejected upload: " + validation.Risk
	case authenticity.IsFailure(err, authenticity.FailureEmptyInput):
		return http.StatusUnprocessableEntity, "No frames could be extracted from the media"
	case authenticity.IsFailure(err, authenticity.FailureDecode):
		return http.StatusUnprocessableEntity, "Unable to decode media"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Analysis timed out"
	default:
		return http.StatusInternalServerError, "Analysis failed"
	}
}

func (s *Service) buildResponse(out analysis) DetectResponse {
	result := out.result
	label := "Real"
	verdict := "authentic"
	if result.IsFake {
		label = "Fake"
		verdict = "fake"
	}

	details := Details{
		MediaType:         out.kind.String(),
		BlurDetection:     result.SubScores.Blur,
		ArtifactDetection: result.SubScores.Artifact,
		ConsistencyCheck:  result.SubScores.Consistency,
	}
	if fs := result.FrameStats; fs != nil {
		details.FrameDetails = &FrameDetails{
			FramesAnalyzed:   fs.FramesAnalyzed,
			AverageScore:     fs.AverageScore,
			PeakScore:        fs.PeakScore,
			SuspiciousFrames: fs.SuspiciousFrameCount,
			FrameIndices:     fs.FrameIndices,
			FrameScores:      fs.FrameScores,
		}
	}

	return DetectResponse{
		Success:     true,
		AnalysisID:  uuid.NewString(),
		Result:      label,
		RiskScore:   result.RiskScore,
		Probability: result.Confidence,
		Explanation: fmt.Sprintf("Analysis complete. The media is classified as %s with %d%% confidence.", verdict, result.RiskScore),
		Details:     details,
	}
}

func (s *Service) publish(response DetectResponse, out analysis, filename string) {
	if s.publisher == nil {
		return
	}

	details := map[string]any{
		"media_type":         response.Details.MediaType,
		"blur_detection":     response.Details.BlurDetection,
		"artifact_detection": response.Details.ArtifactDetection,
		"consistency_check":  response.Details.ConsistencyCheck,
	}
	if fd := response.Details.FrameDetails; fd != nil {
		details["frames_analyzed"] = fd.FramesAnalyzed
		details["average_score"] = fd.AverageScore
		details["peak_score"] = fd.PeakScore
		details["suspicious_frames"] = fd.SuspiciousFrames
	}

	s.publisher.PublishAsync(eventbus.EventAnalysisCompleted, history.Record{
		ID:         response.AnalysisID,
		Kind:       history.KindMedia,
		Label:      response.Result,
		Flagged:    out.result.IsFake,
		RiskScore:  out.result.RiskScore,
		Confidence: out.result.Confidence,
		Details:    details,
		Source:     filename,
	})
}

func outcome(fake bool) string {
	if fake {
		return "fake"
	}
	return "real"
}
