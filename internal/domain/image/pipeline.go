// Package image validates uploaded still images and decodes them into the pixel
// grid consumed by the authenticity scorer.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"sync/atomic"

	"trustlens-server-go/internal/domain/authenticity"
	"trustlens-server-go/internal/platform/config"
	"trustlens-server-go/internal/utils"
)

const defaultMaxSize = 50 * 1024 * 1024

// Options configures the pipeline behaviour.
type Options struct {
	Security *config.SecurityConfig
	Logger   *utils.Logger
}

// Input describes a streaming image payload.
type Input struct {
	Reader         io.Reader
	DeclaredFormat string
	Source         string
}

// Output holds the validated bytes and the decoded pixel grid.
type Output struct {
	Bytes      []byte
	Format     string
	Validation ValidationResult
	Image      authenticity.DecodedImage
}

type counters struct {
	processed, decoded, rejected, undecodable, hostile atomic.Int64
}

// Pipeline streams an upload through validation and decoding. It is safe for
// concurrent use.
type Pipeline struct {
	validator *SecurityValidator
	logger    *utils.Logger
	maxBytes  int64
	stats     counters
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Security == nil {
		return nil, fmt.Errorf("security config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.DefaultLogger
	}
	maxBytes := opts.Security.MaxFileSize
	if maxBytes <= 0 {
		maxBytes = defaultMaxSize
	}
	return &Pipeline{
		validator: NewSecurityValidator(opts.Security, logger),
		logger:    logger,
		maxBytes:  maxBytes,
	}, nil
}

// Process reads at most MaxFileSize bytes, validates them and decodes the image.
// Oversized input wraps ErrTooLarge, rejected input is a *ValidationError and
// undecodable input is an authenticity DecodeError.
func (p *Pipeline) Process(ctx context.Context, input Input) (*Output, error) {
	if input.Reader == nil {
		return nil, fmt.Errorf("image reader is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p.stats.processed.Add(1)

	raw, err := readBounded(input.Reader, p.maxBytes)
	if err != nil {
		if _, oversized := err.(*ValidationError); oversized {
			p.stats.rejected.Add(1)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	validation := p.validator.ValidateBytes(raw, input.DeclaredFormat)
	if !validation.IsValid {
		return nil, p.reject(validation)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		p.stats.undecodable.Add(1)
		return nil, authenticity.DecodeError("decode_image", err)
	}
	grid, err := authenticity.FromImage(img)
	if err != nil {
		p.stats.undecodable.Add(1)
		return nil, err
	}
	p.stats.decoded.Add(1)
	p.logger.DebugTag("Media", "decoded %s %dx%d from %s", validation.Format, grid.Width, grid.Height, input.Source)

	return &Output{Bytes: raw, Format: validation.Format, Validation: validation, Image: grid}, nil
}

// readBounded buffers r, failing with ErrTooLarge once more than limit bytes
// arrive instead of buffering the remainder.
func readBounded(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("stream image bytes: %w", err)
	}
	if n > limit {
		return nil, &ValidationError{
			Risk: riskTooLarge,
			Err:  fmt.Errorf("%w: image exceeds maximum size of %d bytes", ErrTooLarge, limit),
		}
	}
	return buf.Bytes(), nil
}

func (p *Pipeline) reject(v ValidationResult) error {
	switch {
	case authenticity.IsFailure(v.Error, authenticity.FailureDecode):
		p.stats.undecodable.Add(1)
	case v.SecurityRisk == riskSuspicious:
		p.stats.rejected.Add(1)
		p.stats.hostile.Add(1)
	default:
		p.stats.rejected.Add(1)
	}
	if v.Error == nil {
		return &ValidationError{Err: fmt.Errorf("image validation failed")}
	}
	return v.Error
}

// Metrics returns a snapshot of the pipeline counters.
func (p *Pipeline) Metrics() Metrics {
	return Metrics{
		TotalProcessed:    p.stats.processed.Load(),
		Decoded:           p.stats.decoded.Load(),
		FailedValidations: p.stats.rejected.Load(),
		DecodeFailures:    p.stats.undecodable.Load(),
		SecurityIncidents: p.stats.hostile.Load(),
	}
}
