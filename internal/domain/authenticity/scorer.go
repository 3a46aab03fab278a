// Package authenticity estimates how likely an image or video frame sequence is
// synthetic, using deterministic pixel statistics only.
package authenticity

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// Sub-score weights of the combined per-image score.
const (
	weightArtifact    = 0.4
	weightBlur        = 0.3
	weightConsistency = 0.3

	// video aggregation leans on the worst frame
	weightAverage = 0.6
	weightPeak    = 0.4

	// grayscale input has no colour spread to measure
	neutralColorScore = 0.5

	decisionThreshold = 0.5
)

// Scorer is immutable after construction and safe for concurrent use.
type Scorer struct {
	params Params
}

// NewScorer returns a scorer with params, defaulting zero fields.
func NewScorer(params Params) *Scorer {
	return &Scorer{params: params.withDefaults()}
}

// Params returns the effective tunables.
func (s *Scorer) Params() Params {
	return s.params
}

// ScoreImage scores one decoded image.
func (s *Scorer) ScoreImage(img DecodedImage) (Result, error) {
	sub, err := s.subScores(img)
	if err != nil {
		return Result{}, DecodeError("score_image", err)
	}
	return decide(combine(sub), sub, nil), nil
}

// ScoreVideoFrames scores each frame independently and aggregates them as
// 0.6*mean + 0.4*peak. Frames are scored concurrently up to Params.Workers but the
// result only depends on input order. ctx is checked between frames.
func (s *Scorer) ScoreVideoFrames(ctx context.Context, frames []FrameSample) (Result, error) {
	if len(frames) == 0 {
		return Result{}, EmptyInputError("score_video_frames")
	}

	subs := make([]SubScores, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.params.Workers)
	for i := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sub, err := s.subScores(frames[i].Image)
			if err != nil {
				return DecodeError("score_video_frames", fmt.Errorf("frame %d: %w", frames[i].Index, err))
			}
			subs[i] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	stats := &FrameStats{
		FramesAnalyzed: len(frames),
		FrameIndices:   make([]int, len(frames)),
		FrameScores:    make([]float64, len(frames)),
	}
	var sum float64
	var mean SubScores
	peak := math.Inf(-1)
	for i, sub := range subs {
		score := combine(sub)
		stats.FrameIndices[i] = frames[i].Index
		stats.FrameScores[i] = score
		sum += score
		if score > peak {
			peak = score
		}
		if score > s.params.SuspiciousFrame {
			stats.SuspiciousFrameCount++
		}
		mean.Blur += sub.Blur
		mean.Artifact += sub.Artifact
		mean.Consistency += sub.Consistency
	}

	n := float64(len(frames))
	avg := sum / n
	stats.AverageScore = avg
	stats.PeakScore = peak
	mean.Blur /= n
	mean.Artifact /= n
	mean.Consistency /= n

	final := weightAverage*avg + weightPeak*peak
	if len(frames) == 1 {
		// avoid 0.6x+0.4x drifting from x in the last bit
		final = avg
	}
	return decide(final, mean, stats), nil
}

func (s *Scorer) subScores(img DecodedImage) (SubScores, error) {
	if err := img.validate(); err != nil {
		return SubScores{}, err
	}
	g := img.gray()
	w, h := img.Width, img.Height
	p := s.params

	blur := 1 - math.Min(laplacianVariance(g, w, h)/p.BlurNormalization, 1)

	edgeDensity := cannyEdgeDensity(g, w, h, p.CannyLow, p.CannyHigh)
	colorScore := neutralColorScore
	if img.Channels == 3 {
		colorScore = math.Min(colorSpread(img)/p.ColorStdNormalization, 1)
	}
	artifact := clamp01(edgeDensity*0.6 + (1-colorScore)*0.4)

	avgVariance := meanLocalVariance(g, w, h, p.TextureKernel)
	consistency := clamp01(1 - math.Abs(avgVariance-p.VarianceMidpoint)/p.VarianceMidpoint)

	return SubScores{
		Blur:        blur,
		Artifact:    artifact,
		Consistency: consistency,
	}, nil
}

func combine(sub SubScores) float64 {
	return sub.Artifact*weightArtifact + sub.Blur*weightBlur + (1-sub.Consistency)*weightConsistency
}

func decide(score float64, sub SubScores, stats *FrameStats) Result {
	score = clamp01(score)
	return Result{
		IsFake:     score > decisionThreshold,
		Confidence: score,
		RiskScore:  RiskScore(score),
		SubScores:  sub,
		FrameStats: stats,
	}
}

// RiskScore renders a confidence as a truncated percentage.
func RiskScore(confidence float64) int {
	return int(math.Floor(clamp01(confidence) * 100))
}
