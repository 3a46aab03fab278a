package authenticity

// DecodedImage is an 8-bit pixel grid in row-major order. Channels is 1 (gray) or
// 3 (RGB, interleaved). The scorer treats it as read-only.
type DecodedImage struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// FrameSample is one decoded frame and its position in the source video.
type FrameSample struct {
	Index int
	Image DecodedImage
}

// SubScores are the three independent image heuristics, each in [0,1].
type SubScores struct {
	Blur        float64 `json:"blur"`
	Artifact    float64 `json:"artifact"`
	Consistency float64 `json:"consistency"`
}

// FrameStats summarises a video analysis. FrameScores follows the input order.
type FrameStats struct {
	FramesAnalyzed       int       `json:"frames_analyzed"`
	AverageScore         float64   `json:"average_score"`
	PeakScore            float64   `json:"peak_score"`
	SuspiciousFrameCount int       `json:"suspicious_frame_count"`
	FrameIndices         []int     `json:"frame_indices"`
	FrameScores          []float64 `json:"frame_scores"`
}

// Result is the complete outcome of scoring an image or a frame sequence.
// FrameStats is nil for single images.
type Result struct {
	IsFake     bool        `json:"is_fake"`
	Confidence float64     `json:"confidence"`
	RiskScore  int         `json:"risk_score"`
	SubScores  SubScores   `json:"sub_scores"`
	FrameStats *FrameStats `json:"frame_stats,omitempty"`
}

// Params holds the empirical tunables. Zero fields take the DefaultParams value.
type Params struct {
	// BlurNormalization is the Laplacian variance treated as fully sharp.
	BlurNormalization float64
	// VarianceMidpoint is the mean local variance scored as most natural.
	VarianceMidpoint float64
	// ColorStdNormalization is the channel spread treated as fully natural.
	ColorStdNormalization float64
	CannyLow              float64
	CannyHigh             float64
	// TextureKernel is the odd side length of the local variance window.
	TextureKernel int
	// SuspiciousFrame is the per-frame score above which a frame is counted as
	// suspicious. Reporting only.
	SuspiciousFrame float64
	// Workers bounds concurrent frame scoring. Values below 1 mean sequential.
	Workers int
}

// DefaultParams returns the calibrated constants.
func DefaultParams() Params {
	return Params{
		BlurNormalization:     500,
		VarianceMidpoint:      500,
		ColorStdNormalization: 50,
		CannyLow:              50,
		CannyHigh:             150,
		TextureKernel:         15,
		SuspiciousFrame:       0.6,
		Workers:               1,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.BlurNormalization <= 0 {
		p.BlurNormalization = d.BlurNormalization
	}
	if p.VarianceMidpoint <= 0 {
		p.VarianceMidpoint = d.VarianceMidpoint
	}
	if p.ColorStdNormalization <= 0 {
		p.ColorStdNormalization = d.ColorStdNormalization
	}
	if p.CannyLow <= 0 {
		p.CannyLow = d.CannyLow
	}
	if p.CannyHigh <= 0 {
		p.CannyHigh = d.CannyHigh
	}
	if p.TextureKernel <= 0 {
		p.TextureKernel = d.TextureKernel
	}
	// the window must have a centre pixel
	if p.TextureKernel%2 == 0 {
		p.TextureKernel++
	}
	if p.SuspiciousFrame <= 0 {
		p.SuspiciousFrame = d.SuspiciousFrame
	}
	if p.Workers < 1 {
		p.Workers = d.Workers
	}
	return p
}
