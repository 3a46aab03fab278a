package detect

// DetectResponse is the body returned for a completed media analysis.
type DetectResponse struct {
	Success     bool    `json:"success"`
	AnalysisID  string  `json:"analysis_id"`
	Result      string  `json:"result"`
	RiskScore   int     `json:"riskScore"`
	Probability float64 `json:"probability"`
	Explanation string  `json:"explanation"`
	Details     Details `json:"details"`
}

// Details exposes the sub-scores behind a media verdict.
type Details struct {
	MediaType         string  `json:"media_type"`
	BlurDetection     float64 `json:"blur_detection"`
	ArtifactDetection float64 `json:"artifact_detection"`
	ConsistencyCheck  float64 `json:"consistency_check"`
	*FrameDetails
}

// FrameDetails is present only when a frame sequence was scored.
type FrameDetails struct {
	FramesAnalyzed   int       `json:"frames_analyzed"`
	AverageScore     float64   `json:"average_score"`
	PeakScore        float64   `json:"peak_score"`
	SuspiciousFrames int       `json:"suspicious_frames"`
	FrameIndices     []int     `json:"frame_indices"`
	FrameScores      []float64 `json:"frame_scores"`
}
