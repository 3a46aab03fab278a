// Package eventbus fans analysis events out to background subscribers such as
// the history recorder.
package eventbus

import "trustlens-server-go/internal/domain/history"

// Topics.
const (
	// EventAnalysisCompleted carries a history.Record.
	EventAnalysisCompleted = "analysis:completed"
	// EventAnalysisFailed carries an AnalysisFailedData.
	EventAnalysisFailed = "analysis:failed"
)

// AnalysisFailedData describes an analysis that produced no result.
type AnalysisFailedData struct {
	Kind   history.Kind `json:"kind"`
	Source string       `json:"source,omitempty"`
	Reason string       `json:"reason"`
}

// Publisher is the slice of AsyncEventBus the analysis services depend on.
type Publisher interface {
	PublishAsync(topic string, args ...interface{}) bool
}
