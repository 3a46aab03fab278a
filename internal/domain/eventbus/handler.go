package eventbus

import (
	"context"
	"time"

	"trustlens-server-go/internal/domain/history"
	"trustlens-server-go/internal/utils"
)

const (
	saveTimeout    = 5 * time.Second
	saveMaxRetries = 2
	saveBackoff    = 250 * time.Millisecond
	maxSaveBackoff = 2 * time.Second
)

// HistoryRecorder persists completed analyses. A failed save is retried with a
// linear backoff; failures are logged and never reach the analysis caller.
type HistoryRecorder struct {
	store      history.Store
	logger     *utils.Logger
	maxRetries int
	backoff    time.Duration
}

func NewHistoryRecorder(store history.Store, logger *utils.Logger) *HistoryRecorder {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &HistoryRecorder{
		store:      store,
		logger:     logger,
		maxRetries: saveMaxRetries,
		backoff:    saveBackoff,
	}
}

// HandleCompleted saves one record, retrying up to maxRetries times inside the
// overall save timeout.
func (h *HistoryRecorder) HandleCompleted(record history.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	for retries := 0; ; retries++ {
		err := h.store.Save(ctx, record)
		if err == nil {
			h.logger.DebugTag("History", "saved %s record %s risk=%d", record.Kind, record.ID, record.RiskScore)
			return
		}
		if retries >= h.maxRetries {
			h.logger.ErrorTag("History", "save %s record %s failed after %d attempts: %v", record.Kind, record.ID, retries+1, err)
			return
		}

		wait := min(time.Duration(retries+1)*h.backoff, maxSaveBackoff)
		h.logger.WarnTag("History", "save %s record %s failed, retrying in %v: %v", record.Kind, record.ID, wait, err)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			h.logger.ErrorTag("History", "save %s record %s abandoned: %v", record.Kind, record.ID, ctx.Err())
			return
		}
	}
}

// HandleFailed logs an analysis failure.
func (h *HistoryRecorder) HandleFailed(data AnalysisFailedData) {
	h.logger.WarnTag("Events", "%s analysis failed for %q: %s", data.Kind, data.Source, data.Reason)
}

// Register subscribes the recorder to the analysis topics.
func (h *HistoryRecorder) Register(bus *AsyncEventBus) error {
	if err := bus.Subscribe(EventAnalysisCompleted, h.HandleCompleted); err != nil {
		return err
	}
	return bus.Subscribe(EventAnalysisFailed, h.HandleFailed)
}
