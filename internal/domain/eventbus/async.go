package eventbus

import (
	"sync"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	"trustlens-server-go/internal/utils"
)

const defaultQueueSize = 1000

// AsyncEventBus delivers published events on a fixed worker pool so publishers
// never wait for subscribers.
type AsyncEventBus struct {
	bus       evbus.Bus
	workerNum int
	workChan  chan asyncEvent
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	pending   sync.WaitGroup
	dropped   atomic.Int64
	logger    *utils.Logger
}

type asyncEvent struct {
	topic string
	args  []interface{}
}

// NewAsyncEventBus creates a bus with workerNum workers and a bounded queue.
func NewAsyncEventBus(workerNum int, logger *utils.Logger) *AsyncEventBus {
	if workerNum <= 0 {
		workerNum = 4
	}
	if logger == nil {
		logger = utils.DefaultLogger
	}

	return &AsyncEventBus{
		bus:       evbus.New(),
		workerNum: workerNum,
		workChan:  make(chan asyncEvent, defaultQueueSize),
		stopChan:  make(chan struct{}),
		logger:    logger,
	}
}

// Start launches the workers.
func (aeb *AsyncEventBus) Start() {
	for i := 0; i < aeb.workerNum; i++ {
		aeb.wg.Add(1)
		go aeb.worker()
	}
}

// Stop delivers whatever is already queued and then stops the workers.
func (aeb *AsyncEventBus) Stop() {
	aeb.stopOnce.Do(func() {
		close(aeb.stopChan)
	})
	aeb.wg.Wait()
}

func (aeb *AsyncEventBus) worker() {
	defer aeb.wg.Done()

	for {
		select {
		case event := <-aeb.workChan:
			aeb.dispatch(event)
		case <-aeb.stopChan:
			for {
				select {
				case event := <-aeb.workChan:
					aeb.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (aeb *AsyncEventBus) dispatch(event asyncEvent) {
	defer aeb.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			aeb.logger.ErrorTag("Events", "subscriber panic on %s: %v", event.topic, r)
		}
	}()
	aeb.bus.Publish(event.topic, event.args...)
}

// Publish delivers the event synchronously on the caller's goroutine.
func (aeb *AsyncEventBus) Publish(topic string, args ...interface{}) {
	aeb.bus.Publish(topic, args...)
}

// PublishAsync queues the event. A full queue or a stopped bus drops it and
// reports false.
func (aeb *AsyncEventBus) PublishAsync(topic string, args ...interface{}) bool {
	select {
	case <-aeb.stopChan:
		aeb.dropped.Add(1)
		return false
	default:
	}

	aeb.pending.Add(1)
	select {
	case aeb.workChan <- asyncEvent{topic: topic, args: args}:
		return true
	default:
		aeb.pending.Done()
		aeb.dropped.Add(1)
		aeb.logger.WarnTag("Events", "queue full, dropped %s event", topic)
		return false
	}
}

// Subscribe registers fn for topic. fn's parameters must match the published
// arguments.
func (aeb *AsyncEventBus) Subscribe(topic string, fn interface{}) error {
	return aeb.bus.Subscribe(topic, fn)
}

func (aeb *AsyncEventBus) Unsubscribe(topic string, handler interface{}) error {
	return aeb.bus.Unsubscribe(topic, handler)
}

func (aeb *AsyncEventBus) HasCallback(topic string) bool {
	return aeb.bus.HasCallback(topic)
}

// WaitAsync blocks until every queued event has been delivered.
func (aeb *AsyncEventBus) WaitAsync() {
	aeb.pending.Wait()
}

// Dropped reports how many events were discarded because the queue was full.
func (aeb *AsyncEventBus) Dropped() int64 {
	return aeb.dropped.Load()
}
