package testing

import (
	"sync"
	"testing"

	"trustlens-server-go/internal/platform/config"
	"trustlens-server-go/internal/platform/logging"
	"trustlens-server-go/internal/utils"
)

// SetupTestConfig returns defaults tuned for tests: loopback address, in-memory
// history and files under the test's temp dir.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Server.Port = 8080
	cfg.Log.Level = "DEBUG"
	cfg.Log.Dir = t.TempDir()
	cfg.Log.File = "test.log"
	cfg.Upload.Dir = t.TempDir()
	cfg.History.Driver = "memory"
	cfg.History.SQLite.Path = ":memory:"
	cfg.Media.Workers = 2

	return cfg
}

// SetupTestLogger writes to a temp file so assertions can inspect output.
func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	return logger
}

// DiscardLogger is for tests that do not care about log output.
func DiscardLogger(t *testing.T) *utils.Logger {
	t.Helper()
	return utils.NewDiscardLogger()
}

// Published is one event captured by RecordingPublisher.
type Published struct {
	Topic string
	Args  []interface{}
}

// RecordingPublisher satisfies the analysis event publisher and keeps every
// event it is given.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Published
}

func (p *RecordingPublisher) PublishAsync(topic string, args ...interface{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Topic: topic, Args: args})
	return true
}

// Events returns a copy of the captured events in publish order.
func (p *RecordingPublisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.events...)
}

// Topics lists the captured topics in publish order.
func (p *RecordingPublisher) Topics() []string {
	events := p.Events()
	topics := make([]string, len(events))
	for i, e := range events {
		topics[i] = e.Topic
	}
	return topics
}
