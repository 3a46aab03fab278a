package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestConfigIsValidForTests(t *testing.T) {
	cfg := SetupTestConfig(t)
	assert.Equal(t, "memory", cfg.History.Driver)
	assert.Equal(t, 30, cfg.Media.MaxFrames)

	logger := SetupTestLogger(t)
	logger.Legacy().InfoTag("HTTP", "hello")
}

func TestRecordingPublisher(t *testing.T) {
	var pub RecordingPublisher
	require.True(t, pub.PublishAsync("analysis:completed", "a", 1))
	require.True(t, pub.PublishAsync("analysis:failed"))

	assert.Equal(t, []string{"analysis:completed", "analysis:failed"}, pub.Topics())
	events := pub.Events()
	assert.Equal(t, []interface{}{"a", 1}, events[0].Args)
	assert.Empty(t, events[1].Args)
}
