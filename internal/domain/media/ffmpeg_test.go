package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"trustlens-server-go/internal/domain/authenticity"
	"trustlens-server-go/internal/utils"
)

func bmpStream(t *testing.T, shades ...uint8) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, shade := range shades {
		img := image.NewRGBA(image.Rect(0, 0, 3, 2))
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
			}
		}
		require.NoError(t, bmp.Encode(&buf, img))
	}
	return buf.Bytes()
}

func TestReadBMPStream(t *testing.T) {
	frames, err := readBMPStream(bytes.NewReader(bmpStream(t, 10, 20, 30)), 30)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, uint8(20), frames[1].Pix[0])
	assert.Equal(t, 3, frames[2].Width)

	limited, err := readBMPStream(bytes.NewReader(bmpStream(t, 10, 20, 30)), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = readBMPStream(bytes.NewReader([]byte("PK\x03\x04 not a bitmap stream")), 30)
	assert.Error(t, err)
}

// writeScript installs an executable shell script standing in for ffmpeg/ffprobe.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestFFmpegSamplerWithStubBinaries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs need a POSIX shell")
	}
	dir := t.TempDir()
	stream := filepath.Join(dir, "frames.bin")
	require.NoError(t, os.WriteFile(stream, bmpStream(t, 1, 2, 3), 0o644))

	probe := writeScript(t, dir, "ffprobe", "echo 90")
	ffmpeg := writeScript(t, dir, "ffmpeg", fmt.Sprintf("cat %q", stream))

	sampler := NewFFmpegSampler(ffmpeg, probe, 5*time.Second, utils.NewDiscardLogger())
	frames, err := sampler.Sample(context.Background(), "clip.mp4", 30)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, []int{0, 3, 6}, []int{frames[0].Index, frames[1].Index, frames[2].Index})
	assert.Equal(t, uint8(3), frames[2].Image.Pix[0])
}

func TestFFmpegSamplerFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs need a POSIX shell")
	}
	dir := t.TempDir()
	noop := writeScript(t, dir, "ffmpeg-empty", "exit 0")

	t.Run("probe failure is a decode error", func(t *testing.T) {
		probe := writeScript(t, dir, "ffprobe-bad", "echo 'moov atom not found' >&2; exit 1")
		_, err := NewFFmpegSampler(noop, probe, 0, utils.NewDiscardLogger()).Sample(context.Background(), "x.mp4", 30)
		assert.True(t, authenticity.IsFailure(err, authenticity.FailureDecode), "got %v", err)
	})

	t.Run("zero frames is empty input", func(t *testing.T) {
		probe := writeScript(t, dir, "ffprobe-zero", "echo 0")
		_, err := NewFFmpegSampler(noop, probe, 0, utils.NewDiscardLogger()).Sample(context.Background(), "x.mp4", 30)
		assert.True(t, authenticity.IsFailure(err, authenticity.FailureEmptyInput), "got %v", err)
	})

	t.Run("no frames decoded is empty input", func(t *testing.T) {
		probe := writeScript(t, dir, "ffprobe-ten", "echo 10")
		_, err := NewFFmpegSampler(noop, probe, 0, utils.NewDiscardLogger()).Sample(context.Background(), "x.mp4", 30)
		assert.True(t, authenticity.IsFailure(err, authenticity.FailureEmptyInput), "got %v", err)
	})

	t.Run("missing binary is a decode error", func(t *testing.T) {
		_, err := NewFFmpegSampler(noop, filepath.Join(dir, "does-not-exist"), 0, nil).Sample(context.Background(), "x.mp4", 30)
		assert.True(t, authenticity.IsFailure(err, authenticity.FailureDecode), "got %v", err)
	})
}
