package media

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/bmp"

	"trustlens-server-go/internal/domain/authenticity"
	"trustlens-server-go/internal/utils"
)

// bmpHeaderSize is the BITMAPFILEHEADER length; bytes 2..6 hold the file size.
const bmpHeaderSize = 14

// FFmpegSampler extracts sampled frames from container video with the ffprobe and
// ffmpeg binaries. ffmpeg writes the selected frames as a BMP stream on stdout.
type FFmpegSampler struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
	Logger      *utils.Logger
}

// NewFFmpegSampler fills empty binary paths with the names looked up on PATH.
func NewFFmpegSampler(ffmpegPath, ffprobePath string, timeout time.Duration, logger *utils.Logger) *FFmpegSampler {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &FFmpegSampler{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		Timeout:     timeout,
		Logger:      logger,
	}
}

// Sample counts the frames of the video at path and decodes at most maxFrames of
// them at a uniform stride. An unreadable container is a DecodeError; a video
// without decodable frames is EmptyInput.
func (s *FFmpegSampler) Sample(ctx context.Context, path string, maxFrames int) ([]authenticity.FrameSample, error) {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	total, err := s.countFrames(ctx, path)
	if err != nil {
		return nil, authenticity.DecodeError("probe_video", err)
	}
	indices := SampleIndices(total, maxFrames)
	if len(indices) == 0 {
		return nil, authenticity.EmptyInputError("probe_video")
	}

	step := 1
	if len(indices) > 1 {
		step = indices[1] - indices[0]
	}
	s.Logger.DebugTag("Media", "sampling %d of %d frames from %s (step %d)", len(indices), total, path, step)

	frames, err := s.extract(ctx, path, step, len(indices))
	if err != nil {
		return nil, err
	}

	samples := make([]authenticity.FrameSample, 0, len(frames))
	for i, frame := range frames {
		samples = append(samples, authenticity.FrameSample{Index: indices[i], Image: frame})
	}
	if len(samples) == 0 {
		return nil, authenticity.EmptyInputError("extract_frames")
	}
	return samples, nil
}

func (s *FFmpegSampler) countFrames(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, s.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	field := strings.TrimSpace(strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0])
	field = strings.TrimSuffix(field, ",")
	if field == "" || field == "N/A" {
		return 0, nil
	}
	total, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("parse frame count %q: %w", field, err)
	}
	return total, nil
}

func (s *FFmpegSampler) extract(ctx context.Context, path string, step, limit int) ([]authenticity.DecodedImage, error) {
	cmd := exec.CommandContext(ctx, s.FFmpegPath,
		"-v", "error",
		"-i", path,
		"-vf", fmt.Sprintf(`select=not(mod(n\,%d))`, step),
		"-fps_mode", "vfr",
		"-frames:v", strconv.Itoa(limit),
		"-f", "image2pipe",
		"-vcodec", "bmp",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, authenticity.DecodeError("extract_frames", fmt.Errorf("start ffmpeg: %w", err))
	}

	frames, readErr := readBMPStream(bufio.NewReader(stdout), limit)
	if readErr != nil {
		// drain so ffmpeg is not blocked on a full pipe
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()

	if readErr != nil {
		return nil, authenticity.DecodeError("extract_frames", readErr)
	}
	if waitErr != nil && len(frames) == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, authenticity.DecodeError("extract_frames",
			fmt.Errorf("ffmpeg: %w: %s", waitErr, strings.TrimSpace(stderr.String())))
	}
	return frames, nil
}

// readBMPStream splits concatenated BMP files using the size in each file header.
func readBMPStream(r io.Reader, limit int) ([]authenticity.DecodedImage, error) {
	var frames []authenticity.DecodedImage
	header := make([]byte, bmpHeaderSize)

	for len(frames) < limit {
		if _, err := io.ReadFull(r, header); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return frames, fmt.Errorf("read bmp header: %w", err)
		}
		if header[0] != 'B' || header[1] != 'M' {
			return frames, fmt.Errorf("frame %d: not a bmp stream", len(frames))
		}
		size := int(binary.LittleEndian.Uint32(header[2:6]))
		if size <= bmpHeaderSize {
			return frames, fmt.Errorf("frame %d: invalid bmp size %d", len(frames), size)
		}

		buf := make([]byte, size)
		copy(buf, header)
		if _, err := io.ReadFull(r, buf[bmpHeaderSize:]); err != nil {
			return frames, fmt.Errorf("frame %d: read bmp body: %w", len(frames), err)
		}

		img, err := bmp.Decode(bytes.NewReader(buf))
		if err != nil {
			return frames, fmt.Errorf("frame %d: decode bmp: %w", len(frames), err)
		}
		decoded, err := authenticity.FromImage(img)
		if err != nil {
			return frames, err
		}
		frames = append(frames, decoded)
	}
	return frames, nil
}
