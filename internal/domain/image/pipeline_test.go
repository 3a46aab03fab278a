package image

import (
	"bytes"
	"context"
	"errors"
	stdimage "image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"

	"trustlens-server-go/internal/domain/authenticity"
	"trustlens-server-go/internal/platform/config"
	"trustlens-server-go/internal/utils"
)

func testSecurity() *config.SecurityConfig {
	sec := config.DefaultConfig().Security
	return &sec
}

func newTestPipeline(t *testing.T, sec *config.SecurityConfig) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Options{Security: sec, Logger: utils.NewDiscardLogger()})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestPipelineDecodesPNG(t *testing.T) {
	p := newTestPipeline(t, testSecurity())

	out, err := p.Process(context.Background(), Input{
		Reader:         bytes.NewReader(encodePNG(t, 8, 6)),
		DeclaredFormat: "png",
		Source:         "upload",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Format != "png" {
		t.Fatalf("expected png, got %s", out.Format)
	}
	if out.Image.Width != 8 || out.Image.Height != 6 || out.Image.Channels != 3 {
		t.Fatalf("unexpected decoded image %dx%dx%d", out.Image.Width, out.Image.Height, out.Image.Channels)
	}
	// pixel (1,0) is R=10 G=0 B=50
	if got := out.Image.Pix[3:6]; !bytes.Equal(got, []byte{10, 0, 50}) {
		t.Fatalf("unexpected pixel %v", got)
	}
	if m := p.Metrics(); m.TotalProcessed != 1 || m.Decoded != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestPipelineDecodesBMP(t *testing.T) {
	img := stdimage.NewGray(stdimage.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}

	out, err := newTestPipeline(t, testSecurity()).Process(context.Background(), Input{Reader: &buf, DeclaredFormat: "bmp"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Format != "bmp" {
		t.Fatalf("expected bmp, got %s", out.Format)
	}
}

func TestPipelineRejectsOversized(t *testing.T) {
	sec := testSecurity()
	sec.MaxFileSize = 16
	p := newTestPipeline(t, sec)

	_, err := p.Process(context.Background(), Input{Reader: bytes.NewReader(encodePNG(t, 8, 8))})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestPipelineRejectsLargeDimensions(t *testing.T) {
	sec := testSecurity()
	sec.MaxWidth = 4
	p := newTestPipeline(t, sec)

	_, err := p.Process(context.Background(), Input{Reader: bytes.NewReader(encodePNG(t, 8, 2))})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestPipelineRejectsDisallowedFormat(t *testing.T) {
	sec := testSecurity()
	sec.AllowedFormats = []string{"jpeg"}
	p := newTestPipeline(t, sec)

	_, err := p.Process(context.Background(), Input{Reader: bytes.NewReader(encodePNG(t, 2, 2)), DeclaredFormat: "png"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Risk != "unapproved format" {
		t.Fatalf("expected unapproved format, got %v", err)
	}
}

func TestPipelineGarbageIsDecodeError(t *testing.T) {
	p := newTestPipeline(t, testSecurity())

	_, err := p.Process(context.Background(), Input{Reader: bytes.NewReader([]byte("definitely not an image")), DeclaredFormat: "png"})
	if !authenticity.IsFailure(err, authenticity.FailureDecode) {
		t.Fatalf("expected decode failure, got %v", err)
	}
	if m := p.Metrics(); m.DecodeFailures != 1 {
		t.Fatalf("expected one decode failure, got %+v", m)
	}
}

func TestPipelineDeepScanFlagsExecutables(t *testing.T) {
	p := newTestPipeline(t, testSecurity())

	payload := append([]byte{0x4D, 0x5A}, bytes.Repeat([]byte{0}, 64)...)
	_, err := p.Process(context.Background(), Input{Reader: bytes.NewReader(payload)})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Risk != "suspicious content" {
		t.Fatalf("expected suspicious content, got %v", err)
	}
	if m := p.Metrics(); m.SecurityIncidents != 1 {
		t.Fatalf("expected one incident, got %+v", m)
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	_, err := newTestPipeline(t, testSecurity()).Process(context.Background(), Input{Reader: bytes.NewReader(nil)})
	if !authenticity.IsFailure(err, authenticity.FailureDecode) {
		t.Fatalf("expected decode failure for empty payload, got %v", err)
	}
}

func TestNewPipelineRequiresSecurity(t *testing.T) {
	if _, err := NewPipeline(Options{}); err == nil {
		t.Fatal("expected error without security config")
	}
}
