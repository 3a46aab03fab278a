package image

import (
	"bytes"
	"fmt"
	"image"
	"slices"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"trustlens-server-go/internal/domain/authenticity"
	"trustlens-server-go/internal/platform/config"
	"trustlens-server-go/internal/utils"
)

const (
	riskTooLarge    = "file too large"
	riskFormat      = "unapproved format"
	riskSuspicious  = "suspicious content"
	riskCorrupted   = "corrupted image data"
	riskDimensions  = "dimensions too large"
	riskPixelBudget = "pixel count too high"
)

// magic numbers of the formats we decode, keyed by declared format
var formatMagic = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  []byte("GIF8"),
	"webp": []byte("RIFF"),
	"bmp":  []byte("BM"),
}

// payloads that must never reach a decoder
var hostileMagic = []struct {
	name  string
	magic []byte
}{
	{"pe", []byte("MZ")},
	{"pdf", []byte("%PDF")},
	{"elf", []byte("\x7fELF")},
	{"zip", []byte("PK\x03\x04")},
	{"gzip", []byte{0x1F, 0x8B, 0x08}},
}

var svgActiveContent = []string{"<script", "javascript:", "onload=", "onerror=", "<iframe", "<object", "<embed"}

// SecurityValidator rejects uploads from their header alone, before any pixel
// buffer is allocated.
type SecurityValidator struct {
	config *config.SecurityConfig
	logger *utils.Logger
}

func NewSecurityValidator(cfg *config.SecurityConfig, logger *utils.Logger) *SecurityValidator {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	if cfg == nil {
		cfg = &config.SecurityConfig{}
	}
	return &SecurityValidator{config: cfg, logger: logger}
}

// ValidateBytes checks size, declared format and (with deep scan on) hostile
// content, then reads the image header to enforce dimension limits. The deep
// scan runs first so a disguised executable is reported as such rather than
// as corrupt.
func (v *SecurityValidator) ValidateBytes(raw []byte, declaredFormat string) ValidationResult {
	declared := strings.ToLower(strings.TrimSpace(declaredFormat))
	if len(raw) == 0 {
		return ValidationResult{Format: declared, Error: authenticity.DecodeError("validate", fmt.Errorf("empty image payload"))}
	}

	if limit := v.config.MaxFileSize; limit > 0 && int64(len(raw)) > limit {
		v.logger.WarnTag("Media", "oversized image: size=%d max_size=%d format=%s", len(raw), limit, declared)
		return reject(declared, riskTooLarge, fmt.Errorf("%w: %d bytes (max %d bytes)", ErrTooLarge, len(raw), limit))
	}
	if !v.formatAllowed(declared) {
		return reject(declared, riskFormat, fmt.Errorf("unsupported format: %s", declared))
	}
	if v.config.EnableDeepScan {
		if reason := v.hostileContent(raw); reason != "" {
			return reject(declared, riskSuspicious, fmt.Errorf("potential malicious content detected: %s", reason))
		}
	}

	header, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		if declared != "" && !magicMatches(raw, declared) {
			v.logger.WarnTag("Media", "file signature mismatch: declared_format=%s actual_header=%x",
				declared, raw[:min(len(raw), 16)])
		}
		result := ValidationResult{Format: declared, SecurityRisk: riskCorrupted}
		result.Error = authenticity.DecodeError("decode_config", err)
		return result
	}
	if format == "" {
		format = declared
	}
	if err := v.checkDimensions(header.Width, header.Height); err != nil {
		risk := riskDimensions
		if v.withinBox(header.Width, header.Height) {
			risk = riskPixelBudget
		}
		return reject(format, risk, err)
	}

	result := ValidationResult{
		IsValid:  true,
		Format:   format,
		Width:    header.Width,
		Height:   header.Height,
		FileSize: int64(len(raw)),
	}
	v.logger.DebugTag("Media", "image validation success: format=%s width=%d height=%d size=%d",
		result.Format, result.Width, result.Height, result.FileSize)
	return result
}

func reject(format, risk string, err error) ValidationResult {
	return ValidationResult{
		Format:       format,
		SecurityRisk: risk,
		Error:        &ValidationError{Risk: risk, Err: err},
	}
}

func (v *SecurityValidator) formatAllowed(format string) bool {
	if format == "" || len(v.config.AllowedFormats) == 0 {
		return true
	}
	return slices.ContainsFunc(v.config.AllowedFormats, func(allowed string) bool {
		return strings.EqualFold(allowed, format)
	})
}

func (v *SecurityValidator) withinBox(width, height int) bool {
	return (v.config.MaxWidth <= 0 || width <= v.config.MaxWidth) &&
		(v.config.MaxHeight <= 0 || height <= v.config.MaxHeight)
}

func (v *SecurityValidator) checkDimensions(width, height int) error {
	if !v.withinBox(width, height) {
		return fmt.Errorf("%w: %dx%d (max %dx%d)", ErrTooLarge, width, height, v.config.MaxWidth, v.config.MaxHeight)
	}
	if pixels := int64(width) * int64(height); v.config.MaxPixels > 0 && pixels > v.config.MaxPixels {
		return fmt.Errorf("%w: %d pixels (max %d)", ErrTooLarge, pixels, v.config.MaxPixels)
	}
	return nil
}

// hostileContent names the first executable, archive or scripted SVG marker
// found in raw, or returns "".
func (v *SecurityValidator) hostileContent(raw []byte) string {
	for _, sig := range hostileMagic {
		if bytes.HasPrefix(raw, sig.magic) {
			v.logger.WarnTag("Media", "rejected %s payload disguised as image", sig.name)
			return sig.name
		}
	}

	if !bytes.Contains(bytes.ToLower(raw[:min(len(raw), 4096)]), []byte("<svg")) {
		return ""
	}
	lower := strings.ToLower(string(raw))
	for _, token := range svgActiveContent {
		if strings.Contains(lower, token) {
			v.logger.WarnTag("Media", "rejected SVG with active content: token=%s", token)
			return "svg " + strings.Trim(token, "<=:")
		}
	}
	return ""
}

func magicMatches(raw []byte, format string) bool {
	magic, ok := formatMagic[format]
	if !ok {
		return true
	}
	return bytes.HasPrefix(raw, magic)
}
