// Package media turns animations and container video into a bounded, uniformly
// spaced list of decoded frames.
package media

import (
	"path/filepath"
	"strings"
)

// DefaultMaxFrames bounds how many frames a single analysis looks at.
const DefaultMaxFrames = 30

// Kind classifies an upload by extension.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindAnimation
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAnimation:
		return "animation"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

var kindsByExt = map[string]Kind{
	"png":  KindImage,
	"jpg":  KindImage,
	"jpeg": KindImage,
	"webp": KindImage,
	"bmp":  KindImage,
	"gif":  KindAnimation,
	"mp4":  KindVideo,
	"avi":  KindVideo,
	"mov":  KindVideo,
	"mkv":  KindVideo,
	"webm": KindVideo,
}

// Extension returns the lower-cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Classify maps a file extension (with or without the dot) to a Kind.
func Classify(ext string) Kind {
	return kindsByExt[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// SampleIndices picks frame indices at a uniform stride: step = max(1, total/max)
// and every index divisible by step is taken until max indices are collected.
func SampleIndices(total, max int) []int {
	if total <= 0 || max <= 0 {
		return nil
	}
	step := total / max
	if step < 1 {
		step = 1
	}

	out := make([]int, 0, min(total, max))
	for i := 0; i < total && len(out) < max; i += step {
		out = append(out, i)
	}
	return out
}
