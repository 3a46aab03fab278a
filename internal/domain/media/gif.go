package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"

	"trustlens-server-go/internal/domain/authenticity"
)

// DecodeGIF composites every frame of an animated GIF on its logical screen and
// returns the sampled ones. Disposal methods are honoured so each sample is what a
// viewer would see.
func DecodeGIF(r io.Reader, maxFrames int) ([]authenticity.FrameSample, error) {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}

	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, authenticity.DecodeError("decode_gif", err)
	}
	if len(g.Image) == 0 {
		return nil, authenticity.EmptyInputError("decode_gif")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
		for _, frame := range g.Image[1:] {
			bounds = bounds.Union(frame.Bounds())
		}
	}

	wanted := make(map[int]bool, maxFrames)
	for _, idx := range SampleIndices(len(g.Image), maxFrames) {
		wanted[idx] = true
	}

	canvas := image.NewRGBA(bounds)
	var previous *image.RGBA
	samples := make([]authenticity.FrameSample, 0, len(wanted))

	for i, frame := range g.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		if wanted[i] {
			decoded, err := authenticity.FromImage(canvas)
			if err != nil {
				return nil, err
			}
			samples = append(samples, authenticity.FrameSample{Index: i, Image: decoded})
		}

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			if previous != nil {
				canvas = previous
			}
		}
	}

	if len(samples) == 0 {
		return nil, authenticity.EmptyInputError("decode_gif")
	}
	return samples, nil
}

// DecodeGIFBytes is DecodeGIF over an in-memory payload.
func DecodeGIFBytes(data []byte, maxFrames int) ([]authenticity.FrameSample, error) {
	if len(data) == 0 {
		return nil, authenticity.DecodeError("decode_gif", fmt.Errorf("empty payload"))
	}
	return DecodeGIF(bytes.NewReader(data), maxFrames)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
