package authenticity

import (
	"math"
)

// reflect101 maps an out-of-range coordinate back into [0,n) mirroring around the
// edge pixel without repeating it (dcb|abcd|cba).
func reflect101(p, n int) int {
	if n == 1 {
		return 0
	}
	for p < 0 || p >= n {
		if p < 0 {
			p = -p
		} else {
			p = 2*n - 2 - p
		}
	}
	return p
}

func replicate(p, n int) int {
	if p < 0 {
		return 0
	}
	if p >= n {
		return n - 1
	}
	return p
}

// laplacianVariance is the population variance of the 4-neighbour Laplacian.
func laplacianVariance(g []uint8, w, h int) float64 {
	n := w * h
	lap := make([]int16, n)
	var sum int64
	for y := 0; y < h; y++ {
		up := reflect101(y-1, h) * w
		down := reflect101(y+1, h) * w
		row := y * w
		for x := 0; x < w; x++ {
			left := reflect101(x-1, w)
			right := reflect101(x+1, w)
			v := int(g[up+x]) + int(g[down+x]) + int(g[row+left]) + int(g[row+right]) - 4*int(g[row+x])
			lap[row+x] = int16(v)
			sum += int64(v)
		}
	}

	mean := float64(sum) / float64(n)
	var acc float64
	for _, v := range lap {
		d := float64(v) - mean
		acc += d * d
	}
	return acc / float64(n)
}

// Edge-map states during hysteresis.
const (
	edgeNone uint8 = iota
	edgeWeak
	edgeStrong
)

// tan(22.5°) in 15-bit fixed point.
const (
	cannyShift = 15
	cannyTG22  = 13573
)

// cannyEdgeDensity returns the fraction of pixels marked as edges by a Canny
// detector with a 3x3 Sobel aperture and L1 gradient magnitude.
func cannyEdgeDensity(g []uint8, w, h int, lowThresh, highThresh float64) float64 {
	if lowThresh > highThresh {
		lowThresh, highThresh = highThresh, lowThresh
	}
	low := int32(math.Floor(lowThresh))
	high := int32(math.Floor(highThresh))

	n := w * h
	dx := make([]int32, n)
	dy := make([]int32, n)
	mag := make([]int32, n)

	for y := 0; y < h; y++ {
		r0 := replicate(y-1, h) * w
		r1 := y * w
		r2 := replicate(y+1, h) * w
		for x := 0; x < w; x++ {
			c0 := replicate(x-1, w)
			c2 := replicate(x+1, w)

			p00, p01, p02 := int32(g[r0+c0]), int32(g[r0+x]), int32(g[r0+c2])
			p10, p12 := int32(g[r1+c0]), int32(g[r1+c2])
			p20, p21, p22 := int32(g[r2+c0]), int32(g[r2+x]), int32(g[r2+c2])

			gx := (p02 + 2*p12 + p22) - (p00 + 2*p10 + p20)
			gy := (p20 + 2*p21 + p22) - (p00 + 2*p01 + p02)

			i := r1 + x
			dx[i] = gx
			dy[i] = gy
			mag[i] = abs32(gx) + abs32(gy)
		}
	}

	magAt := func(x, y int) int32 {
		if x < 0 || x >= w || y < 0 || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	state := make([]uint8, n)
	stack := make([]int, 0, 256)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}

			xs, ys := dx[i], dy[i]
			ax := int64(abs32(xs))
			ay := int64(abs32(ys)) << cannyShift
			tg22x := ax * cannyTG22

			var keep bool
			if ay < tg22x {
				keep = m > magAt(x-1, y) && m >= magAt(x+1, y)
			} else {
				tg67x := tg22x + (ax << (cannyShift + 1))
				if ay > tg67x {
					keep = m > magAt(x, y-1) && m >= magAt(x, y+1)
				} else {
					s := 1
					if (xs ^ ys) < 0 {
						s = -1
					}
					keep = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
				}
			}
			if !keep {
				continue
			}

			if m > high {
				state[i] = edgeStrong
				stack = append(stack, i)
			} else {
				state[i] = edgeWeak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for oy := -1; oy <= 1; oy++ {
			ny := y + oy
			if ny < 0 || ny >= h {
				continue
			}
			for ox := -1; ox <= 1; ox++ {
				nx := x + ox
				if nx < 0 || nx >= w {
					continue
				}
				j := ny*w + nx
				if state[j] == edgeWeak {
					state[j] = edgeStrong
					stack = append(stack, j)
				}
			}
		}
	}

	edges := 0
	for _, s := range state {
		if s == edgeStrong {
			edges++
		}
	}
	return float64(edges) / float64(n)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// colorSpread is the population standard deviation of each channel over all
// pixels, averaged across channels.
func colorSpread(d DecodedImage) float64 {
	c := d.Channels
	n := d.Width * d.Height
	sums := make([]int64, c)
	sqs := make([]int64, c)
	for i := 0; i < n; i++ {
		for ch := 0; ch < c; ch++ {
			v := int64(d.Pix[i*c+ch])
			sums[ch] += v
			sqs[ch] += v * v
		}
	}

	var total float64
	for ch := 0; ch < c; ch++ {
		mean := float64(sums[ch]) / float64(n)
		variance := float64(sqs[ch])/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		total += math.Sqrt(variance)
	}
	return total / float64(c)
}

// meanLocalVariance averages E[x²]−E[x]² over a k×k normalised box window centred
// on every pixel. Window sums are kept as sliding column totals so memory stays
// proportional to the image width.
func meanLocalVariance(g []uint8, w, h, k int) float64 {
	r := k / 2
	pw := w + 2*r
	area := float64(k * k)

	xmap := make([]int, pw)
	for px := 0; px < pw; px++ {
		xmap[px] = reflect101(px-r, w)
	}

	col1 := make([]int64, pw)
	col2 := make([]int64, pw)
	addRow := func(y int, sign int64) {
		row := g[reflect101(y, h)*w:]
		for px := 0; px < pw; px++ {
			v := int64(row[xmap[px]])
			col1[px] += sign * v
			col2[px] += sign * v * v
		}
	}

	for y := -r; y <= r; y++ {
		addRow(y, 1)
	}

	var total float64
	for y := 0; y < h; y++ {
		if y > 0 {
			addRow(y-1-r, -1)
			addRow(y+r, 1)
		}

		var s1, s2 int64
		for px := 0; px < k; px++ {
			s1 += col1[px]
			s2 += col2[px]
		}
		for x := 0; x < w; x++ {
			if x > 0 {
				s1 += col1[x+k-1] - col1[x-1]
				s2 += col2[x+k-1] - col2[x-1]
			}
			mean := float64(s1) / area
			total += float64(s2)/area - mean*mean
		}
	}
	return total / float64(w*h)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
