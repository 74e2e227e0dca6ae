package imageproc

import (
	"image"
	"math"
)

// DenoiseOptions configures non-local means filtering.
type DenoiseOptions struct {
	// PatchRadius is the half-size of the compared patches.
	PatchRadius int
	// SearchRadius is the half-size of the window searched for similar patches.
	SearchRadius int
	// Strength (h) controls how quickly weights decay with patch distance.
	Strength float64
}

// DefaultDenoiseOptions returns 3x3 patches, a 7x7 search window and h=10.
func DefaultDenoiseOptions() DenoiseOptions {
	return DenoiseOptions{PatchRadius: 1, SearchRadius: 3, Strength: 10}
}

// Denoise applies non-local means: every pixel becomes the weighted mean of
// the pixels in its search window, weighted by how similar their surrounding
// patches are. Patch distances for one search offset are computed for the
// whole image at once with running box sums, so the cost does not depend on
// the patch size.
func Denoise(img *image.Gray, opts DenoiseOptions) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if opts.SearchRadius <= 0 || opts.Strength <= 0 {
		for y := 0; y < h; y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+w], img.Pix[y*img.Stride:y*img.Stride+w])
		}
		return out
	}
	p := max(opts.PatchRadius, 0)
	s := opts.SearchRadius
	weights := weightTable(opts.Strength)

	n := w * h
	pix := make([]int32, n)
	for y := 0; y < h; y++ {
		for x, v := range img.Pix[y*img.Stride : y*img.Stride+w] {
			pix[y*w+x] = int32(v)
		}
	}

	diff := make([]int32, n)
	box := make([]int32, n)
	sumW := make([]float32, n)
	sumV := make([]float32, n)
	line := make([]int64, max(w, h)+1)

	for dy := -s; dy <= s; dy++ {
		for dx := -s; dx <= s; dx++ {
			for y := 0; y < h; y++ {
				yy := clamp(y+dy, h)
				for x := 0; x < w; x++ {
					d := pix[y*w+x] - pix[yy*w+clamp(x+dx, w)]
					diff[y*w+x] = d * d
				}
			}
			boxRows(diff, box, w, h, p, line)
			boxCols(box, diff, w, h, p, line)

			for y := 0; y < h; y++ {
				yy := clamp(y+dy, h)
				rows := windowCount(y, h, p)
				for x := 0; x < w; x++ {
					i := y*w + x
					mean := diff[i] / (rows * windowCount(x, w, p))
					wt := weights[mean]
					sumW[i] += wt
					sumV[i] += wt * float32(pix[yy*w+clamp(x+dx, w)])
				}
			}
		}
	}

	for y := 0; y < h; y++ {
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := range dst {
			i := y*w + x
			dst[x] = uint8(math.Round(float64(sumV[i] / sumW[i])))
		}
	}
	return out
}

// weightTable maps a mean squared patch difference to exp(-d/h²).
func weightTable(strength float64) []float32 {
	h2 := strength * strength
	table := make([]float32, 255*255+1)
	for d := range table {
		table[d] = float32(math.Exp(-float64(d) / h2))
	}
	return table
}

// boxRows writes into dst the horizontal window sums of src.
func boxRows(src, dst []int32, w, h, r int, prefix []int64) {
	for y := 0; y < h; y++ {
		row := src[y*w : y*w+w]
		prefix[0] = 0
		for x, v := range row {
			prefix[x+1] = prefix[x] + int64(v)
		}
		for x := 0; x < w; x++ {
			lo, hi := max(x-r, 0), min(x+r, w-1)
			dst[y*w+x] = int32(prefix[hi+1] - prefix[lo])
		}
	}
}

// boxCols writes into dst the vertical window sums of src.
func boxCols(src, dst []int32, w, h, r int, prefix []int64) {
	for x := 0; x < w; x++ {
		prefix[0] = 0
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + int64(src[y*w+x])
		}
		for y := 0; y < h; y++ {
			lo, hi := max(y-r, 0), min(y+r, h-1)
			dst[y*w+x] = int32(prefix[hi+1] - prefix[lo])
		}
	}
}

func windowCount(i, n, r int) int32 {
	return int32(min(i+r, n-1) - max(i-r, 0) + 1)
}

func clamp(i, n int) int {
	switch {
	case i < 0:
		return 0
	case i >= n:
		return n - 1
	default:
		return i
	}
}
