package imageproc

import (
	"image"
	"math"
)

// CLAHEOptions configures contrast-limited adaptive histogram equalization.
type CLAHEOptions struct {
	TilesX    int
	TilesY    int
	ClipLimit float64
}

// DefaultCLAHEOptions returns an 8x8 tile grid with clip limit 2.0.
func DefaultCLAHEOptions() CLAHEOptions {
	return CLAHEOptions{TilesX: 8, TilesY: 8, ClipLimit: 2.0}
}

// EqualizeCLAHE equalizes each tile's histogram, clipped at ClipLimit times
// the mean bin height, and blends neighbouring tile mappings bilinearly.
func EqualizeCLAHE(img *image.Gray, opts CLAHEOptions) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	tx := min(max(opts.TilesX, 1), w)
	ty := min(max(opts.TilesY, 1), h)
	tileW := (w + tx - 1) / tx
	tileH := (h + ty - 1) / ty
	tx = (w + tileW - 1) / tileW
	ty = (h + tileH - 1) / tileH

	luts := make([][256]uint8, tx*ty)
	for j := 0; j < ty; j++ {
		for i := 0; i < tx; i++ {
			luts[j*tx+i] = tileMapping(img, i*tileW, j*tileH, min((i+1)*tileW, w), min((j+1)*tileH, h), opts.ClipLimit)
		}
	}

	for y := 0; y < h; y++ {
		y1, y2, fy := neighbours(y, tileH, ty)
		src := img.Pix[y*img.Stride : y*img.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range src {
			x1, x2, fx := neighbours(x, tileW, tx)
			top := (1-fx)*float64(luts[y1*tx+x1][v]) + fx*float64(luts[y1*tx+x2][v])
			bottom := (1-fx)*float64(luts[y2*tx+x1][v]) + fx*float64(luts[y2*tx+x2][v])
			dst[x] = uint8(math.Round((1-fy)*top + fy*bottom))
		}
	}
	return out
}

// neighbours returns the two tiles whose centres bracket position p and the
// interpolation weight of the second one.
func neighbours(p, size, tiles int) (int, int, float64) {
	f := (float64(p)+0.5)/float64(size) - 0.5
	lo := int(math.Floor(f))
	frac := f - float64(lo)
	if lo < 0 {
		return 0, 0, 0
	}
	if lo >= tiles-1 {
		return tiles - 1, tiles - 1, 0
	}
	return lo, lo + 1, frac
}

func tileMapping(img *image.Gray, x0, y0, x1, y1 int, clip float64) [256]uint8 {
	var lut [256]uint8
	var hist [256]int
	for y := y0; y < y1; y++ {
		for _, v := range img.Pix[y*img.Stride+x0 : y*img.Stride+x1] {
			hist[v]++
		}
	}
	area := (x1 - x0) * (y1 - y0)
	if area <= 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	if clip > 0 {
		limit := max(int(clip*float64(area)/256), 1)
		excess := 0
		for i, c := range hist {
			if c > limit {
				excess += c - limit
				hist[i] = limit
			}
		}
		bonus, rest := excess/256, excess%256
		for i := range hist {
			hist[i] += bonus
			if i < rest {
				hist[i]++
			}
		}
	}

	scale := 255 / float64(area)
	sum := 0
	for i, c := range hist {
		sum += c
		lut[i] = uint8(min(math.Round(float64(sum)*scale), 255))
	}
	return lut
}
