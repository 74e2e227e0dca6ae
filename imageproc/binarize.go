package imageproc

import (
	"image"

	"github.com/makiuchi-d/gozxing"
)

// OtsuThreshold returns the level that maximizes the between-class variance
// of the histogram of img. Pixels above the level are background.
func OtsuThreshold(img *image.Gray) uint8 {
	var hist [256]int
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for _, v := range row {
			hist[v]++
		}
	}

	total := w * h
	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var (
		sumB    float64
		weightB int
		best    float64
		level   int
	)
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}

// BinarizeOtsu maps every pixel to black or white using the Otsu threshold.
func BinarizeOtsu(img *image.Gray) *image.Gray {
	return threshold(img, OtsuThreshold(img))
}

func threshold(img *image.Gray, level uint8) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range src {
			if v > level {
				dst[x] = 255
			}
		}
	}
	return out
}

// BinarizeAdaptive thresholds img block by block with the gozxing hybrid
// binarizer, which copes with uneven lighting better than a global level.
// Images the binarizer rejects fall back to Otsu.
func BinarizeAdaptive(img *image.Gray) *image.Gray {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return BinarizeOtsu(img)
	}
	matrix, err := bmp.GetBlackMatrix()
	if err != nil {
		return BinarizeOtsu(img)
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h && y < matrix.GetHeight(); y++ {
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := 0; x < w; x++ {
			if x >= matrix.GetWidth() || !matrix.Get(x, y) {
				dst[x] = 255
			}
		}
	}
	return out
}
