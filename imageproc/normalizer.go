// Package imageproc prepares page rasters for OCR.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/finextract/ocr-financial-extraction/dto"
)

// Binarization selects the thresholding method.
type Binarization int

const (
	// Otsu applies one global threshold chosen from the histogram.
	Otsu Binarization = iota
	// Adaptive thresholds each region against its local neighbourhood.
	Adaptive
)

func (b Binarization) String() string {
	switch b {
	case Otsu:
		return "otsu"
	case Adaptive:
		return "adaptive"
	default:
		return fmt.Sprintf("Binarization(%d)", int(b))
	}
}

// ParseBinarization accepts "otsu" or "adaptive".
func ParseBinarization(s string) (Binarization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "otsu", "global":
		return Otsu, nil
	case "adaptive", "local":
		return Adaptive, nil
	default:
		return Otsu, fmt.Errorf("unknown binarization %q", s)
	}
}

// Options configures the normalization pipeline.
type Options struct {
	Binarization Binarization
	Denoise      DenoiseOptions
	CLAHE        CLAHEOptions
}

// DefaultOptions returns Otsu binarization with the default denoise and CLAHE settings.
func DefaultOptions() Options {
	return Options{
		Binarization: Otsu,
		Denoise:      DefaultDenoiseOptions(),
		CLAHE:        DefaultCLAHEOptions(),
	}
}

// Normalizer runs grayscale conversion, binarization, denoising and contrast
// equalization in that order.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a new normalizer
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize returns a cleaned grayscale raster with the same dimensions as img.
func (n *Normalizer) Normalize(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, &dto.ImageDecodeError{Err: errors.New("nil image")}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &dto.ImageDecodeError{Err: fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())}
	}

	gray := Grayscale(img)

	var bin *image.Gray
	switch n.opts.Binarization {
	case Adaptive:
		bin = BinarizeAdaptive(gray)
	default:
		bin = BinarizeOtsu(gray)
	}

	denoised := Denoise(bin, n.opts.Denoise)
	return EqualizeCLAHE(denoised, n.opts.CLAHE), nil
}

// Grayscale converts img to an 8-bit luma raster whose bounds start at the origin.
func Grayscale(img image.Image) *image.Gray {
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

// Upscale enlarges img by an integer factor with Lanczos resampling.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.Lanczos)
}

// Open decodes an image file, honouring EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &dto.ImageDecodeError{Path: path, Err: err}
	}
	return img, nil
}

// Decode reads an image from r, honouring EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &dto.ImageDecodeError{Err: err}
	}
	return img, nil
}

// EncodePNG serializes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
