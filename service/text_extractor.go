package service

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/imageproc"
	"github.com/finextract/ocr-financial-extraction/logger"
	"github.com/finextract/ocr-financial-extraction/metrics"
	"github.com/finextract/ocr-financial-extraction/parser"
)

// Recognizer turns a normalized raster into text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// ConfidenceRecognizer is a Recognizer that also reports the mean word
// confidence (0-100) of the text it returns.
type ConfidenceRecognizer interface {
	Recognizer
	RecognizeWithConfidence(ctx context.Context, img image.Image) (string, float64, error)
}

// Rasterizer renders a single PDF page.
type Rasterizer interface {
	RenderPage(ctx context.Context, path string, page int) (image.Image, error)
}

// Page sources, used as metric labels.
const (
	SourceOCR       = "ocr"
	SourceTextLayer = "text_layer"
)

// ExtractorOptions tunes the text extractor.
type ExtractorOptions struct {
	// Images narrower than LowResolutionWidth are upscaled by UpscaleFactor.
	LowResolutionWidth int
	UpscaleFactor      int

	PreferTextLayer   bool
	MinTextLayerChars int
}

// DefaultExtractorOptions returns the defaults used by the server.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		LowResolutionWidth: 1500,
		UpscaleFactor:      2,
		MinTextLayerChars:  20,
	}
}

// TextExtractor converts a PDF or image file into raw text, one page at a time.
type TextExtractor struct {
	recognizer Recognizer
	rasterizer Rasterizer
	pdf        PDFProcessor
	normalizer *imageproc.Normalizer
	opts       ExtractorOptions
}

func NewTextExtractor(
	recognizer Recognizer,
	rasterizer Rasterizer,
	pdfProcessor PDFProcessor,
	normalizer *imageproc.Normalizer,
	opts ExtractorOptions,
) *TextExtractor {
	if normalizer == nil {
		normalizer = imageproc.NewNormalizer(imageproc.DefaultOptions())
	}
	return &TextExtractor{
		recognizer: recognizer,
		rasterizer: rasterizer,
		pdf:        pdfProcessor,
		normalizer: normalizer,
		opts:       opts,
	}
}

// ExtractText returns the text of all pages joined with newlines.
func (e *TextExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	pages, err := e.ExtractPages(ctx, path)
	if err != nil {
		return "", err
	}
	return parser.JoinPages(pages), nil
}

// ExtractPages returns the text of each page in order.
func (e *TextExtractor) ExtractPages(ctx context.Context, path string) ([]parser.RawPage, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return e.extractPDF(ctx, path)
	case ".png", ".jpg", ".jpeg":
		text, conf, err := e.extractImage(ctx, path)
		if err != nil {
			return nil, err
		}
		page := parser.NewRawPage(1, text)
		page.Confidence = conf
		return []parser.RawPage{page}, nil
	default:
		return nil, &dto.UnsupportedFormatError{Path: path, Ext: ext}
	}
}

func (e *TextExtractor) extractImage(ctx context.Context, path string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	img, err := imageproc.Open(path)
	if err != nil {
		return "", 0, err
	}
	if e.opts.LowResolutionWidth > 0 && img.Bounds().Dx() < e.opts.LowResolutionWidth {
		img = imageproc.Upscale(img, e.opts.UpscaleFactor)
	}
	return e.recognize(ctx, img)
}

func (e *TextExtractor) extractPDF(ctx context.Context, path string) ([]parser.RawPage, error) {
	log := logger.FromContext(ctx)

	count, err := e.pdf.PageCount(path)
	if err != nil {
		return nil, err
	}

	pages := make([]parser.RawPage, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if e.opts.PreferTextLayer {
			text, err := e.pdf.PageText(path, i)
			if err != nil {
				log.Debug().Err(err).Int("page", i).Msg("text layer unreadable, falling back to OCR")
			} else if countNonSpace(text) >= e.opts.MinTextLayerChars {
				metrics.ObservePage(SourceTextLayer)
				pages = append(pages, parser.NewRawPage(i, normalizeText(text)))
				continue
			}
		}

		text, conf, err := e.ocrPage(ctx, path, i)
		if err != nil {
			return nil, err
		}
		page := parser.NewRawPage(i, text)
		page.Confidence = conf
		pages = append(pages, page)
	}
	return pages, nil
}

// ocrPage renders and recognizes one page. Only one page raster is held at a
// time.
func (e *TextExtractor) ocrPage(ctx context.Context, path string, page int) (string, float64, error) {
	img, err := e.rasterizer.RenderPage(ctx, path, page)
	if err == nil {
		return e.recognize(ctx, img)
	}
	if !errors.Is(err, dto.ErrOCRUnavailable) {
		return "", 0, err
	}

	// No renderer installed: OCR the page's embedded scans instead.
	images, imgErr := e.pdf.PageImages(ctx, path, page)
	if imgErr != nil || len(images) == 0 {
		return "", 0, err
	}
	logger.FromContext(ctx).Warn().Err(err).Int("page", page).Int("images", len(images)).
		Msg("page renderer unavailable, using embedded images")

	parts := make([]string, 0, len(images))
	var confSum float64
	scored := 0
	for _, img := range images {
		if e.opts.LowResolutionWidth > 0 && img.Bounds().Dx() < e.opts.LowResolutionWidth {
			img = imageproc.Upscale(img, e.opts.UpscaleFactor)
		}
		text, conf, err := e.recognize(ctx, img)
		if err != nil {
			return "", 0, err
		}
		parts = append(parts, text)
		if conf > 0 {
			confSum += conf
			scored++
		}
	}
	var conf float64
	if scored > 0 {
		conf = confSum / float64(scored)
	}
	return strings.Join(parts, "\n"), conf, nil
}

// recognize normalizes img and runs OCR on it. The confidence is zero when
// the recognizer does not report one.
func (e *TextExtractor) recognize(ctx context.Context, img image.Image) (string, float64, error) {
	gray, err := e.normalizer.Normalize(img)
	if err != nil {
		return "", 0, err
	}

	var (
		text string
		conf float64
	)
	if cr, ok := e.recognizer.(ConfidenceRecognizer); ok {
		text, conf, err = cr.RecognizeWithConfidence(ctx, gray)
	} else {
		text, err = e.recognizer.Recognize(ctx, gray)
	}
	if err != nil {
		return "", 0, err
	}
	metrics.ObservePage(SourceOCR)
	return normalizeText(text), conf, nil
}

// normalizeText removes carriage returns and form feeds, turns tabs into
// spaces and collapses runs of spaces on every line.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
