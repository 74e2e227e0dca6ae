package service

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/imageproc"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFProcessor reads structure and embedded content from PDF files. Pages are
// 1-based.
type PDFProcessor interface {
	PageCount(path string) (int, error)
	PageText(path string, page int) (string, error)
	PageImages(ctx context.Context, path string, page int) ([]image.Image, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

// PageCount validates the file with pdfcpu and returns its page count.
func (p *pdfProcessor) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, &dto.ImageDecodeError{Path: path, Err: fmt.Errorf("read pdf: %w", err)}
	}
	return n, nil
}

// PageText returns the embedded text layer of one page, one line per text
// row. Scanned pages return an empty string.
func (p *pdfProcessor) PageText(path string, page int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	if page < 1 || page > r.NumPage() {
		return "", fmt.Errorf("page %d out of range (1-%d)", page, r.NumPage())
	}
	pg := r.Page(page)
	if pg.V.IsNull() {
		return "", nil
	}

	rows, err := pg.GetTextByRow()
	if err != nil {
		return "", fmt.Errorf("read text of page %d: %w", page, err)
	}

	var b strings.Builder
	for _, row := range rows {
		var prevEnd float64
		for i, word := range row.Content {
			// glyph runs separated by a visible gap are separate words
			if i > 0 && word.X-prevEnd > word.FontSize*0.25 {
				b.WriteByte(' ')
			}
			b.WriteString(word.S)
			prevEnd = word.X + word.W
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// PageImages extracts the images embedded in one page. It is the fallback
// for scanned PDFs when no page renderer is installed.
func (p *pdfProcessor) PageImages(ctx context.Context, path string, page int) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "finextract-images-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(path, tempDir, []string{strconv.Itoa(page)}, conf); err != nil {
		return nil, &dto.ImageDecodeError{Path: path, Err: fmt.Errorf("extract images of page %d: %w", page, err)}
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var images []image.Image
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := imageproc.Open(filepath.Join(tempDir, name))
		if err != nil {
			// pdfcpu also writes formats the decoders do not know (JPX, CCITT)
			continue
		}
		images = append(images, img)
	}
	return images, nil
}
