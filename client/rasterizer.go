package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/imageproc"
)

// PopplerRasterizer renders single PDF pages to PNG with pdftoppm.
type PopplerRasterizer struct {
	binPath string
	dpi     int
}

func NewPopplerRasterizer(binPath string, dpi int) *PopplerRasterizer {
	if binPath == "" {
		binPath = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &PopplerRasterizer{binPath: binPath, dpi: dpi}
}

// Available reports whether the pdftoppm binary can be found.
func (r *PopplerRasterizer) Available() bool {
	_, err := exec.LookPath(r.binPath)
	return err == nil
}

// RenderPage renders page (1-based) of the PDF at path. Only that page is
// rendered, so memory use stays bounded by one raster.
func (r *PopplerRasterizer) RenderPage(ctx context.Context, path string, page int) (image.Image, error) {
	if _, err := exec.LookPath(r.binPath); err != nil {
		return nil, &dto.OCRUnavailableError{Op: "pdftoppm", Err: err}
	}

	// pdftoppm -f N -l N -r DPI -png -singlefile <in.pdf> writes the PNG to stdout
	n := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, r.binPath, "-f", n, "-l", n, "-r", strconv.Itoa(r.dpi), "-png", "-singlefile", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &dto.ImageDecodeError{
				Path: path,
				Err:  fmt.Errorf("render page %d: %s", page, strings.TrimSpace(stderr.String())),
			}
		}
		return nil, &dto.OCRUnavailableError{Op: "pdftoppm", Err: err}
	}

	img, err := imageproc.Decode(&stdout)
	if err != nil {
		return nil, &dto.ImageDecodeError{Path: path, Err: fmt.Errorf("decode page %d: %w", page, err)}
	}
	return img, nil
}
