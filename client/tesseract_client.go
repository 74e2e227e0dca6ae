package client

import (
	"context"
	"fmt"
	"image"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/imageproc"
	"github.com/otiai10/gosseract/v2"
)

// TesseractClient runs Tesseract through gosseract. A fresh gosseract client
// is created for every call, so one TesseractClient can serve concurrent
// workers.
type TesseractClient struct {
	dataPath string
	language string
}

func NewTesseractClient(dataPath, language string) *TesseractClient {
	if language == "" {
		language = "eng"
	}
	return &TesseractClient{
		dataPath: dataPath,
		language: language,
	}
}

// Recognize returns the text of a normalized page raster.
func (tc *TesseractClient) Recognize(ctx context.Context, img image.Image) (string, error) {
	text, _, err := tc.recognize(ctx, img, false)
	return text, err
}

// RecognizeWithConfidence also returns the mean word confidence (0-100).
func (tc *TesseractClient) RecognizeWithConfidence(ctx context.Context, img image.Image) (string, float64, error) {
	return tc.recognize(ctx, img, true)
}

func (tc *TesseractClient) recognize(ctx context.Context, img image.Image, withConfidence bool) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	data, err := imageproc.EncodePNG(img)
	if err != nil {
		return "", 0, &dto.ImageDecodeError{Err: err}
	}

	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		if err := client.SetTessdataPrefix(tc.dataPath); err != nil {
			return "", 0, &dto.OCRUnavailableError{Op: "set tessdata prefix", Err: err}
		}
	}
	if err := client.SetLanguage(tc.language); err != nil {
		return "", 0, &dto.OCRUnavailableError{Op: "set language", Err: err}
	}
	// Statement lines are uniform blocks; keeping column gaps helps the parser.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", 0, &dto.OCRUnavailableError{Op: "set page segmentation mode", Err: err}
	}
	if err := client.SetVariable(gosseract.SettableVariable("preserve_interword_spaces"), "1"); err != nil {
		return "", 0, &dto.OCRUnavailableError{Op: "set variable", Err: err}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", 0, &dto.OCRUnavailableError{Op: "set image", Err: err}
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, &dto.OCRUnavailableError{Op: "recognize", Err: err}
	}
	if !withConfidence {
		return text, 0, nil
	}

	// Get bounding boxes to calculate confidence
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return text, 0, nil
	}
	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	if len(boxes) == 0 {
		return text, 0, nil
	}
	return text, total / float64(len(boxes)), nil
}

func (tc *TesseractClient) String() string {
	return fmt.Sprintf("tesseract(lang=%s)", tc.language)
}
