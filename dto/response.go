package dto

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrImageDecode       = errors.New("image could not be decoded")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrOCRUnavailable    = errors.New("ocr backend unavailable")
)

// ImageDecodeError reports an empty, corrupt or unreadable raster.
type ImageDecodeError struct {
	Path string
	Err  error
}

func (e *ImageDecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode image: %v", e.Err)
	}
	return fmt.Sprintf("decode image %s: %v", e.Path, e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

func (e *ImageDecodeError) Is(target error) bool { return target == ErrImageDecode }

// UnsupportedFormatError reports a file whose extension is not PDF, PNG or JPEG.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q for %s (supported: .pdf, .png, .jpg, .jpeg)", e.Ext, e.Path)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// OCRUnavailableError reports that the OCR backend or page renderer could not be invoked.
type OCRUnavailableError struct {
	Op  string
	Err error
}

func (e *OCRUnavailableError) Error() string {
	return fmt.Sprintf("ocr unavailable (%s): %v", e.Op, e.Err)
}

func (e *OCRUnavailableError) Unwrap() error { return e.Err }

func (e *OCRUnavailableError) Is(target error) bool { return target == ErrOCRUnavailable }

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ExtractResponse is the JSON body returned for a successful extraction.
type ExtractResponse struct {
	RequestID   string `json:"request_id"`
	Filename    string `json:"filename"`
	Table       *Table `json:"table"`
	Records     int    `json:"records"`
	Persisted   bool   `json:"persisted"`
	ProcessedAt string `json:"processed_at"`
}
