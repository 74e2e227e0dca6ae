package dto

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// SupportedExtensions lists the file types the pipeline accepts.
var SupportedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg"}

// IsSupportedExtension reports whether the file name has an accepted extension.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ExtractRequest represents an upload to the extraction endpoint
type ExtractRequest struct {
	File           *multipart.FileHeader
	Kind           DocumentKind
	Format         string
	OpeningBalance string
	Persist        bool
}

// Validate performs basic validation on the request
func (r *ExtractRequest) Validate() error {
	if r.File == nil {
		return errors.New("file is required")
	}
	if !IsSupportedExtension(r.File.Filename) {
		return &UnsupportedFormatError{Path: r.File.Filename, Ext: filepath.Ext(r.File.Filename)}
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("invalid document kind %d", int(r.Kind))
	}
	switch r.Format {
	case "", "json", "csv", "xlsx":
	default:
		return fmt.Errorf("invalid format %q (supported: json, csv, xlsx)", r.Format)
	}
	if r.OpeningBalance != "" {
		if _, err := decimal.NewFromString(r.OpeningBalance); err != nil {
			return fmt.Errorf("invalid opening_balance %q: %w", r.OpeningBalance, err)
		}
	}
	return nil
}
