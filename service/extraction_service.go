package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finextract/ocr-financial-extraction/assembler"
	"github.com/finextract/ocr-financial-extraction/categorize"
	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/logger"
	"github.com/finextract/ocr-financial-extraction/metrics"
	"github.com/finextract/ocr-financial-extraction/parser"
	"golang.org/x/sync/errgroup"
)

// ExtractionService runs the full pipeline: text extraction, line parsing,
// record assembly and optional categorization.
type ExtractionService struct {
	extractor   *TextExtractor
	categorizer categorize.Categorizer
	timeout     time.Duration
	workers     int
}

// NewExtractionService creates the pipeline. A nil categorizer leaves
// categories empty; timeout <= 0 disables the per-document deadline.
func NewExtractionService(
	extractor *TextExtractor,
	categorizer categorize.Categorizer,
	timeout time.Duration,
	workers int,
) *ExtractionService {
	if workers <= 0 {
		workers = 1
	}
	return &ExtractionService{
		extractor:   extractor,
		categorizer: categorizer,
		timeout:     timeout,
		workers:     workers,
	}
}

// Extract processes one document and returns its table. A document with no
// recognizable entries yields an empty table and no error.
func (s *ExtractionService) Extract(ctx context.Context, path string, kind dto.DocumentKind, opts parser.Options) (*dto.Table, error) {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := logger.FromContext(ctx).With().Str("path", path).Str("kind", kind.String()).Logger()
	ctx = logger.WithContext(ctx, log)

	table, pages, err := s.run(ctx, path, kind, opts)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveDocument(kind.String(), Status(err), elapsed, 0)
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("extraction failed")
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	metrics.ObserveDocument(kind.String(), metrics.StatusOK, elapsed, table.Len())
	log.Info().Int("pages", pages).Int("records", table.Len()).Dur("elapsed", elapsed).Msg("extraction completed")
	return table, nil
}

func (s *ExtractionService) run(ctx context.Context, path string, kind dto.DocumentKind, opts parser.Options) (*dto.Table, int, error) {
	if !kind.Valid() {
		return nil, 0, fmt.Errorf("unknown document kind %d", int(kind))
	}

	pages, err := s.extractor.ExtractPages(ctx, path)
	if err != nil {
		return nil, 0, err
	}

	log := logger.FromContext(ctx)
	text := parser.JoinPages(pages)
	if quality := TextQuality(kind, text); quality < LowQualityScore {
		log.Warn().Float64("quality", quality).Int("pages", len(pages)).Msg("extracted text looks unreadable")
	}
	if conf, ok := MeanConfidence(pages); ok && conf < LowConfidence {
		log.Warn().Float64("confidence", conf).Int("pages", len(pages)).Msg("low OCR confidence")
	}

	records, err := parser.Parse(kind, text, opts)
	if err != nil {
		return nil, len(pages), err
	}

	table, err := assembler.Assemble(kind, records)
	if err != nil {
		return nil, len(pages), err
	}

	if err := categorize.Apply(ctx, table, s.categorizer); err != nil {
		return nil, len(pages), fmt.Errorf("categorize: %w", err)
	}
	return table, len(pages), nil
}

// Job is one document of a batch.
type Job struct {
	Path    string
	Kind    dto.DocumentKind
	Options parser.Options
}

// BatchResult holds the outcome of one Job. Exactly one of Table and Err is set.
type BatchResult struct {
	Job   Job
	Table *dto.Table
	Err   error
}

// ExtractBatch processes jobs in parallel, at most Workers at a time. Results
// are in job order; a failed document does not stop the others.
func (s *ExtractionService) ExtractBatch(ctx context.Context, jobs []Job) []BatchResult {
	results := make([]BatchResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, job := range jobs {
		g.Go(func() error {
			table, err := s.Extract(ctx, job.Path, job.Kind, job.Options)
			results[i] = BatchResult{Job: job, Table: table, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Status maps an extraction error to its metrics label.
func Status(err error) string {
	switch {
	case err == nil:
		return metrics.StatusOK
	case errors.Is(err, dto.ErrUnsupportedFormat):
		return metrics.StatusUnsupportedFormat
	case errors.Is(err, dto.ErrImageDecode):
		return metrics.StatusDecodeError
	case errors.Is(err, dto.ErrOCRUnavailable):
		return metrics.StatusOCRUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.StatusTimeout
	default:
		return metrics.StatusError
	}
}
