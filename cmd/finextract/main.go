// Command finextract extracts tables from financial documents on disk.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/finextract/ocr-financial-extraction/categorize"
	"github.com/finextract/ocr-financial-extraction/client"
	"github.com/finextract/ocr-financial-extraction/config"
	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/export"
	"github.com/finextract/ocr-financial-extraction/imageproc"
	"github.com/finextract/ocr-financial-extraction/logger"
	"github.com/finextract/ocr-financial-extraction/parser"
	"github.com/finextract/ocr-financial-extraction/service"
	"github.com/shopspring/decimal"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("finextract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	kindName := fs.String("kind", "bank_statement", "document kind: bank_statement, invoice or profit_loss")
	formatName := fs.String("format", "json", "output format: json or csv")
	workers := fs.Int("workers", cfg.Workers, "documents processed in parallel")
	opening := fs.String("opening-balance", "", "balance before the first statement line")
	binarization := fs.String("binarization", cfg.Binarization, "otsu or adaptive")
	categories := fs.Bool("categorize", true, "label records with keyword categories")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: finextract [options] file...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	kind, err := dto.ParseDocumentKind(*kindName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	format, err := export.ParseFormat(*formatName)
	if err != nil || format == export.FormatXLSX {
		fmt.Fprintf(stderr, "unsupported output format %q (json or csv)\n", *formatName)
		return 2
	}
	var opts parser.Options
	if *opening != "" {
		d, err := decimal.NewFromString(*opening)
		if err != nil {
			fmt.Fprintf(stderr, "invalid opening balance %q: %v\n", *opening, err)
			return 2
		}
		opts.OpeningBalance = decimal.NewNullDecimal(d)
	}
	bin, err := imageproc.ParseBinarization(*binarization)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	log := logger.New(cfg.LogLevel, "console")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	normOpts := imageproc.DefaultOptions()
	normOpts.Binarization = bin
	extractorOpts := service.DefaultExtractorOptions()
	extractorOpts.LowResolutionWidth = cfg.LowResWidth
	extractorOpts.UpscaleFactor = cfg.UpscaleFactor
	extractorOpts.PreferTextLayer = cfg.PreferTextLayer

	extractor := service.NewTextExtractor(
		client.NewTesseractClient(cfg.TesseractDataPath, cfg.OCRLanguage),
		client.NewPopplerRasterizer(cfg.PdftoppmPath, cfg.RenderDPI),
		service.NewPDFProcessor(),
		imageproc.NewNormalizer(normOpts),
		extractorOpts,
	)
	var categorizer categorize.Categorizer
	if *categories {
		categorizer = categorize.NewKeywordCategorizer(categorize.DefaultRules(), 80)
	}
	svc := service.NewExtractionService(extractor, categorizer, cfg.ExtractTimeout, *workers)

	jobs := make([]service.Job, 0, fs.NArg())
	for _, path := range fs.Args() {
		jobs = append(jobs, service.Job{Path: path, Kind: kind, Options: opts})
	}

	failed := 0
	for _, res := range svc.ExtractBatch(ctx, jobs) {
		if res.Err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", res.Job.Path, res.Err)
			continue
		}
		if err := writeResult(stdout, res, format); err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", res.Job.Path, err)
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func writeResult(w io.Writer, res service.BatchResult, format export.Format) error {
	if format == export.FormatCSV {
		fmt.Fprintf(w, "# %s\n", res.Job.Path)
		return export.WriteCSV(w, res.Table)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		File  string     `json:"file"`
		Table *dto.Table `json:"table"`
	}{res.Job.Path, res.Table})
}
