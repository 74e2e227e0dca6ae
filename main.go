package main

import (
	"context"
	"time"

	"github.com/finextract/ocr-financial-extraction/categorize"
	"github.com/finextract/ocr-financial-extraction/client"
	"github.com/finextract/ocr-financial-extraction/config"
	"github.com/finextract/ocr-financial-extraction/handler"
	"github.com/finextract/ocr-financial-extraction/imageproc"
	"github.com/finextract/ocr-financial-extraction/logger"
	"github.com/finextract/ocr-financial-extraction/service"
	"github.com/finextract/ocr-financial-extraction/store"
	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	binarization, err := imageproc.ParseBinarization(cfg.Binarization)
	if err != nil {
		log.Warn().Err(err).Msg("using otsu binarization")
	}
	normOpts := imageproc.DefaultOptions()
	normOpts.Binarization = binarization

	// Initialize OCR backend and page renderer
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, cfg.OCRLanguage)
	rasterizer := client.NewPopplerRasterizer(cfg.PdftoppmPath, cfg.RenderDPI)
	if !rasterizer.Available() {
		log.Warn().Str("pdftoppm", cfg.PdftoppmPath).Msg("pdftoppm not found, scanned PDFs fall back to embedded images")
	}

	extractorOpts := service.DefaultExtractorOptions()
	extractorOpts.LowResolutionWidth = cfg.LowResWidth
	extractorOpts.UpscaleFactor = cfg.UpscaleFactor
	extractorOpts.PreferTextLayer = cfg.PreferTextLayer

	// Initialize service layer
	extractor := service.NewTextExtractor(
		tesseractClient,
		rasterizer,
		service.NewPDFProcessor(),
		imageproc.NewNormalizer(normOpts),
		extractorOpts,
	)
	categorizer := categorize.NewKeywordCategorizer(categorize.DefaultRules(), 80)
	extractionService := service.NewExtractionService(extractor, categorizer, cfg.ExtractTimeout, cfg.Workers)

	// Optional persistence
	var tableStore handler.TableStore
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		s := store.New(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to create schema")
		}
		cancel()
		tableStore = s
		log.Info().Msg("persistence enabled")
	}

	// Initialize handler layer
	extractHandler := handler.NewExtractHandler(extractionService, tableStore, cfg.MaxFileSize)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(extractHandler, log)

	// Start server
	log.Info().
		Str("port", cfg.ServerPort).
		Str("ocr", tesseractClient.String()).
		Int("workers", cfg.Workers).
		Msg("Starting Financial Document Extraction Service")
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
