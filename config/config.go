package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ServerPort string

	TesseractDataPath string
	OCRLanguage       string
	PdftoppmPath      string
	RenderDPI         int
	UpscaleFactor     int
	LowResWidth       int
	Binarization      string
	PreferTextLayer   bool

	ExtractTimeout time.Duration
	Workers        int
	MaxFileSize    int64

	DatabaseURL string

	LogLevel  string
	LogFormat string
}

// LoadConfig reads the environment, after loading an optional .env file from
// the working directory.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		TesseractDataPath: getEnv("TESSDATA_PREFIX", ""),
		OCRLanguage:       getEnv("OCR_LANGUAGE", "eng"),
		PdftoppmPath:      getEnv("PDFTOPPM_PATH", "pdftoppm"),
		RenderDPI:         getEnvAsInt("RENDER_DPI", 300),
		UpscaleFactor:     getEnvAsInt("UPSCALE_FACTOR", 2),
		LowResWidth:       getEnvAsInt("LOW_RES_WIDTH", 1500),
		Binarization:      getEnv("BINARIZATION", "otsu"),
		PreferTextLayer:   getEnvAsBool("PREFER_TEXT_LAYER", false),

		ExtractTimeout: getEnvAsDuration("EXTRACT_TIMEOUT", 2*time.Minute),
		Workers:        getEnvAsInt("WORKERS", runtime.NumCPU()),
		MaxFileSize:    int64(getEnvAsInt("MAX_UPLOAD_MB", 10)) * 1024 * 1024,

		DatabaseURL: getEnv("DATABASE_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("invalid integer, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Bool("default", defaultValue).Msg("invalid boolean, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		log.Warn().Str("key", key).Str("value", valueStr).Dur("default", defaultValue).Msg("invalid duration, using default")
		return defaultValue
	}
	return value
}
