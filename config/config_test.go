package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "RENDER_DPI", "EXTRACT_TIMEOUT", "PREFER_TEXT_LAYER", "MAX_UPLOAD_MB", "BINARIZATION"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 300, cfg.RenderDPI)
	assert.Equal(t, 2*time.Minute, cfg.ExtractTimeout)
	assert.False(t, cfg.PreferTextLayer)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, "otsu", cfg.Binarization)
	assert.Positive(t, cfg.Workers)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RENDER_DPI", "200")
	t.Setenv("EXTRACT_TIMEOUT", "30s")
	t.Setenv("PREFER_TEXT_LAYER", "true")
	t.Setenv("WORKERS", "3")
	t.Setenv("MAX_UPLOAD_MB", "25")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 200, cfg.RenderDPI)
	assert.Equal(t, 30*time.Second, cfg.ExtractTimeout)
	assert.True(t, cfg.PreferTextLayer)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, int64(25*1024*1024), cfg.MaxFileSize)
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RENDER_DPI", "high")
	t.Setenv("WORKERS", "-2")
	t.Setenv("EXTRACT_TIMEOUT", "soon")
	t.Setenv("PREFER_TEXT_LAYER", "maybe")

	cfg := LoadConfig()

	assert.Equal(t, 300, cfg.RenderDPI)
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, 2*time.Minute, cfg.ExtractTimeout)
	assert.False(t, cfg.PreferTextLayer)
}
