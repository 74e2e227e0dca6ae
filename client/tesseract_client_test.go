package client

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecognizeHonoursCancelledContext(t *testing.T) {
	tc := NewTesseractClient("", "")
	assert.Equal(t, "tesseract(lang=eng)", tc.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tc.Recognize(ctx, image.NewGray(image.Rect(0, 0, 4, 4)))
	assert.ErrorIs(t, err, context.Canceled)
}
