package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/vektalab/embedviz/pkg/e"
)

// TestDenormalize tests reverse normalization and clipping behavior
func TestDenormalize(t *testing.T) {
	t.Run("ReversesNormalization", func(t *testing.T) {
		const (
			mean = float32(0.1307)
			std  = float32(0.3081)
		)

		orig := float32(0.5)
		normalized := (orig - mean) / std

		got := Denormalize(normalized, mean, std)
		if diff := got - orig; diff > 1e-5 || diff < -1e-5 {
			t.Errorf("Denormalize(%f) = %f, expected %f", normalized, got, orig)
		}
	})

	t.Run("ClipsBelowZero", func(t *testing.T) {
		got := Denormalize(-10, 0.1307, 0.3081)
		if got != 0 {
			t.Errorf("Expected 0, got %f", got)
		}
	})

	t.Run("ClipsAboveOne", func(t *testing.T) {
		got := Denormalize(10, 0.1307, 0.3081)
		if got != 1 {
			t.Errorf("Expected 1, got %f", got)
		}
	})

	t.Run("IdempotentOnClippedInput", func(t *testing.T) {
		// При mean=0, std=1 повторное применение не меняет уже зажатое значение
		for _, v := range []float32{0, 0.25, 0.5, 1} {
			once := Denormalize(v, 0, 1)
			twice := Denormalize(once, 0, 1)
			if once != twice {
				t.Errorf("Denormalize not idempotent for %f: %f vs %f", v, once, twice)
			}
		}
	})
}

// TestSprite tests thumbnail rendering into PNG and inline markup
func TestSprite(t *testing.T) {
	const (
		w = 28
		h = 28
	)

	pixels := make([]float32, w*h)
	for i := range pixels {
		pixels[i] = float32(i%255) / 255.0
	}

	t.Run("RendersValidPNG", func(t *testing.T) {
		sprite, err := Sprite(pixels, w, h, 0, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		img, err := png.Decode(bytes.NewReader(sprite.PNG))
		if err != nil {
			t.Fatalf("PNG decode failed: %v", err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != w || bounds.Dy() != h {
			t.Errorf("Expected %dx%d image, got %dx%d", w, h, bounds.Dx(), bounds.Dy())
		}
	})

	t.Run("MarkupWrapsBase64PNG", func(t *testing.T) {
		sprite, err := Sprite(pixels, w, h, 0, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if !strings.HasPrefix(sprite.Markup, `<img src="data:image/png;base64,`) {
			t.Errorf("Markup missing img prefix: %s", sprite.Markup[:40])
		}
		if !strings.HasSuffix(sprite.Markup, `width="28" height="28">`) {
			t.Errorf("Markup missing dimensions suffix: %s", sprite.Markup)
		}

		encoded := base64.StdEncoding.EncodeToString(sprite.PNG)
		if !strings.Contains(sprite.Markup, encoded) {
			t.Error("Markup does not contain base64 of PNG bytes")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		first, err := Sprite(pixels, w, h, 0.1307, 0.3081)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		second, err := Sprite(pixels, w, h, 0.1307, 0.3081)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if !bytes.Equal(first.PNG, second.PNG) {
			t.Error("Expected identical PNG bytes for identical input")
		}
		if first.Markup != second.Markup {
			t.Error("Expected identical markup for identical input")
		}
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		_, err := Sprite(pixels[:10], w, h, 0, 1)
		if err == nil {
			t.Fatal("Expected error for shape mismatch")
		}
		if !errors.Is(err, e.ErrSpriteShapeMismatch) {
			t.Errorf("Expected ErrSpriteShapeMismatch, got %v", err)
		}
	})
}
