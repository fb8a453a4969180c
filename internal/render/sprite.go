// Package render превращает нормализованные тензоры обратно в отображаемые
// миниатюры: обратная нормализация, PNG и inline-markup для платформы визуализации.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/vektalab/embedviz/pkg/e"
)

// RenderedSprite — результат рендеринга одного сэмпла.
type RenderedSprite struct {
	Markup string // <img src="data:image/png;base64,...">
	PNG    []byte
}

// Denormalize отменяет поканальную нормализацию и зажимает результат в [0,1].
// Идемпотентна на уже зажатом входе при mean=0, std=1.
func Denormalize(v, mean, std float32) float32 {
	out := v*std + mean
	if out < 0 {
		return 0
	}
	if out > 1 {
		return 1
	}
	return out
}

// Sprite рендерит одноканальный нормализованный тензор w x h в PNG-миниатюру
// и оборачивает её в inline-markup. Детерминированная чистая функция;
// единственная ошибка — несовпадение размера с объявленной формой.
func Sprite(pixels []float32, w, h int, mean, std float32) (*RenderedSprite, error) {
	if len(pixels) != w*h {
		return nil, e.Wrap(fmt.Sprintf("got %d pixels for %dx%d", len(pixels), w, h), e.ErrSpriteShapeMismatch)
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := Denormalize(pixels[y*w+x], mean, std)
			img.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	data := buf.Bytes()
	markup := fmt.Sprintf(
		`<img src="data:image/png;base64,%s" width="%d" height="%d">`,
		base64.StdEncoding.EncodeToString(data), w, h,
	)

	return &RenderedSprite{
		Markup: markup,
		PNG:    data,
	}, nil
}
