package dataset

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vektalab/embedviz/pkg/e"
)

// Магические числа формата IDX (big-endian).
const (
	idxMagicLabels = 0x00000801
	idxMagicImages = 0x00000803
)

// RawImages — декодированные изображения IDX-файла, по одному байту на пиксель.
type RawImages struct {
	Count  int
	Width  int
	Height int
	Pixels []byte // Count*Height*Width, построчно
}

// ReadImagesFile читает IDX-файл изображений, прозрачно распаковывая gzip по расширению.
func ReadImagesFile(path string) (*RawImages, error) {
	const op = "dataset.ReadImagesFile"

	r, closeFn, err := openMaybeGzip(path)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer closeFn()

	images, err := ReadImages(r)
	if err != nil {
		return nil, e.Wrap(fmt.Sprintf("%s: %s", op, path), err)
	}

	return images, nil
}

// ReadLabelsFile читает IDX-файл меток, прозрачно распаковывая gzip по расширению.
func ReadLabelsFile(path string) ([]byte, error) {
	const op = "dataset.ReadLabelsFile"

	r, closeFn, err := openMaybeGzip(path)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer closeFn()

	labels, err := ReadLabels(r)
	if err != nil {
		return nil, e.Wrap(fmt.Sprintf("%s: %s", op, path), err)
	}

	return labels, nil
}

// ReadImages декодирует поток IDX-изображений.
func ReadImages(r io.Reader) (*RawImages, error) {
	var header [4]uint32
	for i := range header {
		if err := binary.Read(r, binary.BigEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("failed to read idx header: %w", err)
		}
	}

	if header[0] != idxMagicImages {
		return nil, fmt.Errorf("unexpected idx magic 0x%08x, want 0x%08x", header[0], idxMagicImages)
	}

	count := int(header[1])
	height := int(header[2])
	width := int(header[3])

	pixels := make([]byte, count*height*width)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, fmt.Errorf("failed to read %d image bytes: %w", len(pixels), err)
	}

	return &RawImages{
		Count:  count,
		Width:  width,
		Height: height,
		Pixels: pixels,
	}, nil
}

// ReadLabels декодирует поток IDX-меток.
func ReadLabels(r io.Reader) ([]byte, error) {
	var magic, count uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read idx header: %w", err)
	}
	if magic != idxMagicLabels {
		return nil, fmt.Errorf("unexpected idx magic 0x%08x, want 0x%08x", magic, idxMagicLabels)
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read idx label count: %w", err)
	}

	labels := make([]byte, count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("failed to read %d labels: %w", count, err)
	}

	return labels, nil
}

func openMaybeGzip(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, f.Close, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	closeFn := func() error {
		gz.Close()
		return f.Close()
	}

	return gz, closeFn, nil
}
