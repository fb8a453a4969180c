package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func buildImagesIDX(t *testing.T, count, h, w int, pixels []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	for _, v := range []uint32{0x00000803, uint32(count), uint32(h), uint32(w)} {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatalf("Failed to build header: %v", err)
		}
	}
	buf.Write(pixels)

	return buf.Bytes()
}

func buildLabelsIDX(t *testing.T, labels []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	for _, v := range []uint32{0x00000801, uint32(len(labels))} {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatalf("Failed to build header: %v", err)
		}
	}
	buf.Write(labels)

	return buf.Bytes()
}

// TestReadImages tests IDX image stream decoding
func TestReadImages(t *testing.T) {
	t.Run("DecodesHeaderAndPixels", func(t *testing.T) {
		pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		data := buildImagesIDX(t, 2, 2, 2, pixels)

		images, err := ReadImages(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if images.Count != 2 || images.Height != 2 || images.Width != 2 {
			t.Errorf("Expected 2 images of 2x2, got %d of %dx%d", images.Count, images.Height, images.Width)
		}
		if !bytes.Equal(images.Pixels, pixels) {
			t.Errorf("Pixel payload mismatch: %v", images.Pixels)
		}
	})

	t.Run("RejectsWrongMagic", func(t *testing.T) {
		data := buildLabelsIDX(t, []byte{1, 2})
		if _, err := ReadImages(bytes.NewReader(data)); err == nil {
			t.Error("Expected error for label magic in image stream")
		}
	})

	t.Run("RejectsTruncatedPayload", func(t *testing.T) {
		data := buildImagesIDX(t, 2, 2, 2, []byte{1, 2, 3}) // 8 ожидается
		if _, err := ReadImages(bytes.NewReader(data)); err == nil {
			t.Error("Expected error for truncated pixel payload")
		}
	})
}

// TestReadLabels tests IDX label stream decoding
func TestReadLabels(t *testing.T) {
	t.Run("DecodesLabels", func(t *testing.T) {
		data := buildLabelsIDX(t, []byte{0, 5, 9})

		labels, err := ReadLabels(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if len(labels) != 3 || labels[0] != 0 || labels[1] != 5 || labels[2] != 9 {
			t.Errorf("Unexpected labels: %v", labels)
		}
	})

	t.Run("RejectsWrongMagic", func(t *testing.T) {
		data := buildImagesIDX(t, 1, 1, 1, []byte{1})
		if _, err := ReadLabels(bytes.NewReader(data)); err == nil {
			t.Error("Expected error for image magic in label stream")
		}
	})
}

// TestReadFilesGzip tests transparent gzip decompression by file extension
func TestReadFilesGzip(t *testing.T) {
	dir := t.TempDir()

	t.Run("GzippedImages", func(t *testing.T) {
		raw := buildImagesIDX(t, 1, 2, 2, []byte{10, 20, 30, 40})

		path := filepath.Join(dir, "images-idx3-ubyte.gz")
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
		gz := gzip.NewWriter(f)
		if _, err := gz.Write(raw); err != nil {
			t.Fatalf("Failed to write gzip: %v", err)
		}
		gz.Close()
		f.Close()

		images, err := ReadImagesFile(path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if images.Count != 1 || images.Pixels[3] != 40 {
			t.Errorf("Unexpected decoded images: %+v", images)
		}
	})

	t.Run("PlainLabels", func(t *testing.T) {
		path := filepath.Join(dir, "labels-idx1-ubyte")
		if err := os.WriteFile(path, buildLabelsIDX(t, []byte{7, 3}), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		labels, err := ReadLabelsFile(path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(labels) != 2 || labels[0] != 7 {
			t.Errorf("Unexpected labels: %v", labels)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := ReadImagesFile(filepath.Join(dir, "nope.idx")); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}
