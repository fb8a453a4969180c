package dataset

import (
	"testing"
)

func newRawDataset(t *testing.T, n int) *InMemoryDataset {
	t.Helper()

	images := &RawImages{
		Count:  n,
		Width:  2,
		Height: 2,
		Pixels: make([]byte, n*4),
	}
	labels := make([]byte, n)
	for i := 0; i < n; i++ {
		labels[i] = byte(i % 10)
		images.Pixels[i*4] = byte(i)
	}

	ds, err := NewInMemoryDataset(images, labels, 0, 1)
	if err != nil {
		t.Fatalf("Failed to build dataset: %v", err)
	}

	return ds
}

// TestInMemoryDataset tests normalization and indexed access
func TestInMemoryDataset(t *testing.T) {
	t.Run("NormalizesPixels", func(t *testing.T) {
		const (
			mean = float32(0.1307)
			std  = float32(0.3081)
		)

		images := &RawImages{Count: 1, Width: 2, Height: 1, Pixels: []byte{0, 255}}
		ds, err := NewInMemoryDataset(images, []byte{3}, mean, std)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		sample, err := ds.Get(0)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		wantLow := (0.0/255.0 - mean) / std
		wantHigh := (255.0/255.0 - mean) / std
		if sample.Pixels[0] != wantLow {
			t.Errorf("Pixel 0: expected %f, got %f", wantLow, sample.Pixels[0])
		}
		if sample.Pixels[1] != wantHigh {
			t.Errorf("Pixel 1: expected %f, got %f", wantHigh, sample.Pixels[1])
		}
		if sample.Label != 3 || sample.LabelName() != "3" {
			t.Errorf("Unexpected label: %d (%s)", sample.Label, sample.LabelName())
		}
	})

	t.Run("RejectsCountMismatch", func(t *testing.T) {
		images := &RawImages{Count: 2, Width: 1, Height: 1, Pixels: []byte{1, 2}}
		if _, err := NewInMemoryDataset(images, []byte{0}, 0, 1); err == nil {
			t.Error("Expected error for images/labels count mismatch")
		}
	})

	t.Run("RejectsEmptyDataset", func(t *testing.T) {
		images := &RawImages{Count: 0, Width: 1, Height: 1}
		if _, err := NewInMemoryDataset(images, nil, 0, 1); err == nil {
			t.Error("Expected error for empty dataset")
		}
	})

	t.Run("IndexOutOfRange", func(t *testing.T) {
		ds := newRawDataset(t, 3)
		if _, err := ds.Get(3); err == nil {
			t.Error("Expected error for out of range index")
		}
		if _, err := ds.Get(-1); err == nil {
			t.Error("Expected error for negative index")
		}
	})
}

// TestDataLoader tests batching, shuffling and epoch iteration
func TestDataLoader(t *testing.T) {
	t.Run("BatchCountAndShortFinalBatch", func(t *testing.T) {
		loader := NewDataLoader(newRawDataset(t, 10), 4, false, 0)

		if loader.Len() != 3 {
			t.Errorf("Expected 3 batches, got %d", loader.Len())
		}

		loader.Reset()

		var sizes []int
		for loader.HasNext() {
			batch, err := loader.Next()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if batch == nil {
				break
			}
			sizes = append(sizes, batch.Size())
		}

		if len(sizes) != 3 || sizes[0] != 4 || sizes[1] != 4 || sizes[2] != 2 {
			t.Errorf("Expected batch sizes [4 4 2], got %v", sizes)
		}
	})

	t.Run("ValidationOrderIsStable", func(t *testing.T) {
		loader := NewDataLoader(newRawDataset(t, 8), 3, false, 42)

		collect := func() []int {
			loader.Reset()
			var indices []int
			for loader.HasNext() {
				batch, err := loader.Next()
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if batch == nil {
					break
				}
				for _, s := range batch.Samples {
					indices = append(indices, s.Index)
				}
			}
			return indices
		}

		first := collect()
		second := collect()

		for i := range first {
			if first[i] != i {
				t.Errorf("Expected dataset order, got %v", first)
				break
			}
			if first[i] != second[i] {
				t.Errorf("Order changed between epochs: %v vs %v", first, second)
				break
			}
		}
	})

	t.Run("ShuffleIsSeededAndCoversDataset", func(t *testing.T) {
		makeOrder := func(seed int64) []int {
			loader := NewDataLoader(newRawDataset(t, 32), 8, true, seed)
			loader.Reset()

			var indices []int
			for loader.HasNext() {
				batch, err := loader.Next()
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if batch == nil {
					break
				}
				for _, s := range batch.Samples {
					indices = append(indices, s.Index)
				}
			}
			return indices
		}

		first := makeOrder(7)
		second := makeOrder(7)

		if len(first) != 32 {
			t.Fatalf("Expected 32 samples, got %d", len(first))
		}

		seen := make(map[int]bool, len(first))
		for i := range first {
			if first[i] != second[i] {
				t.Error("Same seed produced different orders")
				break
			}
			seen[first[i]] = true
		}
		if len(seen) != 32 {
			t.Errorf("Shuffle lost samples: %d unique of 32", len(seen))
		}
	})

	t.Run("NextReturnsNilAtEpochEnd", func(t *testing.T) {
		loader := NewDataLoader(newRawDataset(t, 4), 4, false, 0)
		loader.Reset()

		if batch, err := loader.Next(); err != nil || batch == nil {
			t.Fatalf("Expected one batch, got %v, %v", batch, err)
		}

		batch, err := loader.Next()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if batch != nil {
			t.Error("Expected nil batch at end of epoch")
		}
		if loader.HasNext() {
			t.Error("HasNext should be false at end of epoch")
		}
	})
}
