package collector

import (
	"context"
	"testing"

	"github.com/vektalab/embedviz/internal/dataset"
)

// fakeInferencer возвращает эмбеддинг, закодированный индексом сэмпла
type fakeInferencer struct{}

func (f *fakeInferencer) Infer(pixels []float32) ([]float32, int, error) {
	return []float32{pixels[0], 1, 2, 3}, 0, nil
}

func newTestLoader(t *testing.T, n, batchSize int) *dataset.DataLoader {
	t.Helper()

	const (
		w = 28
		h = 28
	)

	images := &dataset.RawImages{
		Count:  n,
		Width:  w,
		Height: h,
		Pixels: make([]byte, n*w*h),
	}
	labels := make([]byte, n)
	for i := 0; i < n; i++ {
		labels[i] = byte(i % 10)
		// Первый пиксель кодирует индекс сэмпла
		images.Pixels[i*w*h] = byte(i)
	}

	ds, err := dataset.NewInMemoryDataset(images, labels, 0, 1)
	if err != nil {
		t.Fatalf("Failed to build dataset: %v", err)
	}

	return dataset.NewDataLoader(ds, batchSize, false, 0)
}

// TestCollectEpoch tests per-epoch sample collection with a cap
func TestCollectEpoch(t *testing.T) {
	ctx := context.Background()

	t.Run("CollectsExactlyCapSamples", func(t *testing.T) {
		c, err := NewCollector(6, 28, 28, 0, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		loader := newTestLoader(t, 20, 4)
		records, err := c.CollectEpoch(ctx, &fakeInferencer{}, loader, 0)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if len(records) != 6 {
			t.Errorf("Expected 6 records, got %d", len(records))
		}
	})

	t.Run("BoundaryBatchTakesPrefixOnly", func(t *testing.T) {
		// cap=6 при батче 4: второй батч даёт только сэмплы 4 и 5
		c, err := NewCollector(6, 28, 28, 0, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		loader := newTestLoader(t, 20, 4)
		records, err := c.CollectEpoch(ctx, &fakeInferencer{}, loader, 0)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		for i, record := range records {
			if record.DatasetIndex != i {
				t.Errorf("Record %d: expected dataset index %d, got %d", i, i, record.DatasetIndex)
			}
		}
	})

	t.Run("CollectsAllWhenDatasetSmallerThanCap", func(t *testing.T) {
		c, err := NewCollector(100, 28, 28, 0, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		loader := newTestLoader(t, 10, 4)
		records, err := c.CollectEpoch(ctx, &fakeInferencer{}, loader, 0)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if len(records) != 10 {
			t.Errorf("Expected 10 records (entire dataset), got %d", len(records))
		}
	})

	t.Run("FullDatasetSpansShortFinalBatch", func(t *testing.T) {
		// 10 сэмплов при батче 4: батчи 4+4+2, все записываются
		c, err := NewCollector(10, 28, 28, 0, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		loader := newTestLoader(t, 10, 4)
		records, err := c.CollectEpoch(ctx, &fakeInferencer{}, loader, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if len(records) != 10 {
			t.Fatalf("Expected 10 records, got %d", len(records))
		}

		for i, record := range records {
			if record.Epoch != 1 {
				t.Errorf("Record %d: expected epoch 1, got %d", i, record.Epoch)
			}
			if record.VisIndex != i {
				t.Errorf("Record %d: expected vis index %d, got %d", i, i, record.VisIndex)
			}
		}
	})

	t.Run("DeterministicOrderAcrossEpochs", func(t *testing.T) {
		c, err := NewCollector(5, 28, 28, 0, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		loader := newTestLoader(t, 20, 4)

		first, err := c.CollectEpoch(ctx, &fakeInferencer{}, loader, 0)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		second, err := c.CollectEpoch(ctx, &fakeInferencer{}, loader, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		for i := range first {
			if first[i].DatasetIndex != second[i].DatasetIndex {
				t.Errorf("Position %d: epoch 0 visited index %d, epoch 1 visited %d",
					i, first[i].DatasetIndex, second[i].DatasetIndex)
			}
		}
	})

	t.Run("UniqueIDsAcrossRun", func(t *testing.T) {
		c, err := NewCollector(5, 28, 28, 0, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		loader := newTestLoader(t, 20, 4)
		for epoch := 0; epoch < 3; epoch++ {
			if _, err := c.CollectEpoch(ctx, &fakeInferencer{}, loader, epoch); err != nil {
				t.Fatalf("Epoch %d: unexpected error: %v", epoch, err)
			}
		}

		records := c.Records()
		if len(records) != 15 {
			t.Fatalf("Expected 15 accumulated records, got %d", len(records))
		}

		seen := make(map[string]bool, len(records))
		for _, record := range records {
			if seen[record.ID] {
				t.Errorf("Duplicate record ID %s", record.ID)
			}
			seen[record.ID] = true
		}
	})

	t.Run("InvalidCap", func(t *testing.T) {
		if _, err := NewCollector(0, 28, 28, 0, 1); err == nil {
			t.Error("Expected error for zero cap")
		}
		if _, err := NewCollector(-5, 28, 28, 0, 1); err == nil {
			t.Error("Expected error for negative cap")
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		c, err := NewCollector(5, 28, 28, 0, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		cancelledCtx, cancel := context.WithCancel(context.Background())
		cancel()

		loader := newTestLoader(t, 20, 4)
		if _, err := c.CollectEpoch(cancelledCtx, &fakeInferencer{}, loader, 0); err == nil {
			t.Error("Expected error for cancelled context")
		}
	})
}
