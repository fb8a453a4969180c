// Package collector собирает визуализационные сэмплы после каждой эпохи обучения.
package collector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vektalab/embedviz/internal/dataset"
	"github.com/vektalab/embedviz/internal/domain"
	"github.com/vektalab/embedviz/internal/render"
	"github.com/vektalab/embedviz/pkg/e"
)

// Inferencer выдаёт эмбеддинг и предсказанный класс для одного сэмпла.
type Inferencer interface {
	Infer(pixels []float32) ([]float32, int, error)
}

// Collector прогоняет модель в режиме вывода по упорядоченному источнику
// отложенных данных и записывает min(cap, available) сэмплов за эпоху.
//
// Порядок обхода детерминирован (порядок источника). Как только набран лимит,
// оставшиеся батчи эпохи пропускаются; батч на границе лимита записывается
// только нужным префиксом. Ранний выход смещает выборку к меньшим индексам
// датасета — унаследованное поведение, сохранено намеренно.
type Collector struct {
	cap       int
	width     int
	height    int
	mean, std float32

	records []domain.VisSample
}

func NewCollector(cap, width, height int, mean, std float32) (*Collector, error) {
	if cap <= 0 {
		return nil, e.ErrVisCapPositive
	}

	return &Collector{
		cap:    cap,
		width:  width,
		height: height,
		mean:   mean,
		std:    std,
	}, nil
}

// CollectEpoch собирает сэмплы одной эпохи и дописывает их к общей
// последовательности запуска. Возвращает записи этой эпохи.
func (c *Collector) CollectEpoch(ctx context.Context, inf Inferencer, loader *dataset.DataLoader, epoch int) ([]domain.VisSample, error) {
	const op = "Collector.CollectEpoch"

	loader.Reset()

	collected := make([]domain.VisSample, 0, c.cap)
	for loader.HasNext() && len(collected) < c.cap {
		select {
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		default:
		}

		batch, err := loader.Next()
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		if batch == nil {
			break
		}

		for _, sample := range batch.Samples {
			if len(collected) >= c.cap {
				break // лимит достигнут внутри батча, хвост не записываем
			}

			record, err := c.collectSample(inf, sample, epoch, len(collected))
			if err != nil {
				return nil, e.Wrap(op, err)
			}

			collected = append(collected, *record)
		}
	}

	c.records = append(c.records, collected...)
	return collected, nil
}

func (c *Collector) collectSample(inf Inferencer, sample dataset.Sample, epoch, visIndex int) (*domain.VisSample, error) {
	vector, _, err := inf.Infer(sample.Pixels)
	if err != nil {
		return nil, fmt.Errorf("inference failed for dataset index %d: %w", sample.Index, err)
	}
	if len(vector) == 0 {
		return nil, e.ErrVectorEmbeddingEmpty
	}

	sprite, err := render.Sprite(sample.Pixels, c.width, c.height, c.mean, c.std)
	if err != nil {
		return nil, fmt.Errorf("sprite render failed for dataset index %d: %w", sample.Index, err)
	}

	return domain.NewVisSample(
		uuid.NewString(),
		epoch,
		visIndex,
		sample.LabelName(),
		sample.Index,
		vector,
		sprite.Markup,
		sprite.PNG,
	), nil
}

// Records возвращает все сэмплы, накопленные за запуск, в порядке сбора.
func (c *Collector) Records() []domain.VisSample {
	return c.records
}
