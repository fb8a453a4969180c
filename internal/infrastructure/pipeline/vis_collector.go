package pipeline

import (
	"context"

	"github.com/vektalab/embedviz/internal/collector"
	"github.com/vektalab/embedviz/internal/dataset"
	"github.com/vektalab/embedviz/internal/domain"
)

// VisCollector связывает сборщик сэмплов с моделью и загрузчиком
// отложенных данных. Загрузчик здесь никогда не перемешивает данные,
// порядок сбора от эпохи к эпохе стабилен.
type VisCollector struct {
	collector *collector.Collector
	inf       collector.Inferencer
	loader    *dataset.DataLoader
}

func NewVisCollector(collector *collector.Collector, inf collector.Inferencer, loader *dataset.DataLoader) *VisCollector {
	return &VisCollector{
		collector: collector,
		inf:       inf,
		loader:    loader,
	}
}

func (v *VisCollector) CollectEpoch(ctx context.Context, epoch int) ([]domain.VisSample, error) {
	return v.collector.CollectEpoch(ctx, v.inf, v.loader, epoch)
}

func (v *VisCollector) Records() []domain.VisSample {
	return v.collector.Records()
}
