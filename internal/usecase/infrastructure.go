package usecase

import (
	"context"

	"github.com/vektalab/embedviz/internal/domain"
)

// TrainerInfra — одна эпоха обучения; возвращает среднюю потерю.
type TrainerInfra interface {
	TrainEpoch(ctx context.Context, epoch int) (float64, error)
}

// CollectorInfra — сбор визуализационных сэмплов после эпохи.
type CollectorInfra interface {
	CollectEpoch(ctx context.Context, epoch int) ([]domain.VisSample, error)
	Records() []domain.VisSample
}

type SpritesInfra interface {
	UploadSprites(ctx context.Context, req *UploadSpritesReq) (*UploadSpritesRes, error)
	CleanupSprites(keys []string)
}

type MessageProducer interface {
	WriteEpochEvent(ctx context.Context, req *EpochEventReq) error
	WriteRunEvent(ctx context.Context, req *RunEventReq) error
}
