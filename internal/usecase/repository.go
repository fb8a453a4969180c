package usecase

import (
	"context"

	"github.com/vektalab/embedviz/internal/domain"
)

type RunRepository interface {
	Create(ctx context.Context, run *domain.TrainingRun) (*domain.TrainingRun, error)
	UpdateProgress(ctx context.Context, runID int64, epoch int, avgLoss float64) error
	RecordEpoch(ctx context.Context, result *domain.EpochResult) error
	SetStatus(ctx context.Context, runID int64, status domain.RunStatus, collection string) error
	GetByID(ctx context.Context, runID int64) (*domain.TrainingRun, error)
}

type EmbeddingRepository interface {
	Upsert(ctx context.Context, vectors []domain.Embedding) error
	BuildIndex(ctx context.Context) error
}

type SpriteRepository interface {
	Upload(ctx context.Context, sprite *domain.Sprite) (string, error)
	Delete(ctx context.Context, key string) error
}

type CacheRepository interface {
	SetRunProgress(ctx context.Context, progress *RunProgress) error
	GetRunProgress(ctx context.Context, runID int64) (*RunProgress, error)
	DeleteRun(ctx context.Context, runID int64) error
}
