package pgdb

import (
	"time"

	"github.com/vektalab/embedviz/internal/domain"
)

// TrainingRunModel — строка таблицы training_runs.
type TrainingRunModel struct {
	ID           int64
	Dataset      string
	ModelVersion string
	Epochs       int
	VisSamples   int
	VectorSize   int
	Status       string
	Collection   *string
	CurrentEpoch int
	LastLoss     *float64
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

func toRunEntity(m *TrainingRunModel) *domain.TrainingRun {
	run := &domain.TrainingRun{
		ID:           m.ID,
		Dataset:      m.Dataset,
		ModelVersion: m.ModelVersion,
		Epochs:       m.Epochs,
		VisSamples:   m.VisSamples,
		VectorSize:   m.VectorSize,
		Status:       domain.RunStatus(m.Status),
		CurrentEpoch: m.CurrentEpoch,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}

	if m.Collection != nil {
		run.Collection = *m.Collection
	}
	if m.LastLoss != nil {
		run.LastLoss = *m.LastLoss
	}

	return run
}
