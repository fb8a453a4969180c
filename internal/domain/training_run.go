package domain

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// TrainingRun описывает один запуск пайплайна обучения
type TrainingRun struct {
	ID           int64
	Dataset      string
	ModelVersion string
	Epochs       int
	VisSamples   int
	VectorSize   int
	Status       RunStatus
	Collection   string // Хэндл датасета на стороне платформы визуализации
	CurrentEpoch int
	LastLoss     float64
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

func NewTrainingRun(dataset, modelVersion string, epochs, visSamples, vectorSize int) *TrainingRun {
	return &TrainingRun{
		Dataset:      dataset,
		ModelVersion: modelVersion,
		Epochs:       epochs,
		VisSamples:   visSamples,
		VectorSize:   vectorSize,
		Status:       RunStatusRunning,
	}
}

// EpochResult — итог одной эпохи обучения
type EpochResult struct {
	ID        int64
	RunID     int64
	Epoch     int
	AvgLoss   float64
	Collected int
	ElapsedMs int64
	CreatedAt time.Time
}
