package usecase

import "github.com/vektalab/embedviz/internal/domain"

// RUN USECASE

// ExecuteRunReq — запрос на запуск пайплайна обучения и визуализации.
type ExecuteRunReq struct {
	Dataset      string
	ModelVersion string
	Epochs       int
	VisSamples   int
	VectorSize   int
}

// ExecuteRunRes — итог завершённого запуска.
type ExecuteRunRes struct {
	RunID      int64
	Collection string // хэндл датасета на платформе визуализации
	Records    int
}

// RunProgress — DTO прогресса запуска для кэша и HTTP-выдачи.
type RunProgress struct {
	RunID       int64   `json:"run_id"`
	Status      string  `json:"status"`
	Epoch       int     `json:"epoch"`
	TotalEpochs int     `json:"total_epochs"`
	AvgLoss     float64 `json:"avg_loss"`
	Collected   int     `json:"collected"`
}

// INFRASTRUCTURE

// SpriteUpload — одна миниатюра для загрузки в S3.
type SpriteUpload struct {
	ID    string // ID визуализационного сэмпла
	Epoch int
	PNG   []byte
}

// UploadSpritesReq — запрос на загрузку миниатюр запуска.
type UploadSpritesReq struct {
	RunID   int64
	Sprites []SpriteUpload
}

// UploadSpritesRes — ключи загруженных миниатюр по ID сэмпла.
type UploadSpritesRes struct {
	SpriteKeys map[string]string
}

// EpochEventReq — событие завершения эпохи.
type EpochEventReq struct {
	RunID     int64
	Epoch     int
	AvgLoss   float64
	Collected int
}

// RunEventReq — событие смены статуса запуска.
type RunEventReq struct {
	RunID      int64
	Status     string
	Collection string
	Records    int
}

// MAPPERS

func NewExecuteRunRes(runID int64, collection string, records int) *ExecuteRunRes {
	return &ExecuteRunRes{
		RunID:      runID,
		Collection: collection,
		Records:    records,
	}
}

func NewRunProgress(runID int64, status string, epoch, totalEpochs int, avgLoss float64, collected int) *RunProgress {
	return &RunProgress{
		RunID:       runID,
		Status:      status,
		Epoch:       epoch,
		TotalEpochs: totalEpochs,
		AvgLoss:     avgLoss,
		Collected:   collected,
	}
}

func NewUploadSpritesReq(runID int64, records []domain.VisSample) *UploadSpritesReq {
	sprites := make([]SpriteUpload, 0, len(records))
	for _, r := range records {
		sprites = append(sprites, SpriteUpload{
			ID:    r.ID,
			Epoch: r.Epoch,
			PNG:   r.SpritePNG,
		})
	}

	return &UploadSpritesReq{
		RunID:   runID,
		Sprites: sprites,
	}
}

func NewUploadSpritesRes(spriteKeys map[string]string) *UploadSpritesRes {
	return &UploadSpritesRes{
		SpriteKeys: spriteKeys,
	}
}

func NewEpochEventReq(runID int64, epoch int, avgLoss float64, collected int) *EpochEventReq {
	return &EpochEventReq{
		RunID:     runID,
		Epoch:     epoch,
		AvgLoss:   avgLoss,
		Collected: collected,
	}
}

func NewRunEventReq(runID int64, status, collection string, records int) *RunEventReq {
	return &RunEventReq{
		RunID:      runID,
		Status:     status,
		Collection: collection,
		Records:    records,
	}
}
