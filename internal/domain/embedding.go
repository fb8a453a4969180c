package domain

import "time"

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// Embedding представляет эмбеддинг одного визуализационного сэмпла
type Embedding struct {
	ID      string
	Vector  []float32
	Payload Payload
}

func NewEmbedding(id string, vector []float32, payload Payload) *Embedding {
	return &Embedding{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}
}

func NewPayload(runID int64, epoch int, label string, datasetIndex int, spriteKey string, modelVersion string) Payload {
	return Payload{
		"run_id":        runID,
		"epoch":         int64(epoch),
		"label":         label,
		"dataset_index": int64(datasetIndex),
		"sprite_key":    spriteKey,
		"created_at":    time.Now().UTC().UnixNano(),
		"model_version": modelVersion,
	}
}
