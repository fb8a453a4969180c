package domain

// VisSample — один визуализационный сэмпл, собранный после эпохи обучения.
// ID глобально уникален в рамках всего запуска; DatasetIndex стабилен между эпохами.
type VisSample struct {
	ID           string
	Epoch        int
	VisIndex     int // Порядковый номер сэмпла внутри эпохи, 0..N-1
	Label        string
	DatasetIndex int
	Vector       []float32
	Sprite       string // Inline-markup строка с закодированным PNG
	SpritePNG    []byte
}

func NewVisSample(id string, epoch, visIndex int, label string, datasetIndex int, vector []float32, sprite string, png []byte) *VisSample {
	return &VisSample{
		ID:           id,
		Epoch:        epoch,
		VisIndex:     visIndex,
		Label:        label,
		DatasetIndex: datasetIndex,
		Vector:       vector,
		Sprite:       sprite,
		SpritePNG:    png,
	}
}
