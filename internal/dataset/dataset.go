package dataset

import (
	"fmt"
	"strconv"

	"github.com/vektalab/embedviz/pkg/e"
)

// Sample — один нормализованный сэмпл датасета.
// Index — исходный индекс в датасете, стабильный между эпохами.
type Sample struct {
	Pixels []float32 // нормализованные пиксели, H*W
	Label  int
	Index  int
}

// LabelName возвращает строковую метку класса.
func (s Sample) LabelName() string {
	return strconv.Itoa(s.Label)
}

// Dataset — упорядоченный источник сэмплов.
type Dataset interface {
	Len() int
	Get(idx int) (Sample, error)
}

// InMemoryDataset держит весь датасет в памяти в нормализованном виде.
type InMemoryDataset struct {
	pixels []float32
	labels []byte
	width  int
	height int
}

// NewInMemoryDataset нормализует сырые пиксели по формуле x' = (x/255 - mean)/std
// и сохраняет их в порядке исходного датасета.
func NewInMemoryDataset(images *RawImages, labels []byte, mean, std float32) (*InMemoryDataset, error) {
	if images.Count == 0 {
		return nil, e.ErrEmptyDataset
	}
	if images.Count != len(labels) {
		return nil, fmt.Errorf("images/labels count mismatch: %d vs %d", images.Count, len(labels))
	}
	if std == 0 {
		return nil, fmt.Errorf("normalization std must be non-zero")
	}

	normalized := make([]float32, len(images.Pixels))
	for i, p := range images.Pixels {
		normalized[i] = (float32(p)/255.0 - mean) / std
	}

	return &InMemoryDataset{
		pixels: normalized,
		labels: labels,
		width:  images.Width,
		height: images.Height,
	}, nil
}

func (d *InMemoryDataset) Len() int {
	return len(d.labels)
}

func (d *InMemoryDataset) Width() int  { return d.width }
func (d *InMemoryDataset) Height() int { return d.height }

// Get возвращает сэмпл по индексу. Пиксели не копируются.
func (d *InMemoryDataset) Get(idx int) (Sample, error) {
	if idx < 0 || idx >= len(d.labels) {
		return Sample{}, fmt.Errorf("index %d out of range [0, %d)", idx, len(d.labels))
	}

	size := d.width * d.height
	return Sample{
		Pixels: d.pixels[idx*size : (idx+1)*size],
		Label:  int(d.labels[idx]),
		Index:  idx,
	}, nil
}
