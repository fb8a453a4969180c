package dataset

import (
	"fmt"
	"math/rand"
	"sync"
)

// Batch — мини-батч сэмплов в порядке выдачи загрузчика.
type Batch struct {
	Samples []Sample
}

func (b *Batch) Size() int {
	return len(b.Samples)
}

// DataLoader выдаёт мини-батчи поверх Dataset.
// Загрузчик для обучения перемешивает индексы на каждой эпохе;
// валидационный загрузчик всегда идёт в исходном порядке датасета —
// детерминизм порядка нужен сборщику визуализационных сэмплов.
type DataLoader struct {
	dataset   Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	indices   []int
	position  int
	mu        sync.Mutex
}

func NewDataLoader(dataset Dataset, batchSize int, shuffle bool, seed int64) *DataLoader {
	indices := make([]int, dataset.Len())
	for i := range indices {
		indices[i] = i
	}

	return &DataLoader{
		dataset:   dataset,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		indices:   indices,
	}
}

// Len возвращает количество батчей в эпохе.
func (dl *DataLoader) Len() int {
	return (dl.dataset.Len() + dl.batchSize - 1) / dl.batchSize
}

// Reset начинает новую эпоху.
func (dl *DataLoader) Reset() {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.position = 0

	if dl.shuffle {
		dl.rng.Shuffle(len(dl.indices), func(i, j int) {
			dl.indices[i], dl.indices[j] = dl.indices[j], dl.indices[i]
		})
	}
}

// HasNext сообщает, остались ли батчи в текущей эпохе.
func (dl *DataLoader) HasNext() bool {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.position < len(dl.indices)
}

// Next возвращает следующий батч или nil в конце эпохи.
// Последний батч эпохи может быть короче batchSize.
func (dl *DataLoader) Next() (*Batch, error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.position >= len(dl.indices) {
		return nil, nil // конец эпохи
	}

	batchEnd := dl.position + dl.batchSize
	if batchEnd > len(dl.indices) {
		batchEnd = len(dl.indices)
	}

	batchIndices := dl.indices[dl.position:batchEnd]
	dl.position = batchEnd

	samples := make([]Sample, 0, len(batchIndices))
	for _, idx := range batchIndices {
		sample, err := dl.dataset.Get(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to load sample %d: %w", idx, err)
		}
		samples = append(samples, sample)
	}

	return &Batch{Samples: samples}, nil
}
