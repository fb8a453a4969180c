package model

import (
	"context"
	"time"

	"github.com/vektalab/embedviz/internal/dataset"
	"github.com/vektalab/embedviz/pkg/e"
	"github.com/vektalab/embedviz/pkg/logger"
)

// Trainer гоняет одну эпоху обучения по загрузчику мини-батчей.
type Trainer struct {
	net      *ConvNet
	opt      *SGD
	loader   *dataset.DataLoader
	logger   logger.Logger
	logEvery int
}

func NewTrainer(net *ConvNet, opt *SGD, loader *dataset.DataLoader, logger logger.Logger, logEvery int) *Trainer {
	if logEvery <= 0 {
		logEvery = 100
	}

	return &Trainer{
		net:      net,
		opt:      opt,
		loader:   loader,
		logger:   logger,
		logEvery: logEvery,
	}
}

// TrainEpoch выполняет один полный проход по обучающему датасету
// и возвращает среднюю потерю эпохи.
func (t *Trainer) TrainEpoch(ctx context.Context, epoch int) (float64, error) {
	const op = "Trainer.TrainEpoch"

	t.loader.Reset()

	var (
		start      = time.Now()
		totalLoss  float64
		totalSeen  int
		batchIdx   int
		numBatches = t.loader.Len()
	)

	for t.loader.HasNext() {
		select {
		case <-ctx.Done():
			return 0, e.Wrap(op, ctx.Err())
		default:
		}

		batch, err := t.loader.Next()
		if err != nil {
			return 0, e.Wrap(op, err)
		}
		if batch == nil {
			break
		}

		loss, err := t.trainBatch(batch)
		if err != nil {
			return 0, e.Wrap(op, err)
		}

		totalLoss += loss * float64(batch.Size())
		totalSeen += batch.Size()
		batchIdx++

		if batchIdx%t.logEvery == 0 || batchIdx == numBatches {
			t.logger.Infof(
				"epoch %d batch %d/%d loss %.4f elapsed %.1fs",
				epoch, batchIdx, numBatches, totalLoss/float64(totalSeen), time.Since(start).Seconds(),
			)
		}
	}

	if totalSeen == 0 {
		return 0, e.Wrap(op, e.ErrEmptyDataset)
	}

	return totalLoss / float64(totalSeen), nil
}

// trainBatch делает forward/backward по батчу и один шаг оптимизатора.
func (t *Trainer) trainBatch(batch *dataset.Batch) (float64, error) {
	t.net.ZeroGrad()

	var batchLoss float64
	for _, sample := range batch.Samples {
		cache, err := t.net.Forward(sample.Pixels)
		if err != nil {
			return 0, err
		}

		loss, dLogits, err := SoftmaxCrossEntropy(cache.logits, sample.Label)
		if err != nil {
			return 0, err
		}

		t.net.Backward(cache, dLogits)
		batchLoss += loss
	}

	t.opt.Step(t.net.Params(), batch.Size())

	return batchLoss / float64(batch.Size()), nil
}
