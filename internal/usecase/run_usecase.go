package usecase

import (
	"context"
	"time"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/vektalab/embedviz/internal/domain"
	"github.com/vektalab/embedviz/pkg/e"
	"github.com/vektalab/embedviz/pkg/logger"
)

// RunUseCase реализует пайплайн: обучение по эпохам, сбор визуализационных
// сэмплов, массовая выгрузка векторов и миниатюр, запуск построения индекса.
type RunUseCase struct {
	runRepo       RunRepository
	embeddingRepo EmbeddingRepository
	dbPool        transaction.Transactional
	trainer       TrainerInfra
	visCollector  CollectorInfra
	spritesInfra  SpritesInfra
	cacheRepo     CacheRepository
	producer      MessageProducer
	logger        logger.Logger
	collection    string
}

func NewRunUC(
	runRepo RunRepository,
	embeddingRepo EmbeddingRepository,
	dbPool transaction.Transactional,
	trainer TrainerInfra,
	visCollector CollectorInfra,
	spritesInfra SpritesInfra,
	cacheRepo CacheRepository,
	producer MessageProducer,
	logger logger.Logger,
	collection string,
) *RunUseCase {
	return &RunUseCase{
		runRepo:       runRepo,
		embeddingRepo: embeddingRepo,
		dbPool:        dbPool,
		trainer:       trainer,
		visCollector:  visCollector,
		spritesInfra:  spritesInfra,
		cacheRepo:     cacheRepo,
		producer:      producer,
		logger:        logger,
		collection:    collection,
	}
}

// Execute запускает полный пайплайн одного обучения.
// Сбор сэмплов идёт после каждой эпохи, выгрузка — один раз, после всех эпох.
func (u *RunUseCase) Execute(ctx context.Context, req *ExecuteRunReq) (*ExecuteRunRes, error) {
	const op = "RunUseCase.Execute"

	if err := u.validateRun(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	run, err := u.createRun(ctx, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	for epoch := 0; epoch < req.Epochs; epoch++ {
		epochStart := time.Now()

		avgLoss, err := u.trainer.TrainEpoch(ctx, epoch)
		if err != nil {
			u.failRun(ctx, run.ID)
			return nil, e.Wrap(op, err)
		}

		records, err := u.visCollector.CollectEpoch(ctx, epoch)
		if err != nil {
			u.failRun(ctx, run.ID)
			return nil, e.Wrap(op, err)
		}

		if err := u.recordEpoch(ctx, run.ID, epoch, avgLoss, len(records), time.Since(epochStart)); err != nil {
			u.failRun(ctx, run.ID)
			return nil, e.Wrap(op, err)
		}

		// Прогресс в кэше и событие эпохи не критичны для пайплайна
		progress := NewRunProgress(run.ID, string(domain.RunStatusRunning), epoch, req.Epochs, avgLoss, len(records))
		if err := u.cacheRepo.SetRunProgress(ctx, progress); err != nil {
			u.logger.Warnf("Failed to cache run progress: %v", e.Wrap(op, err))
		}

		if err := u.producer.WriteEpochEvent(ctx, NewEpochEventReq(run.ID, epoch, avgLoss, len(records))); err != nil {
			u.logger.Warnf("Failed to write epoch event: %v", e.Wrap(op, err))
		}
	}

	records := u.visCollector.Records()
	if len(records) == 0 {
		u.failRun(ctx, run.ID)
		return nil, e.Wrap(op, e.ErrNoVisSamples)
	}

	if err := u.uploadRecords(ctx, run, records); err != nil {
		u.failRun(ctx, run.ID)
		return nil, e.Wrap(op, err)
	}

	// Построение индекса — асинхронная операция платформы, её не ждём
	u.triggerIndexBuild(run.ID)

	if err := u.completeRun(ctx, run.ID, req.Epochs, len(records)); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := u.producer.WriteRunEvent(ctx, NewRunEventReq(run.ID, string(domain.RunStatusCompleted), u.collection, len(records))); err != nil {
		u.logger.Warnf("Failed to write run event: %v", e.Wrap(op, err))
	}

	return NewExecuteRunRes(run.ID, u.collection, len(records)), nil
}

// GetRunProgress возвращает прогресс запуска: сперва кэш, затем БД.
func (u *RunUseCase) GetRunProgress(ctx context.Context, runID int64) (*RunProgress, error) {
	const op = "RunUseCase.GetRunProgress"

	if progress, err := u.cacheRepo.GetRunProgress(ctx, runID); err == nil && progress != nil {
		return progress, nil
	}

	run, err := u.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	progress := NewRunProgress(run.ID, string(run.Status), run.CurrentEpoch, run.Epochs, run.LastLoss, run.VisSamples)

	// Фоновая запись в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := u.cacheRepo.SetRunProgress(bgCtx, progress); err != nil {
			u.logger.Warnf("Failed to cache run progress in background: %v", e.Wrap(op, err))
		}
	}()

	return progress, nil
}

// createRun создаёт запись запуска в реестре в рамках транзакции.
func (u *RunUseCase) createRun(ctx context.Context, req *ExecuteRunReq) (*domain.TrainingRun, error) {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, u.dbPool)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	run, err := u.runRepo.Create(ctx, domain.NewTrainingRun(req.Dataset, req.ModelVersion, req.Epochs, req.VisSamples, req.VectorSize))
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return run, nil
}

// recordEpoch транзакционно фиксирует прогресс запуска и итог эпохи.
func (u *RunUseCase) recordEpoch(ctx context.Context, runID int64, epoch int, avgLoss float64, collected int, elapsed time.Duration) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, u.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = u.runRepo.UpdateProgress(ctx, runID, epoch, avgLoss); err != nil {
		return err
	}

	if err = u.runRepo.RecordEpoch(ctx, &domain.EpochResult{
		RunID:     runID,
		Epoch:     epoch,
		AvgLoss:   avgLoss,
		Collected: collected,
		ElapsedMs: elapsed.Milliseconds(),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// uploadRecords выгружает миниатюры в S3 и векторы в Qdrant одной массовой операцией.
// При ошибке выгрузки векторов уже загруженные миниатюры зачищаются.
func (u *RunUseCase) uploadRecords(ctx context.Context, run *domain.TrainingRun, records []domain.VisSample) error {
	spritesRes, err := u.spritesInfra.UploadSprites(ctx, NewUploadSpritesReq(run.ID, records))
	if err != nil {
		return err
	}

	embeddings := make([]domain.Embedding, 0, len(records))
	for _, record := range records {
		if len(record.Vector) == 0 {
			u.cleanupSprites(spritesRes)
			return e.ErrVectorEmbeddingEmpty
		}

		payload := domain.NewPayload(
			run.ID,
			record.Epoch,
			record.Label,
			record.DatasetIndex,
			spritesRes.SpriteKeys[record.ID],
			run.ModelVersion,
		)
		payload["sprite"] = record.Sprite

		embeddings = append(embeddings, *domain.NewEmbedding(record.ID, record.Vector, payload))
	}

	if err := u.embeddingRepo.Upsert(ctx, embeddings); err != nil {
		u.cleanupSprites(spritesRes)
		return err
	}

	return nil
}

func (u *RunUseCase) cleanupSprites(res *UploadSpritesRes) {
	keys := make([]string, 0, len(res.SpriteKeys))
	for _, key := range res.SpriteKeys {
		keys = append(keys, key)
	}
	u.spritesInfra.CleanupSprites(keys)
}

// triggerIndexBuild запрашивает построение индекса на стороне платформы.
// Fire-and-forget: результат не ожидается.
func (u *RunUseCase) triggerIndexBuild(runID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := u.embeddingRepo.BuildIndex(ctx); err != nil {
			u.logger.Warnf("Index build request failed for run %d: %v", runID, err)
		}
	}()
}

// completeRun транзакционно помечает запуск завершённым и обновляет кэш.
func (u *RunUseCase) completeRun(ctx context.Context, runID int64, epochs, records int) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, u.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = u.runRepo.SetStatus(ctx, runID, domain.RunStatusCompleted, u.collection); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}

	progress := NewRunProgress(runID, string(domain.RunStatusCompleted), epochs-1, epochs, 0, records)
	if err := u.cacheRepo.SetRunProgress(ctx, progress); err != nil {
		u.logger.Warnf("Failed to cache completed run: %v", err)
	}

	return nil
}

// failRun помечает запуск неуспешным; ошибки здесь только логируются.
func (u *RunUseCase) failRun(ctx context.Context, runID int64) {
	const op = "RunUseCase.failRun"

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, u.dbPool)
	if err != nil {
		u.logger.Warnf("%s: %v", op, err)
		return
	}
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err := u.runRepo.SetStatus(ctx, runID, domain.RunStatusFailed, ""); err != nil {
		u.logger.Warnf("%s: %v", op, err)
		if tx.IsActive() {
			tx.Rollback(ctx)
		}
		return
	}

	if err := tx.Commit(ctx); err != nil {
		u.logger.Warnf("%s: %v", op, err)
		return
	}

	if err := u.cacheRepo.DeleteRun(ctx, runID); err != nil {
		u.logger.Warnf("%s: failed to drop cached run: %v", op, err)
	}
}

// validateRun проверяет корректность параметров запуска.
func (u *RunUseCase) validateRun(req *ExecuteRunReq) error {
	if req.Epochs <= 0 {
		return e.ErrEpochsPositive
	}

	if req.VisSamples <= 0 {
		return e.ErrVisCapPositive
	}

	if req.VectorSize <= 0 {
		return e.ErrEmptyVectors
	}

	return nil
}
