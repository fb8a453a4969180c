package pgdb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/vektalab/embedviz/internal/domain"
	"github.com/vektalab/embedviz/pkg/e"
	"github.com/vektalab/embedviz/pkg/tr"
)

// RunRepo — реестр запусков пайплайна в PostgreSQL.
// Методы записи работают внутри транзакции из контекста, чтение — через пул.
type RunRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{
		pool: pool,
	}
}

func (r *RunRepo) Create(ctx context.Context, run *domain.TrainingRun) (*domain.TrainingRun, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model TrainingRunModel
	query := `
	INSERT INTO training_runs (dataset, model_version, epochs, vis_samples, vector_size, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, dataset, model_version, epochs, vis_samples, vector_size,
	          status, collection, current_epoch, last_loss, created_at, updated_at;
	`

	err = tx.QueryRow(ctx, query,
		run.Dataset,
		run.ModelVersion,
		run.Epochs,
		run.VisSamples,
		run.VectorSize,
		string(run.Status),
	).Scan(
		&model.ID,
		&model.Dataset,
		&model.ModelVersion,
		&model.Epochs,
		&model.VisSamples,
		&model.VectorSize,
		&model.Status,
		&model.Collection,
		&model.CurrentEpoch,
		&model.LastLoss,
		&model.CreatedAt,
		&model.UpdatedAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return toRunEntity(&model), nil
}

func (r *RunRepo) UpdateProgress(ctx context.Context, runID int64, epoch int, avgLoss float64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
	UPDATE training_runs
	SET current_epoch = $2, last_loss = $3, updated_at = NOW()
	WHERE id = $1;
	`

	ct, err := tx.Exec(ctx, query, runID, epoch, avgLoss)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if ct.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrRunNotFound)
	}

	return nil
}

func (r *RunRepo) RecordEpoch(ctx context.Context, result *domain.EpochResult) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
	INSERT INTO run_epochs (run_id, epoch, avg_loss, collected, elapsed_ms)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (run_id, epoch)
	DO UPDATE SET avg_loss = EXCLUDED.avg_loss,
	              collected = EXCLUDED.collected,
	              elapsed_ms = EXCLUDED.elapsed_ms;
	`

	if _, err := tx.Exec(ctx, query,
		result.RunID,
		result.Epoch,
		result.AvgLoss,
		result.Collected,
		result.ElapsedMs,
	); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *RunRepo) SetStatus(ctx context.Context, runID int64, status domain.RunStatus, collection string) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
	UPDATE training_runs
	SET status = $2, collection = NULLIF($3, ''), updated_at = NOW()
	WHERE id = $1;
	`

	ct, err := tx.Exec(ctx, query, runID, string(status), collection)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if ct.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrRunNotFound)
	}

	return nil
}

func (r *RunRepo) GetByID(ctx context.Context, runID int64) (*domain.TrainingRun, error) {
	var model TrainingRunModel
	query := `
	SELECT id, dataset, model_version, epochs, vis_samples, vector_size,
	       status, collection, current_epoch, last_loss, created_at, updated_at
	FROM training_runs
	WHERE id = $1;
	`

	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&model.ID,
		&model.Dataset,
		&model.ModelVersion,
		&model.Epochs,
		&model.VisSamples,
		&model.VectorSize,
		&model.Status,
		&model.Collection,
		&model.CurrentEpoch,
		&model.LastLoss,
		&model.CreatedAt,
		&model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrRunNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return toRunEntity(&model), nil
}
