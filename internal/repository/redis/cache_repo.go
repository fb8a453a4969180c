package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jimlawless/whereami"
	"github.com/vektalab/embedviz/internal/cfg"
	"github.com/vektalab/embedviz/internal/usecase"
	"github.com/vektalab/embedviz/pkg/clients"
	"github.com/vektalab/embedviz/pkg/e"
	"github.com/vektalab/embedviz/pkg/logger"
)

// CacheRepo кэширует прогресс запусков обучения в Redis.
type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// SetRunProgress кэширует прогресс запуска с заданным TTL.
// Ошибки записи логируются и не прерывают пайплайн.
func (r *CacheRepo) SetRunProgress(ctx context.Context, progress *usecase.RunProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		r.logger.Warnf("Failed to marshal run progress (run ID: %d): %v", progress.RunID, e.Wrap(whereami.WhereAmI(), err))
		return e.Wrap(whereami.WhereAmI(), err)
	}

	key := r.runKey(progress.RunID)
	if err := r.client.Client.Set(ctx, key, data, r.cfg.RunTTL).Err(); err != nil {
		r.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetRunProgress возвращает закэшированный прогресс запуска.
// Промах кэша возвращается как (nil, nil).
func (r *CacheRepo) GetRunProgress(ctx context.Context, runID int64) (*usecase.RunProgress, error) {
	key := r.runKey(runID)

	val, err := r.client.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil // cache miss
		}
		r.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var progress usecase.RunProgress
	if err := json.Unmarshal([]byte(val), &progress); err != nil {
		r.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		if err := r.client.Client.Del(context.Background(), key).Err(); err != nil {
			r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if progress.RunID != runID {
		r.logger.Warnf("Cache ID mismatch: key_id: %d, cached_id: %d", runID, progress.RunID)
		if err := r.client.Client.Del(context.Background(), key).Err(); err != nil {
			r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil // cache miss
	}

	return &progress, nil
}

// DeleteRun удаляет прогресс запуска из кэша
func (r *CacheRepo) DeleteRun(ctx context.Context, runID int64) error {
	if err := r.client.Client.Del(ctx, r.runKey(runID)).Err(); err != nil {
		r.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// runKey возвращает Redis-ключ прогресса одного запуска
func (r *CacheRepo) runKey(runID int64) string {
	return fmt.Sprintf("run:%d", runID)
}
