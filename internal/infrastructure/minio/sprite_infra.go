package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vektalab/embedviz/internal/cfg"
	"github.com/vektalab/embedviz/internal/domain"
	"github.com/vektalab/embedviz/internal/usecase"
	"github.com/vektalab/embedviz/pkg/e"
	"github.com/vektalab/embedviz/pkg/jitter"
	"github.com/vektalab/embedviz/pkg/logger"
)

const spriteContentType = "image/png"

// SpriteInfrastructure управляет загрузкой и очисткой миниатюр в MinIO.
type SpriteInfrastructure struct {
	spriteRepo         usecase.SpriteRepository
	cfg                *cfg.MinIOCfg
	logger             logger.Logger
	shutdownCtx        context.Context
	wg                 sync.WaitGroup
	uploadSpritesLimit int
}

func NewSpriteInfrastructure(spriteRepo usecase.SpriteRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *SpriteInfrastructure {
	return &SpriteInfrastructure{
		spriteRepo:         spriteRepo,
		cfg:                cfg,
		logger:             logger,
		shutdownCtx:        shutdownCtx,
		wg:                 sync.WaitGroup{},
		uploadSpritesLimit: cfg.UploadSpritesLimit,
	}
}

type uploadedKey struct {
	spriteID string
	key      string
}

// UploadSprites загружает миниатюры запуска в MinIO параллельно с ограничением одновременных операций.
// В случае ошибки отменяет остальные загрузки и запускает очистку уже загруженных файлов.
func (m *SpriteInfrastructure) UploadSprites(ctx context.Context, req *usecase.UploadSpritesReq) (*usecase.UploadSpritesRes, error) {
	const op = "SpriteInfrastructure.UploadSprites"
	// Отмена остальных загрузок при первой ошибке
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keyCh := make(chan uploadedKey, len(req.Sprites))
	errCh := make(chan error, len(req.Sprites))
	sem := make(chan struct{}, m.uploadSpritesLimit)

	var uploadWg sync.WaitGroup
	for _, sprite := range req.Sprites {
		uploadWg.Add(1)
		go func() {
			defer uploadWg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			objKey := fmt.Sprintf("runs/%d/epoch%d/%s.png", req.RunID, sprite.Epoch, sprite.ID)
			size := int64(len(sprite.PNG))
			contentType := spriteContentType
			newSprite := domain.NewSprite(sprite.ID, m.cfg.BucketName, objKey, sprite.PNG, &size, &contentType)

			key, err := m.spriteRepo.Upload(ctx, newSprite)
			if err != nil {
				errCh <- fmt.Errorf("upload %s failed: %w", sprite.ID, err)
				return
			}

			keyCh <- uploadedKey{spriteID: sprite.ID, key: key}
		}()
	}

	go func() {
		uploadWg.Wait()
		close(errCh)
		close(keyCh)
	}()

	spriteKeys := make(map[string]string, len(req.Sprites))
	done := false
	defer func() {
		if !done && len(spriteKeys) > 0 {
			keys := make([]string, 0, len(spriteKeys))
			for _, key := range spriteKeys {
				keys = append(keys, key)
			}
			m.wg.Add(1)
			go m.cleanupUploadedKeys(keys)
		}
	}()

	for completed := 0; completed < len(req.Sprites); {
		select {
		case uploaded, ok := <-keyCh:
			if ok {
				spriteKeys[uploaded.spriteID] = uploaded.key
				completed++
			}
		case err, ok := <-errCh:
			if ok {
				cancel()
				return nil, e.Wrap(op, err)
			}
		case <-ctx.Done():
			cancel()
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	done = true
	return usecase.NewUploadSpritesRes(spriteKeys), nil
}

// CleanupSprites запускает фоновую очистку указанных ключей MinIO
func (m *SpriteInfrastructure) CleanupSprites(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет указанные объекты из MinIO с экспоненциальной задержкой и jitter.
func (m *SpriteInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done() // сигнализируем завершение компенсации
	const op = "SpriteInfrastructure.cleanupUploadedKeys"
	m.logger.Infof("%s: Cleaning up uploaded keys", op)

	// Создаём контекст с таймаутом на основе shutdownCtx
	ctx, cancel := context.WithTimeout(m.shutdownCtx, 30*time.Second)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < 3; attempt++ {
			if err := m.spriteRepo.Delete(ctx, key); err == nil {
				break // Успешно удалено
			}

			// Проверяем, не отменён ли контекст
			select {
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			default:
			}

			if attempt < 2 {
				// Джиттер для распределения нагрузки при повторных удалениях
				sleepTime := jitter.ExponentialBackoff(time.Second, 10*time.Second, attempt, jitter.DefaultJitter)

				select {
				case <-time.After(sleepTime):
				case <-ctx.Done():
					m.logger.Warnf("cleanup interrupted by shutdown during backoff, key=%v", key)
					return
				}
			}
		}
	}
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *SpriteInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
