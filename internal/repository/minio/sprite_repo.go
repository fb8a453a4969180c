package minio

import (
	"bytes"
	"context"

	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/vektalab/embedviz/internal/cfg"
	"github.com/vektalab/embedviz/internal/domain"
	"github.com/vektalab/embedviz/pkg/e"
)

// SpriteRepo реализует репозиторий миниатюр поверх MinIO.
type SpriteRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewSpriteRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *SpriteRepo {
	return &SpriteRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает миниатюру в MinIO и возвращает ключ объекта.
func (s *SpriteRepo) Upload(ctx context.Context, sprite *domain.Sprite) (string, error) {
	reader := bytes.NewReader(sprite.Bytes)

	info, err := s.mc.PutObject(ctx, s.cfg.BucketName, sprite.ObjectKey, reader, *sprite.Size, minio.PutObjectOptions{
		ContentType: *sprite.ContentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (s *SpriteRepo) Delete(ctx context.Context, key string) error {
	if err := s.mc.RemoveObject(ctx, s.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
