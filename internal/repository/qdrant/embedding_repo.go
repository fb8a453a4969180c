package qdrant

import (
	"context"

	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
	"github.com/vektalab/embedviz/internal/cfg"
	"github.com/vektalab/embedviz/internal/domain"
	"github.com/vektalab/embedviz/pkg/e"
)

// EmbeddingRepo репозиторий для работы с embedding-векторами в Qdrant
type EmbeddingRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingRepo {
	return &EmbeddingRepo{
		client: client,
		cfg:    cfg,
	}
}

// Upsert сохраняет embedding-векторы запуска в коллекцию Qdrant одной массовой операцией.
func (q *EmbeddingRepo) Upsert(ctx context.Context, vectors []domain.Embedding) error {
	if len(vectors) == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrEmptyVectors)
	}

	reqVectors := make([]*qdrant.PointStruct, 0, len(vectors))
	for _, vector := range vectors {
		reqVectors = append(reqVectors, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(vector.ID),
			Vectors: qdrant.NewVectors(vector.Vector...),
			Payload: qdrant.NewValueMap(vector.Payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.CollectionName,
		Points:         reqVectors,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// BuildIndex запрашивает построение payload-индексов коллекции.
// Платформа строит индексы асинхронно, результат здесь не ожидается.
func (q *EmbeddingRepo) BuildIndex(ctx context.Context) error {
	fields := []struct {
		name      string
		fieldType qdrant.FieldType
	}{
		{"epoch", qdrant.FieldType_FieldTypeInteger},
		{"label", qdrant.FieldType_FieldTypeKeyword},
		{"run_id", qdrant.FieldType_FieldTypeInteger},
	}

	for _, field := range fields {
		_, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.cfg.CollectionName,
			FieldName:      field.name,
			FieldType:      field.fieldType.Enum(),
		})
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return nil
}
