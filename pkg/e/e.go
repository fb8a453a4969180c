package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки с векторами и сэмплами
	ErrEmptyVectors         = fmt.Errorf("empty vectors")
	ErrVectorEmbeddingEmpty = fmt.Errorf("vector embedding is empty")
	ErrSpriteShapeMismatch  = fmt.Errorf("sprite pixel count does not match declared shape")
	ErrNoVisSamples         = fmt.Errorf("no visualization samples collected")
	ErrEmptyDataset         = fmt.Errorf("dataset is empty")

	// Ошибки пайплайна обучения
	ErrRunNotFound      = fmt.Errorf("training run not found")
	ErrRunAlreadyActive = fmt.Errorf("training run is already active")
	ErrEpochsPositive   = fmt.Errorf("epochs must be positive")
	ErrBatchPositive    = fmt.Errorf("batch size must be positive")
	ErrVisCapPositive   = fmt.Errorf("visualization sample cap must be positive")

	// Ошибки релизного гейта
	ErrInvalidReleaseTag = fmt.Errorf("release tag does not match expected format")
	ErrVersionMismatch   = fmt.Errorf("release tag does not match declared package version")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// HTTP
	ErrStatusBadRequest    = fmt.Errorf("bad request")
	ErrInvalidRunID        = fmt.Errorf("invalid run id")
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
