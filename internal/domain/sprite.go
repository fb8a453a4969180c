package domain

// Sprite описывает миниатюру сэмпла, которая хранится в S3
type Sprite struct {
	ID        string // uuid, совпадает с ID сэмпла
	Bucket    string
	ObjectKey string
	Bytes     []byte
	// Передайте значение -1 в Size, если размер потока неизвестен
	// (внимание: при передаче значения -1 будет выделен большой объем памяти).
	Size        *int64
	ContentType *string // Example: "image/png"
}

func NewSprite(id string, bucket string, objectKey string, data []byte, size *int64, contentType *string) *Sprite {
	return &Sprite{
		ID:          id,
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Bytes:       data,
		Size:        size,
		ContentType: contentType,
	}
}
