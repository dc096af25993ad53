package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader - хранилище файлов-доказательств (скриншоты счёта, видео).
// Записанные файлы не удаляются: доказательства, как и сам реестр штрафов,
// неизменяемы.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	GetPublicURL(key string) string
}
