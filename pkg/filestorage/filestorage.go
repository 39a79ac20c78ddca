package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"audit-desk/pkg/config"
)

var (
	ErrObjectExists  = errors.New("объект с таким путём уже существует")
	ErrObjectMissing = errors.New("объект не найден")
	ErrInvalidPath   = errors.New("недопустимый путь объекта")
)

// FileStorageInterface - хранилище объектов, адресуемых путём внутри бакета.
type FileStorageInterface interface {
	// Upload никогда не перезаписывает: существующий путь -> ErrObjectExists.
	Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error
	// Remove удаляет все пути, которые может; отсутствующие не считаются ошибкой.
	Remove(ctx context.Context, objectPaths []string) error
	SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
}

// New выбирает реализацию по cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (FileStorageInterface, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMinio:
		return NewMinioFileStorage(ctx, cfg.Storage, logger)
	case config.StorageDriverLocal, "":
		return NewLocalFileStorage(cfg.Storage.LocalDir, cfg.Storage.Bucket, cfg.Server.PublicURL, []byte(cfg.JWT.SecretKey), logger)
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища: %q", cfg.Storage.Driver)
	}
}

// cleanObjectPath отсекает абсолютные пути и выход за пределы бакета.
func cleanObjectPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned != p || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
