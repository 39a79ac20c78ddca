package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const downloadTokenIssuer = "audit-desk/download"

// LocalFileStorage хранит объекты на диске в <basePath>/<bucket>/<path>.
// Подписанная ссылка - JWT с путём объекта, который проверяет /api/files/download.
type LocalFileStorage struct {
	root      string
	publicURL string
	secret    []byte
	logger    *zap.Logger
}

func NewLocalFileStorage(basePath, bucket, publicURL string, secret []byte, logger *zap.Logger) (*LocalFileStorage, error) {
	root := filepath.Join(basePath, bucket)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию: %w", err)
	}
	return &LocalFileStorage{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
		secret:    secret,
		logger:    logger,
	}, nil
}

func (s *LocalFileStorage) fullPath(objectPath string) (string, error) {
	p, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(p)), nil
}

func (s *LocalFileStorage) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	full, err := s.fullPath(objectPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return ErrObjectExists
	}
	if err != nil {
		return err
	}

	written, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("записано %d байт из %d", written, size)
	}
	if err != nil {
		// недописанный файл не должен остаться под этим путём
		_ = os.Remove(full)
		return err
	}
	return nil
}

func (s *LocalFileStorage) Remove(ctx context.Context, objectPaths []string) error {
	var errs []error
	for _, p := range objectPaths {
		full, err := s.fullPath(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (s *LocalFileStorage) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	full, err := s.fullPath(objectPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrObjectMissing
		}
		return "", err
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    downloadTokenIssuer,
		Subject:   objectPath,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return s.publicURL + "/api/files/download?token=" + url.QueryEscape(token), nil
}

// Open проверяет токен скачивания и открывает объект, на который он выписан.
func (s *LocalFileStorage) Open(token string) (*os.File, string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(downloadTokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, "", err
	}

	full, err := s.fullPath(claims.Subject)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrObjectMissing
	}
	if err != nil {
		return nil, "", err
	}
	return f, claims.Subject, nil
}
