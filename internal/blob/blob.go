// Package blob хранит файлы изображений: на локальном диске или в S3.
package blob

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"CyMarker/internal/apperror"
)

// Store — хранилище блобов по имени файла.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Open открывает блоб; отсутствие даёт apperror.ErrNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// checkName допускает только плоские имена без путей.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return apperror.Validation("name", "invalid blob name")
	}
	return nil
}
