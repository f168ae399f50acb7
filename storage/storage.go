package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cppla/board/config"
	"github.com/cppla/board/utils"
)

// Purpose decides the sub-path a file is stored under.
type Purpose string

const (
	PurposeImage   Purpose = "images"
	PurposeProfile Purpose = "profiles"
)

var allowedExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
}

// Storage persists uploaded files and returns the URL they are served from.
type Storage interface {
	Store(ctx context.Context, purpose Purpose, filename string, size int64, r io.Reader) (string, error)
	// Delete removes the file behind url. Unknown urls are not an error.
	Delete(ctx context.Context, url string) error
}

// New returns the backend selected by cfg.Upload.Driver.
func New(cfg config.AppConfig) (Storage, error) {
	maxBytes := int64(cfg.Upload.MaxSizeMB) << 20
	switch cfg.Upload.Driver {
	case "local", "":
		return NewLocal(cfg.Upload.Dir, maxBytes)
	case "minio":
		return NewMinIO(cfg.MinIO, maxBytes)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Upload.Driver)
	}
}

// validate checks the purpose, name and declared size and returns the lowercase extension.
func validate(purpose Purpose, filename string, size, maxBytes int64) (string, error) {
	if purpose != PurposeImage && purpose != PurposeProfile {
		return "", fmt.Errorf("unknown storage purpose %q", purpose)
	}
	if strings.TrimSpace(filename) == "" {
		return "", utils.ValidationError("file name is required")
	}
	if strings.Contains(filename, "..") {
		return "", utils.ValidationError("file name contains an invalid path sequence: %s", filename)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", utils.ValidationError("file type not allowed, use jpg, jpeg, png, gif or webp")
	}
	if size == 0 {
		return "", utils.ValidationError("file is empty")
	}
	if maxBytes > 0 && size > maxBytes {
		return "", tooLarge(maxBytes)
	}
	return ext, nil
}

func tooLarge(maxBytes int64) error {
	return utils.ValidationError("file size exceeds %dMB", maxBytes>>20)
}

func storedName(ext string) string {
	return uuid.NewString() + "." + ext
}
