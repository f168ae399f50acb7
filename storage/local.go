package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local stores files below a directory on disk, one sub-directory per purpose.
// Files are served by the router at /images and /profiles.
type Local struct {
	root     string
	maxBytes int64
}

func NewLocal(root string, maxBytes int64) (*Local, error) {
	for _, p := range []Purpose{PurposeImage, PurposeProfile} {
		if err := os.MkdirAll(filepath.Join(root, string(p)), 0o755); err != nil {
			return nil, fmt.Errorf("create upload directory: %w", err)
		}
	}
	return &Local{root: root, maxBytes: maxBytes}, nil
}

// Dir returns the directory holding files of the given purpose.
func (l *Local) Dir(purpose Purpose) string {
	return filepath.Join(l.root, string(purpose))
}

func (l *Local) Store(ctx context.Context, purpose Purpose, filename string, size int64, r io.Reader) (string, error) {
	ext, err := validate(purpose, filename, size, l.maxBytes)
	if err != nil {
		return "", err
	}
	name := storedName(ext)
	dstPath := filepath.Join(l.Dir(purpose), name)

	out, err := os.OpenFile(dstPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// Declared sizes can lie; enforce the ceiling while copying
	src := r
	if l.maxBytes > 0 {
		src = &io.LimitedReader{R: r, N: l.maxBytes + 1}
	}
	written, err := io.Copy(out, src)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("write file: %w", err)
	}
	if l.maxBytes > 0 && written > l.maxBytes {
		_ = os.Remove(dstPath)
		return "", tooLarge(l.maxBytes)
	}
	return "/" + string(purpose) + "/" + name, nil
}

func (l *Local) Delete(ctx context.Context, url string) error {
	purpose, name, ok := splitURL(url)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(l.Dir(purpose), name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// splitURL parses "/images/<name>" style urls. Anything else, including names that would
// escape the purpose directory, is reported as not ours.
func splitURL(url string) (Purpose, string, bool) {
	dir, name := path.Split(strings.TrimPrefix(url, "/"))
	purpose := Purpose(strings.TrimSuffix(dir, "/"))
	if purpose != PurposeImage && purpose != PurposeProfile {
		return "", "", false
	}
	if name == "" || strings.Contains(name, "..") {
		return "", "", false
	}
	return purpose, name, true
}
