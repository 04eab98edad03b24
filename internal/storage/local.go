package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes images to a directory that the router serves under URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &LocalStore{Dir: dir, URLPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, img Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString() + img.Ext
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return path.Join(s.URLPrefix, name), nil
}
