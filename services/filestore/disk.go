package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
)

// DiskStorage stores uploads in a local directory, served by the API under /uploads.
type DiskStorage struct {
	dir     string
	baseURL string
}

var _ core.FileStorage = (*DiskStorage)(nil)

func NewDiskStorage(conf *core.Config) (*DiskStorage, error) {
	if err := os.MkdirAll(conf.Storage.UploadDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload dir")
	}
	return &DiskStorage{dir: conf.Storage.UploadDir, baseURL: conf.Storage.BaseURL}, nil
}

func (s *DiskStorage) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *DiskStorage) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	f, err := os.Create(s.path(name))
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return errors.Wrap(err, "writing file")
	}
	return f.Close()
}

func (s *DiskStorage) URL(_ context.Context, name string) (string, error) {
	return s.baseURL + "/uploads/" + filepath.Base(name), nil
}

func (s *DiskStorage) Delete(_ context.Context, name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}
