// Package upload validates, names and stores the files attached to requests.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
)

const (
	mb = 1 << 20

	maxBaseNameLen = 25
)

// size limits per allowed extension
var allowed = map[string]int64{
	".jpg":  10 * mb,
	".jpeg": 10 * mb,
	".pdf":  5 * mb,
	".docx": 5 * mb,
}

var (
	// errors
	ErrUnsupportedType = errors.New("unsupported file type: only .jpg, .jpeg, .pdf and .docx are allowed")
	ErrTooLarge        = errors.New("file is too large")
	ErrEmpty           = errors.New("file is empty")
)

// File is a stored upload.
type File struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type Service struct {
	store   core.FileStorage
	nowFunc func() time.Time // mockable
}

func NewService(store core.FileStorage) *Service {
	return &Service{store: store, nowFunc: time.Now}
}

// Check validates the extension & size of an upload.
func Check(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	limit, ok := allowed[ext]
	if !ok {
		return core.NewFieldError("file", ErrUnsupportedType.Error())
	}
	if size <= 0 {
		return core.NewFieldError("file", ErrEmpty.Error())
	}
	if size > limit {
		return core.NewFieldError("file", fmt.Sprintf("%s: %s files must not exceed %dMB", ErrTooLarge, ext, limit/mb))
	}
	return nil
}

// StoredName returns the name an upload is stored under:
// "<unix millis>_<base name, spaces replaced by underscores, truncated to 25 chars><ext>".
func StoredName(filename string, now time.Time) string {
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	base := strings.ReplaceAll(strings.TrimSuffix(filename, ext), " ", "_")
	if r := []rune(base); len(r) > maxBaseNameLen {
		base = string(r[:maxBaseNameLen])
	}
	return fmt.Sprintf("%d_%s%s", now.UnixNano()/int64(time.Millisecond), base, strings.ToLower(ext))
}

// Save checks and stores the content of `filename` and returns where it can be fetched.
func (svc *Service) Save(ctx context.Context, filename string, size int64, r io.Reader) (File, error) {
	if err := Check(filename, size); err != nil {
		return File{}, err
	}

	name := StoredName(filename, svc.nowFunc())
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	if err := svc.store.Save(ctx, name, r, size, ct); err != nil {
		return File{}, pkgerrors.Wrap(err, "storing file")
	}
	url, err := svc.store.URL(ctx, name)
	if err != nil {
		return File{}, pkgerrors.Wrap(err, "getting file URL")
	}
	return File{Name: name, URL: url, Size: size, ContentType: ct}, nil
}

// Delete removes a stored upload.
func (svc *Service) Delete(ctx context.Context, name string) error {
	return svc.store.Delete(ctx, filepath.Base(name))
}
