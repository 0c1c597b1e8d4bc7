package upload

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lophoc/core"
)

type memStore struct {
	files map[string][]byte
}

func (s *memStore) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.files[name] = b
	return nil
}

func (s *memStore) URL(_ context.Context, name string) (string, error) {
	return "http://files.test/uploads/" + name, nil
}

func (s *memStore) Delete(_ context.Context, name string) error {
	delete(s.files, name)
	return nil
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{name: "pdf", filename: "notes.pdf", size: 5 * mb},
		{name: "upper-case jpeg", filename: "photo.JPEG", size: 10 * mb},
		{name: "docx", filename: "essay.docx", size: 1},
		{name: "pdf too large", filename: "notes.pdf", size: 5*mb + 1, wantErr: true},
		{name: "jpg too large", filename: "photo.jpg", size: 10*mb + 1, wantErr: true},
		{name: "empty", filename: "notes.pdf", wantErr: true},
		{name: "png", filename: "img.png", size: 1, wantErr: true},
		{name: "no ext", filename: "README", size: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.filename, tt.size)
			if tt.wantErr {
				assert.True(t, core.IsValidation(err), "Check() error = %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoredName(t *testing.T) {
	now := time.Unix(1700000000, 123*int64(time.Millisecond))

	tests := []struct {
		filename string
		want     string
	}{
		{filename: "notes.pdf", want: "1700000000123_notes.pdf"},
		{filename: "my week 1 notes.PDF", want: "1700000000123_my_week_1_notes.pdf"},
		{filename: "a very long file name that goes on and on.docx", want: "1700000000123_a_very_long_file_name_tha.docx"},
		{filename: "../../etc/passwd.jpg", want: "1700000000123_passwd.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, StoredName(tt.filename, now))
		})
	}
}

func TestService_Save(t *testing.T) {
	store := &memStore{files: make(map[string][]byte)}
	svc := NewService(store)
	svc.nowFunc = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	_, err := svc.Save(ctx, "virus.exe", 3, strings.NewReader("bad"))
	require.True(t, core.IsValidation(err))

	content := []byte("%PDF-1.4")
	f, err := svc.Save(ctx, "Syllabus.pdf", int64(len(content)), bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "1700000000000_Syllabus.pdf", f.Name)
	assert.Equal(t, "http://files.test/uploads/1700000000000_Syllabus.pdf", f.URL)
	assert.Equal(t, "application/pdf", f.ContentType)

	assert.Equal(t, content, store.files[f.Name])

	require.NoError(t, svc.Delete(ctx, "uploads/"+f.Name))
	assert.NotContains(t, store.files, f.Name)
}
