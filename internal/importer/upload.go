package importer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Upload is a temporary file owned by exactly one import. Release deletes it
// once; later calls return the result of the first.
type Upload struct {
	Path string
	Name string

	remove     func(string) error
	once       sync.Once
	releaseErr error
}

func NewUpload(path, name string) *Upload {
	return &Upload{Path: path, Name: name, remove: os.Remove}
}

// SaveUpload copies r into a new temporary file under dir.
func SaveUpload(dir, name string, r io.Reader) (*Upload, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "import-*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}

	upload := NewUpload(f.Name(), name)
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = upload.Release()
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = upload.Release()
		return nil, fmt.Errorf("failed to close upload file: %w", err)
	}

	return upload, nil
}

func (u *Upload) Open() (io.ReadCloser, error) {
	return os.Open(u.Path)
}

func (u *Upload) Release() error {
	u.once.Do(func() {
		err := u.remove(u.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			u.releaseErr = fmt.Errorf("failed to remove upload %s: %w", u.Path, err)
		}
	})
	return u.releaseErr
}
