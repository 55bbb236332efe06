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
	"time"

	"github.com/psds-microservice/inquiry-service/internal/errs"
	"github.com/psds-microservice/inquiry-service/internal/model"
)

// Local stores files under Dir and serves them from URLPrefix.
type Local struct {
	Dir       string
	URLPrefix string
	MaxSize   int64
	now       func() time.Time
}

func NewLocal(dir, urlPrefix string, maxSize int64) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure upload dir: %w", err)
	}
	return &Local{Dir: dir, URLPrefix: urlPrefix, MaxSize: maxSize, now: time.Now}, nil
}

func (l *Local) Save(ctx context.Context, name string, r io.Reader) (model.Attachment, error) {
	kind, err := KindOf(name)
	if err != nil {
		return model.Attachment{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Attachment{}, err
	}
	now := l.now()
	id := StoredName(name, now)

	tmp, err := os.CreateTemp(l.Dir, ".upload-*")
	if err != nil {
		return model.Attachment{}, fmt.Errorf("storage: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, &limitedReader{r: r, max: l.MaxSize})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return model.Attachment{}, fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(l.Dir, id)); err != nil {
		return model.Attachment{}, fmt.Errorf("storage: rename: %w", err)
	}
	return model.Attachment{
		ID:         id,
		Name:       name,
		URL:        path.Join(l.URLPrefix, id),
		Kind:       kind,
		Size:       size,
		UploadedAt: now,
	}, nil
}

func (l *Local) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return errs.ErrFileNotFound
	}
	err := os.Remove(filepath.Join(l.Dir, id))
	if errors.Is(err, fs.ErrNotExist) {
		return errs.ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}
