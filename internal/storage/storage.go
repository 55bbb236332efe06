// Package storage writes inquiry attachments to local disk or S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/psds-microservice/inquiry-service/internal/errs"
	"github.com/psds-microservice/inquiry-service/internal/model"
)

// MaxFilesPerRequest bounds a single multi-file upload.
const MaxFilesPerRequest = 10

var allowedExt = map[string]model.AttachmentKind{
	".jpeg": model.KindImage,
	".jpg":  model.KindImage,
	".png":  model.KindImage,
	".gif":  model.KindImage,
	".pdf":  model.KindPDF,
	".doc":  model.KindPDF,
	".docx": model.KindPDF,
	".xls":  model.KindPDF,
	".xlsx": model.KindPDF,
}

// Storage persists uploaded bytes and returns the attachment describing them.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (model.Attachment, error)
	Delete(ctx context.Context, id string) error
}

// KindOf classifies a file by extension. Images are jpg/jpeg/png/gif;
// every other allowed document is filed as pdf.
func KindOf(name string) (model.AttachmentKind, error) {
	kind, ok := allowedExt[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", fmt.Errorf("%w: only images, PDFs and office documents are allowed", errs.ErrInvalidFile)
	}
	return kind, nil
}

// StoredName derives a collision-resistant object name from the original file
// name: "<base>-<unixnano>-<random><ext>".
func StoredName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = sanitize(base)
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s-%d-%d%s", base, now.UnixNano(), rand.IntN(1e9), ext)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// validID rejects ids that could escape the storage namespace.
func validID(id string) bool {
	return id != "" && id == filepath.Base(id) && !strings.HasPrefix(id, ".")
}

// limitedReader fails once more than max bytes have been read.
type limitedReader struct {
	r   io.Reader
	n   int64
	max int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.max {
		return n, fmt.Errorf("%w: file exceeds %d bytes", errs.ErrInvalidFile, l.max)
	}
	return n, err
}
