package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/archive/domain"
	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
)

// LocalSink writes receipts under <dir>/<YYYY>/<MM>/ and returns file://
// URLs. The ulid suffix keeps re-archived bills from clobbering the
// earlier copy.
type LocalSink struct {
	dir string
}

func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{dir: dir}
}

func (s *LocalSink) Store(ctx context.Context, bill *billingdomain.Bill, receipt io.Reader) (string, error) {
	_ = ctx

	at := bill.CreatedAt.UTC()
	dir := filepath.Join(s.dir, at.Format("2006"), at.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.pdf", bill.BillNumber, ulid.Make().String()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, receipt); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs), nil
}

var _ domain.Sink = (*LocalSink)(nil)
