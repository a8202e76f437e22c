// Package storage is the binary asset store for event images.  Files land
// on local disk under a configured directory and are served back by the
// HTTP server under a public URL prefix; only that URL is stored on events.
package storage

import (
	"bufio"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iliyamo/event-planner/internal/config"
)

// Folder is the sub-directory images are written to.
const Folder = "event-images"

var (
	// ErrTooLarge is returned when an upload exceeds the configured size.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType is returned for anything that is not an image.
	ErrUnsupportedType = errors.New("unsupported file type")
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Assets stores uploaded images on the local filesystem.
type Assets struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewAssets creates the image directory if needed.
func NewAssets(cfg config.AssetConfig) (*Assets, error) {
	if err := os.MkdirAll(filepath.Join(cfg.Dir, Folder), 0o755); err != nil {
		return nil, errors.Wrap(err, "create asset dir")
	}
	max := cfg.MaxBytes
	if max <= 0 {
		max = 5 << 20
	}
	return &Assets{dir: cfg.Dir, baseURL: cfg.BaseURL, maxBytes: max}, nil
}

// Dir is the root directory served under BaseURL.
func (a *Assets) Dir() string { return a.dir }

// BaseURL is the public prefix of stored files.
func (a *Assets) BaseURL() string { return a.baseURL }

// MaxBytes is the upload size limit.
func (a *Assets) MaxBytes() int64 { return a.maxBytes }

// SaveImage sniffs r, writes it under a fresh name and returns its public
// URL.  Partial files are removed on failure.
func (a *Assets) SaveImage(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", errors.Wrap(err, "read upload")
	}
	ext, ok := imageExt[http.DetectContentType(head)]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	full := filepath.Join(a.dir, Folder, name)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create asset")
	}
	n, err := io.Copy(f, io.LimitReader(br, a.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > a.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", errors.Wrap(err, "write asset")
	}
	return path.Join(a.baseURL, Folder, name), nil
}
