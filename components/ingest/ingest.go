// Package ingest stages uploaded meal photos as scoped temporary files.
package ingest

import (
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/bububa/calorielens/components"
)

// DefaultMaxBytes upload size accepted when no limit is configured
const DefaultMaxBytes int64 = 20 << 20

// allowed maps every accepted extension to the MIME type it declares.
// The sniffed content only has to be one of these types, not the one of its extension.
var allowed = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
}

// Allowed reports whether ext (with or without leading dot, any case) is accepted
func Allowed(ext string) bool {
	_, ok := allowed[normalizeExt(ext)]
	return ok
}

// Extensions returns the accepted extensions
func Extensions() []string {
	return []string{"png", "jpg", "jpeg", "webp"}
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

type Option func(*Ingestor)

// WithDir sets the directory temporary files are written to, os.TempDir() by default
func WithDir(dir string) Option {
	return func(i *Ingestor) {
		i.dir = dir
	}
}

// WithMaxBytes sets the largest accepted upload, zero or less disables the check
func WithMaxBytes(n int64) Option {
	return func(i *Ingestor) {
		i.maxBytes = n
	}
}

// Ingestor validates uploads and writes them to ephemeral storage
type Ingestor struct {
	dir      string
	maxBytes int64
}

func New(opts ...Option) *Ingestor {
	ret := &Ingestor{
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Ingest validates data with the default Ingestor and stages it on disk
func Ingest(data []byte, ext string) (*ScopedFile, error) {
	return New().Ingest(data, ext)
}

// Ingest validates data against ext and writes it to a temporary file.
// Nothing is written when validation fails. The caller owns the returned
// ScopedFile and must Close it, which deletes the file.
func (i *Ingestor) Ingest(data []byte, ext string) (*ScopedFile, error) {
	ext = normalizeExt(ext)
	if len(data) == 0 {
		return nil, components.NewInvalidInputError("image is empty")
	}
	expectMIME, ok := allowed[ext]
	if !ok {
		return nil, components.NewInvalidInputError("extension %q is not allowed, use one of %s", ext, strings.Join(Extensions(), ", "))
	}
	if i.maxBytes > 0 && int64(len(data)) > i.maxBytes {
		return nil, components.NewInvalidInputError("image is %d bytes, limit is %d", len(data), i.maxBytes)
	}
	detected := mimetype.Detect(data)
	mimeType, ok := imageMIME(detected)
	if !ok {
		return nil, components.NewInvalidInputError("content is %s, not a supported image", detected.String())
	}
	fp, err := os.CreateTemp(i.dir, "calorielens-*."+ext)
	if err != nil {
		return nil, stagingError(err)
	}
	path := fp.Name()
	if _, err := fp.Write(data); err != nil {
		fp.Close()
		os.Remove(path)
		return nil, stagingError(err)
	}
	if err := fp.Close(); err != nil {
		os.Remove(path)
		return nil, stagingError(err)
	}
	return &ScopedFile{
		path:         path,
		ext:          ext,
		mimeType:     mimeType,
		declaredMIME: expectMIME,
		size:         int64(len(data)),
		id:           uuid.NewSHA1(uuid.NameSpaceOID, data).String(),
		closed:       atomic.NewBool(false),
	}, nil
}

// stagingError reports a temp directory that cannot hold the upload
func stagingError(err error) error {
	return &components.ConfigurationError{Key: "temp_dir", Msg: "could not stage the image", Err: err}
}

// imageMIME returns the canonical MIME type when m is one of the accepted image types
func imageMIME(m *mimetype.MIME) (string, bool) {
	for _, v := range []string{"image/png", "image/jpeg", "image/webp"} {
		if m.Is(v) {
			return v, true
		}
	}
	return "", false
}

// ScopedFile is a temporary copy of an upload, deleted on Close
type ScopedFile struct {
	path         string
	ext          string
	mimeType     string
	declaredMIME string
	size         int64
	id           string
	closed       *atomic.Bool
}

var _ components.ImageFile = (*ScopedFile)(nil)

func (f *ScopedFile) Path() string {
	return f.path
}

// MIMEType returns the sniffed content type
func (f *ScopedFile) MIMEType() string {
	return f.mimeType
}

// DeclaredMIMEType returns the type implied by the declared extension
func (f *ScopedFile) DeclaredMIMEType() string {
	return f.declaredMIME
}

func (f *ScopedFile) Ext() string {
	return f.ext
}

func (f *ScopedFile) Size() int64 {
	return f.size
}

// ID returns a UUID derived from the image content
func (f *ScopedFile) ID() string {
	return f.id
}

func (f *ScopedFile) Open() (io.ReadCloser, error) {
	if f.closed.Load() {
		return nil, os.ErrClosed
	}
	return os.Open(f.path)
}

// Close deletes the temporary file, later calls are no-ops
func (f *ScopedFile) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
