// Package source loads meal photos from a local path, an http(s) URL or an s3:// object.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/components/ingest"
)

// Image raw bytes of a photo plus the extension hint used for ingestion
type Image struct {
	// Name is the file name, URL or object key the image was loaded from
	Name string
	Ext  string
	Data []byte
}

type Config struct {
	httpClient *http.Client
	s3Client   S3Getter
	maxBytes   int64
}

type Option func(*Config)

func WithHttpClient(clt *http.Client) Option {
	return func(c *Config) {
		c.httpClient = clt
	}
}

// WithS3Client sets the client used for s3:// references, the default AWS config is loaded when unset
func WithS3Client(clt S3Getter) Option {
	return func(c *Config) {
		c.s3Client = clt
	}
}

func WithMaxBytes(n int64) Option {
	return func(c *Config) {
		c.maxBytes = n
	}
}

// S3Getter is the subset of *s3.Client used to fetch objects
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Load reads the image referenced by ref. Any failure is an InvalidInputError,
// no temporary resource exists at this point.
func Load(ctx context.Context, ref string, opts ...Option) (*Image, error) {
	cfg := Config{
		maxBytes: ingest.DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, components.NewInvalidInputError("no image given")
	}
	var (
		img *Image
		err error
	)
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		img, err = loadHttp(ctx, ref, &cfg)
	case strings.HasPrefix(ref, "s3://"):
		img, err = loadS3(ctx, ref, &cfg)
	default:
		img, err = loadFile(ref, &cfg)
	}
	if err != nil {
		if components.KindOf(err) == components.UnknownErrorKind {
			return nil, &components.InvalidInputError{Msg: fmt.Sprintf("could not read %s", ref), Err: err}
		}
		return nil, err
	}
	if img.Ext == "" {
		img.Ext = strings.TrimPrefix(mimetype.Detect(img.Data).Extension(), ".")
	}
	return img, nil
}

// readLimited reads at most max bytes from r, failing when r holds more
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, components.NewInvalidInputError("image exceeds %d bytes", max)
	}
	return data, nil
}

func extOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

func loadHttp(ctx context.Context, link string, cfg *Config) (*Image, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, err
	}
	clt := cfg.httpClient
	if clt == nil {
		clt = http.DefaultClient
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	httpResp, err := clt.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, components.NewInvalidInputError("fetching %s returned %d", link, httpResp.StatusCode)
	}
	data, err := readLimited(httpResp.Body, cfg.maxBytes)
	if err != nil {
		return nil, err
	}
	return &Image{
		Name: link,
		Ext:  extOf(u.Path),
		Data: data,
	}, nil
}
