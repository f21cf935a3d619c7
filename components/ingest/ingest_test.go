package ingest

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bububa/calorielens/components"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func webpBytes() []byte {
	data := []byte("RIFF\x24\x00\x00\x00WEBPVP8 \x18\x00\x00\x00")
	return append(data, make([]byte, 24)...)
}

func entries(t *testing.T, dir string) int {
	t.Helper()
	list, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(list)
}

func TestIngestWritesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t)
	f, err := New(WithDir(dir)).Ingest(data, ".PNG")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if filepath.Dir(f.Path()) != dir {
		t.Errorf("expect file in %s, but got %s", dir, f.Path())
	}
	if f.MIMEType() != "image/png" || f.Ext() != "png" {
		t.Errorf("expect png image, but got %s (%s)", f.MIMEType(), f.Ext())
	}
	if f.Size() != int64(len(data)) {
		t.Errorf("expect size %d, but got %d", len(data), f.Size())
	}
	rd, err := f.Open()
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	got, _ := io.ReadAll(rd)
	rd.Close()
	if !bytes.Equal(got, data) {
		t.Errorf("expect staged bytes to equal upload")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Errorf("expect file removed after close, but stat returned %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("expect second close to be a no-op, but got %v", err)
	}
	if _, err := f.Open(); err == nil {
		t.Errorf("expect open after close to fail")
	}
}

func TestIngestAcceptedTypes(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		ext  string
		data []byte
		mime string
	}{
		{"png", pngBytes(t), "image/png"},
		{"jpg", jpegBytes(t), "image/jpeg"},
		{"jpeg", jpegBytes(t), "image/jpeg"},
		{"webp", webpBytes(), "image/webp"},
	}
	for _, c := range cases {
		f, err := New(WithDir(dir)).Ingest(c.data, c.ext)
		if err != nil {
			t.Errorf("%s: ingest failed: %v", c.ext, err)
			continue
		}
		if f.MIMEType() != c.mime {
			t.Errorf("%s: expect %s, but got %s", c.ext, c.mime, f.MIMEType())
		}
		f.Close()
	}
	if n := entries(t, dir); n != 0 {
		t.Errorf("expect no files left, but got %d", n)
	}
}

func TestIngestRejectsWithoutWriting(t *testing.T) {
	cases := map[string]struct {
		data []byte
		ext  string
		max  int64
	}{
		"gif extension": {pngBytes(t), ".gif", 0},
		"no extension":  {pngBytes(t), "", 0},
		"empty buffer":  {nil, "png", 0},
		"not an image":  {[]byte("definitely not a picture"), "jpg", 0},
		"too large":     {pngBytes(t), "png", 8},
		"gif content":   {[]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), "png", 0},
	}
	for name, c := range cases {
		dir := t.TempDir()
		f, err := New(WithDir(dir), WithMaxBytes(c.max)).Ingest(c.data, c.ext)
		if f != nil {
			f.Close()
			t.Errorf("%s: expect no handle", name)
		}
		var inputErr *components.InvalidInputError
		if !errors.As(err, &inputErr) {
			t.Errorf("%s: expect InvalidInputError, but got %T %v", name, err, err)
		}
		if n := entries(t, dir); n != 0 {
			t.Errorf("%s: expect nothing written, but found %d files", name, n)
		}
	}
}

func TestAllowed(t *testing.T) {
	for _, ext := range []string{"png", ".jpg", "JPEG", "webp"} {
		if !Allowed(ext) {
			t.Errorf("expect %s to be allowed", ext)
		}
	}
	for _, ext := range []string{"gif", "bmp", "", "pdf"} {
		if Allowed(ext) {
			t.Errorf("expect %s to be rejected", ext)
		}
	}
}

func TestIngestMismatchedExtension(t *testing.T) {
	f, err := New(WithDir(t.TempDir())).Ingest(jpegBytes(t), ".PNG")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	defer f.Close()
	if f.MIMEType() != "image/jpeg" {
		t.Errorf("expect sniffed image/jpeg, but got %s", f.MIMEType())
	}
	if f.DeclaredMIMEType() != "image/png" {
		t.Errorf("expect declared image/png, but got %s", f.DeclaredMIMEType())
	}
}

func TestIngestMissingTempDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	f, err := New(WithDir(dir)).Ingest(pngBytes(t), "png")
	if f != nil {
		f.Close()
		t.Fatal("expect no handle")
	}
	if kind := components.KindOf(err); kind != components.ConfigurationErrorKind {
		t.Errorf("expect configuration error, but got %s: %v", kind, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expect wrapped not exist error, but got %v", err)
	}
}
