package source

import (
	"errors"
	"os"
	"path/filepath"
)

func loadFile(fname string, cfg *Config) (*Image, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	fileInfo, err := fp.Stat()
	if err != nil {
		return nil, err
	}
	if fileInfo.IsDir() {
		return nil, errors.New("image could not be a directory")
	}
	data, err := readLimited(fp, cfg.maxBytes)
	if err != nil {
		return nil, err
	}
	return &Image{
		Name: fileInfo.Name(),
		Ext:  extOf(filepath.Base(fname)),
		Data: data,
	}, nil
}
