// Package archive opens scene archives, picking the backend from the file content.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/abcdump/internal/abc"
	"github.com/temirov/abcdump/internal/abc/h5archive"
	"github.com/temirov/abcdump/internal/scene"
)

// Format identifies an archive backend.
type Format string

const (
	FormatHDF5    Format = "hdf5"
	FormatScene   Format = "scene"
	FormatUnknown Format = "unknown"

	signatureLength = 8
)

var (
	hdf5Signature       = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}
	sceneFileExtensions = map[string]struct{}{".yaml": {}, ".yml": {}}
)

// Detect reports the backend able to read the file at path.
func Detect(path string) (Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer func() { _ = file.Close() }()

	signature := make([]byte, signatureLength)
	read, err := io.ReadFull(file, signature)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, err
	}
	if read == signatureLength && bytes.Equal(signature, hdf5Signature) {
		return FormatHDF5, nil
	}
	if _, ok := sceneFileExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return FormatScene, nil
	}
	return FormatUnknown, nil
}

// Open opens the archive at path and checks that it is valid.
func Open(path string) (abc.Archive, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var opened abc.Archive
	switch format {
	case FormatHDF5:
		opened, err = openHDF5(path)
	case FormatScene:
		opened, err = openScene(path)
	default:
		return nil, fmt.Errorf("%w: %s", abc.ErrInvalidArchive, path)
	}
	if err != nil {
		return nil, err
	}
	if !opened.Valid() {
		_ = opened.Close()
		return nil, fmt.Errorf("%w: %s", abc.ErrInvalidArchive, path)
	}
	return opened, nil
}

func openHDF5(path string) (abc.Archive, error) {
	opened, err := h5archive.Open(path)
	if err != nil {
		return nil, err
	}
	return opened, nil
}

func openScene(path string) (abc.Archive, error) {
	opened, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	return opened, nil
}
