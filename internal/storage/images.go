package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageDir is where recipe images live, relative to the media root.
const ImageDir = "recipes/images"

var ErrInvalidImage = errors.New("invalid image")

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// LocalImageStore writes base64 data-URI images under a media root on disk.
type LocalImageStore struct {
	root     string
	maxBytes int
}

func NewLocalImageStore(root string, maxBytes int) (*LocalImageStore, error) {
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(ImageDir)), 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalImageStore{root: root, maxBytes: maxBytes}, nil
}

// Root is the directory served under /media.
func (s *LocalImageStore) Root() string {
	return s.root
}

// Save decodes a "data:image/<type>;base64,<payload>" URI and returns the
// stored file's path relative to the media root.
func (s *LocalImageStore) Save(dataURI string) (string, error) {
	mime, data, err := s.decode(dataURI)
	if err != nil {
		return "", err
	}

	rel := path.Join(ImageDir, uuid.New().String()+"."+extensions[mime])
	if err := os.WriteFile(filepath.Join(s.root, filepath.FromSlash(rel)), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return rel, nil
}

// Delete removes a previously saved image. Missing files are not an error.
func (s *LocalImageStore) Delete(rel string) error {
	clean := path.Clean(rel)
	if !strings.HasPrefix(clean, ImageDir+"/") {
		return fmt.Errorf("%w: path %q outside image dir", ErrInvalidImage, rel)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func (s *LocalImageStore) decode(dataURI string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURI), "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: expected a data URI", ErrInvalidImage)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed data URI", ErrInvalidImage)
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI must be base64 encoded", ErrInvalidImage)
	}
	if _, known := extensions[mime]; !known {
		return "", nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, mime)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > s.maxBytes+2 {
		return "", nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, s.maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) > s.maxBytes {
		return "", nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, s.maxBytes)
	}
	if detected := http.DetectContentType(data); detected != mime {
		return "", nil, fmt.Errorf("%w: content is %s, declared %s", ErrInvalidImage, detected, mime)
	}
	return mime, data, nil
}
