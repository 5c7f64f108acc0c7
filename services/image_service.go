package services

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxMenuImageBytes = 2 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageService stores menu photos on local disk under Root; they are served
// back at URLPrefix.
type ImageService struct {
	Root      string
	URLPrefix string
}

func NewImageService(root, urlPrefix string) *ImageService {
	return &ImageService{Root: root, URLPrefix: strings.TrimRight(urlPrefix, "/")}
}

// SaveBase64Image accepts a data URI or raw base64 and returns the public path
// of the written file, e.g. "/uploads/menu/<uuid>.jpg".
func (s *ImageService) SaveBase64Image(b64 string, subdir string) (string, error) {
	if idx := strings.Index(b64, "base64,"); idx >= 0 {
		b64 = b64[idx+7:]
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return "", invalid("imageData", "image must be base64 encoded")
	}
	if len(data) == 0 || len(data) > maxMenuImageBytes {
		return "", invalid("imageData", "image must be between 1 byte and 2 MB")
	}
	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		return "", invalid("imageData", "image must be a JPEG, PNG or WebP")
	}

	dir := filepath.Join(s.Root, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &PersistenceError{Op: "mkdir uploads dir", Err: err}
	}

	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", &PersistenceError{Op: "write image", Err: fmt.Errorf("%s: %w", filename, err)}
	}

	return s.URLPrefix + "/" + filepath.ToSlash(filepath.Join(subdir, filename)), nil
}

// RemoveImage deletes a file written by SaveBase64Image. Paths outside
// URLPrefix are ignored.
func (s *ImageService) RemoveImage(publicPath string) error {
	rel, ok := strings.CutPrefix(publicPath, s.URLPrefix+"/")
	if !ok || rel == "" {
		return nil
	}
	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	if !strings.HasPrefix(full, filepath.Clean(s.Root)+string(filepath.Separator)) {
		return nil
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return &PersistenceError{Op: "remove image", Err: err}
	}
	return nil
}
