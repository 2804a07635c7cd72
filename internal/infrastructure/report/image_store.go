package report

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"

	"pothole-scan/internal/domain/port"
)

// FileImageStore сохраняет размеченные снимки в JPEG в одну папку
type FileImageStore struct {
	dir string
}

// NewFileImageStore создаёт хранилище в каталоге dir
func NewFileImageStore(dir string) *FileImageStore {
	return &FileImageStore{dir: dir}
}

// SaveAnnotated пишет снимок с качеством 95 и возвращает путь к файлу
func (s *FileImageStore) SaveAnnotated(ctx context.Context, name string, img image.Image) (path string, err error) {
	_ = ctx
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	path = filepath.Join(s.dir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return path, nil
}

// Проверка реализации интерфейса
var _ port.ImageStore = (*FileImageStore)(nil)
