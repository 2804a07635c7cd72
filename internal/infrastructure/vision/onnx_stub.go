//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"go.uber.org/zap"

	"pothole-scan/internal/domain/entity"
	"pothole-scan/internal/domain/port"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// ONNXDetector заглушка локального детектора (без OpenCV)
type ONNXDetector struct{}

// NewONNXDetector возвращает ошибку, если сборка без тега gocv.
func NewONNXDetector(opts ONNXOptions, logger *zap.Logger) (*ONNXDetector, error) {
	_ = opts
	_ = logger
	return nil, errNoGoCV
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *ONNXDetector) Detect(ctx context.Context, img image.Image, threshold float64) (*entity.DetectionResult, error) {
	return nil, errNoGoCV
}

// Close ничего не делает.
func (d *ONNXDetector) Close() error {
	return nil
}

// Проверка реализации интерфейса
var _ port.DefectDetector = (*ONNXDetector)(nil)
