package port

import (
	"context"
	"image"

	"pothole-scan/internal/domain/entity"
)

// DefectDetector интерфейс детектора дефектов дорожного покрытия
type DefectDetector interface {
	// Detect прогоняет модель по снимку. Порог передаётся в модель как есть,
	// в результат попадает только целевой класс в порядке выдачи модели.
	Detect(ctx context.Context, img image.Image, threshold float64) (*entity.DetectionResult, error)
}
