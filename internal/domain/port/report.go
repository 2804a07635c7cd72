package port

import (
	"context"
	"image"

	"pothole-scan/internal/domain/entity"
)

// ReportWriter интерфейс записи итогового отчёта
type ReportWriter interface {
	// Write полностью перезаписывает destination
	Write(ctx context.Context, records []entity.DetectionRecord, destination string) error
}

// ImageStore хранилище размеченных снимков
type ImageStore interface {
	// SaveAnnotated сохраняет снимок и возвращает ссылку на него
	SaveAnnotated(ctx context.Context, name string, img image.Image) (string, error)
}
