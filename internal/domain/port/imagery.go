package port

import (
	"context"

	"pothole-scan/internal/domain/entity"
)

// ImageryProvider интерфейс поставщика уличных панорам и обратного геокодирования
type ImageryProvider interface {
	// PanoramaID возвращает идентификатор панорамы или entity.ErrNoCoverage
	PanoramaID(ctx context.Context, c entity.Coordinate) (string, error)

	// StreetName возвращает название улицы. Если улица не найдена, возвращает entity.UnknownStreet без ошибки,
	// если геокодер недоступен, то entity.UnknownStreet и ошибку.
	StreetName(ctx context.Context, c entity.Coordinate) (string, error)

	// Capture делает снимок в точке и направлении запроса
	Capture(ctx context.Context, req entity.CaptureRequest) (*entity.CapturedImage, error)
}
