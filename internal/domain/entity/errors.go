package entity

import "errors"

var (
	// Ошибки входных данных: отклоняются до начала сканирования
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidRadius     = errors.New("radius must be a positive number of kilometers")
	ErrInvalidCount      = errors.New("count must be at least 1")
	ErrInvalidThreshold  = errors.New("confidence threshold must be within [0, 1]")
	ErrInvalidMode       = errors.New("unknown scan mode")

	// Ошибки отдельного снимка: пропускаются, прогон продолжается
	ErrNoCoverage    = errors.New("no street-level coverage at coordinate")
	ErrCaptureFailed = errors.New("image capture failed")
	ErrGeocoding     = errors.New("reverse geocoding failed")
)
