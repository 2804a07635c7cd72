package entity

import (
	"fmt"
	"math"
)

// ScanMode способ выбора точек съёмки
type ScanMode string

const (
	ModeRadius   ScanMode = "radius"   // случайные точки в радиусе от центра
	ModeHeadings ScanMode = "headings" // одна точка, несколько направлений
)

// ParseScanMode разбирает режим из строки
func ParseScanMode(s string) (ScanMode, error) {
	switch ScanMode(s) {
	case ModeRadius, ModeHeadings:
		return ScanMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// ScanRequest параметры одного прогона
type ScanRequest struct {
	Center     Coordinate
	RadiusKm   float64 // только для ModeRadius
	Count      int     // число точек (ModeRadius) или направлений (ModeHeadings)
	Mode       ScanMode
	Confidence float64 // порог уверенности детектора
	ReportPath string  // если пусто, берётся из конфигурации
}

// Validate проверяет запрос до начала съёмки
func (r ScanRequest) Validate() error {
	if err := r.Center.Validate(); err != nil {
		return err
	}
	if r.Count < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, r.Count)
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, r.Confidence)
	}
	switch r.Mode {
	case ModeRadius:
		if !(r.RadiusKm > 0) {
			return fmt.Errorf("%w: got %v", ErrInvalidRadius, r.RadiusKm)
		}
	case ModeHeadings:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, r.Mode)
	}
	return nil
}

// ScanReport сводка по завершённому прогону
type ScanReport struct {
	RunID      string
	Samples    int // сколько снимков запрошено
	Captured   int // сколько снимков получено
	Skipped    int // нет покрытия, ошибка съёмки или детектора
	Records    []DetectionRecord
	ReportPath string
}
