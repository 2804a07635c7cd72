package app

import (
	"fmt"
	"math"

	"pothole-scan/internal/domain/entity"
)

// kmPerDegree длина градуса широты в плоском приближении
const kmPerDegree = 111.32

// RandSource источник равномерных чисел в [0, 1). Подходит *rand.Rand из math/rand/v2.
type RandSource interface {
	Float64() float64
}

// GeoSampler выбирает точки и направления съёмки вокруг центра.
// Смещения считаются в плоском приближении: годится для радиусов до десятков километров,
// переход через антимеридиан и полюса не обрабатывается.
type GeoSampler struct {
	rnd RandSource
}

// NewGeoSampler создаёт сэмплер с заданным источником случайности
func NewGeoSampler(rnd RandSource) *GeoSampler {
	return &GeoSampler{rnd: rnd}
}

// Sample возвращает count случайных точек не дальше radiusKm от центра
func (s *GeoSampler) Sample(center entity.Coordinate, radiusKm float64, count int) ([]entity.Coordinate, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if !(radiusKm > 0) || math.IsInf(radiusKm, 1) {
		return nil, fmt.Errorf("%w: got %v", entity.ErrInvalidRadius, radiusKm)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: got %d", entity.ErrInvalidCount, count)
	}

	kmPerLonDegree := kmPerDegree * math.Cos(center.Latitude*math.Pi/180)

	points := make([]entity.Coordinate, 0, count)
	for i := 0; i < count; i++ {
		bearing := s.rnd.Float64() * 2 * math.Pi
		distance := s.rnd.Float64() * radiusKm

		points = append(points, entity.Coordinate{
			Latitude:  center.Latitude + distance/kmPerDegree*math.Cos(bearing),
			Longitude: center.Longitude + distance/kmPerLonDegree*math.Sin(bearing),
		})
	}

	return points, nil
}

// HeadingsAround делит круг на count равных секторов начиная с 0.
// Шаг целый (360/count), поэтому count больше 360 не допускается.
func (s *GeoSampler) HeadingsAround(count int) ([]int, error) {
	if count < 1 || count > 360 {
		return nil, fmt.Errorf("%w: headings count must be in [1, 360], got %d", entity.ErrInvalidCount, count)
	}

	step := 360 / count
	headings := make([]int, count)
	for i := range headings {
		headings[i] = i * step
	}
	return headings, nil
}
