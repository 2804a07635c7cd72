package entity

import (
	"fmt"
	"math"

	geo "github.com/kellydunn/golang-geo"
)

// Coordinate географическая точка в градусах
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinate создаёт точку и проверяет диапазоны широты и долготы
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate проверяет, что широта в [-90, 90], а долгота в [-180, 180]
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// DistanceKm возвращает расстояние по большому кругу до другой точки в километрах
func (c Coordinate) DistanceKm(other Coordinate) float64 {
	return c.point().GreatCircleDistance(other.point())
}

// String форматирует точку как "lat,lon", в таком виде её ждут внешние API
func (c Coordinate) String() string {
	return fmt.Sprintf("%.7f,%.7f", c.Latitude, c.Longitude)
}

func (c Coordinate) point() *geo.Point {
	return geo.NewPoint(c.Latitude, c.Longitude)
}
