package entity

import (
	"encoding/json"
	"fmt"
	"image"
)

// BoundingBox рамка найденного объекта в пикселях: левый верхний и правый нижний углы
type BoundingBox struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Width ширина рамки
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height высота рамки
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Center возвращает координаты центра рамки
func (b BoundingBox) Center() (x, y float64) {
	return b.X1 + b.Width()/2, b.Y1 + b.Height()/2
}

// Rect округляет рамку до целочисленного прямоугольника для рисования
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(int(b.X1+0.5), int(b.Y1+0.5), int(b.X2+0.5), int(b.Y2+0.5))
}

// MarshalJSON пишет рамку массивом [x1, y1, x2, y2]
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON читает рамку из массива [x1, y1, x2, y2]
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var xyxy []float64
	if err := json.Unmarshal(data, &xyxy); err != nil {
		return err
	}
	if len(xyxy) != 4 {
		return fmt.Errorf("bbox: expected 4 values, got %d", len(xyxy))
	}
	b.X1, b.Y1, b.X2, b.Y2 = xyxy[0], xyxy[1], xyxy[2], xyxy[3]
	return nil
}

// Detection один найденный дефект
type Detection struct {
	Box        BoundingBox `json:"bbox"`
	Confidence float64     `json:"confidence"`
	Class      string      `json:"class"`
}

// DetectionResult итог прогона детектора по одному снимку.
// Annotated заполняется только если найден хотя бы один дефект.
type DetectionResult struct {
	Detections []Detection
	Annotated  image.Image
}

// HasDetections флаг наличия дефектов
func (r *DetectionResult) HasDetections() bool {
	return r != nil && len(r.Detections) > 0
}
