package entity

// UnknownStreet подставляется, когда геокодер не вернул улицу
const UnknownStreet = "Unknown Street"

// DetectionRecord запись отчёта по одному снимку, на котором найдены дефекты.
// После добавления в отчёт не изменяется.
type DetectionRecord struct {
	Latitude       float64     `json:"latitude"`
	Longitude      float64     `json:"longitude"`
	Heading        int         `json:"heading"`
	StreetName     string      `json:"street_name"`
	PanoramaID     string      `json:"panorama_id,omitempty"`
	DistanceKm     float64     `json:"distance_km"` // от центра сканирования
	Detections     []Detection `json:"detections"`
	AnnotatedImage string      `json:"annotated_image"`
}

// Coordinate возвращает точку съёмки
func (r DetectionRecord) Coordinate() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}
