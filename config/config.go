package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIKey        string
	StreetViewURL string
	GeocodingURL  string
	HTTPTimeout   time.Duration

	Detector     string // remote или onnx
	InferenceURL string
	ModelPath    string
	ModelClasses []string
	TargetClass  string

	Confidence       float64
	RadiusKm         float64
	NumPoints        int
	HeadingsPerPoint int

	OutputDir  string
	ReportFile string

	TelegramToken string
	Debug         bool
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:        os.Getenv("GOOGLE_STREET_VIEW_API_KEY"),
		StreetViewURL: getEnv("STREETVIEW_URL", "https://maps.googleapis.com/maps/api/streetview"),
		GeocodingURL:  getEnv("GEOCODING_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
		HTTPTimeout:   time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 30)) * time.Second,

		Detector:     getEnv("DETECTOR", "remote"),
		InferenceURL: getEnv("INFERENCE_URL", "http://localhost:5000"),
		ModelPath:    getEnv("MODEL_PATH", "./models/best_detect.onnx"),
		ModelClasses: strings.Split(getEnv("MODEL_CLASSES", "road-pothole"), ","),
		TargetClass:  getEnv("TARGET_CLASS", "road-pothole"),

		Confidence:       getEnvFloat("CONFIDENCE", 0.5),
		RadiusKm:         getEnvFloat("RADIUS_KM", 0.5),
		NumPoints:        getEnvInt("NUM_POINTS", 5),
		HeadingsPerPoint: getEnvInt("HEADINGS_PER_POINT", 4),

		OutputDir:  getEnv("OUTPUT_DIR", "street_view_images"),
		ReportFile: getEnv("REPORT_FILE", "pothole_detections.json"),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		Debug:         getEnvBool("LOG_DEBUG", false),
	}

	for i, class := range cfg.ModelClasses {
		cfg.ModelClasses[i] = strings.TrimSpace(class)
	}

	return cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("GOOGLE_STREET_VIEW_API_KEY is required")
	}
	switch c.Detector {
	case "remote", "onnx":
	default:
		return errors.New("DETECTOR must be remote or onnx")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
