package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"pothole-scan/internal/domain/entity"
	"pothole-scan/internal/domain/port"
)

// RemoteDetector отправляет снимок во внешний сервис с моделью YOLO
type RemoteDetector struct {
	baseURL     string // адрес сервиса, без /predict
	targetClass string
	http        *http.Client
	logger      *zap.Logger
}

// NewRemoteDetector создаёт адаптер к сервису инференса
func NewRemoteDetector(httpClient *http.Client, baseURL, targetClass string, logger *zap.Logger) *RemoteDetector {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteDetector{
		baseURL:     strings.TrimRight(baseURL, "/"),
		targetClass: targetClass,
		http:        httpClient,
		logger:      logger.Named("detector"),
	}
}

type predictResponse struct {
	Detections []entity.Detection `json:"detections"`
}

// Detect выполняет один проход модели. Порог уходит в сервис,
// из ответа остаётся только целевой класс в исходном порядке.
func (d *RemoteDetector) Detect(ctx context.Context, img image.Image, threshold float64) (*entity.DetectionResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := imaging.Encode(part, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	if err := writer.WriteField("conf", strconv.FormatFloat(threshold, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("write conf field: %w", err)
	}
	if err := writer.WriteField("class", d.targetClass); err != nil {
		return nil, fmt.Errorf("write class field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	detections := make([]entity.Detection, 0, len(result.Detections))
	for _, det := range result.Detections {
		if det.Class == d.targetClass {
			detections = append(detections, det)
		}
	}

	d.logger.Debug("inference done",
		zap.Int("raw", len(result.Detections)),
		zap.Int("kept", len(detections)),
		zap.Float64("threshold", threshold),
	)

	out := &entity.DetectionResult{Detections: detections}
	if len(detections) > 0 {
		out.Annotated = Annotate(img, detections)
	}
	return out, nil
}

// CheckHealth проверяет доступность сервиса инференса
func (d *RemoteDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml service unhealthy: %d", resp.StatusCode)
	}

	return nil
}

// Проверка реализации интерфейса
var _ port.DefectDetector = (*RemoteDetector)(nil)
