package streetview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"pothole-scan/internal/domain/entity"
	"pothole-scan/internal/domain/port"
)

const (
	DefaultStreetViewURL = "https://maps.googleapis.com/maps/api/streetview"
	DefaultGeocodingURL  = "https://maps.googleapis.com/maps/api/geocode/json"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	routeType         = "route"
)

// Options параметры клиента и кадрирования снимков
type Options struct {
	APIKey        string
	StreetViewURL string
	GeocodingURL  string
	FOV           int // горизонтальный угол обзора, градусы
	Pitch         int // наклон камеры, градусы
	Width         int
	Height        int
}

// DefaultOptions кадр 640x640, обзор 90°, камера наклонена на 30° к дороге
func DefaultOptions(apiKey string) Options {
	return Options{
		APIKey:        apiKey,
		StreetViewURL: DefaultStreetViewURL,
		GeocodingURL:  DefaultGeocodingURL,
		FOV:           90,
		Pitch:         -30,
		Width:         640,
		Height:        640,
	}
}

// Client ходит в Street View Static API и Geocoding API.
// Таймауты задаются в переданном http.Client.
type Client struct {
	http   *http.Client
	opts   Options
	logger *zap.Logger
}

// NewClient создаёт клиента поставщика панорам
func NewClient(httpClient *http.Client, opts Options, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:   httpClient,
		opts:   opts,
		logger: logger.Named("streetview"),
	}
}

type metadataResponse struct {
	Status string `json:"status"`
	PanoID string `json:"pano_id"`
}

// PanoramaID запрашивает метаданные панорамы в точке
func (c *Client) PanoramaID(ctx context.Context, coord entity.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("location", coord.String())
	params.Set("key", c.opts.APIKey)

	var meta metadataResponse
	if err := c.getJSON(ctx, c.opts.StreetViewURL+"/metadata", params, &meta); err != nil {
		return "", fmt.Errorf("panorama metadata: %w", err)
	}

	if meta.PanoID == "" {
		return "", fmt.Errorf("%w: %s (status %s)", entity.ErrNoCoverage, coord, meta.Status)
	}
	return meta.PanoID, nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// StreetName возвращает первую компоненту адреса с типом route
func (c *Client) StreetName(ctx context.Context, coord entity.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("latlng", coord.String())
	params.Set("key", c.opts.APIKey)

	var resp geocodeResponse
	if err := c.getJSON(ctx, c.opts.GeocodingURL, params, &resp); err != nil {
		return entity.UnknownStreet, fmt.Errorf("%w: %w", entity.ErrGeocoding, err)
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults:
		return entity.UnknownStreet, nil
	default:
		return entity.UnknownStreet, fmt.Errorf("%w: status %s", entity.ErrGeocoding, resp.Status)
	}

	for _, result := range resp.Results {
		for _, component := range result.AddressComponents {
			for _, t := range component.Types {
				if t == routeType {
					return component.LongName, nil
				}
			}
		}
	}
	return entity.UnknownStreet, nil
}

// Capture скачивает снимок и приводит его к непрозрачному цветному растру
func (c *Client) Capture(ctx context.Context, req entity.CaptureRequest) (*entity.CapturedImage, error) {
	params := url.Values{}
	params.Set("size", fmt.Sprintf("%dx%d", c.opts.Width, c.opts.Height))
	params.Set("location", req.Coordinate.String())
	params.Set("heading", strconv.Itoa(req.Heading))
	params.Set("fov", strconv.Itoa(c.opts.FOV))
	params.Set("pitch", strconv.Itoa(c.opts.Pitch))
	params.Set("key", c.opts.APIKey)

	body, err := c.get(ctx, c.opts.StreetViewURL, params)
	if err != nil {
		return nil, fmt.Errorf("%w at %s heading %d: %w", entity.ErrCaptureFailed, req.Coordinate, req.Heading, err)
	}

	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %w", entity.ErrCaptureFailed, err)
	}

	c.logger.Debug("captured",
		zap.Stringer("coordinate", req.Coordinate),
		zap.Int("heading", req.Heading),
		zap.Int("bytes", len(body)),
	)

	return &entity.CapturedImage{Request: req, Image: toRGB(img)}, nil
}

// toRGB отбрасывает альфа-канал, как это делает конвертация в RGB
func toRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error содержит адрес запроса вместе с ключом API
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// Проверка реализации интерфейса
var _ port.ImageryProvider = (*Client)(nil)
