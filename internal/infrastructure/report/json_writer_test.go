package report

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pothole-scan/internal/domain/entity"
)

func TestJSONWriter_EmptyReportIsEmptyArray(t *testing.T) {
	w := NewJSONWriter(zaptest.NewLogger(t))
	path := filepath.Join(t.TempDir(), "pothole_detections.json")

	require.NoError(t, w.Write(context.Background(), nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(data))
}

func TestJSONWriter_WritesRecordSchema(t *testing.T) {
	w := NewJSONWriter(zaptest.NewLogger(t))
	path := filepath.Join(t.TempDir(), "nested", "report.json")

	records := []entity.DetectionRecord{{
		Latitude:   -6.9729215,
		Longitude:  110.3904476,
		Heading:    90,
		StreetName: "Jalan Pemuda",
		PanoramaID: "pano-1",
		DistanceKm: 0.25,
		Detections: []entity.Detection{{
			Box:        entity.BoundingBox{X1: 1, Y1: 2, X2: 3, Y2: 4},
			Confidence: 0.82,
			Class:      "road-pothole",
		}},
		AnnotatedImage: "street_view_images/street_view_detection/a_0_90.jpg",
	}}

	require.NoError(t, w.Write(context.Background(), records, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `[{
		"latitude": -6.9729215,
		"longitude": 110.3904476,
		"heading": 90,
		"street_name": "Jalan Pemuda",
		"panorama_id": "pano-1",
		"distance_km": 0.25,
		"detections": [{"bbox": [1, 2, 3, 4], "confidence": 0.82, "class": "road-pothole"}],
		"annotated_image": "street_view_images/street_view_detection/a_0_90.jpg"
	}]`, string(data))
}

func TestJSONWriter_OverwritesExistingFile(t *testing.T) {
	w := NewJSONWriter(zaptest.NewLogger(t))
	path := filepath.Join(t.TempDir(), "report.json")

	long := make([]entity.DetectionRecord, 20)
	for i := range long {
		long[i] = entity.DetectionRecord{StreetName: entity.UnknownStreet, Detections: []entity.Detection{}}
	}
	require.NoError(t, w.Write(context.Background(), long, path))
	require.NoError(t, w.Write(context.Background(), []entity.DetectionRecord{{StreetName: "Jalan Baru"}}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []entity.DetectionRecord
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	require.Equal(t, "Jalan Baru", got[0].StreetName)
}

func TestJSONWriter_UnwritableDestination(t *testing.T) {
	w := NewJSONWriter(zaptest.NewLogger(t))
	dir := t.TempDir()

	// путь указывает на существующий каталог
	require.Error(t, w.Write(context.Background(), nil, dir))
}

func TestJSONWriter_FailedReplaceLeavesNoTempFiles(t *testing.T) {
	w := NewJSONWriter(zaptest.NewLogger(t))
	root := t.TempDir()
	dest := filepath.Join(root, "report.json")
	require.NoError(t, os.Mkdir(dest, 0o755))

	require.Error(t, w.Write(context.Background(), nil, dest))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "report.json", entries[0].Name())
}

func TestJSONWriter_FailedWriteKeepsPreviousReport(t *testing.T) {
	w := NewJSONWriter(zaptest.NewLogger(t))
	root := t.TempDir()
	path := filepath.Join(root, "report.json")

	require.NoError(t, w.Write(context.Background(), []entity.DetectionRecord{{StreetName: "Jalan Pemuda"}}, path))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	broken := []entity.DetectionRecord{{Detections: []entity.Detection{{Confidence: math.NaN()}}}}
	require.Error(t, w.Write(context.Background(), broken, path))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
