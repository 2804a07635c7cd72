package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pothole-scan/internal/domain/entity"
)

type fakeImagery struct {
	failCapture map[int]bool // по порядковому номеру вызова Capture
	noCoverage  map[int]bool // по индексу точки
	street      string
	streetErr   error

	captures []entity.CaptureRequest
	geocoded int
	panos    int
}

func (f *fakeImagery) PanoramaID(ctx context.Context, c entity.Coordinate) (string, error) {
	idx := f.panos
	f.panos++
	if f.noCoverage[idx] {
		return "", entity.ErrNoCoverage
	}
	return fmt.Sprintf("pano-%d", idx), nil
}

func (f *fakeImagery) StreetName(ctx context.Context, c entity.Coordinate) (string, error) {
	f.geocoded++
	return f.street, f.streetErr
}

func (f *fakeImagery) Capture(ctx context.Context, req entity.CaptureRequest) (*entity.CapturedImage, error) {
	call := len(f.captures)
	f.captures = append(f.captures, req)
	if f.failCapture[call] {
		return nil, fmt.Errorf("%w: status 403", entity.ErrCaptureFailed)
	}
	return &entity.CapturedImage{Request: req, Image: image.NewNRGBA(image.Rect(0, 0, 640, 640))}, nil
}

type fakeDetector struct {
	results    []*entity.DetectionResult // по порядковому номеру вызова, последний повторяется
	err        error
	thresholds []float64
}

func (f *fakeDetector) Detect(ctx context.Context, img image.Image, threshold float64) (*entity.DetectionResult, error) {
	f.thresholds = append(f.thresholds, threshold)
	if f.err != nil {
		return nil, f.err
	}
	i := len(f.thresholds) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i], nil
}

type fakeImageStore struct {
	names []string
	err   error
}

func (f *fakeImageStore) SaveAnnotated(ctx context.Context, name string, img image.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "detections/" + name, nil
}

type fakeReportWriter struct {
	records     []entity.DetectionRecord
	destination string
	calls       int
	err         error
}

func (f *fakeReportWriter) Write(ctx context.Context, records []entity.DetectionRecord, destination string) error {
	f.calls++
	f.records = records
	f.destination = destination
	return f.err
}

func pothole(conf float64) *entity.DetectionResult {
	return &entity.DetectionResult{
		Detections: []entity.Detection{{
			Box:        entity.BoundingBox{X1: 100, Y1: 320, X2: 220, Y2: 400},
			Confidence: conf,
			Class:      "road-pothole",
		}},
		Annotated: image.NewNRGBA(image.Rect(0, 0, 640, 640)),
	}
}

func empty() *entity.DetectionResult { return &entity.DetectionResult{} }

type pipelineFixture struct {
	imagery  *fakeImagery
	detector *fakeDetector
	images   *fakeImageStore
	reports  *fakeReportWriter
	svc      *PipelineService
}

func newFixture(t *testing.T, headingsPerPoint int, results ...*entity.DetectionResult) *pipelineFixture {
	f := &pipelineFixture{
		imagery:  &fakeImagery{street: "Jalan Pemuda"},
		detector: &fakeDetector{results: results},
		images:   &fakeImageStore{},
		reports:  &fakeReportWriter{},
	}
	f.svc = NewPipelineService(
		NewGeoSampler(rand.New(rand.NewPCG(11, 12))),
		f.imagery, f.detector, f.images, f.reports,
		PipelineOptions{HeadingsPerPoint: headingsPerPoint, ReportPath: "out/pothole_detections.json"},
		zaptest.NewLogger(t),
	)
	return f
}

func radiusRequest() entity.ScanRequest {
	return entity.ScanRequest{
		Center:     semarang,
		RadiusKm:   0.5,
		Count:      5,
		Mode:       entity.ModeRadius,
		Confidence: 0.5,
	}
}

func TestPipeline_SingleDetectionProducesRecord(t *testing.T) {
	f := newFixture(t, 1, pothole(0.82), empty())
	req := radiusRequest()
	req.Count = 1

	report, err := f.svc.Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, report.Records, 1)

	rec := report.Records[0]
	require.Len(t, rec.Detections, 1)
	require.Equal(t, 0.82, rec.Detections[0].Confidence)
	require.Equal(t, "road-pothole", rec.Detections[0].Class)
	require.Equal(t, "Jalan Pemuda", rec.StreetName)
	require.Equal(t, "pano-0", rec.PanoramaID)
	require.Equal(t, 0, rec.Heading)
	require.NotEmpty(t, rec.AnnotatedImage)
	require.Equal(t, "detections/"+f.images.names[0], rec.AnnotatedImage)
	require.LessOrEqual(t, rec.DistanceKm, 0.5+1e-6)

	require.Equal(t, []float64{0.5}, f.detector.thresholds)
	require.Equal(t, 1, f.reports.calls)
	require.Equal(t, "out/pothole_detections.json", f.reports.destination)
	require.Equal(t, report.Records, f.reports.records)
}

func TestPipeline_CaptureFailureIsSkipped(t *testing.T) {
	f := newFixture(t, 1, pothole(0.9))
	f.imagery.failCapture = map[int]bool{2: true}

	report, err := f.svc.Run(context.Background(), radiusRequest())
	require.NoError(t, err)
	require.LessOrEqual(t, len(report.Records), 4)
	require.Len(t, report.Records, 4)
	require.Equal(t, 5, report.Samples)
	require.Equal(t, 4, report.Captured)
	require.Equal(t, 1, report.Skipped)
	require.Len(t, f.detector.thresholds, 4)
	require.Equal(t, 1, f.reports.calls)
}

func TestPipeline_RecordOnlyWhenDetectionsPresent(t *testing.T) {
	f := newFixture(t, 1, empty(), pothole(0.7), empty(), pothole(0.6), empty())

	report, err := f.svc.Run(context.Background(), radiusRequest())
	require.NoError(t, err)
	require.Len(t, report.Records, 2)
	require.Equal(t, 0.7, report.Records[0].Detections[0].Confidence)
	require.Equal(t, 0.6, report.Records[1].Detections[0].Confidence)
	require.Equal(t, f.imagery.captures[1].Coordinate, report.Records[0].Coordinate())
	require.Equal(t, f.imagery.captures[3].Coordinate, report.Records[1].Coordinate())
	// улица запрашивается только для снимков с дефектами
	require.Equal(t, 2, f.imagery.geocoded)
	require.Len(t, f.images.names, 2)
}

func TestPipeline_ZeroRecordsStillWritesReport(t *testing.T) {
	f := newFixture(t, 1, empty())

	report, err := f.svc.Run(context.Background(), radiusRequest())
	require.NoError(t, err)
	require.Empty(t, report.Records)
	require.NotNil(t, f.reports.records)
	require.Equal(t, 1, f.reports.calls)
	require.Zero(t, f.imagery.geocoded)
}

func TestPipeline_UnknownStreet(t *testing.T) {
	f := newFixture(t, 1, pothole(0.8))
	f.imagery.street = entity.UnknownStreet

	report, err := f.svc.Run(context.Background(), radiusRequest())
	require.NoError(t, err)
	require.NotEmpty(t, report.Records)
	for _, rec := range report.Records {
		require.Equal(t, entity.UnknownStreet, rec.StreetName)
	}
}

func TestPipeline_GeocodingErrorFallsBackToSentinel(t *testing.T) {
	f := newFixture(t, 1, pothole(0.8))
	f.imagery.street = ""
	f.imagery.streetErr = fmt.Errorf("%w: OVER_QUERY_LIMIT", entity.ErrGeocoding)

	report, err := f.svc.Run(context.Background(), radiusRequest())
	require.NoError(t, err)
	require.Len(t, report.Records, 5)
	for _, rec := range report.Records {
		require.Equal(t, entity.UnknownStreet, rec.StreetName)
	}
}

func TestPipeline_NoCoverageSkipsAllHeadingsOfPoint(t *testing.T) {
	f := newFixture(t, 4, pothole(0.8))
	f.imagery.noCoverage = map[int]bool{1: true}

	report, err := f.svc.Run(context.Background(), radiusRequest())
	require.NoError(t, err)
	require.Equal(t, 20, report.Samples)
	require.Equal(t, 4, report.Skipped)
	require.Equal(t, 16, report.Captured)
	require.Len(t, report.Records, 16)
	for _, c := range f.imagery.captures {
		require.NotEqual(t, 1, c.Index)
	}
	require.Equal(t, []int{0, 90, 180, 270}, []int{
		f.imagery.captures[0].Heading, f.imagery.captures[1].Heading,
		f.imagery.captures[2].Heading, f.imagery.captures[3].Heading,
	})
}

func TestPipeline_HeadingsMode(t *testing.T) {
	f := newFixture(t, 1, empty(), pothole(0.8))
	req := radiusRequest()
	req.Mode = entity.ModeHeadings
	req.Count = 4
	req.RadiusKm = 0

	report, err := f.svc.Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, f.imagery.captures, 4)
	for i, c := range f.imagery.captures {
		require.Equal(t, semarang, c.Coordinate)
		require.Equal(t, i*90, c.Heading)
	}
	require.Equal(t, 1, f.imagery.panos)
	require.Len(t, report.Records, 3)
	require.Equal(t, 90, report.Records[0].Heading)
	require.Zero(t, report.Records[0].DistanceKm)
}

func TestPipeline_DetectorErrorIsSkipped(t *testing.T) {
	f := newFixture(t, 1)
	f.detector.err = errors.New("inference failed with status: 500")

	report, err := f.svc.Run(context.Background(), radiusRequest())
	require.NoError(t, err)
	require.Empty(t, report.Records)
	require.Equal(t, 5, report.Skipped)
	require.Equal(t, 1, f.reports.calls)
}

func TestPipeline_AnnotatedSaveFailureKeepsRecord(t *testing.T) {
	f := newFixture(t, 1, pothole(0.8))
	f.images.err = errors.New("disk full")

	report, err := f.svc.Run(context.Background(), radiusRequest())
	require.NoError(t, err)
	require.Len(t, report.Records, 5)
	require.Empty(t, report.Records[0].AnnotatedImage)
}

func TestPipeline_InvalidRequestRejectedBeforeSampling(t *testing.T) {
	f := newFixture(t, 1, pothole(0.8))
	req := radiusRequest()
	req.Count = 0

	_, err := f.svc.Run(context.Background(), req)
	require.ErrorIs(t, err, entity.ErrInvalidCount)
	require.Zero(t, f.imagery.panos)
	require.Empty(t, f.imagery.captures)
	require.Zero(t, f.reports.calls)
}

func TestPipeline_ReportWriteFailure(t *testing.T) {
	f := newFixture(t, 1, empty())
	f.reports.err = errors.New("permission denied")

	_, err := f.svc.Run(context.Background(), radiusRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "write report")
}

func TestPipeline_RequestReportPathOverridesDefault(t *testing.T) {
	f := newFixture(t, 1, empty())
	req := radiusRequest()
	req.ReportPath = "runs/abc.json"

	report, err := f.svc.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "runs/abc.json", report.ReportPath)
	require.Equal(t, "runs/abc.json", f.reports.destination)
}

func TestPipeline_NoDetector(t *testing.T) {
	svc := NewPipelineService(NewGeoSampler(nil), &fakeImagery{}, nil, &fakeImageStore{}, &fakeReportWriter{},
		PipelineOptions{}, zaptest.NewLogger(t))

	_, err := svc.Run(context.Background(), radiusRequest())
	require.Error(t, err)
}
