package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pothole-scan/internal/domain/entity"
	"pothole-scan/internal/domain/port"
)

// PipelineOptions параметры прогона, не зависящие от конкретного запроса
type PipelineOptions struct {
	HeadingsPerPoint int    // сколько направлений снимать в каждой случайной точке
	ReportPath       string // куда писать отчёт, если в запросе путь не задан
}

// PipelineService проводит сканирование: выбор точек, съёмка, детекция, отчёт.
// Всё выполняется последовательно в вызывающей горутине.
type PipelineService struct {
	sampler  *GeoSampler
	imagery  port.ImageryProvider
	detector port.DefectDetector
	images   port.ImageStore
	reports  port.ReportWriter
	opts     PipelineOptions
	logger   *zap.Logger
}

// NewPipelineService создаёт сервис сканирования. Детектор загружается вызывающей стороной заранее.
func NewPipelineService(
	sampler *GeoSampler,
	imagery port.ImageryProvider,
	detector port.DefectDetector,
	images port.ImageStore,
	reports port.ReportWriter,
	opts PipelineOptions,
	logger *zap.Logger,
) *PipelineService {
	if opts.HeadingsPerPoint < 1 {
		opts.HeadingsPerPoint = 1
	}
	return &PipelineService{
		sampler:  sampler,
		imagery:  imagery,
		detector: detector,
		images:   images,
		reports:  reports,
		opts:     opts,
		logger:   logger.Named("pipeline"),
	}
}

// station точка съёмки со списком направлений
type station struct {
	index      int
	coordinate entity.Coordinate
	headings   []int
}

// Run выполняет один прогон. Ошибку возвращает только при неверном запросе
// или если не удалось записать отчёт; сбои отдельных снимков пропускаются.
func (s *PipelineService) Run(ctx context.Context, req entity.ScanRequest) (*entity.ScanReport, error) {
	if s.detector == nil {
		return nil, errors.New("detector is not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stations, err := s.plan(req)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("mode", string(req.Mode)))
	logger.Info("scan started",
		zap.Stringer("center", req.Center),
		zap.Float64("radius_km", req.RadiusKm),
		zap.Int("count", req.Count),
		zap.Float64("confidence", req.Confidence),
	)

	report := &entity.ScanReport{
		RunID:   runID,
		Records: make([]entity.DetectionRecord, 0),
	}

	for _, st := range stations {
		report.Samples += len(st.headings)

		panoID, err := s.imagery.PanoramaID(ctx, st.coordinate)
		if err != nil {
			logger.Warn("no coverage, skipping point",
				zap.Int("index", st.index), zap.Stringer("coordinate", st.coordinate), zap.Error(err))
			report.Skipped += len(st.headings)
			continue
		}

		for _, heading := range st.headings {
			capture := entity.CaptureRequest{Index: st.index, Coordinate: st.coordinate, Heading: heading}
			record, ok := s.processCapture(ctx, logger, runID, req, capture, panoID)
			if !ok {
				report.Skipped++
				continue
			}
			report.Captured++
			if record != nil {
				report.Records = append(report.Records, *record)
			}
		}
	}

	report.ReportPath = req.ReportPath
	if report.ReportPath == "" {
		report.ReportPath = s.opts.ReportPath
	}
	if err := s.reports.Write(ctx, report.Records, report.ReportPath); err != nil {
		return report, fmt.Errorf("write report: %w", err)
	}

	logger.Info("scan finished",
		zap.Int("samples", report.Samples),
		zap.Int("captured", report.Captured),
		zap.Int("skipped", report.Skipped),
		zap.Int("records", len(report.Records)),
		zap.String("report", report.ReportPath),
	)
	return report, nil
}

// plan раскладывает запрос в точки и направления съёмки
func (s *PipelineService) plan(req entity.ScanRequest) ([]station, error) {
	switch req.Mode {
	case entity.ModeHeadings:
		headings, err := s.sampler.HeadingsAround(req.Count)
		if err != nil {
			return nil, err
		}
		return []station{{index: 0, coordinate: req.Center, headings: headings}}, nil

	case entity.ModeRadius:
		points, err := s.sampler.Sample(req.Center, req.RadiusKm, req.Count)
		if err != nil {
			return nil, err
		}
		headings, err := s.sampler.HeadingsAround(s.opts.HeadingsPerPoint)
		if err != nil {
			return nil, err
		}
		stations := make([]station, len(points))
		for i, p := range points {
			stations[i] = station{index: i, coordinate: p, headings: headings}
		}
		return stations, nil
	}
	return nil, fmt.Errorf("%w: %q", entity.ErrInvalidMode, req.Mode)
}

// processCapture снимает, прогоняет детектор и собирает запись.
// ok=false: снимок пропущен; record=nil: дефектов нет.
func (s *PipelineService) processCapture(
	ctx context.Context,
	logger *zap.Logger,
	runID string,
	req entity.ScanRequest,
	capture entity.CaptureRequest,
	panoID string,
) (record *entity.DetectionRecord, ok bool) {
	fields := []zap.Field{
		zap.Int("index", capture.Index),
		zap.Stringer("coordinate", capture.Coordinate),
		zap.Int("heading", capture.Heading),
	}

	img, err := s.imagery.Capture(ctx, capture)
	if err != nil {
		logger.Warn("capture failed, skipping", append(fields, zap.Error(err))...)
		return nil, false
	}

	result, err := s.detector.Detect(ctx, img.Image, req.Confidence)
	if err != nil {
		logger.Warn("detection failed, skipping", append(fields, zap.Error(err))...)
		return nil, false
	}
	if !result.HasDetections() {
		logger.Debug("no defects", fields...)
		return nil, true
	}

	street, err := s.imagery.StreetName(ctx, capture.Coordinate)
	if err != nil {
		logger.Warn("reverse geocoding failed", append(fields, zap.Error(err))...)
	}
	if street == "" {
		street = entity.UnknownStreet
	}

	var annotatedRef string
	if result.Annotated != nil {
		name := fmt.Sprintf("%s_street_view_%d_%d.jpg", runID[:8], capture.Index, capture.Heading)
		annotatedRef, err = s.images.SaveAnnotated(ctx, name, result.Annotated)
		if err != nil {
			logger.Error("save annotated image", append(fields, zap.Error(err))...)
			annotatedRef = ""
		}
	}

	logger.Info("defects found", append(fields,
		zap.Int("detections", len(result.Detections)),
		zap.String("street", street),
	)...)

	return &entity.DetectionRecord{
		Latitude:       capture.Coordinate.Latitude,
		Longitude:      capture.Coordinate.Longitude,
		Heading:        capture.Heading,
		StreetName:     street,
		PanoramaID:     panoID,
		DistanceKm:     req.Center.DistanceKm(capture.Coordinate),
		Detections:     result.Detections,
		AnnotatedImage: annotatedRef,
	}, true
}
