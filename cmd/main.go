package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"pothole-scan/config"
	telegram "pothole-scan/internal/api"
	app "pothole-scan/internal/application"
	"pothole-scan/internal/container"
	"pothole-scan/internal/domain/entity"
	"pothole-scan/internal/domain/port"
	"pothole-scan/internal/infrastructure/report"
	"pothole-scan/internal/infrastructure/storage"
	"pothole-scan/internal/infrastructure/streetview"
	"pothole-scan/internal/infrastructure/vision"
)

const detectionDir = "street_view_detection"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(cfg, logger).RunContext(ctx, os.Args); err != nil {
		logger.Fatal("exit", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newApp(cfg *config.Config, logger *zap.Logger) *cli.App {
	return &cli.App{
		Name:  "pothole-scan",
		Usage: "find road potholes on street-level imagery around a point",
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "run a single scan and write a JSON report",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "lat", Value: -6.9729215, Usage: "center latitude"},
					&cli.Float64Flag{Name: "lon", Value: 110.3904476, Usage: "center longitude"},
					&cli.Float64Flag{Name: "radius", Value: cfg.RadiusKm, Usage: "sampling radius, km (radius mode)"},
					&cli.IntFlag{Name: "points", Value: cfg.NumPoints, Usage: "number of points (radius mode) or headings (headings mode)"},
					&cli.Float64Flag{Name: "conf", Value: cfg.Confidence, Usage: "detector confidence threshold"},
					&cli.StringFlag{Name: "mode", Value: string(entity.ModeRadius), Usage: "radius or headings"},
					&cli.StringFlag{Name: "report", Usage: "report path (default OUTPUT_DIR/REPORT_FILE)"},
				},
				Action: func(c *cli.Context) error {
					return runScan(c, cfg, logger)
				},
			},
			{
				Name:  "bot",
				Usage: "run the Telegram bot",
				Action: func(c *cli.Context) error {
					return runBot(c.Context, cfg, logger)
				},
			},
		},
	}
}

func runScan(c *cli.Context, cfg *config.Config, logger *zap.Logger) error {
	mode, err := entity.ParseScanMode(c.String("mode"))
	if err != nil {
		return err
	}
	center, err := entity.NewCoordinate(c.Float64("lat"), c.Float64("lon"))
	if err != nil {
		return err
	}

	svc, closeFn, err := buildContainer(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	scan, err := svc.PipelineService.Run(c.Context, entity.ScanRequest{
		Center:     center,
		RadiusKm:   c.Float64("radius"),
		Count:      c.Int("points"),
		Mode:       mode,
		Confidence: c.Float64("conf"),
		ReportPath: c.String("report"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %d/%d captures, %d with potholes, report %s\n",
		scan.RunID, scan.Captured, scan.Samples, len(scan.Records), scan.ReportPath)
	return nil
}

func runBot(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	svc, closeFn, err := buildContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	bot, err := telegram.NewBot(cfg.TelegramToken, svc.UserService, svc.PipelineService, telegram.ScanDefaults{
		RadiusKm:   cfg.RadiusKm,
		NumPoints:  cfg.NumPoints,
		Confidence: cfg.Confidence,
		ReportDir:  filepath.Join(cfg.OutputDir, "reports"),
	}, logger)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	logger.Info("bot is running")
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildContainer собирает адаптеры и сервисы; детектор создаётся один раз на процесс
func buildContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*container.Container, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	imageryOpts := streetview.DefaultOptions(cfg.APIKey)
	imageryOpts.StreetViewURL = cfg.StreetViewURL
	imageryOpts.GeocodingURL = cfg.GeocodingURL

	detector, closeFn, err := newDetector(ctx, cfg, httpClient, logger)
	if err != nil {
		return nil, nil, err
	}

	c := container.New(container.Deps{
		Users:    storage.NewMemoryUserRepository(),
		Imagery:  streetview.NewClient(httpClient, imageryOpts, logger),
		Detector: detector,
		Images:   report.NewFileImageStore(filepath.Join(cfg.OutputDir, detectionDir)),
		Reports:  report.NewJSONWriter(logger),
	}, app.PipelineOptions{
		HeadingsPerPoint: cfg.HeadingsPerPoint,
		ReportPath:       filepath.Join(cfg.OutputDir, cfg.ReportFile),
	}, logger)

	return c, closeFn, nil
}

func newDetector(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *zap.Logger) (port.DefectDetector, func(), error) {
	switch cfg.Detector {
	case "onnx":
		opts := vision.DefaultONNXOptions(cfg.ModelPath, cfg.ModelClasses, cfg.TargetClass)
		d, err := vision.NewONNXDetector(opts, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("load onnx detector: %w", err)
		}
		return d, func() { d.Close() }, nil

	default:
		d := vision.NewRemoteDetector(httpClient, cfg.InferenceURL, cfg.TargetClass, logger)
		if err := d.CheckHealth(ctx); err != nil {
			logger.Warn("ML service not available", zap.Error(err))
		}
		return d, func() {}, nil
	}
}
