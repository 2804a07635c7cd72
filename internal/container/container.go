package container

import (
	"math/rand/v2"

	"go.uber.org/zap"

	app "pothole-scan/internal/application"
	"pothole-scan/internal/domain/port"
)

type Container struct {
	UserService     *app.UserService
	PipelineService *app.PipelineService
}

// Deps внешние адаптеры, которые собираются в main
type Deps struct {
	Users    port.UserRepository
	Imagery  port.ImageryProvider
	Detector port.DefectDetector
	Images   port.ImageStore
	Reports  port.ReportWriter
}

func New(deps Deps, opts app.PipelineOptions, logger *zap.Logger) *Container {
	userService := app.NewUserService(deps.Users)
	sampler := app.NewGeoSampler(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	pipelineService := app.NewPipelineService(sampler, deps.Imagery, deps.Detector, deps.Images, deps.Reports, opts, logger)

	return &Container{
		UserService:     userService,
		PipelineService: pipelineService,
	}
}
