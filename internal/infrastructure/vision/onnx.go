//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"pothole-scan/internal/domain/entity"
	"pothole-scan/internal/domain/port"
)

// ONNXDetector запускает YOLOv8 через модуль dnn OpenCV в текущем процессе
type ONNXDetector struct {
	mu          sync.Mutex // gocv.Net не допускает параллельный Forward
	net         gocv.Net
	params      gocv.ImageToBlobParams
	outputNames []string
	opts        ONNXOptions
	logger      *zap.Logger
}

// NewONNXDetector загружает модель один раз при старте
func NewONNXDetector(opts ONNXOptions, logger *zap.Logger) (*ONNXDetector, error) {
	net := gocv.ReadNetFromONNX(opts.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("load model %s: empty network", opts.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendOpenCV)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	outputNames := getOutputNames(&net)
	if len(outputNames) == 0 {
		net.Close()
		return nil, errors.New("model has no output layers")
	}

	// 1/255, letterbox до квадрата, серые поля
	params := gocv.NewImageToBlobParams(
		1.0/255.0,
		image.Pt(opts.InputSize, opts.InputSize),
		gocv.NewScalar(0, 0, 0, 0),
		true,
		gocv.MatTypeCV32F,
		gocv.DataLayoutNCHW,
		gocv.PaddingModeLetterbox,
		gocv.NewScalar(114, 114, 114, 0),
	)

	return &ONNXDetector{
		net:         net,
		params:      params,
		outputNames: outputNames,
		opts:        opts,
		logger:      logger.Named("detector"),
	}, nil
}

// Detect выполняет один проход сети. Рамки ниже threshold и чужих классов отбрасываются ещё до NMS.
func (d *ONNXDetector) Detect(ctx context.Context, img image.Image, threshold float64) (*entity.DetectionResult, error) {
	_ = ctx

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	blob := gocv.BlobFromImageWithParams(mat, d.params)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	outs := d.net.ForwardLayers(d.outputNames)
	d.mu.Unlock()
	defer func() {
		for _, out := range outs {
			out.Close()
		}
	}()
	if len(outs) == 0 {
		return nil, errors.New("model returned no outputs")
	}

	cands := keepClass(parseYOLOv8(outs[0], float32(threshold)), d.opts.Classes, d.opts.TargetClass)
	result := &entity.DetectionResult{Detections: make([]entity.Detection, 0)}
	if len(cands) == 0 {
		return result, nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i] = c.box
		scores[i] = c.score
	}

	rects := d.params.BlobRectsToImageRects(boxes, image.Pt(mat.Cols(), mat.Rows()))
	frame := image.Rect(0, 0, mat.Cols(), mat.Rows())
	for i := range rects {
		rects[i] = clipRect(rects[i], frame)
	}
	indices := gocv.NMSBoxes(rects, scores, float32(threshold), d.opts.NMSThreshold)

	for _, idx := range indices {
		r := rects[idx]
		if r.Empty() {
			continue
		}
		result.Detections = append(result.Detections, entity.Detection{
			Box: entity.BoundingBox{
				X1: float64(r.Min.X), Y1: float64(r.Min.Y),
				X2: float64(r.Max.X), Y2: float64(r.Max.Y),
			},
			Confidence: float64(scores[idx]),
			Class:      d.opts.TargetClass,
		})
	}

	if len(result.Detections) > 0 {
		annotated, err := highlight(mat, result.Detections)
		if err != nil {
			return nil, fmt.Errorf("annotate: %w", err)
		}
		result.Annotated = annotated
	}

	return result, nil
}

// Close освобождает сеть
func (d *ONNXDetector) Close() error {
	return d.net.Close()
}

// parseYOLOv8 разбирает выход [1, 4+nc, N]: cx, cy, w, h и оценки классов по каждому якорю
func parseYOLOv8(out gocv.Mat, threshold float32) []candidate {
	transposed := gocv.NewMat()
	defer transposed.Close()
	gocv.TransposeND(out, []int{0, 2, 1}, &transposed)

	sizes := transposed.Size()
	if len(sizes) != 3 || sizes[2] <= 4 {
		return nil
	}
	rows := transposed.Reshape(1, sizes[1])
	defer rows.Close()

	var cands []candidate
	for i := 0; i < rows.Rows(); i++ {
		classScores := rows.Region(image.Rect(4, i, rows.Cols(), i+1))
		_, maxScore, _, maxLoc := gocv.MinMaxLoc(classScores)
		classScores.Close()

		if maxScore < threshold {
			continue
		}

		cx := rows.GetFloatAt(i, 0)
		cy := rows.GetFloatAt(i, 1)
		w := rows.GetFloatAt(i, 2)
		h := rows.GetFloatAt(i, 3)

		cands = append(cands, candidate{
			box:     image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)),
			score:   maxScore,
			classID: maxLoc.X,
		})
	}

	return cands
}

// highlight рисует рамки на копии кадра и возвращает её как image.Image
func highlight(src gocv.Mat, detections []entity.Detection) (image.Image, error) {
	mat := src.Clone()
	defer mat.Close()

	red := color.RGBA{R: 255, G: 56, B: 56, A: 255}
	for _, det := range detections {
		rect := det.Box.Rect()
		gocv.Rectangle(&mat, rect, red, 2)
		label := fmt.Sprintf("%s %.2f", det.Class, det.Confidence)
		gocv.PutText(&mat, label, image.Pt(rect.Min.X, rect.Min.Y-4), gocv.FontHersheySimplex, 0.5, red, 1)
	}

	return mat.ToImage()
}

func getOutputNames(net *gocv.Net) []string {
	var outputLayers []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		layerName := layer.GetName()
		if layerName != "_input" {
			outputLayers = append(outputLayers, layerName)
		}
	}

	return outputLayers
}

// Проверка реализации интерфейса
var _ port.DefectDetector = (*ONNXDetector)(nil)
