//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"

	"gocv.io/x/gocv"

	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/domain/port"
)

// Backend имя бэкенда, с которым собран бинарник.
const Backend = "gocv"

// Detector ищет лица каскадом Хаара и считает векторы сетью OpenCV DNN.
type Detector struct {
	cfg      Config
	logger   *slog.Logger
	cascades map[string]*gocv.CascadeClassifier
	net      *gocv.Net
	model    entity.ModelInfo
}

// NewDetector создаёт детектор без загруженной сети.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:      cfg,
		logger:   logger,
		cascades: make(map[string]*gocv.CascadeClassifier),
	}
}

// Detect уменьшает изображение в scale раз, ищет лица и при infer считает векторы.
func (d *Detector) Detect(ctx context.Context, req entity.DetectionRequest) ([]entity.FaceRect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := readImage(req.Image)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	classifier, err := d.cascade(req.Cascade)
	if err != nil {
		return nil, err
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	small := gocv.NewMat()
	defer small.Close()
	fx := 1 / req.Scale
	gocv.Resize(gray, &small, image.Point{}, fx, fx, gocv.InterpolationLinear)
	if small.Empty() || small.Cols() == 0 || small.Rows() == 0 {
		return []entity.FaceRect{}, nil
	}

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(small, &equalized)

	minSize := image.Pt(d.cfg.MinFaceSize, d.cfg.MinFaceSize)
	rects := classifier.DetectMultiScaleWithParams(equalized, 1.1, d.cfg.MinNeighbors, 0, minSize, image.Point{})

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	faces := make([]entity.FaceRect, 0, len(rects))
	for _, r := range rects {
		face := normalizeRect(r, small.Cols(), small.Rows())
		if req.Infer && d.net != nil {
			vec, err := d.embedRegion(img, scaleRect(r, req.Scale, bounds))
			if err != nil {
				return nil, fmt.Errorf("embed face: %w", err)
			}
			face.Vector = vec
		}
		faces = append(faces, face)
	}
	return faces, nil
}

// LoadModel читает сеть и пробным прогоном узнаёт размерность вектора.
// При ошибке прежняя сеть остаётся активной.
func (d *Detector) LoadModel(ctx context.Context, path string) (entity.ModelInfo, error) {
	if err := ctx.Err(); err != nil {
		return entity.ModelInfo{}, err
	}
	if _, err := os.Stat(path); err != nil {
		return entity.ModelInfo{}, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
	}

	net := gocv.ReadNet(path, "")
	if net.Empty() {
		net.Close()
		return entity.ModelInfo{}, fmt.Errorf("%w: cannot read net %s", entity.ErrModelUnavailable, path)
	}

	probe := gocv.NewMatWithSize(d.cfg.EmbedSide, d.cfg.EmbedSide, gocv.MatTypeCV8UC3)
	defer probe.Close()
	vec, err := d.forward(&net, probe)
	if err != nil || len(vec) == 0 {
		net.Close()
		return entity.ModelInfo{}, fmt.Errorf("%w: net %s produced no output", entity.ErrModelUnavailable, path)
	}

	if d.net != nil {
		d.net.Close()
	}
	d.net = &net
	d.model = entity.ModelInfo{Path: path, Dimension: len(vec)}
	return d.model, nil
}

// Embed считает вектор для всего изображения.
func (d *Detector) Embed(ctx context.Context, imagePath string) (entity.EmbeddingVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.net == nil {
		return nil, entity.ErrModelUnavailable
	}

	img, err := readImage(imagePath)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	return d.forward(d.net, img)
}

// Close освобождает каскады и сеть.
func (d *Detector) Close() error {
	for path, c := range d.cascades {
		c.Close()
		delete(d.cascades, path)
	}
	if d.net != nil {
		d.net.Close()
		d.net = nil
	}
	return nil
}

func (d *Detector) cascade(id string) (*gocv.CascadeClassifier, error) {
	if c, ok := d.cascades[id]; ok {
		return c, nil
	}

	path, err := resolveCascade(d.cfg.CascadeDir, id)
	if err != nil {
		return nil, err
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: cannot load %s", entity.ErrCascadeUnavailable, path)
	}
	d.logger.Debug("cascade loaded", "cascade", id, "path", path)
	d.cascades[id] = &classifier
	return &classifier, nil
}

func (d *Detector) embedRegion(img gocv.Mat, rect image.Rectangle) (entity.EmbeddingVector, error) {
	if rect.Empty() {
		return nil, errors.New("face region is empty")
	}
	region := img.Region(rect)
	defer region.Close()
	return d.forward(d.net, region)
}

func (d *Detector) forward(net *gocv.Net, img gocv.Mat) (entity.EmbeddingVector, error) {
	side := image.Pt(d.cfg.EmbedSide, d.cfg.EmbedSide)
	blob := gocv.BlobFromImage(img, 1.0/255, side, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	out := net.Forward("")
	defer out.Close()
	if out.Empty() {
		return nil, errors.New("net returned empty output")
	}

	values, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read net output: %w", err)
	}
	return toVector(values), nil
}

// readImage открывает изображение с диска.
func readImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %s", entity.ErrImageUnreadable, path)
	}
	return img, nil
}

// Проверка реализации интерфейса
var _ port.FaceDetector = (*Detector)(nil)
