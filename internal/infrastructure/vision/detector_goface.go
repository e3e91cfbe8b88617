//go:build goface && !gocv
// +build goface,!gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	face "github.com/Kagami/go-face"

	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/domain/port"
)

// Backend имя бэкенда, с которым собран бинарник.
const Backend = "goface"

const descriptorSize = len(face.Descriptor{})

// Detector ищет лица и считает дескрипторы через dlib (go-face).
// Каскад и scale этим бэкендом не используются: у dlib свой детектор.
type Detector struct {
	cfg    Config
	logger *slog.Logger
	rec    *face.Recognizer
	model  entity.ModelInfo
}

// NewDetector создаёт детектор; модели подгружаются вызовом LoadModel.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	return &Detector{cfg: cfg, logger: logger}
}

// Detect ищет лица на изображении.
func (d *Detector) Detect(ctx context.Context, req entity.DetectionRequest) ([]entity.FaceRect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.rec == nil {
		return nil, entity.ErrModelUnavailable
	}

	width, height, err := imageSize(req.Image)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("cascade and scale are ignored by go-face", "cascade", req.Cascade, "scale", req.Scale)

	found, err := d.rec.RecognizeFile(req.Image)
	if err != nil {
		return nil, fmt.Errorf("recognize %s: %w", req.Image, err)
	}

	faces := make([]entity.FaceRect, 0, len(found))
	for _, f := range found {
		rect := normalizeRect(f.Rectangle, width, height)
		if req.Infer {
			rect.Vector = toVector(f.Descriptor[:])
		}
		faces = append(faces, rect)
	}
	return faces, nil
}

// LoadModel открывает каталог моделей dlib; путь к файлу модели тоже подходит.
func (d *Detector) LoadModel(ctx context.Context, path string) (entity.ModelInfo, error) {
	if err := ctx.Err(); err != nil {
		return entity.ModelInfo{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return entity.ModelInfo{}, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
	}
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}

	rec, err := face.NewRecognizer(dir)
	if err != nil {
		return entity.ModelInfo{}, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
	}

	if d.rec != nil {
		d.rec.Close()
	}
	d.rec = rec
	d.model = entity.ModelInfo{Path: path, Dimension: descriptorSize}
	return d.model, nil
}

// Embed считает дескриптор единственного лица на изображении.
func (d *Detector) Embed(ctx context.Context, imagePath string) (entity.EmbeddingVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.rec == nil {
		return nil, entity.ErrModelUnavailable
	}
	if _, _, err := imageSize(imagePath); err != nil {
		return nil, err
	}

	f, err := d.rec.RecognizeSingleFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("recognize %s: %w", imagePath, err)
	}
	if f == nil {
		return nil, errors.New("image does not contain exactly one face")
	}
	return toVector(f.Descriptor[:]), nil
}

// Close освобождает распознаватель.
func (d *Detector) Close() error {
	if d.rec != nil {
		d.rec.Close()
		d.rec = nil
	}
	return nil
}

func imageSize(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", entity.ErrImageUnreadable, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", entity.ErrImageUnreadable, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Проверка реализации интерфейса
var _ port.FaceDetector = (*Detector)(nil)
