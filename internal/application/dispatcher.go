package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/domain/port"
)

// ErrInternal непредвиденный сбой внутри обработчика.
var ErrInternal = errors.New("internal error")

// Stopper останавливает цикл сервиса после отправки ответа.
type Stopper interface {
	RequestStop(reason string)
}

// Dispatcher выполняет операции сервиса поверх детектора.
type Dispatcher struct {
	detector port.FaceDetector
	models   port.ModelRegistry
	stopper  Stopper
	logger   *slog.Logger
}

// NewDispatcher создаёт диспетчер операций детекции.
func NewDispatcher(detector port.FaceDetector, models port.ModelRegistry, stopper Stopper, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		detector: detector,
		models:   models,
		stopper:  stopper,
		logger:   logger,
	}
}

// DetectFaces ищет лица и при необходимости считает их векторы.
// Сбой детектора не считается ошибкой протокола: вызывающий получает пустой список.
func (d *Dispatcher) DetectFaces(ctx context.Context, req entity.DetectionRequest) ([]entity.FaceRect, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.HasPaths() {
		d.logger.Warn("image or cascade path is empty, returning no faces", "image", req.Image, "cascade", req.Cascade)
		return []entity.FaceRect{}, nil
	}
	if d.detector == nil {
		return nil, fmt.Errorf("%w: detector is not configured", ErrInternal)
	}

	faces, err := d.detector.Detect(ctx, req)
	if err != nil {
		if errors.Is(err, entity.ErrImageUnreadable) {
			d.logger.Warn("image cannot be opened, returning no faces", "image", req.Image, "error", err)
		} else {
			d.logger.Warn("detection failed, returning no faces", "image", req.Image, "cascade", req.Cascade, "error", err)
		}
		return []entity.FaceRect{}, nil
	}

	out := make([]entity.FaceRect, 0, len(faces))
	if !req.Infer {
		for _, f := range faces {
			f.Vector = nil
			out = append(out, f)
		}
		return out, nil
	}

	dim := d.activeDimension(ctx)
	for i, f := range faces {
		if len(f.Vector) != dim {
			return nil, fmt.Errorf("%w: face %d has %d-d vector, active model produces %d", ErrInternal, i, len(f.Vector), dim)
		}
		out = append(out, f)
	}

	for _, f := range out {
		if f.HasVector() {
			d.logger.Debug("returning face", "x", f.X, "y", f.Y, "last", f.Vector[len(f.Vector)-1])
		}
	}
	return out, nil
}

// LoadNet заменяет модель эмбеддингов; при неудаче прежняя модель остаётся активной.
func (d *Dispatcher) LoadNet(ctx context.Context, path string) (bool, error) {
	if path == "" {
		d.logger.Warn("failed to load net", "path", path, "error", "path is empty")
		return false, nil
	}
	if d.detector == nil {
		return false, fmt.Errorf("%w: detector is not configured", ErrInternal)
	}

	model, err := d.detector.LoadModel(ctx, path)
	if err != nil {
		d.logger.Warn("failed to load net", "path", path, "error", err)
		return false, nil
	}
	if err := d.models.SetActive(ctx, model); err != nil {
		d.logger.Error("failed to record active net", "path", path, "error", err)
		return false, nil
	}

	d.logger.Info("net loaded", "path", model.Path, "dimension", model.Dimension)
	return true, nil
}

// FaceToVec считает вектор признаков для изображения без поиска лиц.
func (d *Dispatcher) FaceToVec(ctx context.Context, image string) (entity.EmbeddingVector, error) {
	if image == "" {
		d.logger.Warn("image path is empty, returning empty vector")
		return entity.EmbeddingVector{}, nil
	}
	if d.detector == nil {
		return nil, fmt.Errorf("%w: detector is not configured", ErrInternal)
	}

	vec, err := d.detector.Embed(ctx, image)
	if err != nil {
		d.logger.Warn("embedding failed, returning empty vector", "image", image, "error", err)
		return entity.EmbeddingVector{}, nil
	}

	if dim := d.activeDimension(ctx); len(vec) != dim {
		return nil, fmt.Errorf("%w: embedding has %d values, active model produces %d", ErrInternal, len(vec), dim)
	}
	return vec, nil
}

// Terminate просит цикл сервиса остановиться после ответа на этот вызов.
func (d *Dispatcher) Terminate(ctx context.Context) error {
	_ = ctx
	d.logger.Debug("exiting")
	if d.stopper != nil {
		d.stopper.RequestStop("terminate requested")
	}
	return nil
}

func (d *Dispatcher) activeDimension(ctx context.Context) int {
	if d.models == nil {
		return 0
	}
	model, ok := d.models.Active(ctx)
	if !ok {
		return 0
	}
	return model.Dimension
}
