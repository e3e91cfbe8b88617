//go:build !gocv && !goface
// +build !gocv,!goface

package vision

import (
	"context"
	"fmt"
	"log/slog"

	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/domain/port"
)

// Backend имя бэкенда, с которым собран бинарник.
const Backend = "stub"

var errNoBackend = fmt.Errorf("%w: built without gocv or goface tag", entity.ErrModelUnavailable)

// Detector заглушка без нативной библиотеки: сервис работает, но лиц не находит.
type Detector struct {
	cfg    Config
	logger *slog.Logger
}

// NewDetector создаёт детектор-заглушку.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	return &Detector{cfg: cfg, logger: logger}
}

// Detect возвращает ошибку, если сборка без тега gocv или goface.
func (d *Detector) Detect(ctx context.Context, req entity.DetectionRequest) ([]entity.FaceRect, error) {
	_ = ctx
	_ = req
	return nil, errNoBackend
}

// LoadModel возвращает ошибку, если сборка без тега gocv или goface.
func (d *Detector) LoadModel(ctx context.Context, path string) (entity.ModelInfo, error) {
	_ = ctx
	_ = path
	return entity.ModelInfo{}, errNoBackend
}

// Embed возвращает ошибку, если сборка без тега gocv или goface.
func (d *Detector) Embed(ctx context.Context, image string) (entity.EmbeddingVector, error) {
	_ = ctx
	_ = image
	return nil, errNoBackend
}

// Close ничего не освобождает.
func (d *Detector) Close() error {
	return nil
}

// Проверка реализации интерфейса
var _ port.FaceDetector = (*Detector)(nil)
