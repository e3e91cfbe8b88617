package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/domain/port"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDetector ведёт себя как библиотека детекции с набором известных моделей.
type fakeDetector struct {
	faces     []entity.FaceRect
	detectErr error
	known     map[string]int // путь модели -> размерность
	active    *entity.ModelInfo
	calls     int
}

func newFakeDetector() *fakeDetector {
	return &fakeDetector{known: map[string]int{"openface.t7": 4, "wide.t7": 8}}
}

func (f *fakeDetector) Detect(ctx context.Context, req entity.DetectionRequest) ([]entity.FaceRect, error) {
	f.calls++
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	out := make([]entity.FaceRect, 0, len(f.faces))
	for _, face := range f.faces {
		if req.Infer && f.active != nil {
			face.Vector = f.vector(req.Image)
		}
		out = append(out, face)
	}
	return out, nil
}

func (f *fakeDetector) LoadModel(ctx context.Context, path string) (entity.ModelInfo, error) {
	dim, ok := f.known[path]
	if !ok {
		return entity.ModelInfo{}, errors.New("cannot open " + path)
	}
	f.active = &entity.ModelInfo{Path: path, Dimension: dim}
	return *f.active, nil
}

func (f *fakeDetector) Embed(ctx context.Context, image string) (entity.EmbeddingVector, error) {
	if f.active == nil {
		return nil, entity.ErrModelUnavailable
	}
	return f.vector(image), nil
}

func (f *fakeDetector) Close() error { return nil }

func (f *fakeDetector) vector(image string) entity.EmbeddingVector {
	vec := make(entity.EmbeddingVector, f.active.Dimension)
	for i := range vec {
		vec[i] = float64(len(image)*(i+1)) / 100
	}
	return vec
}

type fakeRegistry struct {
	active *entity.ModelInfo
}

func (r *fakeRegistry) Active(ctx context.Context) (entity.ModelInfo, bool) {
	if r.active == nil {
		return entity.ModelInfo{}, false
	}
	return *r.active, true
}

func (r *fakeRegistry) SetActive(ctx context.Context, model entity.ModelInfo) error {
	r.active = &model
	return nil
}

type fakeStopper struct {
	reasons []string
}

func (s *fakeStopper) RequestStop(reason string) {
	s.reasons = append(s.reasons, reason)
}

// fakeEndpoint отдаёт события, которые подкладывает тест.
type fakeEndpoint struct {
	mu        sync.Mutex
	events    chan port.BusEvent
	openErr   error
	exportErr error
	exported  any
	closed    bool
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{events: make(chan port.BusEvent, 8)}
}

func (e *fakeEndpoint) Open(ctx context.Context) error { return e.openErr }

func (e *fakeEndpoint) Events() <-chan port.BusEvent { return e.events }

func (e *fakeEndpoint) Export(handler any, introspectXML string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exportErr != nil {
		return e.exportErr
	}
	e.exported = handler
	return nil
}

func (e *fakeEndpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeEndpoint) exportedHandler() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exported
}
