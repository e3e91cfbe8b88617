package storage

import (
	"context"
	"errors"
	"sync"

	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/domain/port"
)

// MemoryModelRegistry in-memory хранилище сведений об активной модели
type MemoryModelRegistry struct {
	mu     sync.RWMutex
	active *entity.ModelInfo
}

// NewMemoryModelRegistry создаёт пустой реестр
func NewMemoryModelRegistry() *MemoryModelRegistry {
	return &MemoryModelRegistry{}
}

// Active возвращает активную модель
func (r *MemoryModelRegistry) Active(ctx context.Context) (entity.ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == nil {
		return entity.ModelInfo{}, false
	}
	return *r.active, true
}

// SetActive запоминает новую активную модель
func (r *MemoryModelRegistry) SetActive(ctx context.Context, model entity.ModelInfo) error {
	if model.Path == "" {
		return errors.New("model path is empty")
	}
	if model.Dimension < 0 {
		return errors.New("model dimension is negative")
	}

	r.mu.Lock()
	r.active = &model
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.ModelRegistry = (*MemoryModelRegistry)(nil)
