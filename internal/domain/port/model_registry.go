package port

import (
	"context"

	"shotwell-facedetect/internal/domain/entity"
)

// ModelRegistry интерфейс хранилища сведений об активной модели
type ModelRegistry interface {
	// Active возвращает активную модель, ok=false если модель ещё не загружалась
	Active(ctx context.Context) (entity.ModelInfo, bool)

	// SetActive запоминает успешно загруженную модель
	SetActive(ctx context.Context, model entity.ModelInfo) error
}
