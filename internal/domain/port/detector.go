package port

import (
	"context"

	"shotwell-facedetect/internal/domain/entity"
)

// FaceDetector интерфейс внешней библиотеки детекции лиц
type FaceDetector interface {
	// Detect ищет лица на изображении; пустой список это нормальный результат
	Detect(ctx context.Context, req entity.DetectionRequest) ([]entity.FaceRect, error)

	// LoadModel заменяет активную модель эмбеддингов
	LoadModel(ctx context.Context, path string) (entity.ModelInfo, error)

	// Embed считает вектор признаков для всего изображения
	Embed(ctx context.Context, image string) (entity.EmbeddingVector, error)

	// Close освобождает нативные ресурсы
	Close() error
}
