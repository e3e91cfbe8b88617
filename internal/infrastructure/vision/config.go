package vision

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"shotwell-facedetect/internal/domain/entity"
)

// Config параметры детектора, общие для всех бэкендов.
type Config struct {
	CascadeDir   string // где искать каскады, заданные идентификатором
	MinNeighbors int    // minNeighbors для DetectMultiScale
	MinFaceSize  int    // минимальная сторона лица в пикселях уменьшенного изображения
	EmbedSide    int    // сторона входа сети эмбеддингов
}

// DefaultConfig возвращает параметры, с которыми работает клиент по умолчанию.
func DefaultConfig() Config {
	return Config{
		MinNeighbors: 2,
		MinFaceSize:  30,
		EmbedSide:    96,
	}
}

// normalizeRect переводит прямоугольник в доли размеров изображения.
func normalizeRect(r image.Rectangle, width, height int) entity.FaceRect {
	if width <= 0 || height <= 0 {
		return entity.FaceRect{}
	}
	w, h := float64(width), float64(height)
	return entity.FaceRect{
		X:      float64(r.Min.X) / w,
		Y:      float64(r.Min.Y) / h,
		Width:  float64(r.Dx()) / w,
		Height: float64(r.Dy()) / h,
	}
}

// scaleRect переносит прямоугольник с уменьшенного изображения на исходное.
func scaleRect(r image.Rectangle, scale float64, bounds image.Rectangle) image.Rectangle {
	scaled := image.Rect(
		int(float64(r.Min.X)*scale),
		int(float64(r.Min.Y)*scale),
		int(float64(r.Max.X)*scale),
		int(float64(r.Max.Y)*scale),
	)
	return scaled.Intersect(bounds)
}

func toVector(values []float32) entity.EmbeddingVector {
	vec := make(entity.EmbeddingVector, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}
	return vec
}

// resolveCascade находит файл каскада: путь как есть, затем в CascadeDir,
// затем в CascadeDir с расширением .xml.
func resolveCascade(dir, id string) (string, error) {
	candidates := []string{id}
	if dir != "" && !filepath.IsAbs(id) {
		candidates = append(candidates, filepath.Join(dir, id), filepath.Join(dir, id+".xml"))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", entity.ErrCascadeUnavailable, id)
}
