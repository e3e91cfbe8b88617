package dbusapi

import "shotwell-facedetect/internal/domain/entity"

// Сигнатуры ответов на шине.
const (
	FacesSignature  = "a(ddddad)"
	VectorSignature = "ad"
)

// WireFace одно лицо в ответе DetectFaces, на шине это структура (ddddad).
type WireFace struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Vector []float64
}

// EncodeFaces переводит лица в массив a(ddddad), порядок детектора сохраняется.
func EncodeFaces(faces []entity.FaceRect) []WireFace {
	out := make([]WireFace, 0, len(faces))
	for _, f := range faces {
		out = append(out, WireFace{
			X:      f.X,
			Y:      f.Y,
			Width:  f.Width,
			Height: f.Height,
			Vector: EncodeVector(f.Vector),
		})
	}
	return out
}

// EncodeVector переводит вектор в массив ad; пустой вектор остаётся пустым массивом.
func EncodeVector(vec entity.EmbeddingVector) []float64 {
	out := make([]float64, len(vec))
	copy(out, vec)
	return out
}

// DecodeFaces восстанавливает лица из ответа, как это делает клиент.
func DecodeFaces(wire []WireFace) []entity.FaceRect {
	out := make([]entity.FaceRect, 0, len(wire))
	for _, w := range wire {
		out = append(out, entity.FaceRect{
			X:      w.X,
			Y:      w.Y,
			Width:  w.Width,
			Height: w.Height,
			Vector: DecodeVector(w.Vector),
		})
	}
	return out
}

// DecodeVector восстанавливает вектор из массива ad.
func DecodeVector(wire []float64) entity.EmbeddingVector {
	out := make(entity.EmbeddingVector, len(wire))
	copy(out, wire)
	return out
}
