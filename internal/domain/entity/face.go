package entity

// EmbeddingVector вектор признаков лица, длина задаётся моделью.
type EmbeddingVector []float64

// FaceRect представляет одно найденное лицо
type FaceRect struct {
	X      float64         // координата X левого верхнего угла (доля ширины изображения)
	Y      float64         // координата Y левого верхнего угла (доля высоты изображения)
	Width  float64         // ширина области
	Height float64         // высота области
	Vector EmbeddingVector // вектор признаков, пустой если инференс не запрашивался
}

// HasVector сообщает, посчитан ли для лица вектор признаков
func (f FaceRect) HasVector() bool {
	return len(f.Vector) > 0
}

// ModelInfo описывает активную модель эмбеддингов.
type ModelInfo struct {
	Path      string // путь к файлу модели
	Dimension int    // размерность выходного вектора
}
