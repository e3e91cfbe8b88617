package entity

import (
	"fmt"
	"math"
)

// DetectionRequest хранит аргументы одного вызова детекции.
type DetectionRequest struct {
	Image   string  // путь к изображению
	Cascade string  // путь или идентификатор каскада
	Scale   float64 // во сколько раз уменьшить изображение перед поиском, больше нуля
	Infer   bool    // считать ли векторы признаков для найденных лиц
}

// Validate проверяет аргументы запроса до вызова детектора.
// Пустые пути не ошибка протокола: такое изображение просто нельзя открыть.
func (r DetectionRequest) Validate() error {
	if math.IsNaN(r.Scale) || math.IsInf(r.Scale, 0) || r.Scale <= 0 {
		return fmt.Errorf("%w: scale must be a positive number, got %v", ErrInvalidArgument, r.Scale)
	}
	return nil
}

// HasPaths сообщает, заданы ли изображение и каскад.
func (r DetectionRequest) HasPaths() bool {
	return r.Image != "" && r.Cascade != ""
}
