package entity

import "errors"

var (
	// ErrInvalidArgument аргументы вызова не прошли проверку.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrImageUnreadable изображение не удалось открыть или декодировать.
	ErrImageUnreadable = errors.New("image cannot be read")
	// ErrCascadeUnavailable каскад не найден или не загрузился.
	ErrCascadeUnavailable = errors.New("cascade is unavailable")
	// ErrModelUnavailable модель эмбеддингов не загружена.
	ErrModelUnavailable = errors.New("embedding model is unavailable")
)
