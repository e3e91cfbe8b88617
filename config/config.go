package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Address        string        // приватный адрес D-Bus вместо сессионной шины
	Debug          bool          // подробный лог
	AckTimeout     time.Duration // сколько ждать отправки ответа на Terminate
	RedialInterval time.Duration // пауза перед переподключением после отказа пиру
	CascadeDir     string        // каталог каскадов Хаара
	MinNeighbors   int
	MinFaceSize    int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		Address:        os.Getenv("FACEDETECT_ADDRESS"),
		AckTimeout:     2 * time.Second,
		RedialInterval: time.Second,
		CascadeDir:     os.Getenv("FACEDETECT_CASCADE_DIR"),
		MinNeighbors:   2,
		MinFaceSize:    30,
	}

	var err error
	if cfg.Debug, err = envBool("FACEDETECT_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.AckTimeout, err = envDuration("FACEDETECT_ACK_TIMEOUT", cfg.AckTimeout); err != nil {
		return nil, err
	}
	if cfg.RedialInterval, err = envDuration("FACEDETECT_REDIAL_INTERVAL", cfg.RedialInterval); err != nil {
		return nil, err
	}
	if cfg.MinNeighbors, err = envInt("FACEDETECT_MIN_NEIGHBORS", cfg.MinNeighbors); err != nil {
		return nil, err
	}
	if cfg.MinFaceSize, err = envInt("FACEDETECT_MIN_FACE_SIZE", cfg.MinFaceSize); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения до любого обращения к шине.
func (c *Config) Validate() error {
	if c.AckTimeout <= 0 {
		return errors.New("ack timeout must be positive")
	}
	if c.RedialInterval <= 0 {
		return errors.New("redial interval must be positive")
	}
	if c.MinNeighbors < 0 {
		return errors.New("min neighbors must not be negative")
	}
	if c.MinFaceSize < 0 {
		return errors.New("min face size must not be negative")
	}
	return nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
