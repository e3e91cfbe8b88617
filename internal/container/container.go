package container

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dbusapi "shotwell-facedetect/internal/api"
	app "shotwell-facedetect/internal/application"
	"shotwell-facedetect/internal/domain/port"
)

type Container struct {
	Controller *app.Controller
	Faces      *dbusapi.Faces

	endpoint port.Endpoint
	detector port.FaceDetector
}

func New(endpoint port.Endpoint, detector port.FaceDetector, models port.ModelRegistry, ackTimeout time.Duration, logger *slog.Logger) *Container {
	controller := app.NewController(endpoint, ackTimeout, logger)
	dispatcher := app.NewDispatcher(detector, models, controller, logger)
	faces := dbusapi.NewFaces(dispatcher, controller, logger)

	return &Container{
		Controller: controller,
		Faces:      faces,
		endpoint:   endpoint,
		detector:   detector,
	}
}

// Run обслуживает шину до остановки, затем освобождает соединение и детектор.
func (c *Container) Run(ctx context.Context) error {
	err := c.Controller.Run(ctx, c.Faces, dbusapi.IntrospectXML)
	return errors.Join(err, c.Close())
}

// Close закрывает соединение и нативные ресурсы.
func (c *Container) Close() error {
	return errors.Join(c.endpoint.Close(), c.detector.Close())
}
