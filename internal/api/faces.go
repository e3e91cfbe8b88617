package dbusapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	app "shotwell-facedetect/internal/application"
	"shotwell-facedetect/internal/domain/entity"
)

// TerminateMember имя метода, ответ на который должен уйти до остановки цикла.
const TerminateMember = "Terminate"

// Сигнатуры входных аргументов. godbus приводит числа и разворачивает
// variant при декодировании, поэтому тип на проводе сверяется по заголовку.
const (
	detectFacesArgs = "ssdb"
	loadNetArgs     = "s"
	faceToVecArgs   = "s"
	terminateArgs   = ""
)

// Loop выполняет вызовы по одному в цикле сервиса.
type Loop interface {
	Do(ctx context.Context, fn app.CallFunc) error
}

// Faces объект, экспортируемый на шине. Каждый экспортируемый метод
// становится методом интерфейса org.gnome.Shotwell.Faces1.
type Faces struct {
	dispatcher *app.Dispatcher
	loop       Loop
	logger     *slog.Logger
}

// NewFaces создаёт объект интерфейса поверх диспетчера.
func NewFaces(dispatcher *app.Dispatcher, loop Loop, logger *slog.Logger) *Faces {
	return &Faces{
		dispatcher: dispatcher,
		loop:       loop,
		logger:     logger,
	}
}

// DetectFaces обрабатывает вызов DetectFaces(s, s, d, b) -> a(ddddad)
func (f *Faces) DetectFaces(msg dbus.Message, image string, cascade string, scale float64, infer bool) ([]WireFace, *dbus.Error) {
	if err := f.checkArgs(msg, "DetectFaces", detectFacesArgs); err != nil {
		return nil, err
	}
	req := entity.DetectionRequest{Image: image, Cascade: cascade, Scale: scale, Infer: infer}

	var faces []entity.FaceRect
	if err := f.invoke("DetectFaces", func(ctx context.Context) error {
		var err error
		faces, err = f.dispatcher.DetectFaces(ctx, req)
		return err
	}); err != nil {
		return nil, err
	}
	return EncodeFaces(faces), nil
}

// LoadNet обрабатывает вызов LoadNet(s) -> b
func (f *Faces) LoadNet(msg dbus.Message, net string) (bool, *dbus.Error) {
	if err := f.checkArgs(msg, "LoadNet", loadNetArgs); err != nil {
		return false, err
	}
	var ok bool
	if err := f.invoke("LoadNet", func(ctx context.Context) error {
		var err error
		ok, err = f.dispatcher.LoadNet(ctx, net)
		return err
	}); err != nil {
		return false, err
	}
	return ok, nil
}

// FaceToVec обрабатывает вызов FaceToVec(s) -> ad
func (f *Faces) FaceToVec(msg dbus.Message, image string) ([]float64, *dbus.Error) {
	if err := f.checkArgs(msg, "FaceToVec", faceToVecArgs); err != nil {
		return nil, err
	}
	var vec entity.EmbeddingVector
	if err := f.invoke("FaceToVec", func(ctx context.Context) error {
		var err error
		vec, err = f.dispatcher.FaceToVec(ctx, image)
		return err
	}); err != nil {
		return nil, err
	}
	return EncodeVector(vec), nil
}

// Terminate подтверждает вызов; цикл остановится после отправки ответа.
func (f *Faces) Terminate(msg dbus.Message) *dbus.Error {
	if err := f.checkArgs(msg, TerminateMember, terminateArgs); err != nil {
		return err
	}
	return f.invoke(TerminateMember, f.dispatcher.Terminate)
}

func (f *Faces) invoke(method string, fn app.CallFunc) *dbus.Error {
	callID := uuid.NewString()
	started := time.Now()
	f.logger.Debug("call started", "method", method, "call_id", callID)

	err := f.loop.Do(context.Background(), fn)
	if err != nil {
		f.logger.Warn("call failed", "method", method, "call_id", callID, "error", err)
		return toDBusError(err)
	}

	f.logger.Debug("call completed", "method", method, "call_id", callID, "took", time.Since(started))
	return nil
}

// checkArgs отклоняет вызов, если сигнатура тела не совпадает с объявленной.
func (f *Faces) checkArgs(msg dbus.Message, method, want string) *dbus.Error {
	got, _ := msg.Headers[dbus.FieldSignature].Value().(dbus.Signature)
	if got.String() == want {
		return nil
	}
	err := fmt.Errorf("%w: %s expects (%s), got (%s)", entity.ErrInvalidArgument, method, want, got.String())
	f.logger.Warn("call rejected", "method", method, "error", err)
	return toDBusError(err)
}
