package dbusapi

import (
	"errors"

	"github.com/godbus/dbus/v5"

	app "shotwell-facedetect/internal/application"
	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/infrastructure/bus"
)

// Имена ошибок, которые получает вызывающий.
const (
	ErrorInvalidArgs  = bus.InterfaceName + ".Error.InvalidArgs"
	ErrorShuttingDown = bus.InterfaceName + ".Error.ShuttingDown"
	ErrorInternal     = bus.InterfaceName + ".Error.Internal"
)

// toDBusError переводит ошибку обработчика в ответ-ошибку протокола.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}

	name := ErrorInternal
	switch {
	case errors.Is(err, entity.ErrInvalidArgument):
		name = ErrorInvalidArgs
	case errors.Is(err, app.ErrShuttingDown):
		name = ErrorShuttingDown
	}
	return dbus.NewError(name, []interface{}{err.Error()})
}
