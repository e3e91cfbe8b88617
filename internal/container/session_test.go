package container

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"

	dbusapi "shotwell-facedetect/internal/api"
	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/infrastructure/bus"
	"shotwell-facedetect/internal/infrastructure/storage"
)

func newSessionService(t *testing.T) *Container {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ep, err := bus.NewEndpoint(bus.Options{
		ReplyMember:    dbusapi.TerminateMember,
		RedialInterval: time.Second,
	}, bus.NewSameUserAuthorizer(logger), logger)
	require.NoError(t, err)
	return New(ep, &oneFaceDetector{}, storage.NewMemoryModelRegistry(), 2*time.Second, logger)
}

func requireDBusError(t *testing.T, name string, err error) {
	t.Helper()
	var dbusErr dbus.Error
	require.ErrorAs(t, err, &dbusErr)
	require.Equal(t, name, dbusErr.Name)
}

// Запуск: dbus-run-session -- go test ./internal/container/
func TestContainer_SessionBus(t *testing.T) {
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("DBUS_SESSION_BUS_ADDRESS is not set")
	}

	c := newSessionService(t)
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()
	require.Eventually(t, func() bool { return c.Controller.State() == entity.StateRunning }, 5*time.Second, 10*time.Millisecond)

	client, err := dbus.ConnectSessionBus()
	require.NoError(t, err)
	defer client.Close()
	obj := client.Object(bus.ServiceName, bus.ObjectPath)
	method := func(name string) string { return bus.InterfaceName + "." + name }

	t.Run("introspection", func(t *testing.T) {
		var xml string
		require.NoError(t, obj.Call("org.freedesktop.DBus.Introspectable.Introspect", 0).Store(&xml))
		require.Contains(t, xml, `<method name="DetectFaces">`)
		require.Contains(t, xml, `type="a(ddddad)"`)
	})

	t.Run("detect faces", func(t *testing.T) {
		var faces []dbusapi.WireFace
		require.NoError(t, obj.Call(method("DetectFaces"), 0, "photo.jpg", "haar_default", 1.1, false).Store(&faces))
		require.Len(t, faces, 1)
		require.InDelta(t, 0.2, faces[0].X, 1e-9)
		require.InDelta(t, 0.4, faces[0].Width, 1e-9)
		require.Empty(t, faces[0].Vector)
	})

	t.Run("load net and embed", func(t *testing.T) {
		var ok bool
		require.NoError(t, obj.Call(method("LoadNet"), 0, "net.t7").Store(&ok))
		require.True(t, ok)

		var vec []float64
		require.NoError(t, obj.Call(method("FaceToVec"), 0, "face.png").Store(&vec))
		require.Equal(t, []float64{0.1, 0.2}, vec)
	})

	t.Run("wrong wire types", func(t *testing.T) {
		err := obj.Call(method("DetectFaces"), 0, "photo.jpg", "haar_default", int32(2), false).Err
		requireDBusError(t, dbusapi.ErrorInvalidArgs, err)

		err = obj.Call(method("DetectFaces"), 0, "photo.jpg", "haar_default", dbus.MakeVariant(2.0), false).Err
		requireDBusError(t, dbusapi.ErrorInvalidArgs, err)

		err = obj.Call(method("DetectFaces"), 0, "photo.jpg", "haar_default", -1.0, false).Err
		requireDBusError(t, dbusapi.ErrorInvalidArgs, err)
	})

	t.Run("second instance exits cleanly", func(t *testing.T) {
		other := newSessionService(t)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		require.NoError(t, other.Run(ctx))
		require.NoError(t, ctx.Err())
		require.Equal(t, entity.StateStopped, other.Controller.State())
	})

	require.NoError(t, obj.Call(method("Terminate"), 0).Err)
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after terminate")
	}
	require.Equal(t, entity.StateStopped, c.Controller.State())
}
