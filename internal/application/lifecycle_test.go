package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/domain/port"
)

type handlerStub struct{}

func startController(t *testing.T, ep *fakeEndpoint, ackTimeout time.Duration) (*Controller, chan error, context.CancelFunc) {
	t.Helper()
	c := NewController(ep, ackTimeout, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, handlerStub{}, "") }()
	return c, errCh, cancel
}

func waitRunning(t *testing.T, c *Controller, ep *fakeEndpoint) {
	t.Helper()
	ep.events <- port.BusEvent{Kind: port.EventNameAcquired, Name: "org.gnome.Shotwell.Faces1"}
	require.Eventually(t, func() bool { return c.State() == entity.StateRunning }, time.Second, time.Millisecond)
	require.Equal(t, handlerStub{}, ep.exportedHandler())
}

func waitResult(t *testing.T, errCh chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not exit")
		return nil
	}
}

func TestController_TerminateWaitsForReply(t *testing.T) {
	ep := newFakeEndpoint()
	c, errCh, cancel := startController(t, ep, time.Minute)
	defer cancel()
	waitRunning(t, c, ep)

	err := c.Do(context.Background(), func(ctx context.Context) error {
		c.RequestStop("terminate requested")
		return nil
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.State() == entity.StateStopping }, time.Second, time.Millisecond)
	select {
	case <-errCh:
		t.Fatal("run loop exited before the reply was sent")
	case <-time.After(20 * time.Millisecond):
	}

	ep.events <- port.BusEvent{Kind: port.EventReplySent, Serial: 7}
	require.NoError(t, waitResult(t, errCh))
	require.Equal(t, entity.StateStopped, c.State())
}

func TestController_TerminateReplyTimeout(t *testing.T) {
	ep := newFakeEndpoint()
	c, errCh, cancel := startController(t, ep, 10*time.Millisecond)
	defer cancel()
	waitRunning(t, c, ep)

	require.NoError(t, c.Do(context.Background(), func(ctx context.Context) error {
		c.RequestStop("terminate requested")
		return nil
	}))
	require.NoError(t, waitResult(t, errCh))
	require.Equal(t, entity.StateStopped, c.State())
}

func TestController_NameLostStops(t *testing.T) {
	ep := newFakeEndpoint()
	c, errCh, cancel := startController(t, ep, time.Second)
	defer cancel()
	waitRunning(t, c, ep)

	ep.events <- port.BusEvent{Kind: port.EventNameLost, Name: "org.gnome.Shotwell.Faces1"}
	require.NoError(t, waitResult(t, errCh))
	require.Equal(t, entity.StateStopped, c.State())

	err := c.Do(context.Background(), func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, ErrShuttingDown)
}

func TestController_NameDeniedBeforeAcquire(t *testing.T) {
	ep := newFakeEndpoint()
	c, errCh, cancel := startController(t, ep, time.Second)
	defer cancel()

	ep.events <- port.BusEvent{Kind: port.EventNameLost, Name: "org.gnome.Shotwell.Faces1"}
	require.NoError(t, waitResult(t, errCh))
	require.Equal(t, entity.StateStopped, c.State())
	require.Nil(t, ep.exportedHandler())
}

func TestController_ConnectionClosedStops(t *testing.T) {
	ep := newFakeEndpoint()
	c, errCh, cancel := startController(t, ep, time.Second)
	defer cancel()
	waitRunning(t, c, ep)

	close(ep.events)
	require.NoError(t, waitResult(t, errCh))
	require.Equal(t, entity.StateStopped, c.State())
}

func TestController_OpenFailureIsFatal(t *testing.T) {
	ep := newFakeEndpoint()
	ep.openErr = errors.New("no session bus")
	_, errCh, cancel := startController(t, ep, time.Second)
	defer cancel()

	err := waitResult(t, errCh)
	require.Error(t, err)
	require.ErrorContains(t, err, "no session bus")
}

func TestController_ExportFailureIsFatal(t *testing.T) {
	ep := newFakeEndpoint()
	ep.exportErr = errors.New("path already taken")
	_, errCh, cancel := startController(t, ep, time.Second)
	defer cancel()

	ep.events <- port.BusEvent{Kind: port.EventNameAcquired}
	require.ErrorContains(t, waitResult(t, errCh), "path already taken")
}

func TestController_PanicBecomesError(t *testing.T) {
	ep := newFakeEndpoint()
	c, errCh, cancel := startController(t, ep, time.Second)
	waitRunning(t, c, ep)

	err := c.Do(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})
	require.ErrorIs(t, err, ErrInternal)

	// цикл продолжает обслуживать вызовы
	require.NoError(t, c.Do(context.Background(), func(ctx context.Context) error { return nil }))
	require.Equal(t, entity.StateRunning, c.State())

	cancel()
	require.NoError(t, waitResult(t, errCh))
}

func TestController_CallsRunOneAtATime(t *testing.T) {
	ep := newFakeEndpoint()
	c, errCh, cancel := startController(t, ep, time.Second)
	waitRunning(t, c, ep)

	active, maxActive := 0, 0
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			results <- c.Do(context.Background(), func(ctx context.Context) error {
				active++
				if active > maxActive {
					maxActive = active
				}
				time.Sleep(time.Millisecond)
				active--
				return nil
			})
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-results)
	}
	require.Equal(t, 1, maxActive)

	cancel()
	require.NoError(t, waitResult(t, errCh))
}
