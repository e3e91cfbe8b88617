package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/domain/port"
)

// ErrShuttingDown сервис уже останавливается и вызовы не принимает.
var ErrShuttingDown = errors.New("service is shutting down")

// CallFunc выполняется в цикле сервиса строго по одному.
type CallFunc func(ctx context.Context) error

type call struct {
	fn     CallFunc
	result chan error
}

// Controller владеет циклом сервиса: события шины и вызовы методов
// обрабатываются в одной горутине по очереди.
type Controller struct {
	endpoint   port.Endpoint
	logger     *slog.Logger
	ackTimeout time.Duration

	calls chan call
	done  chan struct{}

	mu    sync.RWMutex
	state entity.ServiceState

	// трогаются только из горутины цикла
	stopRequested bool
	stopReason    string
}

// NewController создаёт контроллер поверх точки подключения к шине.
func NewController(endpoint port.Endpoint, ackTimeout time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		endpoint:   endpoint,
		logger:     logger,
		ackTimeout: ackTimeout,
		calls:      make(chan call),
		done:       make(chan struct{}),
		state:      entity.StateStarting,
	}
}

// State возвращает текущее состояние сервиса.
func (c *Controller) State() entity.ServiceState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Do ставит вызов в цикл и ждёт его завершения.
func (c *Controller) Do(ctx context.Context, fn CallFunc) error {
	cl := call{fn: fn, result: make(chan error, 1)}

	select {
	case c.calls <- cl:
	case <-c.done:
		return ErrShuttingDown
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cl.result:
		return err
	case <-c.done:
		return ErrShuttingDown
	}
}

// RequestStop вызывается из обработчика внутри цикла: цикл остановится,
// как только ответ на текущий вызов уйдёт вызывающему.
func (c *Controller) RequestStop(reason string) {
	c.stopRequested = true
	c.stopReason = reason
}

// Run подключается к шине, экспортирует handler и крутит цикл до Terminate,
// потери имени или отмены ctx. Ошибка означает сбой запуска.
func (c *Controller) Run(ctx context.Context, handler any, introspectXML string) error {
	defer close(c.done)

	if err := c.endpoint.Open(ctx); err != nil {
		if ctx.Err() != nil {
			c.logger.Info("startup cancelled", "error", err)
			c.setState(entity.StateStopping)
			c.setState(entity.StateStopped)
			return nil
		}
		return fmt.Errorf("open bus endpoint: %w", err)
	}

	events := c.endpoint.Events()
	for {
		// вызовы принимаются только после экспорта объекта
		var calls chan call
		if c.State().Accepting() {
			calls = c.calls
		}

		select {
		case <-ctx.Done():
			c.stop("context cancelled")
			return nil

		case ev, ok := <-events:
			if !ok {
				c.stop("bus connection closed")
				return nil
			}
			switch ev.Kind {
			case port.EventNameAcquired:
				if c.State() != entity.StateStarting {
					continue
				}
				c.logger.Debug("got name", "name", ev.Name)
				if err := c.endpoint.Export(handler, introspectXML); err != nil {
					return fmt.Errorf("export interface: %w", err)
				}
				c.setState(entity.StateRunning)
			case port.EventNameLost:
				if ev.Err != nil {
					c.logger.Warn("connection for name lost", "name", ev.Name, "error", ev.Err)
				} else {
					c.logger.Debug("connection for name lost", "name", ev.Name)
				}
				c.stop("name lost")
				return nil
			default:
				c.logger.Debug("bus event ignored", "event", ev.Kind.String(), "serial", ev.Serial)
			}

		case cl := <-calls:
			c.execute(ctx, cl)
			if c.stopRequested {
				c.setState(entity.StateStopping)
				c.awaitReply(ctx, events)
				c.setState(entity.StateStopped)
				c.logger.Info("service stopped", "reason", c.stopReason)
				return nil
			}
		}
	}
}

func (c *Controller) execute(ctx context.Context, cl call) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panicked", "panic", r)
			cl.result <- fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	cl.result <- cl.fn(ctx)
}

// awaitReply ждёт, пока ответ на Terminate будет записан в соединение.
func (c *Controller) awaitReply(ctx context.Context, events <-chan port.BusEvent) {
	timer := time.NewTimer(c.ackTimeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case port.EventReplySent:
				c.logger.Debug("terminate reply sent", "serial", ev.Serial)
				return
			case port.EventNameLost:
				return
			}
		case cl := <-c.calls:
			cl.result <- ErrShuttingDown
		case <-timer.C:
			c.logger.Warn("terminate reply not observed before timeout", "timeout", c.ackTimeout)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) stop(reason string) {
	c.setState(entity.StateStopping)
	c.setState(entity.StateStopped)
	c.logger.Info("service stopped", "reason", reason)
}

func (c *Controller) setState(next entity.ServiceState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.CanTransition(next) {
		c.logger.Debug("state transition skipped", "from", c.state, "to", next)
		return
	}
	c.logger.Debug("state changed", "from", c.state, "to", next)
	c.state = next
}
