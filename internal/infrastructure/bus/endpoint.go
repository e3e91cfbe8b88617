package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"shotwell-facedetect/internal/domain/entity"
	"shotwell-facedetect/internal/domain/port"
)

const (
	// ServiceName известное имя сервиса на сессионной шине.
	ServiceName = "org.gnome.Shotwell.Faces1"
	// InterfaceName интерфейс экспортируемого объекта.
	InterfaceName = "org.gnome.Shotwell.Faces1"
	// ObjectPath путь экспортируемого объекта.
	ObjectPath = dbus.ObjectPath("/org/gnome/shotwell/faces")

	nameLostSignal = "org.freedesktop.DBus.NameLost"
	eventBuffer    = 16
)

// Mode выбирает способ подключения один раз при запуске.
type Mode int

const (
	ModeSessionBus Mode = iota // владеем именем на сессионной шине
	ModeDirect                 // прямое соединение по адресу
)

func (m Mode) String() string {
	if m == ModeDirect {
		return "direct"
	}
	return "session"
}

// Options настройки точки подключения.
type Options struct {
	Address        string        // при пустом адресе используется сессионная шина
	RedialInterval time.Duration // пауза перед повторным подключением после отказа пиру
	ReplyMember    string        // метод, об отправке ответа на который сообщается событием
}

// Authorizer решает, пускать ли пира на прямом соединении.
type Authorizer interface {
	Authorize(peer *entity.PeerCredential) bool
}

// Endpoint единственное на процесс подключение к шине.
type Endpoint struct {
	mode       Mode
	address    Address
	opts       Options
	authorizer Authorizer
	logger     *slog.Logger

	conn   *dbus.Conn
	events chan port.BusEvent

	closeOnce sync.Once
	closed    chan struct{}

	mu      sync.Mutex
	watched map[uint32]struct{}
}

// NewEndpoint проверяет адрес и выбирает режим. Ошибка здесь означает ошибку конфигурации.
func NewEndpoint(opts Options, authorizer Authorizer, logger *slog.Logger) (*Endpoint, error) {
	e := &Endpoint{
		mode:       ModeSessionBus,
		opts:       opts,
		authorizer: authorizer,
		logger:     logger,
		events:     make(chan port.BusEvent, eventBuffer),
		closed:     make(chan struct{}),
		watched:    make(map[uint32]struct{}),
	}
	if opts.Address == "" {
		return e, nil
	}

	addr, err := ParseAddress(opts.Address)
	if err != nil {
		return nil, err
	}
	if _, ok := addr.UnixSocket(); !ok {
		return nil, fmt.Errorf("address %q: only unix:path= and unix:abstract= carry peer credentials", opts.Address)
	}
	if authorizer == nil {
		return nil, errors.New("direct mode requires a peer authorizer")
	}
	e.mode = ModeDirect
	e.address = addr
	return e, nil
}

// Mode возвращает выбранный режим.
func (e *Endpoint) Mode() Mode {
	return e.mode
}

// Events возвращает канал событий транспорта.
func (e *Endpoint) Events() <-chan port.BusEvent {
	return e.events
}

// Open устанавливает соединение в выбранном режиме.
func (e *Endpoint) Open(ctx context.Context) error {
	switch e.mode {
	case ModeDirect:
		e.logger.Debug("starting on private bus", "address", e.address.Raw)
		return e.openDirect(ctx)
	default:
		e.logger.Debug("starting on session bus", "name", ServiceName)
		return e.openSession(ctx)
	}
}

func (e *Endpoint) openSession(ctx context.Context) error {
	addr, err := sessionAddress()
	if err != nil {
		return fmt.Errorf("failed to get connection on session bus: %w", err)
	}
	path, _ := addr.UnixSocket()

	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("failed to get connection on session bus: %w", err)
	}
	conn, err := e.handshake(nc, addr.Raw)
	if err != nil {
		return err
	}
	if err := conn.Hello(); err != nil {
		conn.Close()
		return fmt.Errorf("hello on session bus: %w", err)
	}
	e.conn = conn
	e.watchSignals()

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameLost"),
	); err != nil {
		e.logger.Warn("failed to subscribe to NameLost", "error", err)
	}

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("request name %s: %w", ServiceName, err)
	}

	switch reply {
	case dbus.RequestNameReplyPrimaryOwner, dbus.RequestNameReplyAlreadyOwner:
		e.emit(port.BusEvent{Kind: port.EventNameAcquired, Name: ServiceName})
	default:
		e.emit(port.BusEvent{
			Kind: port.EventNameLost,
			Name: ServiceName,
			Err:  fmt.Errorf("name request answered with code %d", reply),
		})
	}
	return nil
}

// openDirect подключается к адресу; пока пир не проходит авторизацию,
// соединение закрывается и через RedialInterval устанавливается снова.
func (e *Endpoint) openDirect(ctx context.Context) error {
	for {
		conn, err := e.dialDirect(ctx)
		if err == nil {
			e.conn = conn
			e.watchSignals()
			e.emit(port.BusEvent{Kind: port.EventNameAcquired, Name: e.address.Raw})
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, ErrPeerDenied) {
			return err
		}

		e.logger.Warn("peer rejected, waiting for a valid peer",
			"address", e.address.Raw,
			"retry_in", e.opts.RedialInterval,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.opts.RedialInterval):
		}
	}
}

func (e *Endpoint) dialDirect(ctx context.Context) (*dbus.Conn, error) {
	path, _ := e.address.UnixSocket()

	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection on private bus %s: %w", e.address.Raw, err)
	}

	peer, err := peerCredential(nc.(*net.UnixConn))
	if err != nil {
		e.logger.Debug("peer presented no credentials", "error", err)
		peer = nil
	}
	if !e.authorizer.Authorize(peer) {
		nc.Close()
		return nil, ErrPeerDenied
	}

	return e.handshake(nc, e.address.Raw)
}

// handshake поднимает D-Bus поверх уже установленного сокета. Запись идёт
// через replyConn, чтобы об ответе на ReplyMember узнавать после записи.
func (e *Endpoint) handshake(nc net.Conn, raw string) (*dbus.Conn, error) {
	wrapped := &replyConn{Conn: nc, watching: e.watching, written: e.replyWritten}
	conn, err := dbus.NewConn(wrapped, dbus.WithIncomingInterceptor(e.interceptIncoming))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create connection on %s: %w", raw, err)
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("authenticate on %s: %w", raw, err)
	}
	return conn, nil
}

// sessionAddress ищет адрес сессионной шины так же, как libdbus:
// переменная окружения, затем $XDG_RUNTIME_DIR/bus.
func sessionAddress() (Address, error) {
	raw := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	if raw == "" || raw == "autolaunch:" {
		raw = ""
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			if _, err := os.Stat(filepath.Join(dir, "bus")); err == nil {
				raw = "unix:path=" + filepath.Join(dir, "bus")
			}
		}
	}
	if raw == "" {
		return Address{}, errors.New("session bus address is not set")
	}

	addr, err := ParseAddress(raw)
	if err != nil {
		return Address{}, err
	}
	if _, ok := addr.UnixSocket(); !ok {
		return Address{}, fmt.Errorf("session bus address %q is not a unix socket", raw)
	}
	return addr, nil
}

// Export публикует handler и его описание для introspection.
func (e *Endpoint) Export(handler any, introspectXML string) error {
	if e.conn == nil {
		return errors.New("endpoint is not open")
	}
	if err := e.conn.Export(handler, ObjectPath, InterfaceName); err != nil {
		return fmt.Errorf("failed to export interface: %w", err)
	}
	if introspectXML != "" {
		if err := e.conn.Export(introspect.Introspectable(introspectXML), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
			return fmt.Errorf("failed to export introspection: %w", err)
		}
	}
	return nil
}

// Close разрывает соединение. Повторные вызовы безопасны.
func (e *Endpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closed)
		if e.conn != nil {
			err = e.conn.Close()
		}
	})
	return err
}

// watchSignals превращает NameLost и закрытие канала сигналов
// (godbus закрывает его при разрыве соединения) в события.
func (e *Endpoint) watchSignals() {
	signals := make(chan *dbus.Signal, eventBuffer)
	e.conn.Signal(signals)

	go func() {
		for sig := range signals {
			if sig.Name != nameLostSignal || len(sig.Body) == 0 {
				continue
			}
			if name, _ := sig.Body[0].(string); name == ServiceName {
				e.emit(port.BusEvent{Kind: port.EventNameLost, Name: name})
			}
		}
		e.emit(port.BusEvent{
			Kind: port.EventNameLost,
			Name: ServiceName,
			Err:  errors.New("bus connection closed"),
		})
	}()
}

// interceptIncoming запоминает серийные номера вызовов ReplyMember.
func (e *Endpoint) interceptIncoming(msg *dbus.Message) {
	if msg.Type != dbus.TypeMethodCall || e.opts.ReplyMember == "" {
		return
	}
	if member, _ := msg.Headers[dbus.FieldMember].Value().(string); member != e.opts.ReplyMember {
		return
	}
	e.mu.Lock()
	e.watched[msg.Serial()] = struct{}{}
	e.mu.Unlock()
}

func (e *Endpoint) watching() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.watched) > 0
}

// replyWritten вызывается из replyConn, когда кадр ответа уже записан в сокет.
func (e *Endpoint) replyWritten(serial uint32) {
	e.mu.Lock()
	_, watched := e.watched[serial]
	delete(e.watched, serial)
	e.mu.Unlock()

	if watched {
		e.emit(port.BusEvent{Kind: port.EventReplySent, Serial: serial})
	}
}

func (e *Endpoint) emit(ev port.BusEvent) {
	select {
	case e.events <- ev:
	case <-e.closed:
	}
}

// Проверка реализации интерфейса
var _ port.Endpoint = (*Endpoint)(nil)
