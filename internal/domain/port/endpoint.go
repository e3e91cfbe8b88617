package port

import "context"

// BusEventKind тип события транспорта
type BusEventKind int

const (
	EventNameAcquired BusEventKind = iota // имя получено или прямое соединение установлено
	EventNameLost                         // имя потеряно или соединение разорвано
	EventReplySent                        // ответ на Terminate ушёл в сокет
)

func (k BusEventKind) String() string {
	switch k {
	case EventNameAcquired:
		return "name-acquired"
	case EventNameLost:
		return "name-lost"
	case EventReplySent:
		return "reply-sent"
	default:
		return "unknown"
	}
}

// BusEvent событие от транспорта для цикла жизненного цикла
type BusEvent struct {
	Kind   BusEventKind
	Name   string // имя на шине или адрес
	Serial uint32 // серийный номер вызова, на который ушёл ответ
	Err    error  // причина потери соединения, если известна
}

// Endpoint интерфейс точки подключения к шине
type Endpoint interface {
	// Open устанавливает соединение; ошибка фатальна для процесса
	Open(ctx context.Context) error

	// Events возвращает канал событий транспорта
	Events() <-chan BusEvent

	// Export публикует объект с методами на шине
	Export(handler any, introspectXML string) error

	// Close разрывает соединение
	Close() error
}
