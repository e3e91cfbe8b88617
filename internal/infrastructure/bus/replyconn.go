package bus

import (
	"bytes"
	"net"

	"github.com/godbus/dbus/v5"
)

// replyConn транспорт соединения, который после успешной записи кадра
// сообщает серийный номер вызова, на который этот кадр отвечает.
// godbus пишет каждое сообщение одним Write, поэтому кадр разбирается целиком.
type replyConn struct {
	net.Conn
	watching func() bool
	written  func(replySerial uint32)
}

func (c *replyConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if err != nil || n != len(p) || !c.watching() {
		return n, err
	}
	if serial, ok := replySerial(p); ok {
		c.written(serial)
	}
	return n, nil
}

// replySerial достаёт REPLY_SERIAL из кадра ответа или ошибки.
func replySerial(frame []byte) (uint32, bool) {
	if len(frame) < 16 {
		return 0, false
	}
	if t := dbus.Type(frame[1]); t != dbus.TypeMethodReply && t != dbus.TypeError {
		return 0, false
	}
	msg, err := dbus.DecodeMessage(bytes.NewReader(frame))
	if err != nil {
		return 0, false
	}
	serial, ok := msg.Headers[dbus.FieldReplySerial].Value().(uint32)
	return serial, ok
}
