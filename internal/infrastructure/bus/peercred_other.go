//go:build !linux

package bus

import (
	"errors"
	"net"

	"shotwell-facedetect/internal/domain/entity"
)

var errNoPeerCred = errors.New("peer credentials are not supported on this platform")

// OwnCredential на платформах без SO_PEERCRED не поддерживается.
func OwnCredential() (entity.PeerCredential, error) {
	return entity.PeerCredential{}, errNoPeerCred
}

func peerCredential(conn *net.UnixConn) (*entity.PeerCredential, error) {
	_ = conn
	return nil, errNoPeerCred
}
