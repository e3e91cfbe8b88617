//go:build linux

package bus

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"shotwell-facedetect/internal/domain/entity"
)

// OwnCredential возвращает учётные данные текущего процесса.
func OwnCredential() (entity.PeerCredential, error) {
	return entity.PeerCredential{
		PID: int32(unix.Getpid()),
		UID: uint32(unix.Getuid()),
		GID: uint32(unix.Getgid()),
	}, nil
}

// peerCredential читает SO_PEERCRED процесса на другом конце сокета.
func peerCredential(conn *net.UnixConn) (*entity.PeerCredential, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("raw socket: %w", err)
	}

	var (
		cred    *unix.Ucred
		credErr error
	)
	if err := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return nil, fmt.Errorf("socket control: %w", err)
	}
	if credErr != nil {
		return nil, fmt.Errorf("getsockopt SO_PEERCRED: %w", credErr)
	}

	return &entity.PeerCredential{PID: cred.Pid, UID: cred.Uid, GID: cred.Gid}, nil
}
