package entity

import "fmt"

// PeerCredential учётные данные процесса на другом конце сокета.
type PeerCredential struct {
	PID int32
	UID uint32
	GID uint32
}

// SameUser сообщает, принадлежат ли оба процесса одному локальному пользователю.
func (c PeerCredential) SameUser(other PeerCredential) bool {
	return c.UID == other.UID
}

func (c PeerCredential) String() string {
	return fmt.Sprintf("pid=%d uid=%d gid=%d", c.PID, c.UID, c.GID)
}
