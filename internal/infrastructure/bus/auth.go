package bus

import (
	"errors"
	"log/slog"

	"shotwell-facedetect/internal/domain/entity"
)

// ErrPeerDenied пир не прошёл авторизацию.
var ErrPeerDenied = errors.New("peer is not authorized")

// SameUserAuthorizer пускает только процессы того же локального пользователя.
type SameUserAuthorizer struct {
	own    func() (entity.PeerCredential, error)
	logger *slog.Logger
}

// NewSameUserAuthorizer создаёт авторизатор, сравнивающий пира с текущим процессом.
func NewSameUserAuthorizer(logger *slog.Logger) *SameUserAuthorizer {
	return &SameUserAuthorizer{own: OwnCredential, logger: logger}
}

// Authorize решает, можно ли принимать вызовы от пира. peer == nil значит,
// что пир не предъявил учётных данных.
func (a *SameUserAuthorizer) Authorize(peer *entity.PeerCredential) bool {
	if peer == nil {
		a.logger.Warn("unable to authorize peer: no credentials")
		return false
	}
	a.logger.Debug("authorizing peer", "credentials", peer.String())

	own, err := a.own()
	if err != nil {
		a.logger.Warn("unable to authorize peer", "error", err)
		return false
	}
	if !peer.SameUser(own) {
		a.logger.Warn("unable to authorize peer: credentials belong to another user",
			"peer_uid", peer.UID,
			"own_uid", own.UID,
		)
		return false
	}
	return true
}
