package telegram

import (
	"context"

	"github.com/abelikov/keywatch/internal/domain"
)

// SessionClient is the surface downstream handlers need from a live
// session.
type SessionClient interface {
	Name() string
	Dialogs(ctx context.Context) ([]domain.Dialog, error)
	MarkRead(ctx context.Context, chatID int64, msgID int) error
}

// EventHandler receives events from a monitoring session. Callbacks are
// invoked from the session's update-processing goroutine and must not block.
type EventHandler interface {
	OnNewMessage(sess SessionClient, msg domain.Message)
	OnChatEvent(sess SessionClient, ev domain.ChatEvent)
}
