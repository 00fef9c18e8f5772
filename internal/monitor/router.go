package monitor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/abelikov/keywatch/internal/domain"
	"github.com/abelikov/keywatch/internal/notify"
	"github.com/abelikov/keywatch/internal/telegram"
)

// messageKey identifies a message for at-most-once processing.
type messageKey struct {
	chatID int64
	msgID  int
}

// OnNewMessage routes an inbound message event. The actual work runs in its
// own unit on the bounded task group, so a slow mark-read or notification
// retry never stalls the session's event delivery.
func (m *Monitor) OnNewMessage(sess telegram.SessionClient, msg domain.Message) {
	m.tasks.Go(func() error {
		m.handleMessage(sess, msg)
		return nil
	})
}

// OnChatEvent updates the registry on membership changes. No I/O involved,
// so it runs inline.
func (m *Monitor) OnChatEvent(_ telegram.SessionClient, ev domain.ChatEvent) {
	if added, count := m.registry.Observe(ev); added {
		m.presenter.ChatCountChanged(count)
	}
}

func (m *Monitor) handleMessage(sess telegram.SessionClient, msg domain.Message) {
	defer func() {
		if r := recover(); r != nil {
			m.presenter.HandlerError(msg.ChatID, fmt.Errorf("handler panic: %v", r))
		}
	}()

	if msg.SenderIsBot {
		return
	}
	if !msg.IsGroup && !msg.IsChannel {
		return
	}
	if msg.SenderID == 0 {
		return
	}
	if !m.claim(msg.ChatID, msg.ID) {
		return
	}

	ctx := m.runCtx
	if err := sess.MarkRead(ctx, msg.ChatID, msg.ID); err != nil {
		m.logger.Warn("mark read failed",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int("message_id", msg.ID),
			zap.Error(err))
	}

	if msg.Text == "" {
		return
	}

	verdict := m.filter.Evaluate(msg.Text, msg.SenderID, m.cache.IsSeen(msg.SenderID))
	if verdict == domain.VerdictDrop {
		return
	}

	m.notifier.Notify(ctx, notify.BuildAlert(sess.Name(), msg))

	// Dispatch attempt, not confirmed delivery, is what marks a sender seen.
	if verdict == domain.VerdictNotifyKeyword {
		if err := m.cache.MarkSeen(msg.SenderID); err != nil {
			m.presenter.HandlerError(msg.ChatID, err)
		}
	}
}

// claim records the (chat, message) key. Check and insert form one critical
// section so concurrent handlers agree on exactly one first claimant.
func (m *Monitor) claim(chatID int64, msgID int) bool {
	key := messageKey{chatID: chatID, msgID: msgID}
	m.pmu.Lock()
	defer m.pmu.Unlock()
	if _, ok := m.processed[key]; ok {
		return false
	}
	m.processed[key] = struct{}{}
	return true
}
