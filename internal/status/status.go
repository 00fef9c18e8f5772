// Package status renders monitoring status events as structured log lines.
package status

import (
	"go.uber.org/zap"

	"github.com/abelikov/keywatch/internal/telegram"
)

// Log is a zap-backed Presenter.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) AccountConnected(name, username string) {
	l.logger.Info("account connected",
		zap.String("account", name),
		zap.String("username", username))
}

func (l *Log) AccountFailed(name string, class telegram.FailureClass, err error) {
	l.logger.Warn("account skipped",
		zap.String("account", name),
		zap.String("reason", class.String()),
		zap.Error(err))
}

func (l *Log) DiscoveryError(account string, err error) {
	l.logger.Warn("dialog discovery failed",
		zap.String("account", account),
		zap.Error(err))
}

func (l *Log) MonitoringStarted(chatCount int) {
	l.logger.Info("monitoring started", zap.Int("chats", chatCount))
}

func (l *Log) ChatCountChanged(count int) {
	l.logger.Info("chat added", zap.Int("chats", count))
}

func (l *Log) SeenCacheCleared() {
	l.logger.Info("seen cache cleared")
}

func (l *Log) NotificationFailed(adminID int64, attempts int, err error) {
	l.logger.Error("notification delivery failed",
		zap.Int64("admin_id", adminID),
		zap.Int("attempts", attempts),
		zap.Error(err))
}

func (l *Log) HandlerError(chatID int64, err error) {
	l.logger.Error("message handling failed",
		zap.Int64("chat_id", chatID),
		zap.Error(err))
}
