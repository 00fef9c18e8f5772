package monitor

import "github.com/abelikov/keywatch/internal/telegram"

// Presenter receives status events from the monitoring core. The core never
// formats terminal output itself; everything user-visible flows through
// here.
type Presenter interface {
	AccountConnected(name, username string)
	AccountFailed(name string, class telegram.FailureClass, err error)
	DiscoveryError(account string, err error)
	MonitoringStarted(chatCount int)
	ChatCountChanged(count int)
	SeenCacheCleared()
	NotificationFailed(adminID int64, attempts int, err error)
	HandlerError(chatID int64, err error)
}

// NopPresenter discards all status events.
type NopPresenter struct{}

func (NopPresenter) AccountConnected(string, string)                    {}
func (NopPresenter) AccountFailed(string, telegram.FailureClass, error) {}
func (NopPresenter) DiscoveryError(string, error)                       {}
func (NopPresenter) MonitoringStarted(int)                              {}
func (NopPresenter) ChatCountChanged(int)                               {}
func (NopPresenter) SeenCacheCleared()                                  {}
func (NopPresenter) NotificationFailed(int64, int, error)               {}
func (NopPresenter) HandlerError(int64, error)                          {}
