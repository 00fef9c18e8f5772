// Package monitor coordinates sessions, filtering, deduplication and
// notification into one monitoring run.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abelikov/keywatch/internal/domain"
	"github.com/abelikov/keywatch/internal/filter"
	"github.com/abelikov/keywatch/internal/pool"
	"github.com/abelikov/keywatch/internal/registry"
	"github.com/abelikov/keywatch/internal/seen"
)

// maxInFlight bounds concurrently processed message events.
const maxInFlight = 64

// Notifier delivers an alert to the admins. Implementations never report
// failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Monitor is the top-level coordinator. It implements telegram.EventHandler
// and owns the per-run state: the processed-message set and the task group.
type Monitor struct {
	filter    *filter.Filter
	cache     *seen.Cache
	registry  *registry.Registry
	notifier  Notifier
	presenter Presenter
	logger    *zap.Logger
	pool      *pool.Pool

	runCtx context.Context

	pmu       sync.Mutex
	processed map[messageKey]struct{}

	tasks errgroup.Group
}

func New(apiID int, apiHash string, f *filter.Filter, cache *seen.Cache, reg *registry.Registry, notifier Notifier, presenter Presenter, logger *zap.Logger) *Monitor {
	m := &Monitor{
		filter:    f,
		cache:     cache,
		registry:  reg,
		notifier:  notifier,
		presenter: presenter,
		logger:    logger,
		runCtx:    context.Background(),
		processed: make(map[messageKey]struct{}),
	}
	m.tasks.SetLimit(maxInFlight)
	m.pool = pool.New(apiID, apiHash, m, logger.Named("pool"))
	return m
}

// Run connects the accounts, discovers monitored chats, and processes
// events until ctx is cancelled. Success is "runs until interrupted"; the
// only fatal condition is pool.ErrNoUsableAccounts.
func (m *Monitor) Run(ctx context.Context, accounts []domain.Account) error {
	m.runCtx = ctx

	sessions, err := m.pool.ConnectAll(ctx, accounts, m.presenter)
	if err != nil {
		m.pool.Wait()
		return err
	}

	listers := make([]registry.DialogLister, len(sessions))
	for i, s := range sessions {
		listers[i] = s
	}
	count := m.registry.Discover(ctx, listers, m.presenter.DiscoveryError)
	m.presenter.MonitoringStarted(count)

	// Hourly check of the 24h dedup-cache window.
	janitor := cron.New()
	_, err = janitor.AddFunc("@hourly", func() {
		cleared, err := m.cache.ResetIfExpired(time.Now())
		if err != nil {
			m.logger.Error("seen cache reset failed", zap.Error(err))
		}
		if cleared {
			m.presenter.SeenCacheCleared()
		}
	})
	if err != nil {
		m.logger.Error("janitor schedule failed", zap.Error(err))
	} else {
		janitor.Start()
		defer janitor.Stop()
	}

	<-ctx.Done()

	// In-flight handlers finish or abandon their work; every session is
	// released before returning.
	_ = m.tasks.Wait()
	m.pool.Wait()
	return nil
}
