// Package pool connects every configured account and keeps the healthy
// sessions running for the lifetime of the monitoring run.
package pool

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abelikov/keywatch/internal/domain"
	"github.com/abelikov/keywatch/internal/telegram"
)

// ErrNoUsableAccounts is returned when no configured account could be
// connected. It is the only fatal startup condition.
var ErrNoUsableAccounts = errors.New("no usable accounts")

var errConnectTimeout = errors.New("connect timed out")

// Observer receives per-account health results during startup.
type Observer interface {
	AccountConnected(name, username string)
	AccountFailed(name string, class telegram.FailureClass, err error)
}

// Pool owns the session lifecycles. Every session started through it is
// released by the time Wait returns, regardless of which exit path was
// taken.
type Pool struct {
	apiID   int
	apiHash string
	handler telegram.EventHandler
	logger  *zap.Logger

	// ConnectTimeout bounds a single account's startup handshake.
	ConnectTimeout time.Duration

	g errgroup.Group
}

func New(apiID int, apiHash string, handler telegram.EventHandler, logger *zap.Logger) *Pool {
	return &Pool{
		apiID:          apiID,
		apiHash:        apiHash,
		handler:        handler,
		logger:         logger,
		ConnectTimeout: 45 * time.Second,
	}
}

// ConnectAll attempts to connect each account in order and classifies
// failures. A failed account is reported and skipped, never fatal on its
// own; the pool fails only when nothing connects. Healthy sessions keep
// running until ctx is cancelled.
func (p *Pool) ConnectAll(ctx context.Context, accounts []domain.Account, obs Observer) ([]*telegram.Session, error) {
	var healthy []*telegram.Session

	for _, acc := range accounts {
		sess := telegram.NewSession(acc.Name, p.apiID, p.apiHash, acc.Credential, p.handler,
			p.logger.Named("session").With(zap.String("account", acc.Name)))

		sctx, cancel := context.WithCancel(ctx)
		runErr := make(chan error, 1)
		p.g.Go(func() error {
			runErr <- sess.Run(sctx)
			return nil
		})

		timer := time.NewTimer(p.ConnectTimeout)
		select {
		case <-sess.Ready():
			timer.Stop()
			healthy = append(healthy, sess)
			username := ""
			if self := sess.Self(); self != nil {
				username = self.Username
			}
			obs.AccountConnected(acc.Name, username)
			p.watch(ctx, acc.Name, cancel, runErr)

		case err := <-runErr:
			timer.Stop()
			cancel()
			obs.AccountFailed(acc.Name, telegram.ClassifyConnectError(err), err)

		case <-timer.C:
			cancel()
			obs.AccountFailed(acc.Name, telegram.FailureUnknown, errConnectTimeout)

		case <-ctx.Done():
			timer.Stop()
			cancel()
			return nil, ctx.Err()
		}
	}

	if len(healthy) == 0 {
		return nil, ErrNoUsableAccounts
	}
	return healthy, nil
}

// watch logs a session that dies after startup. Losing one session does not
// stop the others.
func (p *Pool) watch(ctx context.Context, name string, cancel context.CancelFunc, runErr <-chan error) {
	p.g.Go(func() error {
		defer cancel()
		err := <-runErr
		if err != nil && ctx.Err() == nil {
			p.logger.Error("session terminated", zap.String("account", name), zap.Error(err))
		}
		return nil
	})
}

// Wait blocks until every session goroutine has finished.
func (p *Pool) Wait() {
	_ = p.g.Wait()
}
