// Package registry tracks the set of chats currently considered monitored.
package registry

import (
	"context"
	"sync"

	"github.com/abelikov/keywatch/internal/domain"
)

// DialogLister enumerates the dialogs visible to one session.
type DialogLister interface {
	Name() string
	Dialogs(ctx context.Context) ([]domain.Dialog, error)
}

// Registry is the set of monitored chat ids. It only ever grows: there is
// no removal path, even if an account later leaves a chat. Safe for
// concurrent use.
type Registry struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func New() *Registry {
	return &Registry{ids: make(map[int64]struct{})}
}

// Discover enumerates every session's dialogs, keeps groups and channels,
// and unions them into the set. A session that fails to enumerate is
// reported through onError and skipped. Returns the resulting chat count.
func (r *Registry) Discover(ctx context.Context, sessions []DialogLister, onError func(account string, err error)) int {
	for _, s := range sessions {
		dialogs, err := s.Dialogs(ctx)
		if err != nil {
			if onError != nil {
				onError(s.Name(), err)
			}
			continue
		}
		for _, d := range dialogs {
			if !d.IsGroup && !d.IsChannel {
				continue
			}
			r.add(d.ID)
		}
	}
	return r.Count()
}

// Observe applies a chat-membership event. It reports whether the chat was
// newly added and the updated count.
func (r *Registry) Observe(ev domain.ChatEvent) (bool, int) {
	if !ev.IsGroup && !ev.IsChannel {
		r.mu.Lock()
		defer r.mu.Unlock()
		return false, len(r.ids)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[ev.ChatID]; ok {
		return false, len(r.ids)
	}
	r.ids[ev.ChatID] = struct{}{}
	return true, len(r.ids)
}

// Contains reports whether a chat id is monitored.
func (r *Registry) Contains(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// Count returns the number of monitored chats.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

func (r *Registry) add(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = struct{}{}
}
