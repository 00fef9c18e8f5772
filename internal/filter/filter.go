// Package filter implements the three-rule notification policy:
// stop-words, keywords, and the sender watchlist.
package filter

import (
	"strings"

	"github.com/abelikov/keywatch/internal/domain"
)

// Filter decides whether a message is worth notifying about. It has no side
// effects; the caller supplies the dedup-cache lookup result.
type Filter struct {
	keywords  []string
	stopWords []string
	watchlist map[int64]struct{}
}

// New builds a filter. Keywords and stop-words are expected lower-cased
// (config folds them at load time).
func New(keywords, stopWords []string, watchlist []int64) *Filter {
	watch := make(map[int64]struct{}, len(watchlist))
	for _, id := range watchlist {
		watch[id] = struct{}{}
	}
	return &Filter{
		keywords:  keywords,
		stopWords: stopWords,
		watchlist: watch,
	}
}

// Evaluate classifies a message. Rules, in order:
//
//  1. Any stop-word substring drops the message outright, watchlist or not.
//  2. No keyword hit and no watchlist hit drops it.
//  3. A keyword hit from an already-seen sender drops it, even when the
//     sender is also watchlisted. This mirrors the source behavior and is
//     deliberate; see DESIGN.md.
//  4. Otherwise notify, tagged keyword when the keyword matched so the
//     caller knows to update the dedup cache.
func (f *Filter) Evaluate(text string, senderID int64, alreadySeen bool) domain.Verdict {
	lowered := strings.ToLower(text)

	for _, stop := range f.stopWords {
		if strings.Contains(lowered, stop) {
			return domain.VerdictDrop
		}
	}

	_, watchHit := f.watchlist[senderID]
	keywordHit := false
	for _, kw := range f.keywords {
		if strings.Contains(lowered, kw) {
			keywordHit = true
			break
		}
	}

	if !watchHit && !keywordHit {
		return domain.VerdictDrop
	}
	if keywordHit && alreadySeen {
		return domain.VerdictDrop
	}
	if keywordHit {
		return domain.VerdictNotifyKeyword
	}
	return domain.VerdictNotifyWatch
}
