package filter_test

import (
	"testing"

	"github.com/abelikov/keywatch/internal/domain"
	"github.com/abelikov/keywatch/internal/filter"
)

func newTestFilter() *filter.Filter {
	return filter.New(
		[]string{"crypto"},
		[]string{"giveaway"},
		[]int64{42},
	)
}

func TestEvaluate_StopWordBeatsWatchlist(t *testing.T) {
	f := newTestFilter()

	got := f.Evaluate("Free crypto giveaway now", 42, false)
	if got != domain.VerdictDrop {
		t.Errorf("verdict = %v, want drop (stop-word has absolute priority)", got)
	}
}

func TestEvaluate_KeywordHit(t *testing.T) {
	f := newTestFilter()

	got := f.Evaluate("crypto deal", 7, false)
	if got != domain.VerdictNotifyKeyword {
		t.Errorf("verdict = %v, want keyword notify", got)
	}
}

func TestEvaluate_KeywordHitSuppressedAfterSeen(t *testing.T) {
	f := newTestFilter()

	got := f.Evaluate("crypto deal", 7, true)
	if got != domain.VerdictDrop {
		t.Errorf("verdict = %v, want drop for already-seen sender", got)
	}
}

func TestEvaluate_SeenSuppressesWatchlistedSender(t *testing.T) {
	// A watchlisted sender whose message also matches a keyword is
	// suppressed once the sender is in the seen cache, even though
	// watchlist membership alone always notifies. Deliberate; see
	// DESIGN.md.
	f := newTestFilter()

	got := f.Evaluate("crypto deal", 42, true)
	if got != domain.VerdictDrop {
		t.Errorf("verdict = %v, want drop", got)
	}
}

func TestEvaluate_WatchlistOnly(t *testing.T) {
	f := newTestFilter()

	// No keyword, no stop-word: watchlisted sender notifies every time,
	// regardless of seen state.
	for _, seen := range []bool{false, true} {
		got := f.Evaluate("hello there", 42, seen)
		if got != domain.VerdictNotifyWatch {
			t.Errorf("seen=%v: verdict = %v, want watch notify", seen, got)
		}
	}
}

func TestEvaluate_NoHit(t *testing.T) {
	f := newTestFilter()

	got := f.Evaluate("nothing interesting", 7, false)
	if got != domain.VerdictDrop {
		t.Errorf("verdict = %v, want drop", got)
	}
}

func TestEvaluate_CaseInsensitive(t *testing.T) {
	f := newTestFilter()

	if got := f.Evaluate("CRYPTO DEAL", 7, false); got != domain.VerdictNotifyKeyword {
		t.Errorf("verdict = %v, want keyword notify for upper-cased text", got)
	}
	if got := f.Evaluate("Free GiveAway", 42, false); got != domain.VerdictDrop {
		t.Errorf("verdict = %v, want drop for upper-cased stop-word", got)
	}
}
