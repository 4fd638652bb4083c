// Package quota tracks the account's usage standing: remaining free uses,
// the custom-key flag, and the cumulative call count.
package quota

import (
	"context"
	"fmt"
	"sync"

	"github.com/snapnote/snapnote-tui/internal/api"
	"github.com/snapnote/snapnote-tui/internal/models"
)

// Event represents a quota tracker event.
type Event struct {
	Type  EventType
	Stats *models.UsageStats
	Error error
}

// EventType defines the type of quota event.
type EventType int

const (
	// EventUpdated indicates fresh or optimistically adjusted stats.
	EventUpdated EventType = iota
	// EventCleared indicates the stats were invalidated.
	EventCleared
	// EventFetchError indicates a fetch failed; the previous stats, if any,
	// were cleared and the display degrades to unknown.
	EventFetchError
)

// Tracker owns the UsageStats state. Other components read it through
// Current and mutate it only via Fetch, ApplyOptimisticSuccess, and
// Invalidate.
type Tracker struct {
	mu        sync.RWMutex
	client    *api.Client
	stats     *models.UsageStats
	eventChan chan Event
}

// New creates a quota tracker backed by the given API client.
func New(client *api.Client) *Tracker {
	return &Tracker{
		client:    client,
		eventChan: make(chan Event, 16),
	}
}

// Events returns the event channel.
func (t *Tracker) Events() <-chan Event {
	return t.eventChan
}

// Current returns the latest known stats, or nil when unknown.
func (t *Tracker) Current() *models.UsageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.stats == nil {
		return nil
	}
	stats := *t.stats
	return &stats
}

// Fetch retrieves fresh stats for the session. Guarded: calling it signed
// out is an error before any network activity. A fetch failure is non-fatal
// for the rest of the application; the stats simply become unknown.
func (t *Tracker) Fetch(ctx context.Context, sess *models.Session) (*models.UsageStats, error) {
	if !sess.SignedIn() {
		return nil, fmt.Errorf("cannot fetch usage stats without a session")
	}

	stats, err := t.client.FetchUsageStats(ctx, sess.Token)
	if err != nil {
		t.mu.Lock()
		t.stats = nil
		t.mu.Unlock()
		t.sendEvent(Event{Type: EventFetchError, Error: err})
		return nil, err
	}

	t.mu.Lock()
	t.stats = stats
	t.mu.Unlock()

	t.sendEvent(Event{Type: EventUpdated, Stats: stats})
	return stats, nil
}

// ApplyOptimisticSuccess adjusts the stats for one known-successful
// extraction without a round trip: call count +1, and for metered accounts
// the free-use counter -1 clamped at zero. When the extraction response
// carried an authoritative remaining count, pass it via serverRemaining
// (negative means absent) and it wins over the local decrement.
func (t *Tracker) ApplyOptimisticSuccess(serverRemaining int) *models.UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stats == nil {
		return nil
	}

	next := t.stats.AfterSuccess()
	if serverRemaining >= 0 && !next.HasCustomKey {
		next.RemainingUses = serverRemaining
	}
	t.stats = &next

	stats := next
	t.sendEventLocked(Event{Type: EventUpdated, Stats: &stats})
	return &stats
}

// Invalidate clears the stats, pending a re-fetch. Used on sign-out and
// after credential store mutations.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	t.stats = nil
	t.mu.Unlock()

	t.sendEvent(Event{Type: EventCleared})
}

func (t *Tracker) sendEvent(event Event) {
	select {
	case t.eventChan <- event:
	default:
	}
}

// sendEventLocked is sendEvent for callers already holding the mutex; the
// channel send itself never takes the lock.
func (t *Tracker) sendEventLocked(event Event) {
	select {
	case t.eventChan <- event:
	default:
	}
}
