// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/snapnote/snapnote-tui/internal/api"
	"github.com/snapnote/snapnote-tui/internal/config"
	"github.com/snapnote/snapnote-tui/internal/db"
	"github.com/snapnote/snapnote-tui/internal/logger"
	"github.com/snapnote/snapnote-tui/internal/models"
	"github.com/snapnote/snapnote-tui/internal/services/quota"
	"github.com/snapnote/snapnote-tui/internal/services/session"
)

type (
	// SessionChangedEvent is emitted when the signed-in identity changes.
	// Session is nil on sign-out.
	SessionChangedEvent struct {
		Session *models.Session
	}

	// QuotaUpdatedEvent is emitted when usage stats are fetched or adjusted.
	QuotaUpdatedEvent struct {
		Stats *models.UsageStats
	}

	// QuotaClearedEvent is emitted when usage stats are invalidated.
	QuotaClearedEvent struct{}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (SessionChangedEvent) isServiceEvent() {}
func (QuotaUpdatedEvent) isServiceEvent()   {}
func (QuotaClearedEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()          {}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	api         *api.Client
	session     *session.Service
	quota       *quota.Tracker
	database    *db.DB
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan ServiceEvent
	closeOnce   sync.Once
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		api:       api.New(cfg.APIBaseURL, cfg.RequestTimeout),
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}

	var err error
	m.session, err = session.New(cfg.SessionPath)
	if err != nil {
		return nil, err
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		_ = m.session.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.quota = quota.New(m.api)

	go m.routeEvents()

	return m, nil
}

// API returns the backend client.
func (m *Manager) API() *api.Client {
	return m.api
}

// Session returns the session service.
func (m *Manager) Session() *session.Service {
	return m.session
}

// Quota returns the quota tracker.
func (m *Manager) Quota() *quota.Tracker {
	return m.quota
}

// DB returns the history database.
func (m *Manager) DB() *db.DB {
	return m.database
}

// Subscribe returns a channel receiving all service events.
func (m *Manager) Subscribe() chan ServiceEvent {
	ch := make(chan ServiceEvent, 100)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.session.Events():
			m.handleSessionEvent(event)

		case event := <-m.quota.Events():
			m.handleQuotaEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleSessionEvent converts and broadcasts session transitions. A fresh
// session triggers a quota fetch; sign-out invalidates quota so no stale
// per-account data survives.
func (m *Manager) handleSessionEvent(event session.Event) {
	switch event.Type {
	case session.EventSignedIn:
		m.broadcast(SessionChangedEvent{Session: event.Session})
		go func(sess *models.Session) {
			if _, err := m.quota.Fetch(context.Background(), sess); err != nil {
				logger.Warn("usage stats fetch failed", "error", err)
			}
		}(event.Session)

	case session.EventSignedOut:
		m.quota.Invalidate()
		m.broadcast(SessionChangedEvent{Session: nil})

	case session.EventError:
		m.broadcast(ErrorEvent{Service: "session", Error: event.Error})
	}
}

func (m *Manager) handleQuotaEvent(event quota.Event) {
	switch event.Type {
	case quota.EventUpdated:
		m.broadcast(QuotaUpdatedEvent{Stats: event.Stats})

		if event.Stats != nil && event.Stats.Metered() && event.Stats.RemainingUses == 0 {
			m.notifyQuotaExhausted()
		}

	case quota.EventCleared:
		m.broadcast(QuotaClearedEvent{})

	case quota.EventFetchError:
		m.broadcast(ErrorEvent{Service: "quota", Error: event.Error})
	}
}

// notifyQuotaExhausted raises a desktop notification when the free allowance
// runs out, since the terminal may not be focused.
func (m *Manager) notifyQuotaExhausted() {
	if err := beeep.Notify("snapNote", "Free usage limit reached. Add your own API key to continue.", ""); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// NotifyExtractionDone raises a desktop notification for a finished job.
func (m *Manager) NotifyExtractionDone(imageName string, ok bool) {
	var body string
	if ok {
		body = fmt.Sprintf("Text extracted from %s", imageName)
	} else {
		body = fmt.Sprintf("Extraction failed for %s", imageName)
	}
	if err := beeep.Notify("snapNote", body, ""); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// RecordExtraction persists a finished extraction attempt to local history.
func (m *Manager) RecordExtraction(rec *models.ExtractionRecord) {
	if err := m.database.InsertExtraction(rec); err != nil {
		logger.Error("failed to record extraction", "error", err)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// WaitForEvent returns a command that waits for the next service event.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Close stops event routing and all owned services exactly once.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.stopChan)

		if sessErr := m.session.Close(); sessErr != nil {
			err = sessErr
		}
		if m.database != nil {
			if dbErr := m.database.Close(); dbErr != nil && err == nil {
				err = dbErr
			}
		}
	})
	return err
}
