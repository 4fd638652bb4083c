// Package session manages the signed-in identity with file watching and
// change notifications. Sign-in happens out of band: a browser flow or the
// snapnote-login helper writes the session file, and this service picks the
// change up through fsnotify. Sign-out removes the file.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/snapnote/snapnote-tui/internal/logger"
	"github.com/snapnote/snapnote-tui/internal/models"
)

// Event represents a session service event.
type Event struct {
	Type    EventType
	Session *models.Session
	Error   error
}

// EventType defines the type of session event.
type EventType int

const (
	// EventSignedIn is emitted when a usable session appears or changes.
	EventSignedIn EventType = iota
	// EventSignedOut is emitted when the session goes away.
	EventSignedOut
	// EventError is emitted on watcher or parse failures.
	EventError
)

// Service owns the session file and the single watcher subscription over it.
type Service struct {
	mu            sync.RWMutex
	session       *models.Session
	filePath      string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// New creates a session service and starts watching the session file. A
// missing file is not an error; it simply means signed out.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		return nil, fmt.Errorf("session file path is empty")
	}

	s := &Service{
		filePath:  filePath,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}

	// Ensure directory exists so the watcher has something to attach to
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	if err := s.loadSession(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load session file", "path", filePath, "error", err)
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start session watcher: %w", err)
	}

	return s, nil
}

// Events returns the event channel for subscribing to session changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Get returns the current session, or nil when signed out.
func (s *Service) Get() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}

// SignedIn reports whether a usable bearer token is present.
func (s *Service) SignedIn() bool {
	return s.Get().SignedIn()
}

// SignOut invalidates the session by removing the session file. The watcher
// observes the removal and emits EventSignedOut, so state teardown follows
// the same path as an external sign-out.
func (s *Service) SignOut() error {
	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	// Apply locally as well; the watcher event is debounced and the caller
	// needs the session gone immediately.
	s.mu.Lock()
	wasSignedIn := s.session.SignedIn()
	s.session = nil
	s.mu.Unlock()

	if wasSignedIn {
		s.sendEvent(Event{Type: EventSignedOut})
	}
	return nil
}

// loadSession reads and parses the session file.
func (s *Service) loadSession() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	s.mu.Lock()
	if sess.SignedIn() {
		s.session = &sess
	} else {
		s.session = nil
	}
	s.mu.Unlock()

	return nil
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory to catch file creation/deletion
	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			// Only care about the session file
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				// Debounce rapid changes
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, func() {
					s.handleFileChange()
				})
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the session after an external change and emits the
// matching transition event.
func (s *Service) handleFileChange() {
	s.mu.RLock()
	wasSignedIn := s.session.SignedIn()
	oldToken := ""
	if s.session != nil {
		oldToken = s.session.Token
	}
	s.mu.RUnlock()

	err := s.loadSession()
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.session = nil
			s.mu.Unlock()
		} else {
			s.sendEvent(Event{Type: EventError, Error: err})
			return
		}
	}

	now := s.Get()
	switch {
	case now.SignedIn() && (!wasSignedIn || now.Token != oldToken):
		s.sendEvent(Event{Type: EventSignedIn, Session: now})
	case !now.SignedIn() && wasSignedIn:
		s.sendEvent(Event{Type: EventSignedOut})
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
	}
}

// Close stops the watcher and cleans up resources. Safe to call once; the
// subscription is owned here and torn down exactly once.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)
		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
