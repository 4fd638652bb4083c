package app

import (
	"time"

	"github.com/snapnote/snapnote-tui/internal/models"
	"github.com/snapnote/snapnote-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// SessionChangedMsg carries the new identity. Session is nil on sign-out.
type SessionChangedMsg struct {
	Session *models.Session
}

// QuotaLoadedMsg carries fresh or adjusted usage stats.
type QuotaLoadedMsg struct {
	Stats *models.UsageStats
}

// QuotaClearedMsg signals the usage stats were invalidated.
type QuotaClearedMsg struct{}

// RefreshQuotaMsg requests a fresh usage stats fetch.
type RefreshQuotaMsg struct{}

// SignOutMsg requests ending the current session.
type SignOutMsg struct{}

// SignOutResultMsg contains the result of a sign-out.
type SignOutResultMsg struct {
	Error error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
