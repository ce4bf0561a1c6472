package view

import (
	"sync"
	"time"

	"washdesk/internal/backend"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient user-facing message, the snackbar of this tier.
type Notification struct {
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Notifier receives the outcome of every user-visible booking action.
type Notifier interface {
	Notify(n Notification)
}

// NotificationLog is a bounded in-memory notifier; the HTTP layer drains it
// into responses and tests assert on it.
type NotificationLog struct {
	mu    sync.Mutex
	limit int
	items []Notification
}

func NewNotificationLog(limit int) *NotificationLog {
	if limit <= 0 {
		limit = 50
	}
	return &NotificationLog{limit: limit}
}

func (l *NotificationLog) Notify(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, n)
	if len(l.items) > l.limit {
		l.items = l.items[len(l.items)-l.limit:]
	}
}

// Drain returns and clears the accumulated notifications.
func (l *NotificationLog) Drain() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.items
	l.items = nil
	return out
}

// Peek returns a copy without clearing.
func (l *NotificationLog) Peek() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notification(nil), l.items...)
}

func success(message string) Notification {
	return Notification{Severity: SeveritySuccess, Message: message}
}

func failure(message string) Notification {
	return Notification{Severity: SeverityError, Message: message}
}

// failureFromErr prefers the backend's own rejection message over the
// per-action fallback.
func failureFromErr(err error, fallback string) Notification {
	if re, ok := backend.AsRemarkError(err); ok && re.Message != "" {
		return failure(re.Message)
	}
	return failure(fallback)
}
