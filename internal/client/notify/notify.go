// Package notify carries user-visible notifications ("toasts") from the
// session engine to whatever presents them.
package notify

import "sync"

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single message shown to the user.
type Notification struct {
	Level   Level
	Message string
}

// Notifier presents notifications. Implementations must be safe for
// concurrent use: poll and watchdog goroutines notify too.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Notification) {})

func Success(msg string) Notification { return Notification{Level: LevelSuccess, Message: msg} }
func Info(msg string) Notification    { return Notification{Level: LevelInfo, Message: msg} }
func Warning(msg string) Notification { return Notification{Level: LevelWarning, Message: msg} }
func Error(msg string) Notification   { return Notification{Level: LevelError, Message: msg} }

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Count returns how many notifications of the given level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Level == level {
			n++
		}
	}
	return n
}
