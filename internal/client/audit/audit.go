// Package audit keeps the user-facing audit trail of session and timer
// events: a newest-first ring held in memory, optionally mirrored to a
// JSONL file.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smartkraft/lebensspur/internal/client/models"
)

// DefaultCapacity is how many entries the in-memory log retains.
const DefaultCapacity = 100

// Appender persists entries outside the process.
type Appender interface {
	Append(entry models.AuditEntry) error
}

// Log is safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	entries  []models.AuditEntry
	capacity int
	appender Appender
	now      func() time.Time
	onError  func(error)
}

type Option func(*Log)

// WithAppender mirrors every entry to a. Append failures are reported to
// onError (if not nil) and never block the in-memory log.
func WithAppender(a Appender, onError func(error)) Option {
	return func(l *Log) {
		l.appender = a
		l.onError = onError
	}
}

func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

func NewLog(opts ...Option) *Log {
	l := &Log{capacity: DefaultCapacity, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Add records an entry and returns it.
func (l *Log) Add(typ models.AuditType, text, detail string) models.AuditEntry {
	entry := models.AuditEntry{
		ID:     uuid.NewString(),
		Time:   l.now().UTC(),
		Type:   typ,
		Text:   text,
		Detail: detail,
	}

	l.mu.Lock()
	l.entries = append([]models.AuditEntry{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	appender, onError := l.appender, l.onError
	l.mu.Unlock()

	if appender != nil {
		if err := appender.Append(entry); err != nil && onError != nil {
			onError(err)
		}
	}
	return entry
}

// Entries returns the retained entries, newest first.
func (l *Log) Entries() []models.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.AuditEntry(nil), l.entries...)
}

// Filter returns the retained entries of one type, newest first.
func (l *Log) Filter(typ models.AuditType) []models.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range l.entries {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops the in-memory entries. The file mirror is left untouched.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
