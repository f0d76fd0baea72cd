// Package services holds the client's session engine: the SessionManager,
// which owns authentication state, and the Synchronizer, which mirrors the
// device timer while a session is live.
package services

import (
	"github.com/smartkraft/lebensspur/internal/client/metrics"
	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/smartkraft/lebensspur/internal/client/notify"
	"github.com/smartkraft/lebensspur/internal/logging"
	"k8s.io/utils/clock"
)

// Auditor records user-facing audit entries.
type Auditor interface {
	Add(typ models.AuditType, text, detail string) models.AuditEntry
}

type nopAuditor struct{}

func (nopAuditor) Add(typ models.AuditType, text, detail string) models.AuditEntry {
	return models.AuditEntry{Type: typ, Text: text, Detail: detail}
}

type options struct {
	clock    clock.WithTicker
	log      logging.Logger
	notifier notify.Notifier
	auditor  Auditor
	metrics  *metrics.Collectors
}

// Option configures a SessionManager or a Synchronizer.
type Option func(*options)

func WithClock(c clock.WithTicker) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithAuditor(a Auditor) Option {
	return func(o *options) { o.auditor = a }
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) options {
	o := options{
		clock:    clock.RealClock{},
		log:      logging.Discard(),
		notifier: notify.Discard,
		auditor:  nopAuditor{},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
