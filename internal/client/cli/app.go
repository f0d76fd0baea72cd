package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/smartkraft/lebensspur/internal/client/audit"
	"github.com/smartkraft/lebensspur/internal/client/client"
	"github.com/smartkraft/lebensspur/internal/client/config"
	"github.com/smartkraft/lebensspur/internal/client/display"
	"github.com/smartkraft/lebensspur/internal/client/metrics"
	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/smartkraft/lebensspur/internal/client/notify"
	"github.com/smartkraft/lebensspur/internal/client/services"
	"github.com/smartkraft/lebensspur/internal/client/storage"
	"github.com/smartkraft/lebensspur/internal/filex"
	"github.com/smartkraft/lebensspur/internal/logging"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	db       *sql.DB
	session  *services.SessionManager
	sync     *services.Synchronizer
	audit    *audit.Log
	prefs    *storage.PreferenceStore
	notifier notify.Notifier
	registry *prometheus.Registry
	in       io.Reader
	out      io.Writer
}

// NewApp wires the client for c. Notifications and prompts go to out, logs to
// stderr.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFormat, os.Stderr)

	var err error
	dsn := c.DatabasePath
	if dsn != ":memory:" {
		if dsn, err = filex.EnsureParentDir(dsn); err != nil {
			return nil, fmt.Errorf("error preparing database path: %w", err)
		}
	}
	db, err := storage.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	notifier := notify.NewTerminal(out)

	var auditOpts []audit.Option
	if c.AuditLogPath != "" {
		auditOpts = append(auditOpts, audit.WithAppender(audit.NewFileAppender(c.AuditLogPath), func(err error) {
			logger.Warn(ctx, "audit append failed", "error", err)
		}))
	}
	auditLog := audit.NewLog(auditOpts...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gw, err := client.NewGateway(c.DeviceURL,
		client.WithNotifier(notifier),
		client.WithLogger(logger.With("module", "gateway")))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dc := client.NewDeviceClient(gw)

	opts := []services.Option{
		services.WithLogger(logger.With("module", "session")),
		services.WithNotifier(notifier),
		services.WithAuditor(auditLog),
		services.WithMetrics(m),
	}
	syncer := services.NewSynchronizer(dc, services.SyncConfig{
		PollInterval:      c.PollInterval,
		CountdownInterval: c.CountdownInterval,
	}, opts...)
	prefs := storage.NewPreferenceStore(db)
	session := services.NewSessionManager(dc, syncer, prefs, services.SessionConfig{
		AutoLogoutMinutes: c.AutoLogoutMinutes,
		MaxAttempts:       c.MaxLoginAttempts,
		WatchdogInterval:  c.WatchdogInterval,
	}, opts...)
	gw.RegisterSession(session)

	return &App{
		config:   c,
		log:      logger,
		db:       db,
		session:  session,
		sync:     syncer,
		audit:    auditLog,
		prefs:    prefs,
		notifier: notifier,
		registry: reg,
		in:       in,
		out:      out,
	}, nil
}

// Run restores the previous session and runs the REPL until the user exits
// or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if a.config.MetricsAddr != "" {
		go a.serveMetrics(ctx)
	}
	unsubscribe := a.watchState()
	defer unsubscribe()

	if err := a.session.Restore(ctx); err != nil {
		a.log.Warn(ctx, "could not restore session", "error", err)
	}

	printlnFn("Welcome to LebensSpur (type 'help' for commands)")

	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(ctx, a, a.prompt, bufio.NewScanner(a.in))
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}

// Close stops background work and closes the database. The session itself
// stays valid on the device so the next run can restore it.
func (a *App) Close() {
	a.session.Close()
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "closing database", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.View().Authenticated
}

func (a *App) touch() {
	a.session.RecordActivity()
}

func (a *App) prompt() string {
	if !a.isLoggedIn() {
		return "(logged out)"
	}
	if d, ok := a.sync.Display(); ok {
		return fmt.Sprintf("(%s %s)", d.Label, d.Clock())
	}
	return "(logged in)"
}

// watchState announces state changes seen by the synchronizer.
func (a *App) watchState() (unsubscribe func()) {
	var (
		mu   sync.Mutex
		last models.State
	)
	return a.sync.Subscribe(func(s models.DeviceSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		if last != "" && s.State != last {
			level := notify.Info
			if s.State == models.StateTriggered || s.State == models.StateWarning {
				level = notify.Warning
			}
			a.notifier.Notify(level("Timer is now " + display.Label(s.State)))
		}
		last = s.State
	})
}

func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.registry))
	srv := &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Info(ctx, "serving metrics", "address", a.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error(ctx, "metrics server failed", "error", err)
	}
}
