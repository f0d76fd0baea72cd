package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smartkraft/lebensspur/internal/client/models"
)

var (
	errUsageVacation   = errors.New("usage: vacation on N | vacation off")
	errUsageAutoLogout = errors.New("usage: autologout [minutes]")
)

func (a *App) Status(ctx context.Context) error {
	d, ok := a.sync.Display()
	if !ok {
		printlnFn("No status received yet")
		return nil
	}
	var since time.Time
	if at, ok, err := a.prefs.SavedAt(ctx); err == nil && ok {
		since = at.In(time.Local)
	}
	printlnFn(renderStatus(d, a.session.View(), since))
	return nil
}

func (a *App) Reset(ctx context.Context) error       { return a.sync.Reset(ctx) }
func (a *App) Pause(ctx context.Context) error       { return a.sync.TogglePause(ctx) }
func (a *App) Enable(ctx context.Context) error      { return a.sync.Enable(ctx) }
func (a *App) Disable(ctx context.Context) error     { return a.sync.Disable(ctx) }
func (a *App) Acknowledge(ctx context.Context) error { return a.sync.Acknowledge(ctx) }

func (a *App) Vacation(ctx context.Context, args []string) error {
	enabled, days, err := parseVacation(args)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	return a.sync.SetVacation(ctx, enabled, days)
}

func (a *App) AutoLogout(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn(fmt.Sprintf("Auto-logout after %d minutes of inactivity", a.session.View().AutoLogoutMinutes))
		return nil
	}
	minutes, err := parseMinutes(args)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	applied, err := a.session.SetAutoLogout(ctx, minutes)
	if err != nil {
		a.log.Warn(ctx, "could not persist auto-logout", "error", err)
	}
	printlnFn(fmt.Sprintf("Auto-logout set to %d minutes", applied))
	return err
}

func (a *App) Audit(ctx context.Context, args []string) error {
	if len(args) > 0 && strings.EqualFold(args[0], "clear") {
		a.audit.Clear()
		printlnFn("Audit trail cleared")
		return nil
	}

	entries := a.audit.Entries()
	if len(args) > 0 {
		entries = a.audit.Filter(models.AuditType(strings.ToLower(args[0])))
	}
	if len(entries) == 0 {
		printlnFn("No audit entries")
		return nil
	}
	printlnFn(renderAudit(entries, time.Local))
	return nil
}

// parseVacation reads "on N" or "off". Day bounds are enforced downstream.
func parseVacation(args []string) (enabled bool, days int, err error) {
	if len(args) == 0 {
		return false, 0, errUsageVacation
	}
	switch strings.ToLower(args[0]) {
	case "off":
		return false, 0, nil
	case "on":
		if len(args) < 2 {
			return false, 0, errUsageVacation
		}
		days, err := strconv.Atoi(args[1])
		if err != nil {
			return false, 0, fmt.Errorf("invalid number of days %q", args[1])
		}
		return true, days, nil
	default:
		return false, 0, errUsageVacation
	}
}

func parseMinutes(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsageAutoLogout
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number of minutes %q", args[0])
	}
	return n, nil
}
