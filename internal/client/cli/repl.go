package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	touch()
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Reset(ctx context.Context) error
	Pause(ctx context.Context) error
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	Acknowledge(ctx context.Context) error
	Vacation(ctx context.Context, args []string) error
	AutoLogout(ctx context.Context, args []string) error
	Audit(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the LebensSpur CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Every non-empty line counts as
// user activity for the auto-logout watchdog. The loop exits on scanner EOF
// or when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - help              show available commands
//	  - login             authenticate against the device
//	  - audit [TYPE]      show the audit trail, optionally one type
//	  - audit clear       forget the audit trail
//	  - exit | quit       leave the program
//
//	Logged in:
//	  - status | s        show the timer
//	  - reset | r         reset the countdown (acknowledges a triggered alarm)
//	  - pause             pause or resume the countdown
//	  - enable, disable   start or stop the timer
//	  - ack               acknowledge a triggered alarm
//	  - vacation on N     enable vacation mode for N days
//	  - vacation off      leave vacation mode
//	  - autologout [N]    show or set the idle timeout in minutes
//	  - audit             show the audit trail
//	  - logout            end the session
//
// Errors returned by command handlers are not printed here; the session engine
// reports failures through notifications.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ls %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]
		a.touch()

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (s)tatus, (r)eset, pause, enable, disable, ack, vacation on N|off, autologout [N], audit, logout, exit")
			} else {
				printlnFn("Available commands: login, audit, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "audit":
			_ = a.Audit(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "s", "status", "r", "reset", "pause", "enable", "disable", "ack",
			"vacation", "autologout", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			dispatch(ctx, a, cmd, args)

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) {
	switch cmd {
	case "s", "status":
		_ = a.Status(ctx)
	case "r", "reset":
		_ = a.Reset(ctx)
	case "pause":
		_ = a.Pause(ctx)
	case "enable":
		_ = a.Enable(ctx)
	case "disable":
		_ = a.Disable(ctx)
	case "ack":
		_ = a.Acknowledge(ctx)
	case "vacation":
		_ = a.Vacation(ctx, args)
	case "autologout":
		_ = a.AutoLogout(ctx, args)
	case "logout":
		_ = a.Logout(ctx)
	}
}
