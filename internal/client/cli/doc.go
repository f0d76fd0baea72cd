// Package cli provides the interactive LebensSpur terminal client.
//
// It wires configuration, the preference store, the request gateway, the
// session engine and an interactive REPL. Typical flow: restore the session
// saved by the previous run, then execute user commands until exit.
//
// Key features:
//   - Login / Logout, with automatic logout after inactivity
//   - Live timer status with countdown, severity and vacation indicator
//   - Reset (acknowledges a triggered alarm), pause/resume, vacation mode
//   - Audit trail of session and timer events
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// ctx is cancelled. See runREPL for the command set.
package cli
