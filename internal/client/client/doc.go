// Package client contains the network side of the LebensSpur client.
//
// # Overview
//
// The package provides:
//  1. The Request Gateway (see Gateway): the single entry point for every
//     HTTP call to the device. It attaches the session credential, keeps
//     the device's session cookie, and turns a 401 on an authenticated call
//     into exactly one session teardown per session generation.
//  2. A typed device API (see Client and DeviceClient) for login, logout,
//     status polling and the mutating timer actions.
//
// # Error Handling
//
// Conditions are exposed as sentinel errors that callers match with
// errors.Is: ErrUnavailable (no response reached the device),
// ErrSessionExpired (the gateway already tore the session down),
// ErrUnauthorized (401 on a call made without a session), ErrRejected
// (well-formed failure response; see RejectedError) and ErrLockedOut (see
// LockoutError).
//
// The gateway never retries and imposes no timeout of its own; a failed poll
// is simply superseded by the next scheduled one.
package client
