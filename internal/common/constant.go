// Package common contains shared constants, sentinel errors and small byte
// helpers used by both the LebensSpur client and the device simulator.
package common

// AuthorizationHeader carries the session credential as "Bearer <token>".
const AuthorizationHeader = "Authorization"

// BearerPrefix precedes the token inside AuthorizationHeader.
const BearerPrefix = "Bearer "

// SessionCookieName is the cookie the device sets on successful login.
const SessionCookieName = "LS_SID"

// Metadata keys persisted by the client between runs.
const (
	MetaSessionToken      = "session_token"
	MetaSessionSavedAt    = "session_saved_at"
	MetaAutoLogoutMinutes = "auto_logout_minutes"
)
