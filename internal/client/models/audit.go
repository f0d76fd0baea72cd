package models

import "time"

// AuditType classifies an audit entry.
type AuditType string

const (
	AuditLogin          AuditType = "login"
	AuditLoginFailed    AuditType = "login_failed"
	AuditLockout        AuditType = "lockout"
	AuditLogout         AuditType = "logout"
	AuditAutoLogout     AuditType = "auto_logout"
	AuditSessionExpired AuditType = "session_expired"
	AuditAction         AuditType = "action"
)

// AuditEntry is a single user-facing audit record.
type AuditEntry struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Type   AuditType `json:"type"`
	Text   string    `json:"text"`
	Detail string    `json:"detail,omitempty"`
}
