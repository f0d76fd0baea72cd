package models

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse covers every shape POST /api/login answers with.
// RemainingAttempts is nil when the device did not report it.
type LoginResponse struct {
	Success           bool   `json:"success"`
	Token             string `json:"token,omitempty"`
	Error             string `json:"error,omitempty"`
	RemainingAttempts *int   `json:"remainingAttempts,omitempty"`
	LockoutSeconds    int    `json:"lockoutSeconds,omitempty"`
}

// ActionResponse is returned by the mutating timer endpoints and logout.
type ActionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// VacationRequest is the body of POST /api/timer/vacation. Days is omitted
// when vacation is being cleared.
type VacationRequest struct {
	Enabled bool `json:"enabled"`
	Days    int  `json:"days,omitempty"`
}
