package session

import telemetry_core "tentspace/internal/features/telemetry/core"

// SessionUser is the visitor identified by an auth provider access token.
type SessionUser struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

func (u *SessionUser) ToUserContext() *telemetry_core.UserContext {
	return &telemetry_core.UserContext{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
	}
}
