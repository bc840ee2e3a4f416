package session

import (
	"github.com/ghaggin/smartsplit/internal/api"
)

const (
	opLogin    = "login"
	opRegister = "register"
)

var fallbackMessages = map[string]string{
	opLogin:    "Login failed",
	opRegister: "Registration failed",
}

// AuthError is a failed login or registration. Message is what the server
// said, or a generic fallback.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Op + ": " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

func newAuthError(op string, err error) *AuthError {
	msg := api.ServerMessage(err)
	if msg == "" {
		msg = fallbackMessages[op]
	}
	return &AuthError{Op: op, Message: msg, Err: err}
}
