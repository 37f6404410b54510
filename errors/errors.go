package errors

import "fmt"

var (
	ErrMalformedMessage   = fmt.Errorf("malformed message")
	ErrMissingCredentials = fmt.Errorf("username and password required")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAlreadyOnline      = fmt.Errorf("username already in use")
	ErrStoreUnavailable   = fmt.Errorf("credential store unavailable")
	ErrConnClosed         = fmt.Errorf("connection closed")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
