package services

import "errors"

// Verification error kinds. These cross the API as stable codes; the app
// switches on the kind, never on message text. Provider-side kinds
// (duplicate account, bad credentials, no session) live in the provider
// package.
var (
	ErrEmailNotVerified = errors.New("email not verified")
	ErrCodeExpired      = errors.New("code expired")
	ErrCodeMismatch     = errors.New("code invalid")
	ErrResendThrottled  = errors.New("resend throttled")
	ErrUnknownPurpose   = errors.New("unknown verification purpose")
)
