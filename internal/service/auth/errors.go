package auth

import "github.com/foxfolio/portfolio-api/internal/domain"

// Rejection is the reason a credential or login was refused.
type Rejection string

const (
	ReasonInvalidToken   Rejection = "invalid token"
	ReasonExpiredToken   Rejection = "expired token"
	ReasonDisabled       Rejection = "account disabled"
	ReasonBadCredentials Rejection = "unable to log in with provided credentials"
	ReasonWrongPassword  Rejection = "current password is incorrect"
)

// RejectedError is returned for every authentication failure. It matches
// domain.ErrUnauthorized.
type RejectedError struct {
	Reason Rejection
}

func (e *RejectedError) Error() string { return string(e.Reason) }

func (e *RejectedError) Is(target error) bool { return target == domain.ErrUnauthorized }

// Sentinel errors for the auth service layer.
var (
	ErrInvalidToken    = &RejectedError{Reason: ReasonInvalidToken}
	ErrExpiredToken    = &RejectedError{Reason: ReasonExpiredToken}
	ErrAccountDisabled = &RejectedError{Reason: ReasonDisabled}
	ErrBadCredentials  = &RejectedError{Reason: ReasonBadCredentials}
	ErrWrongPassword   = &RejectedError{Reason: ReasonWrongPassword}

	ErrNotStaff = &forbiddenError{msg: "administrator privileges required"}
)

type forbiddenError struct{ msg string }

func (e *forbiddenError) Error() string        { return e.msg }
func (e *forbiddenError) Is(target error) bool { return target == domain.ErrForbidden }
