package domain

import "time"

// Principal is an administrator account able to authenticate with a bearer
// credential. Only staff principals may broadcast.
type Principal struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsStaff      bool       `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser" db:"is_superuser"`
	DateJoined   time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`
}

// Credential is the opaque bearer token held by a principal. There is at
// most one per principal; re-issuing refreshes IssuedAt in place.
type Credential struct {
	Key         string    `json:"key" db:"key"`
	PrincipalID int64     `json:"principal_id" db:"principal_id"`
	IssuedAt    time.Time `json:"issued_at" db:"issued_at"`
}

// Age returns how long ago the credential was issued, relative to now.
func (c Credential) Age(now time.Time) time.Duration {
	return now.Sub(c.IssuedAt)
}

// Expired reports whether the credential has outlived lifetime. A credential
// whose age equals the lifetime exactly is still valid.
func (c Credential) Expired(now time.Time, lifetime time.Duration) bool {
	return c.Age(now) > lifetime
}

// DefaultTokenLifetime is the deployment default for credential validity.
const DefaultTokenLifetime = 14 * 24 * time.Hour

// LoginResult is returned to a principal after a successful token login.
type LoginResult struct {
	Token       string `json:"token"`
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}
