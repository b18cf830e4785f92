package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Visitor is an anonymous site user identified solely by email. Visitors
// accumulate through subscriptions, comments and contact messages and form
// the recipient set of every broadcast.
type Visitor struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name,omitempty" db:"name"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// DisplayName returns the visitor's name, or fallback when none is stored.
func (v Visitor) DisplayName(fallback string) string {
	if strings.TrimSpace(v.Name) == "" {
		return fallback
	}
	return v.Name
}

// NormalizeEmail trims surrounding whitespace. Matching is otherwise exact:
// the address is stored and compared as given.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// ValidateEmail checks that email is a bare, syntactically valid address.
func ValidateEmail(email string) error {
	if email == "" {
		return Required("email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return Invalid("email", "enter a valid email address")
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return Invalid("email", "enter a valid email address")
	}
	return nil
}

// ImportReport summarizes a bulk visitor import.
type ImportReport struct {
	Added    int `json:"added"`
	Existing int `json:"existing"`
	Invalid  int `json:"invalid"`
}
