package auth

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const unknownName = "Unknown"

// Session identifies the signed-in user. It is passed explicitly to the
// components that act on the user's behalf.
type Session struct {
	UserID          string    `json:"user_id"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"display_name"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

func (s Session) Valid() bool {
	return strings.TrimSpace(s.UserID) != ""
}

// ResolvedName is the name shown for the user: the display name, then the
// capitalised local part of the email, then "Unknown".
func (s Session) ResolvedName() string {
	if name := strings.TrimSpace(s.DisplayName); name != "" {
		return name
	}
	if name := NameFromEmail(s.Email); name != "" {
		return name
	}
	return unknownName
}

func (s Session) Fresh(now time.Time, window time.Duration) bool {
	if s.AuthenticatedAt.IsZero() {
		return false
	}
	return now.Sub(s.AuthenticatedAt) <= window
}

func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return ""
	}
	return cases.Title(language.Und).String(local)
}
