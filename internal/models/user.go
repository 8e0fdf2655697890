package models

import (
	"strings"

	"github.com/google/uuid"
)

// User is the locally-known identity of the participant running this client.
// It is created at login and never changes for the lifetime of the session.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUser builds a User with a fresh UUID. An empty name falls back to the
// local part of the email address.
func NewUser(name, email string) *User {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		name = EmailLocalPart(email)
	}
	return &User{
		ID:    uuid.New().String(),
		Name:  name,
		Email: email,
	}
}

// EmailLocalPart returns everything before the first "@".
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Initial returns the upper-cased first letter of the display name, used for
// the avatar tile shown while the camera is off.
func (u User) Initial() string {
	for _, r := range u.Name {
		return strings.ToUpper(string(r))
	}
	return "?"
}
