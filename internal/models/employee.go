package models

import (
	"strings"
	"time"
)

type Employee struct {
	ID        int64     `json:"id"`
	BadgeID   string    `json:"employee_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Position  string    `json:"position"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Name derives the display name from first/last name.
func (e *Employee) Name() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Initials renders up to two uppercase initials for avatar badges.
func (e *Employee) Initials() string {
	return Initials(e.Name())
}

// Initials builds up to two uppercase initials from a display name.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		runes := []rune(word)
		out = append(out, runes[0])
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}
