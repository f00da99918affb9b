package models

import "time"

// Session is one ongoing conversation between a user and a philosopher persona.
// PublicID is the opaque identifier exposed by the API; ID stays internal.
type Session struct {
	ID        int64     `json:"-"`
	PublicID  string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Persona   string    `json:"philosopher"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
