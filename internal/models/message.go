package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn in a session's log. Messages are never mutated after
// creation; ordering within a session is by Seq, not by timestamp. The stored
// system message (if any) always carries Seq 0 so it leads the log.
type Message struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"-"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}
