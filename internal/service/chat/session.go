package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"philoschat/internal/models"
)

// CreateSession inserts a new session bound to a known philosopher. No
// messages are written; the system instruction is resolved from the registry
// at prompt time until a persona switch pins one into the log.
func (s *Service) CreateSession(ctx context.Context, userID int64, personaID string) (*models.Session, error) {
	if userID <= 0 {
		return nil, errors.New("user_id is required")
	}
	if _, ok := s.personas.Get(personaID); !ok {
		return nil, ErrUnknownPersona
	}

	now := time.Now().UTC()
	publicID := uuid.NewString()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (public_id, user_id, persona, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		publicID, userID, personaID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	return &models.Session{
		ID:        id,
		PublicID:  publicID,
		UserID:    userID,
		Persona:   personaID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ListSessions returns all sessions for a user ordered by last activity.
func (s *Service) ListSessions(ctx context.Context, userID int64) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, public_id, user_id, persona, summary, created_at, updated_at
		 FROM sessions WHERE user_id = ? ORDER BY updated_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var se models.Session
		var summary sql.NullString
		if err := rows.Scan(&se.ID, &se.PublicID, &se.UserID, &se.Persona, &summary, &se.CreatedAt, &se.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		se.Summary = summary.String
		sessions = append(sessions, se)
	}
	return sessions, rows.Err()
}

// GetSession returns one session and its ordered message log.
func (s *Service) GetSession(ctx context.Context, userID int64, publicID string) (*models.Session, []*models.Message, error) {
	session, err := s.lookupSession(ctx, userID, publicID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.listMessages(ctx, session.ID)
	if err != nil {
		return session, nil, err
	}
	return session, messages, nil
}

// SwitchPersona atomically replaces the session's philosopher and its stored
// system message. Prior user/assistant turns are untouched. The fresh system
// message takes seq 0 so it always leads the log, which also makes the switch
// idempotent in the persona id.
func (s *Service) SwitchPersona(ctx context.Context, userID int64, publicID, personaID string) (*models.Session, error) {
	p, ok := s.personas.Get(personaID)
	if !ok {
		return nil, ErrUnknownPersona
	}
	session, err := s.lookupSession(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET persona = ?, updated_at = ? WHERE id = ?`,
		personaID, now, session.ID,
	); err != nil {
		return nil, fmt.Errorf("update persona: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id = ? AND role = ?`,
		session.ID, models.RoleSystem,
	); err != nil {
		return nil, fmt.Errorf("delete system messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, seq, created_at) VALUES (?, ?, ?, 0, ?)`,
		session.ID, models.RoleSystem, p.Instruction, now,
	); err != nil {
		return nil, fmt.Errorf("insert system message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit persona switch: %w", err)
	}

	session.Persona = personaID
	session.UpdatedAt = now
	return session, nil
}

// DeleteSession removes a session and all related messages for the user.
func (s *Service) DeleteSession(ctx context.Context, userID int64, publicID string) error {
	session, err := s.lookupSession(ctx, userID, publicID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete session: %w", err)
	}
	return nil
}
