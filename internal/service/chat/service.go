package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"philoschat/internal/completion"
	"philoschat/internal/models"
	"philoschat/internal/persona"
)

var (
	ErrUnknownPersona = errors.New("philosopher not found")
	ErrEmptyInput     = errors.New("no message provided")
	// ErrNotFound covers both missing sessions and sessions owned by a
	// different user, so session identifiers cannot be probed.
	ErrNotFound = errors.New("session not found")
)

// Service orchestrates session lifecycle and the turn-taking protocol.
type Service struct {
	db        *sql.DB
	personas  *persona.Registry
	completer completion.Completer
}

// NewService builds the session service.
func NewService(db *sql.DB, personas *persona.Registry, completer completion.Completer) *Service {
	return &Service{db: db, personas: personas, completer: completer}
}

// lookupSession resolves a caller-visible session id to the stored record,
// scoped to the owning user.
func (s *Service) lookupSession(ctx context.Context, userID int64, publicID string) (*models.Session, error) {
	var session models.Session
	var summary sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, user_id, persona, summary, created_at, updated_at
		 FROM sessions WHERE public_id = ? AND user_id = ?`,
		publicID, userID,
	).Scan(&session.ID, &session.PublicID, &session.UserID, &session.Persona,
		&summary, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	session.Summary = summary.String
	return &session, nil
}

// appendMessage stores a message with the next sequence number and touches
// the session's updated_at timestamp, all in one transaction.
func (s *Service) appendMessage(ctx context.Context, sessionID int64, role models.Role, content string) (*models.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?`, sessionID,
	).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next seq: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, seq, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, role, content, seq, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit message: %w", err)
	}
	return &models.Message{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Seq:       seq,
		CreatedAt: now,
	}, nil
}

func (s *Service) listMessages(ctx context.Context, sessionID int64) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, seq, created_at
		 FROM messages WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := new(models.Message)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
