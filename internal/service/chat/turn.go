package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"philoschat/internal/completion"
	"philoschat/internal/models"
)

const summaryMaxLen = 80

// fallbackInstruction mirrors the behavior when a session references a
// persona the registry no longer knows.
const fallbackInstruction = "You are a wise philosopher."

// AppendTurn runs one exchange: persist the user message, assemble the
// ordered context, call the completion gateway, persist the reply. The user
// message is deliberately NOT rolled back when the completion call fails, so
// no input is silently lost; callers receive the persisted user message
// together with an error wrapping completion.ErrUnavailable.
func (s *Service) AppendTurn(ctx context.Context, userID int64, publicID, text string) (userMsg, reply *models.Message, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, ErrEmptyInput
	}
	session, err := s.lookupSession(ctx, userID, publicID)
	if err != nil {
		return nil, nil, err
	}

	userMsg, err = s.appendMessage(ctx, session.ID, models.RoleUser, text)
	if err != nil {
		return nil, nil, err
	}

	turns, err := s.promptContext(ctx, session)
	if err != nil {
		return userMsg, nil, err
	}
	replyText, err := s.completer.Complete(ctx, turns)
	if err != nil {
		return userMsg, nil, fmt.Errorf("generate reply: %w", err)
	}

	reply, err = s.appendMessage(ctx, session.ID, models.RoleAssistant, replyText)
	if err != nil {
		return userMsg, nil, err
	}

	if session.Summary == "" {
		s.setSummary(ctx, session.ID, truncate(text, summaryMaxLen))
	}
	return userMsg, reply, nil
}

// promptContext assembles the ordered completion input: the stored system
// message when one exists (it has seq 0 and leads the log), otherwise the
// registry instruction for the session's current persona, followed by every
// turn oldest first.
func (s *Service) promptContext(ctx context.Context, session *models.Session) ([]completion.Turn, error) {
	messages, err := s.listMessages(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	turns := make([]completion.Turn, 0, len(messages)+1)
	if len(messages) == 0 || messages[0].Role != models.RoleSystem {
		instruction := fallbackInstruction
		if p, ok := s.personas.Get(session.Persona); ok {
			instruction = p.Instruction
		}
		turns = append(turns, completion.Turn{Role: models.RoleSystem, Content: instruction})
	}
	for _, m := range messages {
		turns = append(turns, completion.Turn{Role: m.Role, Content: m.Content})
	}
	return turns, nil
}

// setSummary fills an empty session summary; best effort, an error here must
// not fail the turn.
func (s *Service) setSummary(ctx context.Context, sessionID int64, summary string) {
	_, _ = s.db.ExecContext(ctx,
		`UPDATE sessions SET summary = ? WHERE id = ? AND (summary IS NULL OR summary = '')`,
		summary, sessionID,
	)
}

func truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max-1]) + "…"
}
