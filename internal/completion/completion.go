package completion

import (
	"context"
	"errors"

	"philoschat/internal/models"
)

// ErrUnavailable marks transport or upstream failures of the completion
// service. Callers distinguish it from persistence errors so an already
// stored user turn survives a failed reply.
var ErrUnavailable = errors.New("completion service unavailable")

// Turn is one (role, text) pair of the ordered prompt context.
type Turn struct {
	Role    models.Role
	Content string
}

// Completer turns an ordered, non-empty message sequence into one generated
// reply. Implementations perform a single synchronous upstream call bounded
// by the request context; no retries.
type Completer interface {
	Complete(ctx context.Context, turns []Turn) (string, error)
}
