package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"philoschat/internal/config"
	"philoschat/internal/models"
)

type fakeChatModel struct {
	reply    *schema.Message
	err      error
	received []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.received = in
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.CompletionConfig{
		BaseURL: "https://api.groq.com/openai/v1",
		Model:   "llama3-70b-8192",
	})
	if err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestCompleteMapsRoles(t *testing.T) {
	fake := &fakeChatModel{reply: &schema.Message{Role: schema.Assistant, Content: "Amor fati."}}
	client := &Client{chatModel: fake}

	got, err := client.Complete(context.Background(), []Turn{
		{Role: models.RoleSystem, Content: "You are Nietzsche."},
		{Role: models.RoleUser, Content: "What is eternal recurrence?"},
		{Role: models.RoleAssistant, Content: "Imagine living this life again."},
		{Role: models.RoleUser, Content: "Would I bear it?"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Amor fati." {
		t.Fatalf("unexpected reply: %q", got)
	}

	wantRoles := []schema.RoleType{schema.System, schema.User, schema.Assistant, schema.User}
	if len(fake.received) != len(wantRoles) {
		t.Fatalf("expected %d upstream messages, got %d", len(wantRoles), len(fake.received))
	}
	for i, msg := range fake.received {
		if msg.Role != wantRoles[i] {
			t.Fatalf("message %d: role %s, want %s", i, msg.Role, wantRoles[i])
		}
	}
}

func TestCompleteEmptyTurns(t *testing.T) {
	client := &Client{chatModel: &fakeChatModel{}}
	if _, err := client.Complete(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty turns")
	}
}

func TestCompleteUpstreamFailure(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("connection refused")}
	client := &Client{chatModel: fake}
	_, err := client.Complete(context.Background(), []Turn{{Role: models.RoleUser, Content: "hello"}})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	fake := &fakeChatModel{reply: &schema.Message{Role: schema.Assistant, Content: ""}}
	client := &Client{chatModel: fake}
	_, err := client.Complete(context.Background(), []Turn{{Role: models.RoleUser, Content: "hello"}})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for empty content, got %v", err)
	}
}
