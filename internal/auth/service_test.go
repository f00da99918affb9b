package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"philoschat/internal/config"
	"philoschat/internal/storage"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {
				DSN: ":memory:",
			},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// A second pool connection would see a fresh empty in-memory database.
	db.SetMaxOpenConns(1)
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	svc := NewService(db, nil, "test-secret", time.Hour, 24*time.Hour)
	return svc, db
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	user, err := svc.Register(ctx, "sokrates", "sokrates@example.com", "hemlock1", "hemlock1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID <= 0 {
		t.Fatalf("expected persisted user id")
	}
	if user.PasswordHash == "hemlock1" {
		t.Fatalf("password stored in plaintext")
	}

	got, err := svc.Authenticate(ctx, "sokrates", "hemlock1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("authenticated wrong user: %d vs %d", got.ID, user.ID)
	}

	if _, err := svc.Authenticate(ctx, "sokrates", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "hemlock1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	cases := []struct {
		name      string
		username  string
		email     string
		password  string
		password2 string
		field     string
	}{
		{"missing username", "", "a@example.com", "secret1", "secret1", "username"},
		{"missing email", "plato", "", "secret1", "secret1", "email"},
		{"bad email", "plato", "not-an-email", "secret1", "secret1", "email"},
		{"short password", "plato", "a@example.com", "abc", "abc", "password"},
		{"mismatch", "plato", "a@example.com", "secret1", "secret2", "password2"},
	}
	for _, tc := range cases {
		_, err := svc.Register(ctx, tc.username, tc.email, tc.password, tc.password2)
		var fe FieldErrors
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected FieldErrors, got %v", tc.name, err)
		}
		if _, ok := fe[tc.field]; !ok {
			t.Fatalf("%s: expected error on field %q, got %v", tc.name, tc.field, fe)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "diogenes", "diogenes@example.com", "barrel1", "barrel1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "diogenes", "other@example.com", "barrel1", "barrel1"); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser for username, got %v", err)
	}
	if _, err := svc.Register(ctx, "other", "diogenes@example.com", "barrel1", "barrel1"); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser for email, got %v", err)
	}
}

func TestIssuePairAndValidate(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	user, err := svc.Register(ctx, "zeno", "zeno@example.com", "paradox1", "paradox1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.IssuePair(ctx, user.ID)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	userID, err := svc.ValidateAccess(pair.Access)
	if err != nil || userID != user.ID {
		t.Fatalf("ValidateAccess: id=%d err=%v", userID, err)
	}

	if _, err := svc.ValidateAccess("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
	other := NewService(db, nil, "another-secret", time.Hour, 24*time.Hour)
	if _, err := other.ValidateAccess(pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken across secrets, got %v", err)
	}
}

func TestValidateExpiredAccess(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	expired := *svc
	expired.accessTTL = -time.Minute
	token, err := expired.issueAccess(1)
	if err != nil {
		t.Fatalf("issueAccess: %v", err)
	}
	if _, err := svc.ValidateAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	user, err := svc.Register(ctx, "herakleitos", "fire@example.com", "change1", "change1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.IssuePair(ctx, user.ID)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	next, userID, err := svc.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("refresh resolved wrong user: %d", userID)
	}
	if next.Refresh == pair.Refresh {
		t.Fatalf("refresh token not rotated")
	}

	// The old token must be single-use.
	if _, _, err := svc.Refresh(ctx, pair.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken reusing rotated token, got %v", err)
	}
	// The new one still works.
	if _, _, err := svc.Refresh(ctx, next.Refresh); err != nil {
		t.Fatalf("rotated token rejected: %v", err)
	}
}

func TestRefreshExpiredTokenPurged(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	user, err := svc.Register(ctx, "parmenides", "one@example.com", "being11", "being11")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.IssuePair(ctx, user.ID)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	// Backdate the stored expiry.
	if _, err := db.Exec(
		`UPDATE refresh_tokens SET expires_at = ? WHERE token = ?`,
		time.Now().UTC().Add(-time.Hour), pair.Refresh,
	); err != nil {
		t.Fatalf("backdate token: %v", err)
	}

	if _, _, err := svc.Refresh(ctx, pair.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired refresh, got %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM refresh_tokens WHERE token = ?`, pair.Refresh).Scan(&count); err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired refresh token not purged")
	}
}

func TestRevokeUserTokens(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	user, err := svc.Register(ctx, "anaximander", "apeiron@example.com", "bound11", "bound11")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	var pairs []TokenPair
	for i := 0; i < 3; i++ {
		pair, err := svc.IssuePair(ctx, user.ID)
		if err != nil {
			t.Fatalf("IssuePair %d: %v", i, err)
		}
		pairs = append(pairs, pair)
	}

	if err := svc.RevokeUserTokens(ctx, user.ID); err != nil {
		t.Fatalf("RevokeUserTokens: %v", err)
	}
	for i, pair := range pairs {
		if _, _, err := svc.Refresh(ctx, pair.Refresh); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("pair %d still refreshable after revoke all: %v", i, err)
		}
	}
}

func TestFieldErrorsMessage(t *testing.T) {
	fe := FieldErrors{"password": "too short", "email": "invalid"}
	want := "invalid fields: email, password"
	if got := fe.Error(); got != want {
		t.Fatalf("unexpected error string: %q", got)
	}
}
