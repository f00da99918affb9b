package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"philoschat/internal/models"
	"philoschat/internal/redis"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so callers cannot probe which one failed.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUser      = errors.New("username or email already taken")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// FieldErrors maps input field names to a validation message, mirroring the
// per-field payload of the register endpoint.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

const (
	tokenIssuer        = "philoschat"
	refreshCachePrefix = "refresh:"
)

// Service owns user accounts and credential issuance: short-lived JWT access
// tokens plus DB-backed refresh tokens fronted by an optional redis cache.
type Service struct {
	db             *sql.DB
	cache          *redis.Client
	secret         []byte
	accessTTL      time.Duration
	refreshTTL     time.Duration
	cookieName     string
	headerName     string
	csrfCookieName string
	csrfHeaderName string
}

// NewService constructs an auth service. cache may be nil, in which case the
// refresh_tokens table is consulted directly.
func NewService(db *sql.DB, cache *redis.Client, secret string, accessTTL, refreshTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Service{
		db:             db,
		cache:          cache,
		secret:         []byte(secret),
		accessTTL:      accessTTL,
		refreshTTL:     refreshTTL,
		cookieName:     "auth_token",
		headerName:     "Authorization",
		csrfCookieName: "csrf_token",
		csrfHeaderName: "X-CSRF-Token",
	}
}

// TokenPair is the credential pair handed out on register/login/refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Register creates a user after per-field validation. Duplicate usernames or
// emails return ErrDuplicateUser.
func (s *Service) Register(ctx context.Context, username, email, password, password2 string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	fe := FieldErrors{}
	if username == "" {
		fe["username"] = "This field is required."
	}
	if email == "" {
		fe["email"] = "This field is required."
	} else if !strings.Contains(email, "@") {
		fe["email"] = "Enter a valid email address."
	}
	if strings.TrimSpace(password) == "" {
		fe["password"] = "This field is required."
	} else if len(password) < 6 {
		fe["password"] = "Password must be at least 6 characters."
	}
	if password != password2 {
		fe["password2"] = "Passwords do not match."
	}
	if len(fe) > 0 {
		return nil, fe
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ? OR email = ?)`,
		username, email,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		username, email, string(hash), now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return &models.User{ID: id, Username: username, Email: email, PasswordHash: string(hash), CreatedAt: now}, nil
}

// Authenticate validates credentials and returns the user profile.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`, username,
	)
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// IssuePair mints an access JWT and a fresh refresh token for the user.
func (s *Service) IssuePair(ctx context.Context, userID int64) (TokenPair, error) {
	if userID <= 0 {
		return TokenPair{}, errors.New("invalid user id")
	}
	access, err := s.issueAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.issueRefresh(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Service) issueAccess(userID int64) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s *Service) issueRefresh(ctx context.Context, userID int64) (string, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.refreshTTL)
	for i := 0; i < 5; i++ {
		token, err := generateToken()
		if err != nil {
			return "", err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO refresh_tokens (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
			token, userID, now, expiresAt,
		)
		if err == nil {
			if s.cache != nil {
				_ = s.cache.Set(ctx, refreshCachePrefix+token, userID, s.refreshTTL)
			}
			return token, nil
		}
	}
	return "", errors.New("could not issue refresh token")
}

// ValidateAccess verifies the JWT signature and expiry, returning the user id.
func (s *Service) ValidateAccess(tokenStr string) (int64, error) {
	if tokenStr == "" {
		return 0, ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(tokenIssuer))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// Refresh rotates a refresh token: the presented token is invalidated and a
// new pair is issued for its user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, int64, error) {
	userID, err := s.lookupRefresh(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, 0, err
	}
	if err := s.RevokeRefresh(ctx, refreshToken); err != nil {
		return TokenPair{}, 0, err
	}
	pair, err := s.IssuePair(ctx, userID)
	if err != nil {
		return TokenPair{}, 0, err
	}
	return pair, userID, nil
}

func (s *Service) lookupRefresh(ctx context.Context, refreshToken string) (int64, error) {
	if refreshToken == "" {
		return 0, ErrInvalidToken
	}
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, refreshCachePrefix+refreshToken); err == nil {
			if userID, perr := strconv.ParseInt(val, 10, 64); perr == nil && userID > 0 {
				return userID, nil
			}
		}
	}
	var userID int64
	var expires time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM refresh_tokens WHERE token = ?`, refreshToken,
	).Scan(&userID, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInvalidToken
		}
		return 0, fmt.Errorf("lookup refresh token: %w", err)
	}
	if time.Now().UTC().After(expires) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, refreshToken)
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// RevokeRefresh deletes a single refresh token.
func (s *Service) RevokeRefresh(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, refreshCachePrefix+refreshToken)
	}
	return nil
}

// RevokeUserTokens removes all refresh tokens belonging to the user.
func (s *Service) RevokeUserTokens(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM refresh_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("list user tokens: %w", err)
	}
	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			rows.Close()
			return fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, token)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	if s.cache != nil {
		for _, token := range tokens {
			_ = s.cache.Del(ctx, refreshCachePrefix+token)
		}
	}
	return nil
}

// NewCSRFToken returns a random token used for CSRF protection.
func (s *Service) NewCSRFToken() (string, error) {
	return generateToken()
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

// AuthCookieName returns the cookie name storing access tokens.
func (s *Service) AuthCookieName() string {
	return s.cookieName
}

// CSRFCookieName returns the cookie used for CSRF tokens.
func (s *Service) CSRFCookieName() string {
	return s.csrfCookieName
}

// CSRFHeaderName returns the CSRF header name.
func (s *Service) CSRFHeaderName() string {
	return s.csrfHeaderName
}

// AccessTTL reports the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}
