package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"student-dashboard/internal/auth"
	"student-dashboard/internal/model"
	"student-dashboard/internal/store"
)

const UsersCollection = "users"

const minPasswordLength = 6

const (
	userFieldEmail        = "email"
	userFieldPasswordHash = "passwordHash"
	userFieldCreatedAt    = "createdAt"
)

// Provider is the identity service: it owns user accounts and issues signed
// session tokens. Browser-facing state lives in Client.
type Provider struct {
	users    store.Collection
	tokens   auth.TokenConfig
	now      func() time.Time
	logger   *slog.Logger
	validate *validator.Validate

	// createMu makes the duplicate check and insert of CreateUser atomic.
	createMu sync.Mutex
}

type Option func(*Provider)

func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

func NewProvider(users store.Collection, tokens auth.TokenConfig, opts ...Option) *Provider {
	p := &Provider{
		users:    users,
		tokens:   tokens,
		now:      time.Now,
		logger:   slog.Default(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type userRecord struct {
	id           string
	email        string
	passwordHash string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) checkEmail(email string) error {
	if err := p.validate.Var(email, "required,email"); err != nil {
		return newError(CodeInvalidEmail, err)
	}
	return nil
}

// CreateUser registers a new account. Existing emails fail with
// CodeEmailInUse.
func (p *Provider) CreateUser(ctx context.Context, email, password string) (model.Identity, error) {
	email = normalizeEmail(email)
	if err := p.checkEmail(email); err != nil {
		return model.Identity{}, err
	}
	if len(password) < minPasswordLength {
		return model.Identity{}, newError(CodeWeakPassword, fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}

	p.createMu.Lock()
	defer p.createMu.Unlock()

	_, found, err := p.lookup(ctx, email)
	if err != nil {
		return model.Identity{}, newError(CodeInternal, err)
	}
	if found {
		return model.Identity{}, newError(CodeEmailInUse, nil)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.Identity{}, newError(CodeInternal, fmt.Errorf("hash password: %w", err))
	}
	id, err := p.users.Insert(ctx, map[string]any{
		userFieldEmail:        email,
		userFieldPasswordHash: hash,
		userFieldCreatedAt:    p.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return model.Identity{}, newError(CodeInternal, fmt.Errorf("insert user: %w", err))
	}

	p.logger.Info("user created", "uid", id, "email", email)
	return model.Identity{UID: id, Email: email}, nil
}

func (p *Provider) lookup(ctx context.Context, email string) (userRecord, bool, error) {
	docs, err := p.users.ListAll(ctx)
	if err != nil {
		return userRecord{}, false, fmt.Errorf("list users: %w", err)
	}
	for _, doc := range docs {
		if normalizeEmail(model.CoerceString(doc.Fields[userFieldEmail])) != email {
			continue
		}
		return userRecord{
			id:           doc.ID,
			email:        email,
			passwordHash: model.CoerceString(doc.Fields[userFieldPasswordHash]),
		}, true, nil
	}
	return userRecord{}, false, nil
}

// authenticate checks credentials and returns a signed session token.
func (p *Provider) authenticate(ctx context.Context, email, password string) (model.Identity, string, time.Time, error) {
	email = normalizeEmail(email)
	if err := p.checkEmail(email); err != nil {
		return model.Identity{}, "", time.Time{}, err
	}

	user, found, err := p.lookup(ctx, email)
	if err != nil {
		return model.Identity{}, "", time.Time{}, newError(CodeInternal, err)
	}
	if !found {
		return model.Identity{}, "", time.Time{}, newError(CodeUserNotFound, nil)
	}
	if err := auth.CheckPassword(user.passwordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return model.Identity{}, "", time.Time{}, newError(CodeWrongPassword, nil)
		}
		return model.Identity{}, "", time.Time{}, newError(CodeInternal, err)
	}

	now := p.now()
	token, err := auth.CreateTokenAt(user.id, user.email, p.tokens, now)
	if err != nil {
		return model.Identity{}, "", time.Time{}, newError(CodeInternal, fmt.Errorf("create token: %w", err))
	}
	return model.Identity{UID: user.id, Email: user.email}, token, now.Add(p.tokens.Expiry), nil
}

// restore resolves a persisted session token. Invalid, expired or orphaned
// tokens resolve to no identity.
func (p *Provider) restore(ctx context.Context, token string) (*model.Identity, time.Time) {
	if token == "" {
		return nil, time.Time{}
	}
	claims, err := auth.VerifyToken(token, p.tokens)
	if err != nil {
		p.logger.Debug("session token rejected", "error", err)
		return nil, time.Time{}
	}
	if _, err := p.users.Get(ctx, claims.UserID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			p.logger.Error("session user lookup failed", "uid", claims.UserID, "error", err)
		}
		return nil, time.Time{}
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &model.Identity{UID: claims.UserID, Email: claims.Email}, expiresAt
}
