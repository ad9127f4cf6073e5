package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/ports"
)

// AuthService registers users and opens sessions.
type AuthService struct {
	users    ports.UserRepository
	balances ports.BalanceStore
	tokens   *auth.JWTManager
	options
}

func NewAuthService(users ports.UserRepository, balances ports.BalanceStore, tokens *auth.JWTManager, opts ...Option) *AuthService {
	return &AuthService{users: users, balances: balances, tokens: tokens, options: buildOptions(log.ComponentAuth, opts)}
}

// Register creates a user with a zero balance record.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (core.User, error) {
	name, email = strings.TrimSpace(name), core.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return core.User{}, core.ErrMissingFields
	}
	if err := core.ValidateRegistration(name, email, password); err != nil {
		return core.User{}, err
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return core.User{}, core.ErrEmailInUse
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, err
	}
	u := core.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return core.User{}, err
	}
	if err := s.balances.UpsertBalance(ctx, u.ID, core.Zero); err != nil {
		// a missing row reads as zero, so the account stays usable
		s.logger.WarnContext(ctx, "Initial balance not created", log.FieldUserID, u.ID, log.FieldError, err)
	}
	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, u.ID)
	return u, nil
}

// Login checks the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = core.NormalizeEmail(email)
	if email == "" || password == "" {
		return core.User{}, "", core.ErrMissingFields
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, "", err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "Login rejected", log.FieldUserID, u.ID)
		return core.User{}, "", err
	}
	token, err := s.tokens.Generate(u)
	if err != nil {
		return core.User{}, "", err
	}
	return u, token, nil
}

// Authenticate resolves a session token to its claims.
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUnauthenticated, err)
	}
	return claims, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (core.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// SessionTTL is the lifetime of issued tokens.
func (s *AuthService) SessionTTL() time.Duration { return s.tokens.Duration() }
