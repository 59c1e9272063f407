package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noosyn/product-api/internal/core/domain"
	"github.com/noosyn/product-api/internal/core/ports"
)

// AuthService implements registration, login and principal resolution.
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenCodec
	cache  ports.PrincipalCache
	logger zerolog.Logger

	// dummyHash is compared against on unknown usernames.
	dummyHash string
}

const dummyPassword = "product-api/dummy-password"

// NewAuthService wires the auth core. cache may be nil to always read the
// role from the repository.
func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	cache ports.PrincipalCache,
	logger zerolog.Logger,
) *AuthService {
	s := &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		cache:  cache,
		logger: logger,
	}

	hash, err := hasher.Hash(dummyPassword)
	if err != nil {
		logger.Error().Err(err).Msg("failed to hash dummy password, unknown-user logins will not be padded")
	} else {
		s.dummyHash = hash
	}
	return s
}

// Register creates a USER account and returns a token for it.
//
// The lookup below only short-circuits the common case; two concurrent
// registrations can both pass it, so the repository's unique constraint is
// what actually guarantees one winner.
func (s *AuthService) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.ErrValidation
	}

	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return "", domain.ErrUsernameTaken
	case !errors.Is(err, domain.ErrUserNotFound):
		return "", fmt.Errorf("register: lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("register: hash password: %w", err)
	}

	saved, err := s.users.Save(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return "", err
		}
		return "", fmt.Errorf("register: save user: %w", err)
	}

	token, err := s.tokens.Issue(saved.Username, saved.Role)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Str("username", saved.Username).Msg("user registered")
	return token, nil
}

// Login verifies credentials and returns a fresh token. Unknown usernames and
// wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.ErrValidation
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Spend one hash comparison so the miss costs about the same as a bad password.
			s.hasher.Matches(password, s.dummyHash)
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: lookup user: %w", err)
	}

	if !s.hasher.Matches(password, user.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return token, nil
}

// ResolvePrincipal returns the principal for a verified token subject.
func (s *AuthService) ResolvePrincipal(ctx context.Context, username string) (domain.Principal, error) {
	if s.cache != nil {
		role, ok, err := s.cache.Get(ctx, username)
		if err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("principal cache read failed, using repository")
		} else if ok {
			return domain.Principal{Username: username, Role: role}, nil
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Principal{}, domain.ErrUnknownPrincipal
		}
		return domain.Principal{}, fmt.Errorf("resolve principal: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, user.Username, user.Role); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("principal cache write failed")
		}
	}

	return domain.Principal{Username: user.Username, Role: user.Role}, nil
}

// EnsureAdmin creates the ADMIN account named username unless it already
// exists. An empty password disables seeding.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return fmt.Errorf("ensure admin: %w: empty username", domain.ErrValidation)
	}
	if password == "" {
		s.logger.Warn().Str("username", username).Msg("admin password not configured, skipping admin seed")
		return nil
	}

	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		s.logger.Debug().Str("username", username).Msg("admin account already present")
		return nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return fmt.Errorf("ensure admin: lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("ensure admin: hash password: %w", err)
	}

	_, err = s.users.Save(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil
		}
		return fmt.Errorf("ensure admin: save user: %w", err)
	}

	s.logger.Info().Str("username", username).Msg("admin account created")
	return nil
}
