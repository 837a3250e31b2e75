package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"plate-registry/internal/config"
	"plate-registry/internal/domain/plate"
	"plate-registry/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("invalid or expired token")
)

type UserStore interface {
	Create(ctx context.Context, user *plate.User) error
	FindByEmail(ctx context.Context, email string) (*plate.User, error)
}

type AuthService struct {
	users      UserStore
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
	log        zerolog.Logger
}

func NewAuthService(users UserStore, cfg config.AuthConfig, log zerolog.Logger) *AuthService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.TokenTTL,
		bcryptCost: cost,
		now:        time.Now,
		log:        log,
	}
}

func (s *AuthService) Register(ctx context.Context, payload plate.RegisterUserPayload) (*plate.User, error) {
	email := normalizeEmail(payload.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if payload.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user := &plate.User{
		Name:         strings.TrimSpace(payload.Name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, payload plate.LoginPayload) (*plate.LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(payload.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &plate.LoginResult{Token: token, ExpiresAt: expiresAt, UserID: user.ID}, nil
}

// ValidateToken returns the user id carried by a valid token.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
