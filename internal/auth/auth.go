// Package auth signs owners up and in with email and password and issues the
// bearer tokens that scope every other request to one owner.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"finanse/internal/core"
	"finanse/internal/storage"
)

const (
	MinPasswordLength = 6
	issuer            = "finanse"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Session is what a successful sign-up or sign-in returns.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      core.User `json:"user"`
}

// SignupHook runs after an owner is created, for example to seed categories.
type SignupHook func(ctx context.Context, owner string) error

type Service struct {
	users    storage.UserStore
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
	onSignup SignupHook
	logger   *slog.Logger
}

type Option func(*Service)

// WithClock replaces the clock used for token timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCost sets the bcrypt cost; tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithSignupHook(h SignupHook) Option {
	return func(s *Service) { s.onSignup = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(users storage.UserStore, secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("component", "auth")
	return s
}

// SignUp creates an owner and returns a session for it.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var v core.ValidationError
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		v.Add("email", ErrInvalidEmail)
	}
	if len(password) < MinPasswordLength {
		v.Add("password", ErrWeakPassword)
	}
	if err := v.OrNil(); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return Session{}, err
	}
	s.logger.InfoContext(ctx, "Owner signed up", "owner", u.ID)

	if s.onSignup != nil {
		if err := s.onSignup(ctx, u.ID); err != nil {
			s.logger.WarnContext(ctx, "Signup hook failed", "owner", u.ID, "error", err)
		}
	}
	return s.session(u)
}

// SignIn checks the password and returns a fresh session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *Service) session(u core.User) (Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp.UTC(), User: u}, nil
}

// Verify returns the owner id carried by a valid token.
func (s *Service) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *Service) Profile(ctx context.Context, owner string) (core.User, error) {
	if owner == "" {
		return core.User{}, core.ErrUnauthenticated
	}
	return s.users.UserByID(ctx, owner)
}

// UpdateProfile changes the display name.
func (s *Service) UpdateProfile(ctx context.Context, owner, displayName string) (core.User, error) {
	return s.update(ctx, owner, func(u *core.User) {
		u.DisplayName = strings.TrimSpace(displayName)
	})
}

// SetTheme persists the dark mode preference.
func (s *Service) SetTheme(ctx context.Context, owner string, dark bool) (core.User, error) {
	return s.update(ctx, owner, func(u *core.User) { u.DarkMode = dark })
}

func (s *Service) update(ctx context.Context, owner string, apply func(*core.User)) (core.User, error) {
	u, err := s.Profile(ctx, owner)
	if err != nil {
		return core.User{}, err
	}
	apply(&u)
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return core.User{}, err
	}
	return u, nil
}

type ownerKey struct{}

// WithOwner stores the authenticated owner id in ctx.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFrom returns the authenticated owner id, or "" when there is none.
func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
