// Package accounts simulates local email/password registration. Passwords are
// kept as given; this is a convenience gate, not a security boundary.
package accounts

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vmunix/moviedeck/internal/identity"
	"github.com/vmunix/moviedeck/internal/storage"
)

// KeyUsers holds the registered user list.
const KeyUsers = "users"

// Failure messages.
const (
	MsgEmailRequired    = "email is required"
	MsgPasswordRequired = "password is required"
	MsgConfirmRequired  = "password confirmation is required"
	MsgTermsRequired    = "you must accept the terms"
	MsgInvalidEmail     = "invalid email format"
	MsgPasswordMismatch = "passwords do not match"
	MsgEmailTaken       = "email already registered"
	MsgEmailUnknown     = "email not registered"
	MsgWrongPassword    = "incorrect password"
	MsgStorageFailed    = "could not save account data"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is one registered local account.
type User struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Result is the outcome of a form submission. Failures are values, not errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func fail(msg string) Result {
	return Result{Message: msg}
}

// Service registers users and logs them into the identity store.
type Service struct {
	mu       sync.Mutex
	kv       storage.Store
	identity *identity.Store
	logger   *slog.Logger
}

// New creates a Service.
func New(kv storage.Store, id *identity.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		kv:       kv,
		identity: id,
		logger:   logger.With("component", "accounts"),
	}
}

// Register validates the form and stores a new user. It does not log in.
func (s *Service) Register(ctx context.Context, email, password, confirm string, termsAccepted bool) Result {
	if msg := firstError(
		validation.Validate(strings.TrimSpace(email), validation.Required.Error(MsgEmailRequired)),
		validation.Validate(strings.TrimSpace(password), validation.Required.Error(MsgPasswordRequired)),
		validation.Validate(strings.TrimSpace(confirm), validation.Required.Error(MsgConfirmRequired)),
		validation.Validate(termsAccepted, validation.Required.Error(MsgTermsRequired)),
		validation.Validate(email, validation.Match(emailPattern).Error(MsgInvalidEmail)),
		validation.Validate(confirm, validation.In(password).Error(MsgPasswordMismatch)),
	); msg != "" {
		return fail(msg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users(ctx)
	if err != nil {
		s.logger.Error("load users failed", "error", err)
		return fail(MsgStorageFailed)
	}
	if _, ok := find(users, email); ok {
		return fail(MsgEmailTaken)
	}

	users = append(users, User{Email: email, Password: password})
	if err := storage.SetJSON(ctx, s.kv, KeyUsers, users); err != nil {
		s.logger.Error("save users failed", "error", err)
		return fail(MsgStorageFailed)
	}
	s.logger.Info("user registered", "email", email)
	return Result{Success: true, Message: "registration complete"}
}

// Login checks credentials and, on success, switches the identity to email.
func (s *Service) Login(ctx context.Context, email, password string) Result {
	if msg := firstError(
		validation.Validate(strings.TrimSpace(email), validation.Required.Error(MsgEmailRequired)),
		validation.Validate(strings.TrimSpace(password), validation.Required.Error(MsgPasswordRequired)),
		validation.Validate(email, validation.Match(emailPattern).Error(MsgInvalidEmail)),
	); msg != "" {
		return fail(msg)
	}

	s.mu.Lock()
	users, err := s.users(ctx)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("load users failed", "error", err)
		return fail(MsgStorageFailed)
	}

	u, ok := find(users, email)
	if !ok {
		return fail(MsgEmailUnknown)
	}
	if u.Password != password {
		return fail(MsgWrongPassword)
	}

	if err := s.identity.Login(ctx, email); err != nil {
		s.logger.Error("login failed", "email", email, "error", err)
		return fail(MsgStorageFailed)
	}
	return Result{Success: true, Message: "welcome, " + s.identity.DisplayName()}
}

// Logout returns the identity to anonymous.
func (s *Service) Logout(ctx context.Context) error {
	return s.identity.Logout(ctx)
}

// Users lists registered accounts.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users(ctx)
}

func (s *Service) users(ctx context.Context) ([]User, error) {
	var users []User
	if _, err := storage.GetJSON(ctx, s.kv, KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func find(users []User, email string) (User, bool) {
	for _, u := range users {
		if u.Email == email {
			return u, true
		}
	}
	return User{}, false
}

func firstError(errs ...error) string {
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verr validation.Error
		if errors.As(err, &verr) {
			return verr.Message()
		}
		return err.Error()
	}
	return ""
}
