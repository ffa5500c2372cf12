package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/moviedeck/internal/events"
	"github.com/vmunix/moviedeck/internal/storage"
)

// Persisted keys.
const (
	KeyEmail   = "user_email"
	KeyToken   = "kakao_access_token"
	KeyProfile = "user_info"
	KeySession = "current_session"
)

// SessionTTL is how long a stored session stays valid.
const SessionTTL = 24 * time.Hour

// sessionRecord is stored under KeySession. Timestamp is Unix milliseconds.
type sessionRecord struct {
	Kind      Kind   `json:"kind"`
	Email     string `json:"email,omitempty"`
	LoggedIn  bool   `json:"logged_in"`
	Timestamp int64  `json:"timestamp"`
}

// Listener is called synchronously after every transition that changes the
// (authenticated, email, token) tuple.
type Listener func(ctx context.Context, s Session)

// Store holds the process-wide authentication state.
type Store struct {
	mu        sync.RWMutex
	kv        storage.Store
	session   Session
	apiKey    string
	provider  SocialProvider
	bus       *events.Bus
	now       func() time.Time
	logger    *slog.Logger
	listeners []Listener
}

// Option configures a Store.
type Option func(*Store)

// WithAPIKey sets the catalog API credential handed out by APIKey.
func WithAPIKey(key string) Option {
	return func(s *Store) {
		s.apiKey = key
	}
}

// WithProvider attaches the external social-auth provider.
func WithProvider(p SocialProvider) Option {
	return func(s *Store) {
		s.provider = p
	}
}

// WithBus publishes session.changed events on transitions.
func WithBus(bus *events.Bus) Option {
	return func(s *Store) {
		s.bus = bus
	}
}

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store and restores the persisted session without validating it.
// Unreadable state starts anonymous. Call CheckAuth to enforce expiry and
// social validity.
func New(ctx context.Context, kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		session: Anonymous(),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	p, err := s.readPersisted(ctx)
	if err != nil {
		s.logger.Warn("could not restore session", "error", err)
		return s
	}
	s.session = p.session()
	if s.provider != nil && s.session.Kind == KindSocial {
		s.provider.SetAccessToken(s.session.Token)
	}
	return s
}

// OnChange registers a listener for identity transitions.
func (s *Store) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// IsAuthenticated reports whether someone is logged in.
func (s *Store) IsAuthenticated() bool {
	return s.Session().Authenticated()
}

// APIKey returns the catalog credential.
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// DisplayName returns the name to greet the user with.
func (s *Store) DisplayName() string {
	return s.Session().DisplayName()
}

// PartitionKey returns the wishlist partition of the current session.
func (s *Store) PartitionKey() string {
	return s.Session().PartitionKey()
}

// Login switches to an email session.
func (s *Store) Login(ctx context.Context, email string) error {
	if email == "" {
		return errors.New("login: empty email")
	}
	next := Session{Kind: KindEmail, Email: email}
	if err := s.persist(ctx, next); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.logger.Info("logged in", "kind", KindEmail, "email", email)
	s.transition(ctx, next)
	return nil
}

// SocialLogin switches to a social session.
func (s *Store) SocialLogin(ctx context.Context, token string, profile Profile) error {
	if token == "" {
		return errors.New("social login: empty token")
	}
	next := Session{Kind: KindSocial, Token: token, Profile: &profile}
	if err := s.persist(ctx, next); err != nil {
		return fmt.Errorf("social login: %w", err)
	}
	if s.provider != nil {
		s.provider.SetAccessToken(token)
	}
	s.logger.Info("logged in", "kind", KindSocial, "user_id", profile.ID)
	s.transition(ctx, next)
	return nil
}

// Logout returns to anonymous. A provider-side logout failure is logged and
// does not stop the local transition.
func (s *Store) Logout(ctx context.Context) error {
	current := s.Session()
	if current.Kind == KindSocial && s.provider != nil && s.provider.AccessToken() != "" {
		if err := s.provider.Logout(ctx); err != nil {
			s.logger.Warn("social provider logout failed", "error", err)
		}
	}
	if s.provider != nil {
		s.provider.SetAccessToken("")
	}

	err := s.clear(ctx)
	if err != nil {
		err = fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("logged out", "previous", current.Kind)
	s.transition(ctx, Anonymous())
	return err
}

// CheckAuth re-derives the session from storage. Sessions older than
// SessionTTL, unreadable state, and social tokens the provider no longer
// reports as connected all force a logout. Social validation is awaited, so
// the returned value already reflects it.
func (s *Store) CheckAuth(ctx context.Context) bool {
	p, err := s.readPersisted(ctx)
	if err != nil {
		s.logger.Error("auth check failed", "error", err)
		_ = s.Logout(ctx)
		return false
	}

	next := p.session()
	if !p.hasIdentity() {
		s.transition(ctx, Anonymous())
		return false
	}
	if p.record == nil || s.now().Sub(time.UnixMilli(p.record.Timestamp)) > SessionTTL {
		s.logger.Info("session expired")
		_ = s.Logout(ctx)
		return false
	}
	if next.Kind == KindAnonymous {
		// A token without a profile cannot name a partition.
		_ = s.Logout(ctx)
		return false
	}

	s.transition(ctx, next)

	if next.Kind == KindSocial && s.provider != nil {
		if s.provider.AccessToken() != "" {
			status, err := s.provider.StatusInfo(ctx)
			if err != nil || status != StatusConnected {
				s.logger.Warn("social session no longer valid", "status", status, "error", err)
				_ = s.Logout(ctx)
				return false
			}
		}
	}

	s.logger.Debug("auth checked", "kind", next.Kind, "email", next.Email)
	return true
}

// transition installs next and notifies listeners when the watched tuple changed.
func (s *Store) transition(ctx context.Context, next Session) {
	s.mu.Lock()
	prev := s.session
	s.session = next
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if prev.watchKey() == next.watchKey() {
		return
	}
	for _, l := range listeners {
		l(ctx, next)
	}
	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewSessionChanged(string(next.Kind), next.Email, next.socialUserID()))
	}
}

func (s *Store) persist(ctx context.Context, next Session) error {
	record := sessionRecord{
		Kind:      next.Kind,
		Email:     next.Email,
		LoggedIn:  true,
		Timestamp: s.now().UnixMilli(),
	}

	switch next.Kind {
	case KindEmail:
		if err := s.kv.Set(ctx, KeyEmail, []byte(next.Email)); err != nil {
			return err
		}
		if err := s.deleteKeys(ctx, KeyToken, KeyProfile); err != nil {
			return err
		}
	case KindSocial:
		if err := s.kv.Set(ctx, KeyToken, []byte(next.Token)); err != nil {
			return err
		}
		if err := storage.SetJSON(ctx, s.kv, KeyProfile, next.Profile); err != nil {
			return err
		}
		if err := s.deleteKeys(ctx, KeyEmail); err != nil {
			return err
		}
	}
	return storage.SetJSON(ctx, s.kv, KeySession, record)
}

func (s *Store) clear(ctx context.Context) error {
	return s.deleteKeys(ctx, KeyEmail, KeyToken, KeyProfile, KeySession)
}

func (s *Store) deleteKeys(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := s.kv.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// persisted is the raw identity state found in storage.
type persisted struct {
	email   string
	token   string
	profile *Profile
	record  *sessionRecord
}

func (p persisted) hasIdentity() bool {
	return p.email != "" || p.token != ""
}

// session derives the variant. Email wins if both are somehow present.
func (p persisted) session() Session {
	switch {
	case p.email != "":
		return Session{Kind: KindEmail, Email: p.email}
	case p.token != "" && p.profile != nil:
		return Session{Kind: KindSocial, Token: p.token, Profile: p.profile}
	default:
		return Anonymous()
	}
}

func (s *Store) readPersisted(ctx context.Context) (persisted, error) {
	var p persisted

	email, _, err := s.kv.Get(ctx, KeyEmail)
	if err != nil {
		return p, err
	}
	token, _, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		return p, err
	}
	p.email = string(email)
	p.token = string(token)

	var profile Profile
	ok, err := storage.GetJSON(ctx, s.kv, KeyProfile, &profile)
	if err != nil {
		return p, err
	}
	if ok {
		p.profile = &profile
	}

	var record sessionRecord
	ok, err = storage.GetJSON(ctx, s.kv, KeySession, &record)
	if err != nil {
		return p, err
	}
	if ok {
		p.record = &record
	}
	return p, nil
}
