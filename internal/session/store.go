package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/observability"
	"github.com/noah-isme/courseforge-portal/internal/storage"
)

const (
	userKey  = "user"
	tokenKey = "token"
)

// Authenticator is the backend surface the session needs.
type Authenticator interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (dto.LoginResponse, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context, token string) (dto.RefreshTokenResponse, error)
	Profile(ctx context.Context) (models.User, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error
	ResetPassword(ctx context.Context, email string) error
}

// Option customises a Store.
type Option func(*Store)

// WithNotifier publishes lifecycle events to n.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store owns the single authenticated session of the process and its persisted copy.
type Store struct {
	auth      Authenticator
	kv        storage.Store
	validator *validator.Validate
	schema    *jsonschema.Schema
	notifier  Notifier
	logger    zerolog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	session *models.Session
}

// NewStore constructs the store and hydrates any persisted session.
func NewStore(ctx context.Context, auth Authenticator, kv storage.Store, validate *validator.Validate, logger zerolog.Logger, opts ...Option) (*Store, error) {
	schema, err := compileUserSchema()
	if err != nil {
		return nil, err
	}

	s := &Store{
		auth:      auth,
		kv:        kv,
		validator: validate,
		schema:    schema,
		logger:    logger.With().Str("component", "session_store").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hydrate(ctx)
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) {
	rawUser, hasUser, err := s.kv.Get(ctx, userKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted user")
		return
	}
	token, hasToken, err := s.kv.Get(ctx, tokenKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted token")
		return
	}

	if !hasUser && !hasToken {
		return
	}
	if !hasUser || !hasToken || strings.TrimSpace(token) == "" {
		s.logger.Warn().Bool("has_user", hasUser).Bool("has_token", hasToken).Msg("discarding partial persisted session")
		s.purge(ctx)
		return
	}

	user, err := decodeUser(s.schema, rawUser)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding malformed persisted session")
		s.purge(ctx)
		return
	}

	restored := models.Session{User: user, Token: token, ExpiresAt: tokenExpiry(token)}
	if restored.Expired(s.now()) {
		s.logger.Info().Uint("user_id", user.ID).Msg("persisted session already expired")
		s.purge(ctx)
		return
	}

	s.session = &restored
	s.logger.Debug().Uint("user_id", user.ID).Msg("session restored")
}

func (s *Store) purge(ctx context.Context) {
	if err := s.kv.Delete(ctx, userKey, tokenKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear persisted session")
	}
}

// Login authenticates with email and password and makes the result the active session.
func (s *Store) Login(ctx context.Context, req dto.LoginRequest) (models.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := dto.Validate(s.validator, req); err != nil {
		return models.Session{}, err
	}

	resp, err := s.auth.Login(ctx, req)
	if err != nil {
		return models.Session{}, err
	}
	return s.activate(ctx, resp, EventLogin)
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, req dto.RegisterRequest) (models.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := dto.Validate(s.validator, req); err != nil {
		return models.Session{}, err
	}

	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		return models.Session{}, err
	}
	return s.activate(ctx, resp, EventRegister)
}

func (s *Store) activate(ctx context.Context, resp dto.LoginResponse, event string) (models.Session, error) {
	if err := ctx.Err(); err != nil {
		return models.Session{}, apperr.Wrap(apperr.KindCanceled, "", err)
	}
	if resp.Token == "" || resp.User.ID == 0 {
		return models.Session{}, apperr.New(apperr.KindRequestFailure, "invalid response payload")
	}

	next := models.Session{User: resp.User, Token: resp.Token, ExpiresAt: expiryOf(resp.ExpiresAt, resp.Token)}

	s.mu.Lock()
	err := s.persist(ctx, next)
	if err == nil {
		s.session = &next
	}
	s.mu.Unlock()

	if err != nil {
		return models.Session{}, apperr.Wrap(apperr.KindRequestFailure, "failed to persist session", err)
	}

	s.logger.Info().Uint("user_id", next.User.ID).Str("role", string(next.User.Role)).Str("event", event).Msg("session started")
	s.emit(ctx, event, next.User.ID)
	return next, nil
}

func (s *Store) persist(ctx context.Context, session models.Session) error {
	rawUser, err := json.Marshal(session.User)
	if err != nil {
		return err
	}
	return s.kv.SetAll(ctx, map[string]string{
		userKey:  string(rawUser),
		tokenKey: session.Token,
	})
}

// Logout ends the session. The backend call is best effort; local state is always cleared.
func (s *Store) Logout(ctx context.Context) {
	current, ok := s.Current()
	if ok {
		if err := s.auth.Logout(ctx); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", current.User.ID).Msg("remote logout failed")
		}
	}

	s.clear(context.WithoutCancel(ctx))
	if ok {
		s.emit(ctx, EventLogout, current.User.ID)
	}
}

// Expire drops the session after the backend rejected its token.
func (s *Store) Expire(ctx context.Context) {
	current, ok := s.Current()
	s.clear(context.WithoutCancel(ctx))
	if ok {
		s.logger.Info().Uint("user_id", current.User.ID).Msg("session expired")
		s.emit(ctx, EventExpired, current.User.ID)
	}
}

func (s *Store) clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.purge(ctx)
}

// RefreshProfile re-reads the current user from the backend.
func (s *Store) RefreshProfile(ctx context.Context) (models.User, error) {
	current, ok := s.Current()
	if !ok {
		return models.User{}, apperr.New(apperr.KindNoSession, "")
	}

	user, err := s.auth.Profile(ctx)
	if err != nil {
		return models.User{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.User{}, apperr.Wrap(apperr.KindCanceled, "", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.Token != current.Token {
		return models.User{}, apperr.New(apperr.KindNoSession, "")
	}

	next := *s.session
	next.User = user
	if err := s.persist(ctx, next); err != nil {
		return models.User{}, apperr.Wrap(apperr.KindRequestFailure, "failed to persist session", err)
	}
	s.session = &next
	return user, nil
}

// RefreshToken swaps the current token for a fresh one.
func (s *Store) RefreshToken(ctx context.Context) (models.Session, error) {
	current, ok := s.Current()
	if !ok {
		return models.Session{}, apperr.New(apperr.KindNoSession, "")
	}

	resp, err := s.auth.Refresh(ctx, current.Token)
	if err != nil {
		return models.Session{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Session{}, apperr.Wrap(apperr.KindCanceled, "", err)
	}
	if resp.Token == "" {
		return models.Session{}, apperr.New(apperr.KindRequestFailure, "invalid response payload")
	}

	s.mu.Lock()
	if s.session == nil || s.session.Token != current.Token {
		s.mu.Unlock()
		return models.Session{}, apperr.New(apperr.KindNoSession, "")
	}
	next := *s.session
	next.Token = resp.Token
	next.ExpiresAt = expiryOf(resp.ExpiresAt, resp.Token)
	err = s.persist(ctx, next)
	if err == nil {
		s.session = &next
	}
	s.mu.Unlock()

	if err != nil {
		return models.Session{}, apperr.Wrap(apperr.KindRequestFailure, "failed to persist session", err)
	}
	s.emit(ctx, EventRefresh, next.User.ID)
	return next, nil
}

// ChangePassword updates the password of the signed-in user.
func (s *Store) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error {
	if _, ok := s.Current(); !ok {
		return apperr.New(apperr.KindNoSession, "")
	}
	if err := dto.Validate(s.validator, req); err != nil {
		return err
	}
	return s.auth.ChangePassword(ctx, req)
}

// ResetPassword requests a reset link for email.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	req := dto.ResetPasswordRequest{Email: strings.TrimSpace(email)}
	if err := dto.Validate(s.validator, req); err != nil {
		return err
	}
	return s.auth.ResetPassword(ctx, req.Email)
}

// Current returns the active session, if any.
func (s *Store) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return models.Session{}, false
	}
	return *s.session, true
}

// User returns the signed-in user, if any.
func (s *Store) User() (models.User, bool) {
	current, ok := s.Current()
	return current.User, ok
}

// Token returns the bearer token or an empty string.
func (s *Store) Token() string {
	current, _ := s.Current()
	return current.Token
}

// Close releases the persisted storage handle.
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) emit(ctx context.Context, event string, userID uint) {
	observability.SessionTransitions().WithLabelValues(event).Inc()
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, Event{Event: event, UserID: userID, At: s.now().UTC()}); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("failed to publish session event")
	}
}

func expiryOf(unix int64, token string) time.Time {
	if unix > 0 {
		return time.Unix(unix, 0).UTC()
	}
	return tokenExpiry(token)
}

// tokenExpiry reads the exp claim without verifying the signature. Non-JWT tokens yield zero.
func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time.UTC()
}
