package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/finsite/backend/internal/infrastructure/media"
	"github.com/finsite/backend/internal/infrastructure/session"
	"github.com/finsite/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager errors
var (
	ErrSessionNotFound  = shared.NewDomainError("SESSION_NOT_FOUND", "Console session not found")
	ErrNotAuthenticated = shared.NewDomainError("NOT_AUTHENTICATED", "Please sign in to continue")
	ErrSessionExpired   = shared.NewDomainError("SESSION_EXPIRED", "Your session has expired, please sign in again")
	ErrDevLoginDisabled = shared.NewDomainError("DEV_LOGIN_DISABLED", "Dev login is not available")
	ErrMissingCreds     = shared.NewDomainError("MISSING_CREDENTIALS", "Email and password are required")
	ErrManagerClosed    = shared.NewDomainError("CONSOLE_SHUTDOWN", "Console is shutting down")
)

// ManagerConfig holds console session settings
type ManagerConfig struct {
	PollInterval time.Duration
	SessionTTL   time.Duration // Idle sessions are dropped by Sweep; also the token store TTL
}

type entry struct {
	session  Session
	console  *Console
	lastSeen time.Time
}

// Manager owns every console session of the process
type Manager struct {
	remote  CredentialProvider
	dev     CredentialProvider
	tokens  session.TokenStore
	backend BackendFactory
	images  ImageGenerator
	sink    media.ImageSink
	metrics *telemetry.ConsoleMetrics
	config  ManagerConfig
	logger  *zap.Logger
	now     func() time.Time

	// Parent of every polling loop, cancelled by Shutdown
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithDevProvider enables the dev login path
func WithDevProvider(p CredentialProvider) ManagerOption {
	return func(m *Manager) { m.dev = p }
}

// WithImageAssist sets the image generator and upload sink used by the editors
func WithImageAssist(images ImageGenerator, sink media.ImageSink) ManagerOption {
	return func(m *Manager) {
		m.images = images
		m.sink = sink
	}
}

// WithMetrics sets the console metrics recorder
func WithMetrics(metrics *telemetry.ConsoleMetrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a session manager
func NewManager(remote CredentialProvider, tokens session.TokenStore, backend BackendFactory, cfg ManagerConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		remote:   remote,
		tokens:   tokens,
		backend:  backend,
		config:   cfg,
		logger:   zap.NewNop(),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("console_sessions")
	m.baseCtx, m.baseCancel = context.WithCancel(context.Background())
	return m
}

// DevLoginAvailable reports whether the dev provider is configured
func (m *Manager) DevLoginAvailable() bool {
	return m.dev != nil
}

// Login submits credentials. On success the session is either
// authenticated, with polling started, or awaiting a second factor. On
// failure no session is kept and the returned session is logged out.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, shared.WriteResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{State: StateLoggedOut}, shared.ResultFromError(ErrMissingCreds, ""), ErrMissingCreds
	}
	out, err := m.remote.Login(ctx, email, password)
	if err != nil {
		m.metrics.RecordLogin(ctx, m.remote.Name(), false)
		logger.WithLogger(ctx, m.logger).Info("Console login rejected", zap.String("kind", string(shared.KindOf(err))))
		return Session{State: StateLoggedOut}, out.Result, err
	}

	sess := Session{ID: uuid.NewString(), State: StateLoggedOut, Via: m.remote.Name()}
	if out.RequiresSecondFactor {
		sess.State = StateAwaitingSecondFactor
		sess.tempToken = out.TempToken
		if err := m.put(&entry{session: sess, lastSeen: m.now()}); err != nil {
			return Session{State: StateLoggedOut}, shared.ResultFromError(err, ""), err
		}
		return sess, out.Result, nil
	}

	sess, err = m.authenticate(ctx, sess, out.Token)
	if err != nil {
		return Session{State: StateLoggedOut}, shared.ResultFromError(err, ""), err
	}
	return sess, out.Result, nil
}

// Verify completes a pending second-factor challenge
func (m *Manager) Verify(ctx context.Context, sessionID, code string) (Session, shared.WriteResult, error) {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	var pending Session
	if ok {
		pending = e.session
		e.lastSeen = m.now()
	}
	m.mu.Unlock()
	if !ok {
		return Session{State: StateLoggedOut}, shared.ResultFromError(ErrSessionNotFound, ""), ErrSessionNotFound
	}
	if pending.State != StateAwaitingSecondFactor {
		return pending, shared.ResultFromError(ErrNoSecondFactor, ""), ErrNoSecondFactor
	}

	out, err := m.remote.VerifySecondFactor(ctx, pending.tempToken, strings.TrimSpace(code))
	if err != nil {
		m.metrics.RecordLogin(ctx, m.remote.Name(), false)
		return pending, out.Result, err
	}

	sess, err := m.authenticate(ctx, pending, out.Token)
	if err != nil {
		return pending, shared.ResultFromError(err, ""), err
	}
	return sess, out.Result, nil
}

// DevLogin authenticates through the local dev provider. It never calls
// the Persistence Service.
func (m *Manager) DevLogin(ctx context.Context) (Session, error) {
	if m.dev == nil {
		return Session{State: StateLoggedOut}, ErrDevLoginDisabled
	}
	out, err := m.dev.Login(ctx, "", "")
	if err != nil {
		m.metrics.RecordLogin(ctx, m.dev.Name(), false)
		return Session{State: StateLoggedOut}, err
	}
	return m.authenticate(ctx, Session{ID: uuid.NewString(), Via: m.dev.Name()}, out.Token)
}

// Resume restores a session after a reload. A live session is returned as
// is; otherwise the persisted token is checked and, when still valid, a
// fresh console is started. Expired tokens are deleted, as are dev tokens
// once dev login is off or their signature no longer checks out.
func (m *Manager) Resume(ctx context.Context, sessionID string) (Session, error) {
	m.mu.Lock()
	if e, ok := m.sessions[sessionID]; ok && e.session.IsAuthenticated() {
		e.lastSeen = m.now()
		sess := e.session
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	token, err := m.tokens.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrTokenNotFound) {
			return Session{State: StateLoggedOut}, ErrSessionNotFound
		}
		return Session{State: StateLoggedOut}, err
	}
	if err := session.CheckToken(token, m.now()); err != nil {
		m.dropToken(ctx, sessionID)
		return Session{State: StateLoggedOut}, ErrSessionExpired
	}

	via := ViaResume
	if session.TokenIssuer(token) == DevTokenIssuer {
		if err := m.verifyDevToken(token); err != nil {
			logger.WithLogger(ctx, m.logger).Warn("Refused to resume dev console session", zap.Error(err))
			m.dropToken(ctx, sessionID)
			return Session{State: StateLoggedOut}, ErrDevLoginDisabled
		}
		via = ViaDev
	}

	return m.authenticate(ctx, Session{ID: sessionID, Via: via}, token)
}

func (m *Manager) verifyDevToken(token string) error {
	verifier, ok := m.dev.(TokenVerifier)
	if !ok {
		return ErrDevLoginDisabled
	}
	return verifier.VerifyToken(token)
}

func (m *Manager) dropToken(ctx context.Context, sessionID string) {
	if err := m.tokens.Delete(ctx, sessionID); err != nil {
		logger.WithLogger(ctx, m.logger).Warn("Failed to delete stale console token", logger.ErrorFields(err)...)
	}
}

// Console returns the workspace of an authenticated session
func (m *Manager) Console(sessionID string) (*Console, Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, Session{}, ErrSessionNotFound
	}
	if !e.session.IsAuthenticated() || e.console == nil {
		return nil, e.session, ErrNotAuthenticated
	}
	e.lastSeen = m.now()
	return e.console, e.session, nil
}

// Get returns the session record
func (m *Manager) Get(sessionID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return Session{State: StateLoggedOut}, ErrSessionNotFound
	}
	return e.session, nil
}

// Logout stops polling, forgets the session and deletes its persisted token
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok && e.console != nil {
		e.console.Stop()
	}
	if err := m.tokens.Delete(ctx, sessionID); err != nil {
		logger.WithLogger(ctx, m.logger).Warn("Failed to delete console token", logger.ErrorFields(err)...)
		return err
	}
	return nil
}

// Sweep ends sessions idle longer than the configured TTL. Persisted
// tokens are kept, so a later Resume can restore them until they expire.
func (m *Manager) Sweep() int {
	if m.config.SessionTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.config.SessionTTL)
	var stale []*entry
	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		if e.console != nil {
			e.console.Stop()
		}
	}
	return len(stale)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown stops every console. Persisted tokens are kept.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	m.baseCancel()

	done := make(chan struct{})
	go func() {
		for _, e := range entries {
			if e.console != nil {
				e.console.Stop()
			}
		}
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Console sessions stopped", zap.Int("count", len(entries)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) authenticate(ctx context.Context, sess Session, token string) (Session, error) {
	sess.State = StateAuthenticated
	sess.Token = token
	sess.tempToken = ""
	sess.AuthenticatedAt = m.now()

	con := New(m.backend(token), Options{
		PollInterval: m.config.PollInterval,
		Images:       m.images,
		Sink:         m.sink,
		Metrics:      m.metrics,
		Logger:       m.logger,
	})
	if err := m.put(&entry{session: sess, console: con, lastSeen: m.now()}); err != nil {
		return Session{State: StateLoggedOut}, err
	}

	if err := m.tokens.Save(ctx, sess.ID, token, m.tokenTTL(token)); err != nil {
		logger.WithLogger(ctx, m.logger).Warn("Failed to persist console token", logger.ErrorFields(err)...)
	}

	con.Start(m.baseCtx)
	m.metrics.RecordLogin(ctx, sess.Via, true)
	logger.WithLogger(ctx, m.logger).Info("Console session authenticated", zap.String("via", sess.Via))
	return sess, nil
}

// put stores e, replacing and stopping any console previously held under
// the same ID
func (m *Manager) put(e *entry) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	prev := m.sessions[e.session.ID]
	m.sessions[e.session.ID] = e
	m.mu.Unlock()

	if prev != nil && prev.console != nil {
		prev.console.Stop()
	}
	return nil
}

func (m *Manager) tokenTTL(token string) time.Duration {
	ttl := m.config.SessionTTL
	if exp, ok, err := session.TokenExpiry(token); err == nil && ok {
		if until := exp.Sub(m.now()); until > 0 && (ttl <= 0 || until < ttl) {
			ttl = until
		}
	}
	return ttl
}
