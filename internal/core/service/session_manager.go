package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/api/metrics"
	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

const invalidAuthResponse = "Invalid response from server"

// LoginOptions tunes how a freshly authenticated session is stored.
// ExpiresAt wins over TTL; with neither the session never self-expires unless
// expiry derivation from the token is enabled.
type LoginOptions struct {
	RememberMe bool
	ExpiresAt  time.Time
	TTL        time.Duration
}

// LogoutOptions tunes logout cleanup.
type LogoutOptions struct {
	PreserveRememberMe bool
}

// SessionConfig holds optional session behaviours.
type SessionConfig struct {
	// VerifyOnRestore re-fetches the profile with GET /auth/me after a
	// successful restore and drops the session if the backend rejects it.
	VerifyOnRestore bool
	// ExpiryFromToken applies the JWT exp claim when the caller gave no expiry.
	ExpiryFromToken bool
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// SessionManager owns the session state machine of one context.
type SessionManager struct {
	mu    sync.RWMutex
	state domain.SessionState
	// tx serializes the transitions that write the stored pair, so a logout
	// can never interleave with another transition's read, save and commit.
	tx sync.Mutex

	store ports.SessionStore
	auth  ports.AuthClient
	bus   ports.Broadcaster
	cfg   SessionConfig
	now   func() time.Time
	log   zerolog.Logger
}

var _ ports.TokenSource = (*SessionManager)(nil)

func NewSessionManager(store ports.SessionStore, auth ports.AuthClient, bus ports.Broadcaster, cfg SessionConfig, log zerolog.Logger) *SessionManager {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		state: domain.SessionState{Phase: domain.PhaseInitial, IsLoading: true},
		store: store,
		auth:  auth,
		bus:   bus,
		cfg:   cfg,
		now:   now,
		log:   log,
	}
}

// ── Read-only views ───────────────────────────────────────────────────────────

// State returns a copy of the current session state.
func (m *SessionManager) State() domain.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	s.User = s.User.Clone()
	return s
}

func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsAuthenticated()
}

func (m *SessionManager) HasRole(role domain.Role) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsAuthenticated() && m.state.User.HasRole(role)
}

func (m *SessionManager) HasPermission(permission string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsAuthenticated() && m.state.User.HasPermission(permission)
}

// Token returns the bearer token, or "" when anonymous.
func (m *SessionManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.state.IsAuthenticated() {
		return ""
	}
	return m.state.Token
}

// ── Transitions ───────────────────────────────────────────────────────────────

// Restore rebuilds the session from persistent storage at startup. It always
// leaves the manager either authenticated or anonymous.
func (m *SessionManager) Restore(ctx context.Context) domain.Result {
	m.setState(domain.SessionState{Phase: domain.PhaseRestoring, IsLoading: true})

	stored, err := m.store.Load(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("session restore failed")
		m.cleanup(ctx, LogoutOptions{}, false)
		m.setState(domain.SessionState{Phase: domain.PhaseAnonymous, LastError: err.Error()})
		return domain.Failed(err.Error())
	}

	if stored.Empty() {
		m.setState(domain.SessionState{Phase: domain.PhaseAnonymous})
		return domain.Succeeded("")
	}

	if !stored.Complete() || !IsSessionValid(stored.Identity, m.now()) {
		m.log.Info().
			Bool("corrupt", stored.Corrupt).
			Bool("complete", stored.Complete()).
			Msg("discarding unusable stored session")
		m.cleanup(ctx, LogoutOptions{}, true)
		m.setState(domain.SessionState{Phase: domain.PhaseAnonymous})
		return domain.Succeeded("")
	}

	identity := stored.Identity
	if m.cfg.VerifyOnRestore {
		verified, drop := m.verify(ctx, identity, stored.Token)
		if drop {
			m.cleanup(ctx, LogoutOptions{}, true)
			m.setState(domain.SessionState{Phase: domain.PhaseAnonymous})
			return domain.Succeeded("")
		}
		identity = verified
	}

	m.setState(domain.SessionState{Phase: domain.PhaseAuthenticated, User: identity, Token: stored.Token})
	m.log.Info().Str("user_id", identity.ID).Msg("session restored")
	return domain.Succeeded("")
}

// verify asks the backend for the current profile. drop is true only when the
// backend rejected the token; network trouble keeps the stored session.
func (m *SessionManager) verify(ctx context.Context, stored *domain.Identity, token string) (*domain.Identity, bool) {
	fresh, err := m.auth.Me(ctx, token)
	if err != nil {
		if domain.IsAuthErrorKind(err, domain.KindInvalidCredentials) {
			m.log.Info().Msg("backend rejected stored token")
			return nil, true
		}
		m.log.Warn().Err(err).Msg("profile verification unavailable, keeping stored session")
		return stored, false
	}
	if fresh == nil {
		return stored, false
	}

	merged := fresh.Clone()
	merged.LoginTime = stored.LoginTime
	merged.ExpiresAt = stored.ExpiresAt
	if err := m.store.Save(ctx, merged, token, false); err != nil {
		m.log.Warn().Err(err).Msg("persist verified profile")
	}
	return merged, false
}

// Login authenticates against the backend and establishes a session.
// Failures are reported in the Result; an existing session is left intact.
func (m *SessionManager) Login(ctx context.Context, email, password string, opts LoginOptions) domain.Result {
	prev := m.beginAuthenticating()
	payload, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return m.failAuth(prev, "login", err)
	}
	return m.establish(ctx, prev, "login", payload, opts)
}

// Register creates an account and signs the new user in.
func (m *SessionManager) Register(ctx context.Context, input ports.RegisterInput, opts LoginOptions) domain.Result {
	prev := m.beginAuthenticating()
	payload, err := m.auth.Register(ctx, input)
	if err != nil {
		return m.failAuth(prev, "register", err)
	}
	return m.establish(ctx, prev, "register", payload, opts)
}

func (m *SessionManager) beginAuthenticating() domain.SessionState {
	m.mu.Lock()
	prev := m.state
	m.state.Phase = domain.PhaseAuthenticating
	m.state.IsLoading = true
	m.state.LastError = ""
	m.mu.Unlock()
	metrics.SessionTransitionsTotal.WithLabelValues(string(domain.PhaseAuthenticating)).Inc()
	return prev
}

func (m *SessionManager) failAuth(prev domain.SessionState, op string, err error) domain.Result {
	msg := domain.UserMessage(err)
	outcome := "error"
	var ae *domain.AuthError
	if errors.As(err, &ae) {
		outcome = string(ae.Kind)
	}
	metrics.AuthRequestsTotal.WithLabelValues(op, outcome).Inc()
	m.log.Info().Str("operation", op).Str("outcome", outcome).Msg("authentication failed")

	next := prev
	next.IsLoading = false
	next.LastError = msg
	if !prev.IsAuthenticated() {
		next = domain.SessionState{Phase: domain.PhaseAnonymous, LastError: msg}
	}
	m.setState(next)
	return domain.Failed(msg)
}

func (m *SessionManager) establish(ctx context.Context, prev domain.SessionState, op string, payload ports.AuthPayload, opts LoginOptions) domain.Result {
	if payload.User == nil || payload.Token == "" {
		return m.failAuth(prev, op, &domain.AuthError{Kind: domain.KindValidation, Message: invalidAuthResponse})
	}

	now := m.now().UTC().Truncate(time.Millisecond)
	identity := payload.User.Clone()
	identity.LoginTime = domain.At(now)
	switch {
	case !opts.ExpiresAt.IsZero():
		identity.ExpiresAt = domain.At(opts.ExpiresAt.UTC())
	case opts.TTL > 0:
		identity.ExpiresAt = domain.At(now.Add(opts.TTL))
	case m.cfg.ExpiryFromToken:
		if exp, ok := tokenExpiry(payload.Token); ok {
			identity.ExpiresAt = domain.At(exp)
		}
	}

	m.tx.Lock()
	defer m.tx.Unlock()
	if err := m.store.Save(ctx, identity, payload.Token, opts.RememberMe); err != nil {
		m.log.Error().Err(err).Msg("persist session")
		return m.failAuth(prev, op, err)
	}

	m.setState(domain.SessionState{Phase: domain.PhaseAuthenticated, User: identity, Token: payload.Token})
	metrics.AuthRequestsTotal.WithLabelValues(op, "ok").Inc()
	m.bus.Publish(ctx, domain.SessionMessage{Action: domain.ActionLogin, User: identity.Clone(), Timestamp: now})
	m.log.Info().Str("operation", op).Str("user_id", identity.ID).Msg("session established")
	return domain.Succeeded("")
}

// Logout ends the session. It is a no-op while anonymous: storage belongs to
// whichever context signed in last, and a kept remember-me flag stays kept.
func (m *SessionManager) Logout(ctx context.Context, opts LogoutOptions) domain.Result {
	m.tx.Lock()
	defer m.tx.Unlock()

	if !m.IsAuthenticated() {
		return domain.Succeeded("")
	}

	err := m.cleanup(ctx, opts, true)
	m.setState(domain.SessionState{Phase: domain.PhaseAnonymous})
	if err != nil {
		return domain.Failed(err.Error())
	}
	m.log.Info().Bool("preserve_remember_me", opts.PreserveRememberMe).Msg("logged out")
	return domain.Succeeded("")
}

func (m *SessionManager) cleanup(ctx context.Context, opts LogoutOptions, publish bool) error {
	err := m.store.Clear(ctx, opts.PreserveRememberMe)
	if err != nil {
		m.log.Error().Err(err).Msg("clear stored session")
	}
	if publish {
		m.bus.Publish(ctx, domain.SessionMessage{Action: domain.ActionLogout, Timestamp: m.now().UTC()})
	}
	return err
}

// UpdateUser merges patch into the current identity and re-persists it.
// The token is never touched.
func (m *SessionManager) UpdateUser(ctx context.Context, patch domain.IdentityPatch) domain.Result {
	m.tx.Lock()
	defer m.tx.Unlock()

	m.mu.RLock()
	if !m.state.IsAuthenticated() {
		m.mu.RUnlock()
		return domain.Failed(domain.ErrNotAuthenticated.Error())
	}
	updated := patch.Apply(m.state.User)
	token := m.state.Token
	m.mu.RUnlock()

	if err := m.store.Save(ctx, updated, token, false); err != nil {
		m.log.Error().Err(err).Msg("persist updated user")
		return domain.Failed(err.Error())
	}

	m.mu.Lock()
	if m.state.Token == token {
		m.state.User = updated
	}
	m.mu.Unlock()
	return domain.Succeeded("")
}

// RequestPasswordReset asks the backend to send a one-time code.
func (m *SessionManager) RequestPasswordReset(ctx context.Context, email string) domain.Result {
	msg, err := m.auth.RequestPasswordReset(ctx, email)
	return m.passThrough(ctx, "forgot_password", msg, err)
}

// ResetPassword sets a new password using a one-time code.
func (m *SessionManager) ResetPassword(ctx context.Context, email, otp, newPassword string) domain.Result {
	msg, err := m.auth.ResetPassword(ctx, email, otp, newPassword)
	return m.passThrough(ctx, "reset_password", msg, err)
}

func (m *SessionManager) passThrough(_ context.Context, op, msg string, err error) domain.Result {
	if err != nil {
		outcome := "error"
		var ae *domain.AuthError
		if errors.As(err, &ae) {
			outcome = string(ae.Kind)
		}
		metrics.AuthRequestsTotal.WithLabelValues(op, outcome).Inc()
		m.mu.Lock()
		m.state.LastError = domain.UserMessage(err)
		m.mu.Unlock()
		return domain.Failed(domain.UserMessage(err))
	}
	metrics.AuthRequestsTotal.WithLabelValues(op, "ok").Inc()
	return domain.Succeeded(msg)
}

// RefreshToken is a placeholder: tokens are never refreshed.
func (m *SessionManager) RefreshToken(context.Context) domain.Result {
	if !m.IsAuthenticated() {
		return domain.Failed(domain.ErrNotAuthenticated.Error())
	}
	return domain.Succeeded("")
}

// CheckExpiry logs out when the current identity has expired. It reports
// whether a logout happened.
func (m *SessionManager) CheckExpiry(ctx context.Context) bool {
	m.mu.RLock()
	expired := m.state.IsAuthenticated() && !IsSessionValid(m.state.User, m.now())
	m.mu.RUnlock()

	if !expired {
		return false
	}
	m.log.Info().Msg("session expired")
	m.Logout(ctx, LogoutOptions{})
	return true
}

// ── Cross-context synchronisation ─────────────────────────────────────────────

// Resync re-derives the in-memory state from storage. It never writes to
// storage, so a half-written pair from another context only shows as
// anonymous until the next change event arrives.
func (m *SessionManager) Resync(ctx context.Context) {
	stored, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("resync: load stored session")
		return
	}

	m.mu.Lock()
	if m.state.Phase == domain.PhaseAuthenticating || m.state.Phase == domain.PhaseRestoring {
		m.mu.Unlock()
		m.log.Debug().Msg("resync skipped, local transition in flight")
		return
	}

	if stored.Complete() && IsSessionValid(stored.Identity, m.now()) {
		m.state = domain.SessionState{Phase: domain.PhaseAuthenticated, User: stored.Identity, Token: stored.Token}
	} else {
		m.state = domain.SessionState{Phase: domain.PhaseAnonymous}
	}
	phase := m.state.Phase
	m.mu.Unlock()

	metrics.SessionTransitionsTotal.WithLabelValues(string(phase)).Inc()
}

// Listen subscribes to session broadcasts and, when watcher is non-nil, to
// storage change events, then resyncs on each one until ctx is done.
// It returns once the subscriptions are in place.
func (m *SessionManager) Listen(ctx context.Context, watcher ports.StorageWatcher) {
	msgs, err := m.bus.Subscribe(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("session broadcast unavailable")
		msgs = nil
	}

	var events <-chan domain.StorageEvent
	if watcher != nil {
		events, err = watcher.Watch(ctx)
		switch {
		case errors.Is(err, domain.ErrWatchUnsupported):
			m.log.Debug().Msg("storage backend has no change notifications")
		case err != nil:
			m.log.Warn().Err(err).Msg("storage change events unavailable")
		}
	}

	go m.listen(ctx, msgs, events)
}

func (m *SessionManager) listen(ctx context.Context, msgs <-chan domain.SessionMessage, events <-chan domain.StorageEvent) {
	for msgs != nil || events != nil {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				msgs = nil
				continue
			}
			m.log.Debug().Str("action", string(msg.Action)).Str("origin", msg.Origin).Msg("session broadcast received")
			metrics.CrossTabSyncTotal.WithLabelValues("broadcast").Inc()
			m.Resync(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Key != ports.KeyUser && ev.Key != ports.KeyToken {
				continue
			}
			metrics.CrossTabSyncTotal.WithLabelValues("storage").Inc()
			m.Resync(ctx)
		}
	}
}

func (m *SessionManager) setState(s domain.SessionState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	metrics.SessionTransitionsTotal.WithLabelValues(string(s.Phase)).Inc()
}
