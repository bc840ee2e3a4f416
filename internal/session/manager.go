package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ghaggin/smartsplit/internal/api"
	"github.com/ghaggin/smartsplit/internal/epoch"
	"github.com/ghaggin/smartsplit/internal/model"
	"github.com/ghaggin/smartsplit/internal/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// AuthService is the remote side of authentication.
type AuthService interface {
	Login(ctx context.Context, creds model.Credentials) (string, *model.User, error)
	Register(ctx context.Context, profile model.Profile) (string, *model.User, error)
	CurrentUser(ctx context.Context) (*model.User, error)
}

// Manager owns the authenticated identity. All reads and writes of the
// persisted credential happen under mu together with the in-memory update.
type Manager struct {
	auth  AuthService
	store repository.Store
	log   *zap.Logger

	mu      sync.Mutex
	session model.Session
	gen     epoch.Counter
	// logouts supersedes logins and registrations still waiting on the server
	logouts epoch.Counter
}

// ErrSuperseded is returned by Login and Register when Logout ran while the
// server call was in flight. The new session is discarded.
var ErrSuperseded = errors.New("logged out while the request was in flight")

type Params struct {
	fx.In

	Auth  AuthService
	Store repository.Store
	Log   *zap.Logger
}

func New(p Params) *Manager {
	return &Manager{
		auth:  p.Auth,
		store: p.Store,
		log:   p.Log,
	}
}

// RegisterHooks should be invoked by fx
func RegisterHooks(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			m.Bootstrap(ctx)
			return nil
		},
	})
}

// Bootstrap hydrates the session from the store. A cached identity is
// usable as soon as Bootstrap returns; the server is asked to confirm it in
// the background. The returned channel is closed once that verification has
// settled, or immediately when nothing was cached.
func (m *Manager) Bootstrap(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	m.mu.Lock()
	token, user := m.readCached(ctx)
	tag := m.gen.Advance()
	if user == nil {
		m.session = model.Session{}
		m.mu.Unlock()
		close(done)
		return done
	}
	m.session = model.Session{
		Token:    token,
		Identity: user,
		State:    model.Verifying,
	}
	m.mu.Unlock()

	// verification outlives the caller's deadline
	vctx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		m.verify(vctx, tag)
	}()

	return done
}

// readCached returns the persisted pair, or nil when either half is missing
// or unreadable. Orphaned halves are removed. Callers hold mu.
func (m *Manager) readCached(ctx context.Context) (string, *model.User) {
	token, tokenErr := m.store.Get(ctx, repository.KeyToken)
	raw, userErr := m.store.Get(ctx, repository.KeyUser)

	if errors.Is(tokenErr, repository.ErrNotFound) && errors.Is(userErr, repository.ErrNotFound) {
		return "", nil
	}

	var user *model.User
	if tokenErr == nil && userErr == nil && token != "" {
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			user = &u
		} else {
			m.log.Warn("cached identity is unreadable", zap.Error(err))
		}
	}

	if user == nil {
		m.log.Info("discarding incomplete cached credential",
			zap.NamedError("token_err", tokenErr),
			zap.NamedError("user_err", userErr),
		)
		m.removeCached(ctx)
		return "", nil
	}

	return token, user
}

func (m *Manager) verify(ctx context.Context, tag epoch.Tag) {
	m.log.Debug("verifying cached session")

	user, err := m.auth.CurrentUser(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.gen.Current(tag) {
		m.log.Debug("discarding verification for superseded session")
		return
	}

	switch {
	case err == nil:
		m.session.Identity = user
		m.session.State = model.Verified
		m.log.Info("session verified", zap.Int64("user_id", user.ID))

	case api.KindOf(err) == api.KindUnauthorized:
		m.log.Info("server rejected cached credential, logging out", zap.Error(err))
		m.gen.Advance()
		if rmErr := m.removeCached(ctx); rmErr != nil {
			m.log.Error("failed clearing rejected credential", zap.Error(rmErr))
		}
		m.session = model.Session{State: model.Rejected}

	default:
		// ambiguous failure, keep the cached identity
		m.log.Warn("session verification failed, using cached identity", zap.Error(err))
		m.session.State = model.Unverified
	}
}

// Login authenticates against the server and, on success, persists and
// activates the new session. On failure the current session is unchanged.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	tag := m.logouts.Begin()
	token, user, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.log.Info("login failed", zap.Error(err))
		return nil, newAuthError(opLogin, err)
	}

	if err := m.establish(ctx, tag, token, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates an account and logs into it, with the same contract as
// Login.
func (m *Manager) Register(ctx context.Context, profile model.Profile) (*model.User, error) {
	tag := m.logouts.Begin()
	token, user, err := m.auth.Register(ctx, profile)
	if err != nil {
		m.log.Info("registration failed", zap.Error(err))
		return nil, newAuthError(opRegister, err)
	}

	if err := m.establish(ctx, tag, token, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (m *Manager) establish(ctx context.Context, tag epoch.Tag, token string, user *model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.logouts.Current(tag) {
		m.log.Info("discarding session established after logout")
		return ErrSuperseded
	}

	prev := m.session
	if err := m.writeCached(ctx, token, string(raw)); err != nil {
		m.log.Error("failed persisting session", zap.Error(err))
		m.restoreCached(ctx, prev)
		return err
	}

	m.gen.Advance()
	m.session = model.Session{
		Token:    token,
		Identity: user,
		State:    model.Verified,
	}
	return nil
}

// Logout clears the session and the persisted credential. The in-memory
// session is cleared even if the store fails; the store error is returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen.Advance()
	m.logouts.Advance()
	m.session = model.Session{}

	err := m.removeCached(ctx)
	if err != nil {
		m.log.Error("failed clearing persisted credential", zap.Error(err))
	}
	return err
}

func (m *Manager) writeCached(ctx context.Context, token string, user string) error {
	if err := m.store.Set(ctx, repository.KeyToken, token); err != nil {
		return err
	}
	return m.store.Set(ctx, repository.KeyUser, user)
}

// restoreCached puts the store back to match prev after a failed write.
func (m *Manager) restoreCached(ctx context.Context, prev model.Session) {
	var err error
	if prev.Identity == nil {
		err = m.removeCached(ctx)
	} else {
		var raw []byte
		raw, err = json.Marshal(prev.Identity)
		if err == nil {
			err = m.writeCached(ctx, prev.Token, string(raw))
		}
	}
	if err != nil {
		m.log.Error("failed restoring persisted credential", zap.Error(err))
	}
}

func (m *Manager) removeCached(ctx context.Context) error {
	return errors.Join(
		m.store.Remove(ctx, repository.KeyToken),
		m.store.Remove(ctx, repository.KeyUser),
	)
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	if s.Identity != nil {
		u := *s.Identity
		s.Identity = &u
	}
	return s
}

// Current returns the logged in user, or nil, and whether that answer is
// still awaiting confirmation from the server.
func (m *Manager) Current() (*model.User, bool) {
	s := m.Snapshot()
	return s.Identity, s.Provisional()
}

func (m *Manager) LoggedIn() bool {
	return m.Snapshot().LoggedIn()
}
