// Package session owns authentication state: who is logged in, with what
// role, and whether the stored credential has been revalidated against the
// backend this process lifetime. It is the sole regular writer of the
// credential store.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/credstore"
	"github.com/valdiviesod/citasalud-cli/internal/logger"
	"github.com/valdiviesod/citasalud-cli/internal/models"
)

// Status is the authentication status.
type Status int

const (
	Unauthenticated Status = iota
	Checking
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Snapshot is a point-in-time copy of session state for readers.
type Snapshot struct {
	Status         Status
	Profile        *models.UserProfile
	Error          string
	HasBeenChecked bool
}

// Machine is the session state machine. One instance is created at startup,
// handed to the router guard and the CLI by reference, and never torn down;
// logout resets it instead.
type Machine struct {
	api   *api.Client
	store *credstore.Store

	mu             sync.Mutex
	status         Status
	profile        *models.UserProfile
	lastError      string
	hasBeenChecked bool
	inflight       chan struct{}
}

// New builds the machine and hydrates it from the durable store so the
// process starts authenticated-optimistic when a credential survives from a
// previous run. The revalidation latch starts open: the first CheckAuth
// still performs its single round-trip.
func New(client *api.Client, store *credstore.Store) *Machine {
	m := &Machine{api: client, store: store}

	if _, err := store.Token(); err == nil {
		if profile, err := store.Profile(); err == nil {
			m.status = Authenticated
			m.profile = &profile
			logger.Debug("Session hydrated from stored credential", "role", profile.Role)
		}
	}
	return m
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Status:         m.status,
		Error:          m.lastError,
		HasBeenChecked: m.hasBeenChecked,
	}
	if m.profile != nil {
		p := *m.profile
		snap.Profile = &p
	}
	return snap
}

// IsAuthenticated reports whether the machine currently holds a session.
func (m *Machine) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == Authenticated
}

// HasBeenChecked reports whether the one-shot revalidation latch is set.
func (m *Machine) HasBeenChecked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasBeenChecked
}

// HasRole reports whether the authenticated user's role is one of roles.
// Always false when unauthenticated.
func (m *Machine) HasRole(roles ...models.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != Authenticated || m.profile == nil {
		return false
	}
	for _, r := range roles {
		if m.profile.Role == r {
			return true
		}
	}
	return false
}

// Login authenticates and persists the credential pair. On failure the
// session is fully cleared in memory and the error is re-signaled as an
// AuthError carrying the server's message (or a generic fallback).
func (m *Machine) Login(ctx context.Context, email, password string) (models.UserProfile, error) {
	m.mu.Lock()
	m.status = Checking
	m.lastError = ""
	m.mu.Unlock()

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return models.UserProfile{}, m.failAuth(err, constants.MsgErrorLogin)
	}
	return m.establish(resp, "login", constants.MsgErrorLogin)
}

// Register creates an account; same contract as Login.
func (m *Machine) Register(ctx context.Context, req api.RegisterRequest) (models.UserProfile, error) {
	m.mu.Lock()
	m.status = Checking
	m.lastError = ""
	m.mu.Unlock()

	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return models.UserProfile{}, m.failAuth(err, constants.MsgErrorRegistro)
	}
	return m.establish(resp, "register", constants.MsgErrorRegistro)
}

func (m *Machine) establish(resp api.AuthResponse, op, fallback string) (models.UserProfile, error) {
	if err := m.store.Save(resp.AccessToken, resp.User); err != nil {
		return models.UserProfile{}, m.failAuth(err, fallback)
	}

	m.mu.Lock()
	profile := resp.User
	m.profile = &profile
	m.status = Authenticated
	m.hasBeenChecked = true
	m.lastError = ""
	m.mu.Unlock()

	logger.Info("Session established", "op", op, "role", resp.User.Role)
	return resp.User, nil
}

func (m *Machine) failAuth(err error, fallback string) error {
	msg := fallback
	var authErr *api.AuthError
	var valErr *api.ValidationError
	switch {
	case errors.As(err, &authErr) && authErr.Message != "":
		msg = authErr.Message
	case errors.As(err, &valErr) && valErr.Message != "":
		msg = valErr.Message
	}

	m.mu.Lock()
	m.profile = nil
	m.status = Unauthenticated
	m.lastError = msg
	m.mu.Unlock()

	logger.Warn("Authentication failed", "error", err)
	return &api.AuthError{Message: msg}
}

// Logout notifies the server best-effort and unconditionally clears the
// session, the store, and the revalidation latch. It never fails.
func (m *Machine) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		logger.Warn("Server logout failed, clearing locally anyway", "error", err)
	}
	if err := m.store.Clear(); err != nil {
		logger.Warn("Failed to clear credential store on logout", "error", err)
	}

	m.mu.Lock()
	m.profile = nil
	m.status = Unauthenticated
	m.lastError = ""
	m.hasBeenChecked = false
	m.mu.Unlock()
}

// Invalidate drops the in-memory session in response to a gateway 401. The
// gateway has already cleared the store; resetting the latch makes the next
// guard pass observe the empty store instead of trusting stale state.
func (m *Machine) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == Unauthenticated && m.profile == nil && !m.hasBeenChecked {
		return
	}
	m.profile = nil
	m.status = Unauthenticated
	m.hasBeenChecked = false
	logger.Info("Session invalidated by gateway signal")
}

// CheckAuth revalidates the stored credential against the backend at most
// once per process lifetime (until Login/Logout reset the latch). The first
// caller performs the round-trip; concurrent callers block on the same
// in-flight check instead of issuing their own. Policy: no stored
// credential means unauthenticated; a stored credential authenticates
// optimistically, then a revalidation request either refreshes the cached
// profile, tears the session down (401 only), or is ignored (fail open on
// transient network errors).
func (m *Machine) CheckAuth(ctx context.Context) {
	m.mu.Lock()
	if m.hasBeenChecked {
		m.mu.Unlock()
		return
	}
	if m.inflight != nil {
		ch := m.inflight
		m.mu.Unlock()
		<-ch
		return
	}
	ch := make(chan struct{})
	m.inflight = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.hasBeenChecked = true
		m.inflight = nil
		m.mu.Unlock()
		close(ch)
	}()

	token, tokenErr := m.store.Token()
	profile, profileErr := m.store.Profile()
	if tokenErr != nil || profileErr != nil || token == "" {
		m.mu.Lock()
		m.profile = nil
		m.status = Unauthenticated
		m.mu.Unlock()
		logger.Debug("No stored credential, session unauthenticated")
		return
	}

	m.mu.Lock()
	p := profile
	m.profile = &p
	m.status = Authenticated
	m.mu.Unlock()

	fresh, err := m.api.CurrentUser(ctx)
	switch {
	case err == nil:
		m.mu.Lock()
		m.profile = &fresh
		m.status = Authenticated
		m.mu.Unlock()
		if err := m.store.SaveProfile(fresh); err != nil {
			logger.Warn("Failed to persist refreshed profile", "error", err)
		}
		logger.Debug("Session revalidated", "role", fresh.Role)
	case api.IsAuthError(err):
		// The gateway already cleared the store on the 401.
		m.mu.Lock()
		m.profile = nil
		m.status = Unauthenticated
		m.mu.Unlock()
		logger.Info("Stored credential rejected by server, session cleared")
	default:
		// No server verdict. Keep the optimistic session rather than
		// logging users out over flaky connectivity.
		logger.Warn("Revalidation inconclusive, keeping cached session", "error", err)
	}
}

// TokenExpiry returns a best-effort expiry hint for the stored credential.
// Tokens are opaque by contract, but when the backend hands out a JWT the
// exp claim is readable without verification. ok is false when no hint is
// available; that is never an error.
func (m *Machine) TokenExpiry() (time.Time, bool) {
	token, err := m.store.Token()
	if err != nil || token == "" {
		return time.Time{}, false
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
