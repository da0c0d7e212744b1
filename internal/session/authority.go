package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dtroode/electrobill-session/internal/logger"
	"github.com/dtroode/electrobill-session/internal/model"
)

const (
	msgCredentialsRequired = "Email and password are required."
	msgLoginInProgress     = "A login request is already in progress."
	msgPersistFailed       = "Unable to save session. Please try again."
)

// Authority owns the authenticated-user session: who is logged in and what
// they may do. One instance is built at bootstrap and handed to consumers.
type Authority struct {
	store   model.Store
	auth    model.Authenticator
	logger  *logger.Logger
	policy  LoginPolicy
	metrics Recorder
	now     func() time.Time

	// commitMu orders writes to the store so it agrees with memory.
	commitMu sync.Mutex

	mu     sync.RWMutex
	status model.Status
	user   *model.User
	token  string
	perms  map[string]struct{}
	// version increases with every state change; it orders notifications.
	version uint64

	loginInFlight atomic.Bool

	listenersMu sync.Mutex
	listeners   map[uint64]func(model.Snapshot)
	nextID      uint64
	pending     []change
	delivering  bool
	delivered   uint64
}

type change struct {
	version uint64
	snap    model.Snapshot
}

var _ model.TokenSource = (*Authority)(nil)

// New creates an Authority in the uninitialized state. Initialize must be
// called before consumers decide whether to redirect to login.
func New(store model.Store, auth model.Authenticator, logger *logger.Logger, opts ...Option) *Authority {
	a := &Authority{
		store:     store,
		auth:      auth,
		logger:    logger,
		policy:    LoginPolicyLastResponseWins,
		metrics:   nopRecorder{},
		now:       time.Now,
		status:    model.StatusUninitialized,
		listeners: make(map[uint64]func(model.Snapshot)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize restores the session from the store. Any missing key, store
// failure or unparseable user record leaves the session unauthenticated and
// purges whatever was stored. It never fails.
func (a *Authority) Initialize(ctx context.Context) {
	a.mu.Lock()
	a.status = model.StatusResolving
	c := a.changeLocked()
	a.mu.Unlock()
	a.notify(c)

	a.commitMu.Lock()
	user, token, outcome := a.hydrate(ctx)
	a.metrics.Hydration(outcome)

	a.mu.Lock()
	if outcome == HydrationRestored {
		a.setLocked(user, token)
	} else {
		a.clearLocked()
	}
	c = a.changeLocked()
	a.mu.Unlock()
	a.commitMu.Unlock()

	a.logger.Debug("Session: initialized",
		"status", c.snap.Status.String(),
		"outcome", outcome)

	a.notify(c)
}

func (a *Authority) hydrate(ctx context.Context) (model.User, string, string) {
	token, err := a.store.Get(ctx, model.KeyToken)
	if err != nil {
		return a.abandonHydration(ctx, "token", err)
	}

	raw, err := a.store.Get(ctx, model.KeyUser)
	if err != nil {
		return a.abandonHydration(ctx, "user", err)
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		a.logger.Warn("Session: stored user record is corrupted, discarding",
			"error", err.Error())
		a.purge(ctx)
		return model.User{}, "", HydrationCorrupt
	}

	if token == "" || user.ID == "" {
		a.logger.Warn("Session: stored session is incomplete, discarding")
		a.purge(ctx)
		return model.User{}, "", HydrationCorrupt
	}

	return user, token, HydrationRestored
}

func (a *Authority) abandonHydration(ctx context.Context, key string, err error) (model.User, string, string) {
	outcome := HydrationEmpty
	if !errors.Is(err, model.ErrNotFound) {
		outcome = HydrationStoreError
		a.logger.Warn("Session: failed to read stored session",
			"key", key,
			"error", err.Error())
	}
	a.purge(ctx)
	return model.User{}, "", outcome
}

// Login authenticates against the endpoint and, on success, replaces the
// current session in memory and in the store. Failures are reported in the
// outcome and leave the current session untouched.
func (a *Authority) Login(ctx context.Context, identifier, secret string) model.LoginOutcome {
	start := a.now()

	if strings.TrimSpace(identifier) == "" || secret == "" {
		a.metrics.LoginAttempt(LoginInvalidInput, a.now().Sub(start))
		return model.LoginFailed(msgCredentialsRequired)
	}

	if a.policy == LoginPolicyRejectConcurrent {
		if !a.loginInFlight.CompareAndSwap(false, true) {
			a.logger.Info("Session: rejected overlapping login",
				"identifier", identifier,
				"error", model.ErrLoginInProgress.Error())
			a.metrics.LoginAttempt(LoginInProgress, a.now().Sub(start))
			return model.LoginFailed(msgLoginInProgress)
		}
		defer a.loginInFlight.Store(false)
	}

	a.logger.Debug("Session: starting login",
		"identifier", identifier)

	res, err := a.auth.Authenticate(ctx, model.Credentials{Identifier: identifier, Secret: secret})
	if err != nil {
		a.logger.Info("Session: login rejected",
			"identifier", identifier,
			"error", err.Error())
		a.metrics.LoginAttempt(LoginRejected, a.now().Sub(start))
		return model.LoginFailed(loginErrorMessage(err))
	}

	if res.Token == "" || res.User.ID == "" {
		a.logger.Error("Session: authentication endpoint returned an incomplete session",
			"identifier", identifier)
		a.metrics.LoginAttempt(LoginMalformed, a.now().Sub(start))
		return model.LoginFailed(model.DefaultLoginError)
	}

	user := res.User.Clone()

	c, err := a.commit(ctx, res.Token, user)
	if err != nil {
		a.logger.Error("Session: failed to persist session, rolling back",
			"identifier", identifier,
			"error", err.Error())
		a.metrics.LoginAttempt(LoginPersistFailed, a.now().Sub(start))
		return model.LoginFailed(msgPersistFailed)
	}

	a.logger.Info("Session: login succeeded",
		"user_id", user.ID,
		"role", user.Role,
		"permissions", len(user.Permissions))
	a.metrics.LoginAttempt(LoginSuccess, a.now().Sub(start))

	a.notify(c)

	return model.LoginSucceeded()
}

// commit persists the new session and then swaps it into memory. On a store
// failure the previous session is written back and memory is left as is.
func (a *Authority) commit(ctx context.Context, token string, user model.User) (change, error) {
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	if err := a.persist(ctx, token, user); err != nil {
		a.rollback(ctx)
		return change{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(user, token)
	return a.changeLocked(), nil
}

// Logout clears the session in memory and deletes both stored keys. Store
// failures are logged and otherwise ignored.
func (a *Authority) Logout(ctx context.Context) {
	a.commitMu.Lock()
	a.mu.Lock()
	userID := ""
	if a.user != nil {
		userID = a.user.ID
	}
	a.clearLocked()
	c := a.changeLocked()
	a.mu.Unlock()

	a.purge(ctx)
	a.commitMu.Unlock()

	a.metrics.Logout()

	a.logger.Info("Session: logged out",
		"user_id", userID)

	a.notify(c)
}

// HasPermission reports whether the current user holds exactly p.
func (a *Authority) HasPermission(p string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.user == nil {
		return false
	}
	_, ok := a.perms[p]
	return ok
}

// HasAnyPermission reports whether the current user holds at least one of ps.
func (a *Authority) HasAnyPermission(ps ...string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.user == nil {
		return false
	}
	for _, p := range ps {
		if _, ok := a.perms[p]; ok {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current session state.
func (a *Authority) Snapshot() model.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

func (a *Authority) Status() model.Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

func (a *Authority) IsLoading() bool {
	return a.Snapshot().IsLoading()
}

func (a *Authority) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil && a.token != ""
}

// User returns a copy of the current user, or nil when logged out.
func (a *Authority) User() *model.User {
	return a.Snapshot().User
}

// Token returns the bearer token, or "" when logged out.
func (a *Authority) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Subscribe registers fn to receive a snapshot after every state change.
//
// Snapshots reach listeners one at a time and in the order the changes were
// applied. A snapshot older than one already delivered is dropped, so the
// last snapshot a listener sees is the current state. Listeners run without
// any Authority lock held and may call back into it; a change made from a
// listener is delivered after that listener returns. Delivery happens on
// whichever goroutine is draining the queue, which is usually the one that
// made the change.
func (a *Authority) Subscribe(fn func(model.Snapshot)) (unsubscribe func()) {
	a.listenersMu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.listenersMu.Lock()
			delete(a.listeners, id)
			a.listenersMu.Unlock()
		})
	}
}

// notify queues c and, unless another goroutine is already delivering,
// drains the queue in version order.
func (a *Authority) notify(c change) {
	a.listenersMu.Lock()
	a.pending = append(a.pending, c)
	if a.delivering {
		a.listenersMu.Unlock()
		return
	}
	a.delivering = true
	defer func() {
		a.delivering = false
		a.listenersMu.Unlock()
	}()

	for {
		next, ok := a.nextPendingLocked()
		if !ok {
			return
		}
		a.delivered = next.version

		fns := make([]func(model.Snapshot), 0, len(a.listeners))
		for _, fn := range a.listeners {
			fns = append(fns, fn)
		}
		a.deliverUnlocked(fns, next.snap)
	}
}

// deliverUnlocked calls fns with listenersMu released and holds it again on
// return, including when a listener panics.
func (a *Authority) deliverUnlocked(fns []func(model.Snapshot), snap model.Snapshot) {
	a.listenersMu.Unlock()
	defer a.listenersMu.Lock()
	for _, fn := range fns {
		fn(snap)
	}
}

// nextPendingLocked pops the oldest queued change newer than the last
// delivered one and discards anything stale.
func (a *Authority) nextPendingLocked() (change, bool) {
	kept := a.pending[:0]
	for _, c := range a.pending {
		if c.version > a.delivered {
			kept = append(kept, c)
		}
	}
	a.pending = kept
	if len(kept) == 0 {
		return change{}, false
	}

	oldest := 0
	for i, c := range kept {
		if c.version < kept[oldest].version {
			oldest = i
		}
	}
	next := kept[oldest]
	a.pending = append(kept[:oldest], kept[oldest+1:]...)
	return next, true
}

func (a *Authority) persist(ctx context.Context, token string, user model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := a.store.Set(ctx, model.KeyToken, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := a.store.Set(ctx, model.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// rollback restores the store to the session still held in memory after a
// failed persist, so the next Initialize agrees with the current process.
func (a *Authority) rollback(ctx context.Context) {
	a.mu.RLock()
	var prev *model.User
	if a.user != nil {
		u := a.user.Clone()
		prev = &u
	}
	token := a.token
	a.mu.RUnlock()

	if prev == nil {
		a.purge(ctx)
		return
	}
	if err := a.persist(ctx, token, *prev); err != nil {
		a.logger.Error("Session: failed to restore previous session",
			"user_id", prev.ID,
			"error", err.Error())
		a.purge(ctx)
	}
}

func (a *Authority) purge(ctx context.Context) {
	for _, key := range []string{model.KeyToken, model.KeyUser} {
		if err := a.store.Delete(ctx, key); err != nil {
			a.logger.Warn("Session: failed to delete stored key",
				"key", key,
				"error", err.Error())
		}
	}
}

func (a *Authority) setLocked(user model.User, token string) {
	perms := make(map[string]struct{}, len(user.Permissions))
	for _, p := range user.Permissions {
		perms[p] = struct{}{}
	}
	a.user = &user
	a.token = token
	a.perms = perms
	a.status = model.StatusAuthenticated
}

func (a *Authority) clearLocked() {
	a.user = nil
	a.token = ""
	a.perms = nil
	a.status = model.StatusUnauthenticated
}

func (a *Authority) changeLocked() change {
	a.version++
	return change{version: a.version, snap: a.snapshotLocked()}
}

func (a *Authority) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{Status: a.status, Token: a.token}
	if a.user != nil {
		u := a.user.Clone()
		snap.User = &u
	}
	return snap
}

func loginErrorMessage(err error) string {
	var endpointErr *model.EndpointError
	if errors.As(err, &endpointErr) && endpointErr.Message != "" {
		return endpointErr.Message
	}
	return model.DefaultLoginError
}
