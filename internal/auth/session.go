package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suran0330/kicholgy-sub001/internal/store"
)

// StorageKey is the user's key in its session-scoped store.
const StorageKey = "user"

// DefaultLoginDelay stands in for the credential service round-trip.
const DefaultLoginDelay = time.Second

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrBusy               = errors.New("auth: authentication already in progress")
)

type Options struct {
	// LoginDelay is waited before every credential check. Zero disables it.
	LoginDelay time.Duration
	Now        func() time.Time
}

// Session owns one auth state. All mutation goes through Dispatch.
type Session struct {
	mu       sync.Mutex
	state    State
	dir      *Directory
	verifier Verifier
	store    store.Store
	log      *zap.Logger
	delay    time.Duration
	now      func() time.Time
}

// NewSession builds a session hydrated from st. A missing or undecodable
// user snapshot leaves the session signed out.
func NewSession(ctx context.Context, st store.Store, dir *Directory, v Verifier, log *zap.Logger, opts Options) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		dir:      dir,
		verifier: v,
		store:    st,
		log:      log,
		delay:    opts.LoginDelay,
		now:      opts.Now,
	}

	raw, ok, err := st.Get(ctx, StorageKey)
	switch {
	case err != nil:
		log.Warn("auth: read persisted user", zap.Error(err))
	case ok:
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			log.Warn("auth: discarding corrupt persisted user", zap.Error(err))
		} else {
			s.state = Reduce(s.state, Hydrate{User: &u})
		}
	}
	return s
}

// Dispatch applies a and writes or deletes the persisted user whenever the
// user changes. Modal and loading changes are not persisted.
func (s *Session) Dispatch(ctx context.Context, a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(ctx, a)
}

func (s *Session) dispatchLocked(ctx context.Context, a Action) State {
	prev := s.state
	s.state = Reduce(s.state, a)
	if prev.User != s.state.User {
		s.persist(ctx)
	}
	return s.copyLocked()
}

func (s *Session) persist(ctx context.Context) {
	if s.state.User == nil {
		if err := s.store.Delete(ctx, StorageKey); err != nil {
			s.log.Error("auth: delete persisted user", zap.Error(err))
		}
		return
	}
	raw, err := json.Marshal(s.state.User)
	if err != nil {
		s.log.Error("auth: encode user", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, StorageKey, string(raw)); err != nil {
		s.log.Error("auth: persist user", zap.Error(err))
	}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Session) copyLocked() State {
	out := s.state
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

func (s *Session) IsAuthenticated() bool {
	return s.State().IsAuthenticated()
}

// begin starts an authentication attempt unless one is already in flight.
func (s *Session) begin(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsLoading {
		return false
	}
	s.dispatchLocked(ctx, LoginStart{})
	return true
}

func (s *Session) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Login checks the credentials against the directory. On failure the
// current user is left as it was.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if !s.begin(ctx) {
		return ErrBusy
	}
	if err := s.wait(ctx); err != nil {
		s.Dispatch(ctx, LoginFailure{})
		return err
	}

	email = normalizeEmail(email)
	u, ok := s.dir.FindByEmail(email)
	if !ok || !s.verifier.Verify(ctx, s.dir, email, password) {
		s.Dispatch(ctx, LoginFailure{})
		s.log.Info("auth: login rejected", zap.String("email_domain", emailDomain(email)))
		return ErrInvalidCredentials
	}
	s.Dispatch(ctx, LoginSuccess{User: u})
	s.log.Info("auth: login", zap.String("user_id", u.ID))
	return nil
}

// Signup registers a new customer and signs them in. An existing email
// fails with ErrEmailTaken and the directory is not modified.
func (s *Session) Signup(ctx context.Context, email, password, firstName, lastName string) error {
	if !s.begin(ctx) {
		return ErrBusy
	}
	if err := s.wait(ctx); err != nil {
		s.Dispatch(ctx, LoginFailure{})
		return err
	}

	email = normalizeEmail(email)
	if _, exists := s.dir.FindByEmail(email); exists {
		s.Dispatch(ctx, LoginFailure{})
		return ErrEmailTaken
	}
	u := User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		JoinDate:  formatDate(s.now()),
		IsInsider: false,
		Orders:    []Order{},
	}
	if err := s.dir.Add(u, password); err != nil {
		s.Dispatch(ctx, LoginFailure{})
		return err
	}
	s.Dispatch(ctx, LoginSuccess{User: u})
	s.log.Info("auth: signup", zap.String("user_id", u.ID))
	return nil
}

func (s *Session) Logout(ctx context.Context) State      { return s.Dispatch(ctx, Logout{}) }
func (s *Session) OpenLogin(ctx context.Context) State   { return s.Dispatch(ctx, OpenLogin{}) }
func (s *Session) CloseLogin(ctx context.Context) State  { return s.Dispatch(ctx, CloseLogin{}) }
func (s *Session) OpenSignup(ctx context.Context) State  { return s.Dispatch(ctx, OpenSignup{}) }
func (s *Session) CloseSignup(ctx context.Context) State { return s.Dispatch(ctx, CloseSignup{}) }

// UpdateUser replaces the signed-in user wholesale without validation.
func (s *Session) UpdateUser(ctx context.Context, u User) State {
	return s.Dispatch(ctx, UpdateUser{User: u})
}
