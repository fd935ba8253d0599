package main

import (
	"context"
	"math"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/suran0330/kicholgy-sub001/internal/auth"
	"github.com/suran0330/kicholgy-sub001/internal/cart"
	"github.com/suran0330/kicholgy-sub001/internal/config"
	"github.com/suran0330/kicholgy-sub001/internal/fetch"
	"github.com/suran0330/kicholgy-sub001/internal/store"
)

const sessionHeader = "X-Session-ID"

type ctxKey string

const sessionKey ctxKey = "session"

// browserSession is everything one shopper owns: their cart, their auth
// state and the remote listing they are paging through. Cart and auth are
// hydrated from the session-scoped store on first use.
type browserSession struct {
	id   string
	cart *cart.Cart
	auth *auth.Session

	// lastSeen is unix nanoseconds of the latest request.
	lastSeen atomic.Int64

	mu     sync.Mutex
	remote *fetch.Orchestrator
}

// orchestrator returns the session's remote listing, creating it for q on
// first use. created reports whether it is new and has not loaded yet.
func (b *browserSession) orchestrator(client fetch.Catalog, q fetch.Query, log *zap.Logger) (o *fetch.Orchestrator, created bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remote == nil {
		b.remote = fetch.New(client, q, log.With(zap.String("session", b.id)))
		return b.remote, true
	}
	return b.remote, false
}

func (b *browserSession) currentOrchestrator() *fetch.Orchestrator {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remote
}

// sessionRegistry keeps live sessions in memory. Sessions idle past idleTTL
// are dropped, and at capacity the least recently seen one goes first.
// Persisted cart and user state stays in the store either way.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*browserSession
	store    store.Store
	dir      *auth.Directory
	verifier auth.Verifier
	opts     auth.Options
	log      *zap.Logger

	idleTTL time.Duration
	max     int
	now     func() time.Time
}

func newSessionRegistry(st store.Store, dir *auth.Directory, v auth.Verifier, opts auth.Options, limits config.SessionsConfig, log *zap.Logger) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*browserSession),
		store:    st,
		dir:      dir,
		verifier: v,
		opts:     opts,
		log:      log,
		idleTTL:  limits.IdleTTL,
		max:      limits.MaxSessions,
		now:      time.Now,
	}
}

func (r *sessionRegistry) get(ctx context.Context, id string) *browserSession {
	now := r.now()
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok && !r.expired(sess, now) {
		sess.lastSeen.Store(now.UnixNano())
		return sess
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok && !r.expired(sess, now) {
		sess.lastSeen.Store(now.UnixNano())
		return sess
	}
	r.evictLocked(now)

	scoped := store.Scoped(r.store, "session:"+id)
	log := r.log.With(zap.String("session", id))
	sess = &browserSession{
		id:   id,
		cart: cart.New(ctx, scoped, log),
		auth: auth.NewSession(ctx, scoped, r.dir, r.verifier, log, r.opts),
	}
	sess.lastSeen.Store(now.UnixNano())
	r.sessions[id] = sess
	return sess
}

func (r *sessionRegistry) expired(sess *browserSession, now time.Time) bool {
	return r.idleTTL > 0 && now.Sub(time.Unix(0, sess.lastSeen.Load())) > r.idleTTL
}

// evictLocked drops expired sessions, then the least recently seen ones
// until a new session fits under max.
func (r *sessionRegistry) evictLocked(now time.Time) {
	for id, sess := range r.sessions {
		if r.expired(sess, now) {
			delete(r.sessions, id)
		}
	}
	for r.max > 0 && len(r.sessions) >= r.max {
		var oldestID string
		oldest := int64(math.MaxInt64)
		for id, sess := range r.sessions {
			if seen := sess.lastSeen.Load(); seen < oldest {
				oldestID, oldest = id, seen
			}
		}
		delete(r.sessions, oldestID)
		r.log.Debug("evicted idle session", zap.String("session", oldestID))
	}
}

func (r *sessionRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// requireSession rejects requests without an X-Session-ID header and puts
// the shopper's session in the request context.
func (r *sessionRegistry) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimSpace(req.Header.Get(sessionHeader))
		if id == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing " + sessionHeader})
			return
		}
		if len(id) > 128 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + sessionHeader})
			return
		}
		sess := r.get(req.Context(), id)
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), sessionKey, sess)))
	})
}

func sessionFrom(r *http.Request) *browserSession {
	sess, _ := r.Context().Value(sessionKey).(*browserSession)
	return sess
}
