package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papaburgs/spacegui/internal/metrics"
)

// CookieName carries the session id.
const CookieName = "spacegui_session"

// Store keeps sessions in memory. Idle ones are swept by Run.
type Store struct {
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*State
}

func NewStore(ttl time.Duration, m *metrics.Metrics) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{
		ttl:      ttl,
		metrics:  m,
		now:      time.Now,
		sessions: make(map[string]*State),
	}
}

// Create starts a new session with a fresh id.
func (s *Store) Create() *State {
	st := newState(uuid.NewString(), s.now())
	s.mu.Lock()
	s.sessions[st.ID] = st
	n := len(s.sessions)
	s.mu.Unlock()
	s.gauge(n)
	return st
}

// Get looks up a session and marks it as used.
func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	st, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		st.touch(s.now())
	}
	return st, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle longer than the ttl and returns how many went.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	removed := 0
	for id, st := range s.sessions {
		if st.idleSince(now) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()
	s.gauge(n)
	if removed > 0 {
		slog.Debug("swept idle sessions", "removed", removed, "remaining", n)
	}
	return removed
}

// Run sweeps every interval until ctx ends.
func (s *Store) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) gauge(n int) {
	if s.metrics != nil {
		s.metrics.Sessions.Set(float64(n))
	}
}

type ctxKey struct{}

// WithState puts st on ctx.
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns the session attached by Middleware, or nil.
func FromContext(ctx context.Context) *State {
	st, _ := ctx.Value(ctxKey{}).(*State)
	return st
}

// Middleware attaches the caller's session to the request, creating one and
// setting the cookie when there is none.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var st *State
		if c, err := r.Cookie(CookieName); err == nil {
			st, _ = s.Get(c.Value)
		}
		if st == nil {
			st = s.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    st.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
	})
}
