package dashboard

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/churnstudio/pkg/lifecycle"
)

// StoreConfig configures session identity and expiry.
type StoreConfig struct {
	CookieName     string
	TTL            time.Duration
	StatusWindow   time.Duration
	DefaultBaseURL string
}

// Store holds every live Session in memory, keyed by a random UUID carried
// in an HttpOnly cookie. Sessions idle longer than TTL are evicted by Sweep.
type Store struct {
	cfg    StoreConfig
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(cfg StoreConfig, logger *slog.Logger) *Store {
	if cfg.CookieName == "" {
		cfg.CookieName = "churnstudio_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.StatusWindow <= 0 {
		cfg.StatusWindow = 3 * time.Second
	}

	return &Store{
		cfg:      cfg,
		logger:   logger.With("system", "sessions"),
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session pointed at the default backend.
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString(), s.cfg.DefaultBaseURL, s.cfg.StatusWindow)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Debug("session created", "session", sess.ID)
	return sess
}

// Lookup returns the live session with id and marks it as used.
func (s *Store) Lookup(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	now := time.Now()
	if !ok || sess.idleSince(now) > s.cfg.TTL {
		return nil, ErrSessionNotFound
	}

	sess.touch(now)
	return sess, nil
}

// Resolve returns the session named by the request cookie, creating one and
// setting the cookie when it is missing or expired.
func (s *Store) Resolve(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		if sess, err := s.Lookup(c.Value); err == nil {
			return sess
		}
	}

	sess := s.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Sweep evicts sessions idle longer than TTL, cancelling their in-flight
// calls. It returns the number evicted.
func (s *Store) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.idleSince(now) > s.cfg.TTL {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	return len(expired)
}

// Len returns the number of sessions held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start runs Sweep every interval until shutdown, then closes every
// remaining session.
func (s *Store) Start(lc *lifecycle.Coordinator, interval time.Duration) {
	lc.Tick(interval, func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Info("expired sessions evicted", "count", n, "remaining", s.Len())
		}
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		s.mu.Lock()
		sessions := s.sessions
		s.sessions = make(map[string]*Session)
		s.mu.Unlock()

		for _, sess := range sessions {
			sess.close()
		}
	})
}
