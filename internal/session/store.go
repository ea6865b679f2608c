package session

import (
	"context"
	"log"
	"sync"
	"time"

	"animation_panel_server/internal/memo"
	"animation_panel_server/internal/types"
	"animation_panel_server/internal/validation"

	"github.com/google/uuid"
)

const DefaultIdleTimeout = 30 * time.Minute

// StoreConfig configures a Store. Zero values select the defaults.
type StoreConfig struct {
	QuietPeriod time.Duration
	IdleTimeout time.Duration
	// Validations caches whole-configuration results across sessions.
	Validations *memo.Cache[validation.Result]
	Now         func() time.Time
}

// Store tracks the open panel sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      StoreConfig
	validate ValidateFunc
	onClose  []func(id string)
}

func NewStore(cfg StoreConfig) *Store {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	st := &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		validate: validation.Config,
	}
	if cfg.Validations != nil {
		st.validate = memoizedValidate(cfg.Validations)
	}
	return st
}

func memoizedValidate(cache *memo.Cache[validation.Result]) ValidateFunc {
	return func(cfg types.AnimationConfig) validation.Result {
		key, err := memo.Fingerprint(cfg)
		if err != nil {
			return validation.Config(cfg)
		}
		r := memo.Memoize(cache, key, func() validation.Result {
			return validation.Config(cfg)
		})
		return validation.Result{Valid: r.Valid, Errors: append([]string{}, r.Errors...)}
	}
}

// OnClose registers fn to run after a session leaves the store, whether it
// is closed explicitly, swept as idle or dropped by CloseAll.
func (st *Store) OnClose(fn func(id string)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.onClose = append(st.onClose, fn)
}

func (st *Store) release(sessions []*Session) {
	st.mu.RLock()
	hooks := append([]func(string){}, st.onClose...)
	st.mu.RUnlock()

	for _, s := range sessions {
		s.Close()
		for _, fn := range hooks {
			fn(s.ID)
		}
	}
}

// Open starts a session with the default configuration.
func (st *Store) Open() *Session {
	s := newSession(uuid.New().String(), st.cfg.QuietPeriod, st.validate, st.cfg.Now)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	log.Printf("Info: opened panel session %s", s.ID)
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close removes the session and cancels its pending timers.
func (st *Store) Close(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	st.release([]*Session{s})
	log.Printf("Info: closed panel session %s", id)
	return nil
}

func (st *Store) CloseAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	all := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		all = append(all, s)
	}
	st.release(all)
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// SweepIdle closes sessions idle for longer than the idle timeout.
func (st *Store) SweepIdle() int {
	cutoff := st.cfg.Now().Add(-st.cfg.IdleTimeout)

	st.mu.Lock()
	var idle []*Session
	for id, s := range st.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	st.release(idle)
	return len(idle)
}

// StartJanitor sweeps idle sessions every interval until ctx is done.
func (st *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := st.SweepIdle(); n > 0 {
					log.Printf("Info: closed %d idle panel sessions", n)
				}
			}
		}
	}()
}
