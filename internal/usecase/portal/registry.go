package portal

import (
	"sync"
	"time"

	"job-portal/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventViewChanged  = "view_changed"
	EventNotification = "notification"
)

// EventPublisher receives session events, typically for fan-out to websocket clients.
type EventPublisher interface {
	Publish(sessionID uuid.UUID, eventType string, data any)
}

type Session struct {
	ID         uuid.UUID
	Controller *Controller
	CreatedAt  time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type RegistryConfig struct {
	Clock            notify.Clock
	Logger           *zap.Logger
	Publisher        EventPublisher
	NotificationTTL  time.Duration
	CelebrationTTL   time.Duration
	FailOnStaleIndex bool
}

// Registry keeps one controller per editor session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	cfg      RegistryConfig
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = notify.RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Registry{sessions: make(map[uuid.UUID]*Session), cfg: cfg}
}

func (r *Registry) Create() *Session {
	return r.Open(uuid.Nil)
}

// Open returns the live session with id, or starts a fresh one under that
// id so a client can reattach to its saved snapshot. uuid.Nil picks a new id.
func (r *Registry) Open(id uuid.UUID) *Session {
	if id == uuid.Nil {
		id = uuid.New()
	} else if s, err := r.Get(id); err == nil {
		return s
	}
	now := r.cfg.Clock.Now()
	pub := r.cfg.Publisher

	var onChange func(View)
	if pub != nil {
		onChange = func(v View) { pub.Publish(id, EventViewChanged, v.Summary()) }
	}
	ctl := NewController(Options{
		Clock:            r.cfg.Clock,
		Logger:           r.cfg.Logger.With(zap.Stringer("session_id", id)),
		NotificationTTL:  r.cfg.NotificationTTL,
		CelebrationTTL:   r.cfg.CelebrationTTL,
		OnChange:         onChange,
		FailOnStaleIndex: r.cfg.FailOnStaleIndex,
	})
	if pub != nil {
		ctl.Notifications().Subscribe(func(n notify.Notification) {
			pub.Publish(id, EventNotification, n)
		})
	}

	s := &Session{ID: id, Controller: ctl, CreatedAt: now, lastSeen: now}
	r.mu.Lock()
	if existing, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return existing
	}
	r.sessions[id] = s
	r.mu.Unlock()

	r.cfg.Logger.Info("session created", zap.Stringer("session_id", id))
	return s
}

func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(r.cfg.Clock.Now())
	return s, nil
}

// Exists reports whether id names a live session without touching it.
func (r *Registry) Exists(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many went.
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := r.cfg.Clock.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	if n > 0 {
		r.cfg.Logger.Info("sessions pruned", zap.Int("count", n), zap.Int("remaining", len(r.sessions)))
	}
	return n
}
