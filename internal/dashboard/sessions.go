package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lukefredrickson/nfact-dashboard/internal/metrics"
	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

// session owns one SelectionState; mu serialises its events.
type session struct {
	mu       sync.Mutex
	state    *selection.State
	lastSeen time.Time
}

type sessionTable struct {
	mu   sync.Mutex
	m    map[string]*session
	ttl  time.Duration
	max  int
	now  func() time.Time
	newF func() *selection.State
}

func newSessionTable(ttl time.Duration, max int, newState func() *selection.State) *sessionTable {
	if max <= 0 {
		max = 1000
	}
	return &sessionTable{
		m:    map[string]*session{},
		ttl:  ttl,
		max:  max,
		now:  time.Now,
		newF: newState,
	}
}

// create evicts idle sessions, then the oldest ones while the table is full.
func (t *sessionTable) create() (string, *session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if t.ttl > 0 {
		for id, s := range t.m {
			if now.Sub(s.lastSeen) > t.ttl {
				delete(t.m, id)
			}
		}
	}
	for len(t.m) >= t.max {
		var oldestID string
		var oldest time.Time
		for id, s := range t.m {
			if oldestID == "" || s.lastSeen.Before(oldest) {
				oldestID, oldest = id, s.lastSeen
			}
		}
		delete(t.m, oldestID)
	}
	id := uuid.NewString()
	s := &session{state: t.newF(), lastSeen: now}
	t.m[id] = s
	metrics.SessionsActive.Set(float64(len(t.m)))
	return id, s
}

func (t *sessionTable) get(id string) (*session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.m[id]
	if !ok {
		return nil, false
	}
	if t.ttl > 0 && t.now().Sub(s.lastSeen) > t.ttl {
		delete(t.m, id)
		metrics.SessionsActive.Set(float64(len(t.m)))
		return nil, false
	}
	s.lastSeen = t.now()
	return s, true
}

func (t *sessionTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
