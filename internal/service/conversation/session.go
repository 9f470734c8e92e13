package conversation

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carttalk/carttalk-server/internal/domain"
	"github.com/carttalk/carttalk-server/internal/observability/telemetry"
)

// SessionManager owns all in-flight call sessions: a concurrency-safe keyed
// map with a per-session mutex serializing merges and an idle-timeout reaper
// replacing the unbounded process-lifetime sessions of earlier revisions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	ttl   time.Duration
	sweep time.Duration
	log   *zap.Logger
	stop  chan struct{}
	once  sync.Once
}

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.CallSession
}

func NewSessionManager(ttl, sweep time.Duration, log *zap.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}
	m := &SessionManager{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		sweep:    sweep,
		log:      log,
		stop:     make(chan struct{}),
	}
	go m.reap()
	return m
}

func (m *SessionManager) Stop() {
	m.once.Do(func() { close(m.stop) })
}

// Merge applies one turn to the call's session: a shallow last-write-wins
// overlay of the decoded fields (a later cart entirely supersedes an earlier
// one), then the history append, then FIFO truncation to the most recent
// MaxHistoryEntries. It returns a snapshot safe to read without further
// locking.
func (m *SessionManager) Merge(callID string, turn domain.Turn) *domain.CallSession {
	entry := m.getOrCreate(callID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	s := entry.session
	for k, v := range turn.Data {
		s.Fields[k] = v
	}
	if turn.Transcript != "" {
		s.History = append(s.History, "User: "+turn.Transcript)
	}
	s.History = append(s.History, "Model: "+turn.ResponseText)
	if n := len(s.History); n > domain.MaxHistoryEntries {
		s.History = append(s.History[:0], s.History[n-domain.MaxHistoryEntries:]...)
	}
	s.LastSeen = time.Now()

	return snapshot(s)
}

// Get returns a snapshot of the call's session, creating it if absent.
func (m *SessionManager) Get(callID string) *domain.CallSession {
	entry := m.getOrCreate(callID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return snapshot(entry.session)
}

// IsFirstTurn reports whether the call has no recorded history yet. The
// conversation orchestrator uses this single fact to inject the mandatory
// greeting instruction into the first prompt.
func (m *SessionManager) IsFirstTurn(callID string) bool {
	m.mu.RLock()
	entry, ok := m.sessions[callID]
	m.mu.RUnlock()
	if !ok {
		return true
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return len(entry.session.History) == 0
}

// HistoryText renders the session history the way the prompt builder expects
// it: one "User:"/"Model:" tagged line per entry.
func (m *SessionManager) HistoryText(callID string) string {
	s := m.Get(callID)
	return strings.Join(s.History, "\n")
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) getOrCreate(callID string) *sessionEntry {
	m.mu.RLock()
	entry, ok := m.sessions[callID]
	m.mu.RUnlock()
	if ok {
		return entry
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok = m.sessions[callID]; ok {
		return entry
	}
	entry = &sessionEntry{session: domain.NewCallSession(callID)}
	m.sessions[callID] = entry
	telemetry.ActiveSessions.Set(float64(len(m.sessions)))
	return entry
}

func (m *SessionManager) reap() {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *SessionManager) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	evicted := 0
	for id, entry := range m.sessions {
		entry.mu.Lock()
		idle := entry.session.LastSeen.Before(cutoff)
		entry.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			evicted++
		}
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	telemetry.ActiveSessions.Set(float64(remaining))
	if evicted > 0 {
		m.log.Info("Evicted idle call sessions",
			zap.Int("evicted", evicted),
			zap.Int("remaining", remaining),
		)
	}
}

func snapshot(s *domain.CallSession) *domain.CallSession {
	cp := &domain.CallSession{
		CallID:    s.CallID,
		History:   make([]string, len(s.History)),
		Fields:    make(map[string]any, len(s.Fields)),
		CreatedAt: s.CreatedAt,
		LastSeen:  s.LastSeen,
	}
	copy(cp.History, s.History)
	for k, v := range s.Fields {
		cp.Fields[k] = v
	}
	return cp
}
