package engine

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/derek2403/token2049/core"
)

// Session is one chat: its history, the connected wallet and the actions
// waiting for confirmation. Operations on a session are serialised.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	wallet  string
	signer  core.Signer
	history []core.ChatTurn
	pending map[string]*core.PendingAction
	traces  []*core.Trace
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		pending:   make(map[string]*core.PendingAction),
	}
}

// Wallet returns the connected wallet address, or "".
func (s *Session) Wallet() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallet
}

// History returns a copy of the conversation so far.
func (s *Session) History() []core.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ChatTurn, len(s.history))
	copy(out, s.history)
	return out
}

// PendingActions returns the actions awaiting confirmation, oldest first.
func (s *Session) PendingActions() []core.PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PendingAction, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, *p)
	}
	sortPending(out)
	return out
}

// Traces returns the actions executed or cancelled in this session.
func (s *Session) Traces() []*core.Trace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.Trace, len(s.traces))
	copy(out, s.traces)
	return out
}

// connect switches the session to wallet. Pending actions prepared for a
// different wallet are discarded. Callers hold s.mu.
func (s *Session) connect(wallet string, signer core.Signer) {
	if !strings.EqualFold(s.wallet, wallet) {
		s.pending = make(map[string]*core.PendingAction)
	}
	s.wallet = wallet
	s.signer = signer
}

func (s *Session) append(turns ...core.ChatTurn) {
	s.history = append(s.history, turns...)
}

func (s *Session) addTrace(t *core.Trace) {
	s.traces = append(s.traces, t)
}

func sortPending(actions []core.PendingAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].CreatedAt != actions[j].CreatedAt {
			return actions[i].CreatedAt < actions[j].CreatedAt
		}
		return actions[i].ID < actions[j].ID
	})
}

// Sessions is the set of live sessions.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessions creates an empty session set.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session)}
}

// Create starts a new session.
func (ss *Sessions) Create(now time.Time) *Session {
	s := newSession(now)
	ss.mu.Lock()
	ss.sessions[s.ID] = s
	ss.mu.Unlock()
	return s
}

// Get returns the session with the given ID.
func (ss *Sessions) Get(id string) (*Session, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.sessions[id]
	if !ok {
		return nil, errors.Wrapf(core.ErrNotFound, "session %s", id)
	}
	return s, nil
}

// Close removes a session.
func (ss *Sessions) Close(id string) {
	ss.mu.Lock()
	delete(ss.sessions, id)
	ss.mu.Unlock()
}

// Len returns the number of live sessions.
func (ss *Sessions) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}
