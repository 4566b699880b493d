package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/core/ports/driving"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// Ensure SessionRegistry implements the interface.
var _ driving.SessionService = (*SessionRegistry)(nil)

// maxClosedSessions bounds how many closed IDs are remembered so that
// reuse reports ErrSessionClosed instead of ErrNotFound.
const maxClosedSessions = 1024

// session serialises turns of one conversation.
type session struct {
	mu     sync.Mutex
	closed atomic.Bool
	info   domain.SessionInfo
}

// SessionRegistry tracks conversation sessions. Turns within a session run
// one at a time; different sessions proceed in parallel.
type SessionRegistry struct {
	query      driving.QueryService
	store      driven.ConversationStore
	maxHistory int
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session

	// closed remembers recently closed IDs, oldest first in closedOrder.
	closed      map[string]struct{}
	closedOrder []string
}

// NewSessionRegistry creates a registry that answers through query and keeps
// history in store. A non-positive maxHistory means domain.MaxConversationHistory.
func NewSessionRegistry(query driving.QueryService, store driven.ConversationStore, maxHistory int) *SessionRegistry {
	if maxHistory <= 0 {
		maxHistory = domain.MaxConversationHistory
	}
	return &SessionRegistry{
		query:      query,
		store:      store,
		maxHistory: maxHistory,
		now:        time.Now,
		sessions:   make(map[string]*session),
		closed:     make(map[string]struct{}),
	}
}

// Open returns the session with the given ID, creating it on first contact.
// An empty ID creates a session with a new UUID.
func (r *SessionRegistry) Open(ctx context.Context, sessionID string) (*domain.SessionInfo, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	r.mu.Lock()
	if _, gone := r.closed[sessionID]; gone {
		r.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionClosed)
	}
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &session{info: domain.SessionInfo{
			ID:        sessionID,
			State:     domain.SessionActive,
			CreatedAt: r.now(),
		}}
		r.sessions[sessionID] = s
		logger.Debug("Opened session %s", sessionID)
	}
	r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info.State == domain.SessionClosed {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionClosed)
	}
	if !ok {
		// A store shared between processes may already hold history.
		history, err := r.store.Load(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", sessionID, err)
		}
		s.info.Messages = len(history)
	}
	info := s.info
	return &info, nil
}

// Ask runs one enhance, retrieve, respond cycle. Both turns are recorded
// only when the answer succeeds.
func (r *SessionRegistry) Ask(ctx context.Context, sessionID, query string) (*domain.AnswerResult, error) {
	s, err := r.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info.State == domain.SessionClosed {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionClosed)
	}

	history, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	asked := r.now()
	result, err := r.query.AnswerQuery(ctx, query, history)
	if err != nil {
		return nil, err
	}

	turns := []domain.ConversationMessage{
		{Role: domain.RoleUser, Content: strings.TrimSpace(query), Timestamp: asked},
		{Role: domain.RoleAssistant, Content: result.Response, Timestamp: r.now()},
	}
	for _, msg := range turns {
		if err := r.store.Append(ctx, sessionID, msg, r.maxHistory); err != nil {
			return nil, fmt.Errorf("record session %s: %w", sessionID, err)
		}
	}
	s.info.Messages = min(len(history)+len(turns), r.maxHistory)

	return result, nil
}

// History returns the retained messages oldest first.
func (r *SessionRegistry) History(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error) {
	s, err := r.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info.State == domain.SessionClosed {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionClosed)
	}
	return r.store.Load(ctx, sessionID)
}

// Close discards history and removes the session. Closing a closed
// session is a no-op.
func (r *SessionRegistry) Close(ctx context.Context, sessionID string) error {
	s, err := r.lookup(sessionID)
	if errors.Is(err, domain.ErrSessionClosed) {
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info.State == domain.SessionClosed {
		return nil
	}
	if err := r.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	s.info.State = domain.SessionClosed
	s.info.Messages = 0
	s.closed.Store(true)
	r.forget(sessionID)
	logger.Debug("Closed session %s", sessionID)
	return nil
}

// forget drops a closed session from the registry and remembers its ID.
func (r *SessionRegistry) forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	if _, ok := r.closed[sessionID]; ok {
		return
	}
	r.closed[sessionID] = struct{}{}
	r.closedOrder = append(r.closedOrder, sessionID)
	if len(r.closedOrder) > maxClosedSessions {
		delete(r.closed, r.closedOrder[0])
		r.closedOrder = r.closedOrder[1:]
	}
}

// size returns the number of sessions held, active or closing.
func (r *SessionRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ActiveCount returns the number of active sessions.
func (r *SessionRegistry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, s := range r.sessions {
		if !s.closed.Load() {
			count++
		}
	}
	return count
}

func (r *SessionRegistry) lookup(sessionID string) (*session, error) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	_, gone := r.closed[sessionID]
	r.mu.RUnlock()
	if !ok && gone {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionClosed)
	}
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return s, nil
}
