package detect

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/layout-studio/backend/internal/models"
)

// MaxSessions limits concurrent detection sessions to prevent memory exhaustion
const MaxSessions = 10

// SessionMaxAge is how long to keep completed sessions before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// Manager handles active detection sessions.
type Manager struct {
	sessions map[string]*sessionState
	mu       sync.RWMutex
	detector *Detector
}

type sessionState struct {
	session      *models.DetectSession
	blocks       []models.TextBlock
	lastAccessed time.Time
}

// NewManager creates a session manager with the given default detector.
func NewManager(detector *Detector) *Manager {
	return &Manager{
		sessions: make(map[string]*sessionState),
		detector: detector,
	}
}

// StartDetection launches a background detection run over the blocks. A nil
// detector falls back to the manager's default, so callers can pass a
// project-specific rule set when one was uploaded.
func (m *Manager) StartDetection(projectID, fileID string, blocks []models.TextBlock, detector *Detector) (*models.DetectSession, error) {
	if detector == nil {
		detector = m.detector
	}
	if detector == nil {
		return nil, fmt.Errorf("no detector configured")
	}

	m.cleanupOldSessionsIfNeeded()

	sessionID := uuid.New().String()
	session := models.NewDetectSession(sessionID, projectID, fileID)
	session.Status = models.SessionStatusRunning
	session.StartTime = time.Now().UnixMilli()

	m.mu.Lock()
	m.sessions[sessionID] = &sessionState{
		session:      session,
		blocks:       blocks,
		lastAccessed: time.Now(),
	}
	m.mu.Unlock()

	// Copy before the worker starts so the caller never reads fields the
	// worker is writing.
	snapshot := *session

	go m.runDetect(sessionID, blocks, detector)

	return &snapshot, nil
}

func (m *Manager) runDetect(sessionID string, blocks []models.TextBlock, detector *Detector) {
	// Recover from panics to prevent backend crash
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Detect %s] PANIC recovered: %v\n", sessionID[:8], r)
			m.updateSessionError(sessionID, fmt.Sprintf("detection panicked: %v", r))
		}
	}()

	start := time.Now()
	fmt.Printf("[Detect %s] Matching %d text blocks\n", sessionID[:8], len(blocks))

	suggestions := make([]models.Suggestion, 0, len(blocks))
	for i, block := range blocks {
		if block.Consumed {
			continue
		}
		if s, ok := detector.Match(block); ok {
			suggestions = append(suggestions, s)
		}

		if (i+1)%50 == 0 {
			progress := float64(i+1) * 95.0 / float64(len(blocks))
			m.mu.Lock()
			if state, ok := m.sessions[sessionID]; ok {
				state.session.Progress = progress
			}
			m.mu.Unlock()
		}
	}

	elapsed := time.Since(start).Milliseconds()
	fmt.Printf("[Detect %s] Complete: %d matches from %d blocks in %dms\n",
		sessionID[:8], len(suggestions), len(blocks), elapsed)

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	state.session.Status = models.SessionStatusComplete
	state.session.Progress = 100
	state.session.BlockCount = len(blocks)
	state.session.MatchCount = len(suggestions)
	state.session.Suggestions = suggestions
	state.session.ProcessingTimeMs = elapsed
	state.session.EndTime = time.Now().UnixMilli()
}

func (m *Manager) updateSessionError(sessionID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	state.session.Status = models.SessionStatusError
	state.session.Errors = append(state.session.Errors, models.DetectError{Reason: reason})
}

// cleanupOldSessionsIfNeeded removes completed sessions when at capacity
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	toFree := len(m.sessions) - MaxSessions + 1
	deleted := 0
	for id, state := range m.sessions {
		if deleted >= toFree {
			break
		}
		if state.session.Status == models.SessionStatusComplete ||
			state.session.Status == models.SessionStatusError {
			delete(m.sessions, id)
			deleted++
			fmt.Printf("[Detect] Cleaned up old session %s to free memory\n", id[:8])
		}
	}
}

// CleanupOldSessions removes completed sessions older than maxAge, keeping
// sessions accessed within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	for id, state := range m.sessions {
		if state.session.Status != models.SessionStatusComplete &&
			state.session.Status != models.SessionStatusError {
			continue
		}
		if state.lastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.lastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			fmt.Printf("[Detect] Cleaned up aged session %s\n", id[:8])
		}
	}
}

// GetSession returns a session by ID.
func (m *Manager) GetSession(id string) (*models.DetectSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.session, true
}

// SnapshotSession returns a copy of the session taken under the lock, for
// callers that serialize session state while the worker is still writing it.
func (m *Manager) SnapshotSession(id string) (models.DetectSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return models.DetectSession{}, false
	}
	return *state.session, true
}

// GetBlocks returns the text blocks a session ran over.
func (m *Manager) GetBlocks(id string) ([]models.TextBlock, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.blocks, true
}

// TouchSession updates the last-accessed timestamp for a session.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.lastAccessed = time.Now()
	return true
}
