package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clumsypasta/abans-form/internal/catalog"
	"github.com/clumsypasta/abans-form/internal/documents"
	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/internal/schema"
)

// Manager owns the live sessions. Sessions are held in memory; a restarted
// process recovers a session's record through its draft snapshot, not its
// staged files.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	catalog  *catalog.Catalog
	registry *schema.Registry
	policy   documents.Policy
	drafts   DraftStore
	logger   *zap.Logger
	cfg      Config
}

// NewManager wires the session factory dependencies.
func NewManager(cat *catalog.Catalog, reg *schema.Registry, policy documents.Policy, drafts DraftStore, logger *zap.Logger, cfg Config) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		catalog:  cat,
		registry: reg,
		policy:   policy,
		drafts:   drafts,
		logger:   logger,
		cfg:      cfg,
	}
}

// Open returns the session for the given id, creating one when needed. An
// empty id always mints a fresh session. A known id returns the live
// session; an unknown id seeds a new session from its draft snapshot when
// one exists, so a returning applicant resumes where they left off.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return m.create(uuid.NewString(), nil), nil
	}
	if s, ok := m.Get(id); ok {
		return s, nil
	}

	record, err := m.drafts.Load(ctx, id)
	if err != nil {
		m.logger.Warn("draft restore failed, starting fresh", zap.String("session_id", id), zap.Error(err))
		record = nil
	}
	return m.create(id, recordFromDraft(record)), nil
}

// Get returns a live session without creating one.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Drop discards a live session and its pending timers. The draft snapshot
// is left alone so the record stays recoverable.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.cancelAutosaveLocked()
	if s.noticeTimer != nil {
		s.noticeTimer.Stop()
		s.noticeTimer = nil
	}
	s.mu.Unlock()
}

// FlushAll forces every pending draft write; called on shutdown.
func (m *Manager) FlushAll(ctx context.Context) {
	m.mu.RLock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.RUnlock()
	for _, s := range live {
		s.Flush(ctx)
	}
}

// Count reports live sessions, for metrics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) create(id string, record *models.Submission) *Session {
	tracker := documents.NewTracker(m.policy)
	s := newSession(id, record, tracker, m.catalog, m.registry, m.drafts, m.logger, m.cfg)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		return existing
	}
	m.sessions[id] = s
	return s
}

func recordFromDraft(record *models.Submission) *models.Submission {
	if record == nil {
		return nil
	}
	return record.Clone()
}
