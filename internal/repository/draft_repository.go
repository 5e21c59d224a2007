package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/pkg/config"
)

// DraftRepository stores non-authoritative record snapshots in Redis so an
// interrupted session can be resumed. A missing draft is not an error; Load
// returns nil.
type DraftRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewDraftRepository constructs a DraftRepository.
func NewDraftRepository(client *redis.Client, cfg config.DraftsConfig) *DraftRepository {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "onboarding:draft:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &DraftRepository{client: client, keyPrefix: prefix, ttl: ttl}
}

func (r *DraftRepository) key(sessionID string) string {
	return r.keyPrefix + sessionID
}

// Save writes the draft snapshot, refreshing its TTL.
func (r *DraftRepository) Save(ctx context.Context, sessionID string, record *models.Submission) error {
	snapshot := models.DraftSnapshot{SessionID: sessionID, Record: record, SavedAt: time.Now().UTC()}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", sessionID, err)
	}
	if err := r.client.Set(ctx, r.key(sessionID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft %s: %w", sessionID, err)
	}
	return nil
}

// Load fetches a draft snapshot; nil when none exists.
func (r *DraftRepository) Load(ctx context.Context, sessionID string) (*models.Submission, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get draft %s: %w", sessionID, err)
	}
	var snapshot models.DraftSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal draft %s: %w", sessionID, err)
	}
	return snapshot.Record, nil
}

// Delete discards a draft snapshot. Deleting a missing draft is a no-op.
func (r *DraftRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete draft %s: %w", sessionID, err)
	}
	return nil
}

// MemoryDraftRepository is the fallback draft store used when no Redis
// endpoint is configured. Drafts survive for the life of the process only.
type MemoryDraftRepository struct {
	mu     sync.RWMutex
	drafts map[string]*models.Submission
}

// NewMemoryDraftRepository constructs an empty in-process draft store.
func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{drafts: make(map[string]*models.Submission)}
}

// Save stores a deep copy of the record.
func (r *MemoryDraftRepository) Save(_ context.Context, sessionID string, record *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[sessionID] = record.Clone()
	return nil
}

// Load returns a copy of the stored draft; nil when none exists.
func (r *MemoryDraftRepository) Load(_ context.Context, sessionID string) (*models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.drafts[sessionID].Clone(), nil
}

// Delete discards the stored draft.
func (r *MemoryDraftRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, sessionID)
	return nil
}
