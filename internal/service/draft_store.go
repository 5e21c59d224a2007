package service

import (
	"context"

	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/internal/session"
)

// instrumentedDraftStore counts autosave writes on their way through to the
// real store.
type instrumentedDraftStore struct {
	session.DraftStore
	metrics *MetricsService
}

// InstrumentDraftStore wraps a draft store so every successful save feeds the
// draft-write counter. A nil metrics service returns the store unchanged.
func InstrumentDraftStore(store session.DraftStore, metrics *MetricsService) session.DraftStore {
	if metrics == nil {
		return store
	}
	return instrumentedDraftStore{DraftStore: store, metrics: metrics}
}

func (d instrumentedDraftStore) Save(ctx context.Context, sessionID string, record *models.Submission) error {
	if err := d.DraftStore.Save(ctx, sessionID, record); err != nil {
		return err
	}
	d.metrics.ObserveDraftWrite()
	return nil
}
