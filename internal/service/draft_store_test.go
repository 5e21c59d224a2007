package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clumsypasta/abans-form/internal/models"
)

type countingDraftStore struct {
	saves   int
	saveErr error
}

func (s *countingDraftStore) Save(_ context.Context, _ string, _ *models.Submission) error {
	s.saves++
	return s.saveErr
}

func (s *countingDraftStore) Load(_ context.Context, _ string) (*models.Submission, error) {
	return nil, nil
}

func (s *countingDraftStore) Delete(_ context.Context, _ string) error {
	return nil
}

func TestInstrumentDraftStoreCountsSuccessfulSaves(t *testing.T) {
	metrics := NewMetricsService(nil)
	inner := &countingDraftStore{}
	store := InstrumentDraftStore(inner, metrics)

	require.NoError(t, store.Save(context.Background(), "s1", models.NewSubmission()))
	require.NoError(t, store.Save(context.Background(), "s1", models.NewSubmission()))
	assert.Equal(t, 2, inner.saves)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.draftWrites))

	inner.saveErr = errors.New("redis down")
	require.Error(t, store.Save(context.Background(), "s1", models.NewSubmission()))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.draftWrites))
}

func TestInstrumentDraftStoreWithoutMetrics(t *testing.T) {
	inner := &countingDraftStore{}
	store := InstrumentDraftStore(inner, nil)
	assert.Equal(t, inner, store)
}
