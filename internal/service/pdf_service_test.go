package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/pkg/config"
	"github.com/clumsypasta/abans-form/pkg/jobs"
)

type stubPDFStore struct {
	mu      sync.Mutex
	sub     *models.Submission
	findErr error
	urls    map[string]string
}

func (s *stubPDFStore) FindByID(_ context.Context, id string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.sub, nil
}

func (s *stubPDFStore) UpdatePDFURL(_ context.Context, id, pdfURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urls == nil {
		s.urls = make(map[string]string)
	}
	s.urls[id] = pdfURL
	return nil
}

func (s *stubPDFStore) urlFor(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urls[id]
}

type stubPDFFiles struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (s *stubPDFFiles) Save(filename string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[filename] = data
	return filename, nil
}

func (s *stubPDFFiles) PublicURL(filename string) string {
	return "/files/" + filename
}

type stubRenderer struct {
	err error
}

func (r *stubRenderer) Render(_ *models.Submission) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-stub"), nil
}

func TestPDFServiceHandleGeneratesAndRecords(t *testing.T) {
	sub := models.NewSubmission()
	sub.ID = "rec-1"
	sub.FirstName = "Priya"
	store := &stubPDFStore{sub: sub}
	files := &stubPDFFiles{}

	svc := NewPDFService(store, files, &stubRenderer{}, nil, config.PDFConfig{CompanyName: "ABANS Group"}, nil)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	err := svc.handle(context.Background(), jobs.Job{ID: "rec-1", Type: jobTypePDFSummary, Payload: "rec-1"})
	require.NoError(t, err)

	url := store.urlFor("rec-1")
	require.NotEmpty(t, url)
	assert.Contains(t, url, "pdfs/")
	assert.Contains(t, url, "joining-form-priya")
	assert.Len(t, files.saved, 1)
}

func TestPDFServiceHandleLoadFailure(t *testing.T) {
	store := &stubPDFStore{findErr: errors.New("db down")}
	svc := NewPDFService(store, &stubPDFFiles{}, &stubRenderer{}, nil, config.PDFConfig{}, nil)

	err := svc.handle(context.Background(), jobs.Job{Payload: "rec-1"})
	assert.Error(t, err)
}

func TestPDFServiceHandleRenderFailure(t *testing.T) {
	sub := models.NewSubmission()
	sub.ID = "rec-1"
	store := &stubPDFStore{sub: sub}
	svc := NewPDFService(store, &stubPDFFiles{}, &stubRenderer{err: errors.New("bad layout")}, nil, config.PDFConfig{}, nil)

	err := svc.handle(context.Background(), jobs.Job{Payload: "rec-1"})
	assert.Error(t, err)
	assert.Empty(t, store.urlFor("rec-1"))
}

func TestPDFServiceHandleBadPayload(t *testing.T) {
	svc := NewPDFService(&stubPDFStore{}, &stubPDFFiles{}, &stubRenderer{}, nil, config.PDFConfig{}, nil)
	assert.Error(t, svc.handle(context.Background(), jobs.Job{Payload: 42}))
	assert.Error(t, svc.handle(context.Background(), jobs.Job{Payload: ""}))
}

func TestPDFServiceEndToEndThroughQueue(t *testing.T) {
	sub := models.NewSubmission()
	sub.ID = "rec-2"
	store := &stubPDFStore{sub: sub}
	files := &stubPDFFiles{}
	svc := NewPDFService(store, files, &stubRenderer{}, nil, config.PDFConfig{WorkerConcurrency: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	require.NoError(t, svc.EnqueueSummary("rec-2"))

	deadline := time.After(2 * time.Second)
	for store.urlFor("rec-2") == "" {
		select {
		case <-deadline:
			t.Fatal("summary was not generated in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPDFServiceHandleObservesOutcomes(t *testing.T) {
	sub := models.NewSubmission()
	sub.ID = "rec-1"
	store := &stubPDFStore{sub: sub}
	metrics := NewMetricsService(nil)

	svc := NewPDFService(store, &stubPDFFiles{}, &stubRenderer{}, metrics, config.PDFConfig{}, nil)
	require.NoError(t, svc.handle(context.Background(), jobs.Job{Payload: "rec-1"}))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.pdfTotal.WithLabelValues("success")))

	svc = NewPDFService(store, &stubPDFFiles{}, &stubRenderer{err: errors.New("bad layout")}, metrics, config.PDFConfig{}, nil)
	require.Error(t, svc.handle(context.Background(), jobs.Job{Payload: "rec-1"}))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.pdfTotal.WithLabelValues("error")))
}
