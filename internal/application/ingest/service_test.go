package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/internal/domain/entity"
	"sop-assistant-api/internal/domain/repository"
	"sop-assistant-api/internal/infrastructure/messaging"
	"sop-assistant-api/pkg/errors"
)

type memDocRepo struct {
	docs   map[string]*entity.Document
	nextID int
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: map[string]*entity.Document{}}
}

func (r *memDocRepo) Create(_ context.Context, doc *entity.Document) error {
	r.nextID++
	doc.ID = fmt.Sprintf("doc-%d", r.nextID)
	r.docs[doc.ID] = doc
	return nil
}

func (r *memDocRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, errors.ErrDocumentNotFound
	}
	return doc, nil
}

func (r *memDocRepo) GetBySource(_ context.Context, source string) (*entity.Document, error) {
	for _, doc := range r.docs {
		if doc.Source == source {
			return doc, nil
		}
	}
	return nil, errors.ErrDocumentNotFound
}

func (r *memDocRepo) Update(_ context.Context, doc *entity.Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *memDocRepo) Delete(_ context.Context, id string) error {
	delete(r.docs, id)
	return nil
}

func (r *memDocRepo) List(_ context.Context, p repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	var items []*entity.Document
	for _, doc := range r.docs {
		items = append(items, doc)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *memDocRepo) ListByStatus(_ context.Context, status entity.DocumentStatus, p repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	var items []*entity.Document
	for _, doc := range r.docs {
		if doc.Status == status {
			items = append(items, doc)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *memDocRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.docs)), nil
}

type fakePublisher struct {
	ingestJobs []*messaging.IngestJobMessage
	removeJobs []*messaging.RemoveJobMessage
	err        error
}

func (p *fakePublisher) PublishIngestJob(_ context.Context, job *messaging.IngestJobMessage) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.ingestJobs = append(p.ingestJobs, job)
	return fmt.Sprintf("%d-0", len(p.ingestJobs)), nil
}

func (p *fakePublisher) PublishRemoveJob(_ context.Context, job *messaging.RemoveJobMessage) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.removeJobs = append(p.removeJobs, job)
	return fmt.Sprintf("%d-0", len(p.removeJobs)), nil
}

type fakeEmbedder struct{ fail bool }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, &retrieval.TransientError{Err: fmt.Errorf("embedding backend down")}
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type fakeIndex struct {
	chunks  map[string]*retrieval.DocumentChunk
	deleted []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{chunks: map[string]*retrieval.DocumentChunk{}}
}

func (f *fakeIndex) EnsureCollection(context.Context) error { return nil }

func (f *fakeIndex) Search(context.Context, []float32, int) ([]*retrieval.SearchHit, error) {
	return nil, nil
}

func (f *fakeIndex) InsertChunks(_ context.Context, chunks []*retrieval.DocumentChunk) error {
	for _, c := range chunks {
		f.chunks[c.ID] = c
	}
	return nil
}

func (f *fakeIndex) DeleteBySource(_ context.Context, source string) error {
	f.deleted = append(f.deleted, source)
	for id, c := range f.chunks {
		if c.Source == source {
			delete(f.chunks, id)
		}
	}
	return nil
}

func (f *fakeIndex) Count(context.Context) (int64, error) { return int64(len(f.chunks)), nil }

func (f *fakeIndex) HasAny(ctx context.Context) (bool, error) {
	n, _ := f.Count(ctx)
	return n > 0, nil
}

func newTestService(repo *memDocRepo, pub *fakePublisher, emb retrieval.Embedder, idx retrieval.VectorIndex) *Service {
	return NewService(repo, pub, retrieval.NewIndexer(emb, idx, 32, 100, 10))
}

func TestEnqueueRegistersDocumentAndPublishes(t *testing.T) {
	repo := newMemDocRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub, &fakeEmbedder{}, newFakeIndex())

	doc, err := svc.Enqueue(context.Background(), EnqueueInput{
		Filename: "Invoice Processing SOP.pdf",
		Text:     "Match invoices to purchase orders before payment.",
	})
	require.NoError(t, err)
	assert.Equal(t, "invoice_processing_sop", doc.Source)
	assert.Equal(t, entity.DocumentStatusPending, doc.Status)

	require.Len(t, pub.ingestJobs, 1)
	assert.Equal(t, doc.ID, pub.ingestJobs[0].DocumentID)
	assert.Equal(t, "invoice_processing_sop", pub.ingestJobs[0].Source)
}

func TestEnqueueSameSourceReusesDocument(t *testing.T) {
	repo := newMemDocRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub, &fakeEmbedder{}, newFakeIndex())

	first, err := svc.Enqueue(context.Background(), EnqueueInput{Filename: "Receiving SOP.pdf", Text: "v1"})
	require.NoError(t, err)

	second, err := svc.Enqueue(context.Background(), EnqueueInput{Filename: "Receiving SOP.pdf", Text: "v2 updated"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.docs, 1)
	assert.Len(t, pub.ingestJobs, 2)
}

func TestEnqueueValidation(t *testing.T) {
	svc := newTestService(newMemDocRepo(), &fakePublisher{}, &fakeEmbedder{}, newFakeIndex())

	_, err := svc.Enqueue(context.Background(), EnqueueInput{Filename: "", Text: "content"})
	assert.True(t, errors.IsCode(err, errors.CodeValidationFailed))

	_, err = svc.Enqueue(context.Background(), EnqueueInput{Filename: "a.pdf", Text: "   "})
	assert.True(t, errors.IsCode(err, errors.CodeValidationFailed))
}

func TestEnqueuePublishFailureMarksDocument(t *testing.T) {
	repo := newMemDocRepo()
	pub := &fakePublisher{err: fmt.Errorf("redis down")}
	svc := newTestService(repo, pub, &fakeEmbedder{}, newFakeIndex())

	_, err := svc.Enqueue(context.Background(), EnqueueInput{Filename: "Safety SOP.pdf", Text: "lockout tagout"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeMessagingError))

	doc, err := repo.GetBySource(context.Background(), "safety_sop")
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusFailed, doc.Status)
}

func TestProcessIngestIndexesAndMarksIndexed(t *testing.T) {
	repo := newMemDocRepo()
	pub := &fakePublisher{}
	idx := newFakeIndex()
	svc := newTestService(repo, pub, &fakeEmbedder{}, idx)

	doc, err := svc.Enqueue(context.Background(), EnqueueInput{
		Filename: "Receiving SOP.pdf",
		Text:     "Inspect deliveries at the dock and record lot numbers for traceability.",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ProcessIngest(context.Background(), pub.ingestJobs[0]))

	got, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusIndexed, got.Status)
	assert.Equal(t, got.ChunkCount, len(idx.chunks))
	assert.Greater(t, got.ChunkCount, 0)
	assert.Contains(t, idx.chunks, "receiving_sop_0")
}

func TestProcessIngestFailureMarksFailed(t *testing.T) {
	repo := newMemDocRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub, &fakeEmbedder{fail: true}, newFakeIndex())

	doc, err := svc.Enqueue(context.Background(), EnqueueInput{Filename: "QA SOP.pdf", Text: "deviation handling"})
	require.NoError(t, err)

	err = svc.ProcessIngest(context.Background(), pub.ingestJobs[0])
	require.Error(t, err)

	got, gerr := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, gerr)
	assert.Equal(t, entity.DocumentStatusFailed, got.Status)
	assert.NotEmpty(t, got.LastError)
}

func TestProcessIngestUnknownDocumentDropped(t *testing.T) {
	svc := newTestService(newMemDocRepo(), &fakePublisher{}, &fakeEmbedder{}, newFakeIndex())

	err := svc.ProcessIngest(context.Background(), &messaging.IngestJobMessage{
		DocumentID: "gone",
		Source:     "gone",
		Filename:   "gone.pdf",
		Text:       "text",
	})
	assert.NoError(t, err)
}

func TestRemoveAndProcessRemove(t *testing.T) {
	repo := newMemDocRepo()
	pub := &fakePublisher{}
	idx := newFakeIndex()
	svc := newTestService(repo, pub, &fakeEmbedder{}, idx)

	doc, err := svc.Enqueue(context.Background(), EnqueueInput{Filename: "Old SOP.pdf", Text: "obsolete procedure"})
	require.NoError(t, err)
	require.NoError(t, svc.ProcessIngest(context.Background(), pub.ingestJobs[0]))

	require.NoError(t, svc.Remove(context.Background(), doc.ID))
	require.Len(t, pub.removeJobs, 1)

	require.NoError(t, svc.ProcessRemove(context.Background(), pub.removeJobs[0]))
	assert.Empty(t, idx.chunks)
	_, err = repo.GetByID(context.Background(), doc.ID)
	assert.True(t, errors.IsCode(err, errors.CodeDocumentNotFound))
}

func TestStatsReportsCorpusSize(t *testing.T) {
	repo := newMemDocRepo()
	pub := &fakePublisher{}
	idx := newFakeIndex()
	svc := newTestService(repo, pub, &fakeEmbedder{}, idx)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.DocumentCount)
	assert.False(t, stats.HasAny)

	_, err = svc.Enqueue(context.Background(), EnqueueInput{Filename: "Receiving SOP.pdf", Text: "inspect pallets on arrival"})
	require.NoError(t, err)
	require.NoError(t, svc.ProcessIngest(context.Background(), pub.ingestJobs[0]))

	stats, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DocumentCount)
	assert.Positive(t, stats.ChunkCount)
	assert.True(t, stats.HasAny)
}
