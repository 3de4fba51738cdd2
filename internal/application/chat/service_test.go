package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sop-assistant-api/internal/application/answer"
	"sop-assistant-api/internal/application/experts"
	"sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/internal/domain/entity"
	"sop-assistant-api/internal/domain/repository"
	"sop-assistant-api/pkg/errors"
)

type fakeRetriever struct {
	result *retrieval.Result
	err    error
	calls  int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ int) (*retrieval.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeConsultant struct {
	calls    int
	lastCtx  []string
	response *experts.Consultation
}

func (f *fakeConsultant) Consult(_ context.Context, query string, contextPassages []string) (*experts.Consultation, error) {
	f.calls++
	f.lastCtx = contextPassages
	if f.response != nil {
		return f.response, nil
	}
	return &experts.Consultation{
		Query:     query,
		ExpertIDs: []string{"QualityExpert"},
		Responses: []experts.ExpertResponse{
			{ExpertID: "QualityExpert", ExpertTitle: "Quality Assurance Director", Response: "Follow the deviation procedure."},
		},
		Selection:   "mention",
		ConsultedAt: time.Now(),
	}, nil
}

type fakeComposer struct {
	calls int
	ans   *answer.Answer
	err   error
}

func (f *fakeComposer) Compose(_ context.Context, _ string, result *retrieval.Result) (*answer.Answer, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.ans != nil {
		return f.ans, nil
	}
	return &answer.Answer{
		Text:     "The invoice process is documented.",
		Sources:  retrieval.SourceNames(result.Passages),
		Grounded: len(result.Passages) > 0,
	}, nil
}

type memSessionRepo struct {
	sessions  map[string]*entity.ChatSession
	nextID    int
	createErr error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*entity.ChatSession{}}
}

func (r *memSessionRepo) Create(_ context.Context, s *entity.ChatSession) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	s.ID = fmt.Sprintf("session-%d", r.nextID)
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id string) (*entity.ChatSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return s, nil
}

func (r *memSessionRepo) Update(_ context.Context, s *entity.ChatSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) ListByUser(_ context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.ChatSession], error) {
	var items []*entity.ChatSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			items = append(items, s)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *memSessionRepo) ListRecentByUser(_ context.Context, userID string, limit int) ([]*entity.ChatSession, error) {
	var items []*entity.ChatSession
	for _, s := range r.sessions {
		if s.UserID == userID && len(items) < limit {
			items = append(items, s)
		}
	}
	return items, nil
}

func (r *memSessionRepo) DeleteByUser(_ context.Context, userID string) error {
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

type memTurnRepo struct {
	turns     []*entity.ChatTurn
	createErr error
}

func (r *memTurnRepo) Create(_ context.Context, t *entity.ChatTurn) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.turns = append(r.turns, t)
	return nil
}

func (r *memTurnRepo) ListBySession(_ context.Context, sessionID string, p repository.Pagination) (*repository.PagedResult[*entity.ChatTurn], error) {
	var items []*entity.ChatTurn
	for _, t := range r.turns {
		if t.SessionID == sessionID {
			items = append(items, t)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *memTurnRepo) DeleteBySession(_ context.Context, sessionID string) error {
	kept := r.turns[:0]
	for _, t := range r.turns {
		if t.SessionID != sessionID {
			kept = append(kept, t)
		}
	}
	r.turns = kept
	return nil
}

func testRetrievalResult() *retrieval.Result {
	return &retrieval.Result{
		Passages: []retrieval.Passage{
			{SourceID: "doc1_0", Content: "Invoices are matched against purchase orders.", DisplayName: "Invoice Processing SOP.pdf", Rank: 1},
		},
		Variants: []string{"ap process", "accounts payable process"},
	}
}

func newTestService(ret *fakeRetriever, cons *fakeConsultant, comp *fakeComposer, sessions *memSessionRepo, turns *memTurnRepo) *Service {
	return NewService(ret, cons, comp, experts.NewRouter(experts.DefaultCatalog(), 3, "ManufacturingExpert"), sessions, turns, nil)
}

func TestAskComposesAnswerAndSavesTurn(t *testing.T) {
	ret := &fakeRetriever{result: testRetrievalResult()}
	cons := &fakeConsultant{}
	comp := &fakeComposer{}
	sessions := newMemSessionRepo()
	turns := &memTurnRepo{}
	svc := newTestService(ret, cons, comp, sessions, turns)

	out, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Question: "How do we process AP invoices?"})
	require.NoError(t, err)
	require.NotNil(t, out.Answer)
	assert.Equal(t, 1, comp.calls)
	assert.Equal(t, 0, cons.calls)
	assert.True(t, out.Answer.Grounded)
	assert.NotEmpty(t, out.SessionID)

	require.Len(t, turns.turns, 1)
	assert.Equal(t, out.SessionID, turns.turns[0].SessionID)
	assert.Equal(t, out.Answer.Text, turns.turns[0].Answer)
	assert.Equal(t, []string{"Invoice Processing SOP.pdf"}, []string(turns.turns[0].Sources))
}

func TestAskCreatesSessionWithTitleFromFirstQuestion(t *testing.T) {
	sessions := newMemSessionRepo()
	svc := newTestService(&fakeRetriever{result: testRetrievalResult()}, &fakeConsultant{}, &fakeComposer{}, sessions, &memTurnRepo{})

	out, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Question: "What is the receiving procedure?"})
	require.NoError(t, err)

	session, err := sessions.GetByID(context.Background(), out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "What is the receiving procedure?", session.Title)
	assert.Equal(t, "u1", session.UserID)
}

func TestAskMentionRoutesToExperts(t *testing.T) {
	ret := &fakeRetriever{result: testRetrievalResult()}
	cons := &fakeConsultant{}
	comp := &fakeComposer{}
	svc := newTestService(ret, cons, comp, newMemSessionRepo(), &memTurnRepo{})

	out, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Question: "@QualityExpert how do we handle deviations?"})
	require.NoError(t, err)
	assert.Equal(t, 1, cons.calls)
	assert.Equal(t, 0, comp.calls)
	require.NotNil(t, out.Consultation)
	assert.Contains(t, out.Answer.Text, "Quality Assurance Director")
	assert.Contains(t, cons.lastCtx[0], "Invoice Processing SOP.pdf")
}

func TestAskUseExpertsFlag(t *testing.T) {
	cons := &fakeConsultant{}
	comp := &fakeComposer{}
	svc := newTestService(&fakeRetriever{result: testRetrievalResult()}, cons, comp, newMemSessionRepo(), &memTurnRepo{})

	out, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Question: "how do we handle deviations?", UseExperts: true})
	require.NoError(t, err)
	assert.Equal(t, 1, cons.calls)
	assert.Equal(t, 0, comp.calls)
	assert.Equal(t, []string{"QualityExpert"}, out.Consultation.ExpertIDs)
}

func TestAskEmptyQuestionRejected(t *testing.T) {
	svc := newTestService(&fakeRetriever{}, &fakeConsultant{}, &fakeComposer{}, newMemSessionRepo(), &memTurnRepo{})

	_, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Question: "   "})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationFailed))
}

func TestAskRetrievalErrorPropagates(t *testing.T) {
	turns := &memTurnRepo{}
	svc := newTestService(&fakeRetriever{err: retrieval.ErrRetrievalUnavailable}, &fakeConsultant{}, &fakeComposer{}, newMemSessionRepo(), turns)

	_, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Question: "anything"})
	require.ErrorIs(t, err, retrieval.ErrRetrievalUnavailable)
	assert.Empty(t, turns.turns)
}

func TestAskSessionCreateFailureStillAnswers(t *testing.T) {
	sessions := newMemSessionRepo()
	sessions.createErr = fmt.Errorf("connection refused")
	turns := &memTurnRepo{}
	svc := newTestService(&fakeRetriever{result: testRetrievalResult()}, &fakeConsultant{}, &fakeComposer{}, sessions, turns)

	out, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Question: "How do we process invoices?"})
	require.NoError(t, err)
	assert.Empty(t, out.SessionID)
	assert.NotNil(t, out.Answer)
	assert.Empty(t, turns.turns)
}

func TestAskExistingSessionWrongUser(t *testing.T) {
	sessions := newMemSessionRepo()
	existing := entity.NewChatSession("owner", "first question")
	require.NoError(t, sessions.Create(context.Background(), existing))

	svc := newTestService(&fakeRetriever{result: testRetrievalResult()}, &fakeConsultant{}, &fakeComposer{}, sessions, &memTurnRepo{})

	_, err := svc.Ask(context.Background(), AskInput{SessionID: existing.ID, UserID: "intruder", Question: "question"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeSessionNotFound))
}

func TestDeleteSessionRemovesTurns(t *testing.T) {
	sessions := newMemSessionRepo()
	turns := &memTurnRepo{}
	svc := newTestService(&fakeRetriever{result: testRetrievalResult()}, &fakeConsultant{}, &fakeComposer{}, sessions, turns)

	out, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Question: "first question"})
	require.NoError(t, err)
	require.Len(t, turns.turns, 1)

	require.NoError(t, svc.DeleteSession(context.Background(), out.SessionID))
	assert.Empty(t, turns.turns)
	_, err = sessions.GetByID(context.Background(), out.SessionID)
	assert.Error(t, err)
}

func TestChatTitleTruncation(t *testing.T) {
	long := "What is the complete standard operating procedure for handling customer complaints in the plant"
	title := entity.ChatTitleFromQuestion(long)
	assert.Contains(t, title, "...")
	assert.LessOrEqual(t, len([]rune(title)), 53)

	assert.Equal(t, "New chat", entity.ChatTitleFromQuestion("   "))
}
