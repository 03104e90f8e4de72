package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbase/internal/storage"
	"formbase/pkg/model"
)

// fakeStore records the query it receives and plays back canned results.
type fakeStore struct {
	kind    storage.Kind
	lastQ   storage.ListQuery
	data    []*model.Response
	total   int64
	listErr error
	created []*model.Response
}

func (s *fakeStore) Kind() storage.Kind { return s.kind }

func (s *fakeStore) List(ctx context.Context, q storage.ListQuery) ([]*model.Response, int64, error) {
	s.lastQ = q
	return s.data, s.total, s.listErr
}

func (s *fakeStore) Create(ctx context.Context, resp *model.Response) error {
	for _, existing := range s.created {
		if existing.ID == resp.ID {
			return model.ErrExists
		}
	}
	s.created = append(s.created, resp)
	return nil
}

func (s *fakeStore) Close(ctx context.Context) error { return nil }

func TestListResponses_ClampsPagination(t *testing.T) {
	store := &fakeStore{kind: storage.KindRelational}
	engine := NewEngine(store)

	page, err := engine.ListResponses(context.Background(), ListParams{FormID: "f1", Page: 0, Limit: 200})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxLimit, page.Limit)
	assert.Equal(t, 0, store.lastQ.Offset)
	assert.Equal(t, MaxLimit, store.lastQ.Limit)
}

func TestListResponses_DefaultLimit(t *testing.T) {
	store := &fakeStore{kind: storage.KindRelational}
	engine := NewEngine(store)

	page, err := engine.ListResponses(context.Background(), ListParams{FormID: "f1", Page: 3})
	require.NoError(t, err)

	assert.Equal(t, DefaultLimit, page.Limit)
	assert.Equal(t, 2*DefaultLimit, store.lastQ.Offset)
}

func TestListResponses_DefaultSort(t *testing.T) {
	store := &fakeStore{kind: storage.KindRelational}
	engine := NewEngine(store)

	_, err := engine.ListResponses(context.Background(), ListParams{FormID: "f1", SortBy: "nonsense", SortOrder: "sideways"})
	require.NoError(t, err)

	assert.Equal(t, "submittedAt", store.lastQ.SortBy)
	assert.Equal(t, "desc", store.lastQ.SortOrder)
}

func TestListResponses_DynamicSortPassesThrough(t *testing.T) {
	store := &fakeStore{kind: storage.KindRelational}
	engine := NewEngine(store)

	_, err := engine.ListResponses(context.Background(), ListParams{FormID: "f1", SortBy: "data.age", SortOrder: "ASC"})
	require.NoError(t, err)

	assert.Equal(t, "data.age", store.lastQ.SortBy)
	assert.Equal(t, "asc", store.lastQ.SortOrder, "order is case-normalized")
}

func TestListResponses_UnsafeDynamicSortDefaults(t *testing.T) {
	store := &fakeStore{kind: storage.KindRelational}
	engine := NewEngine(store)

	_, err := engine.ListResponses(context.Background(), ListParams{FormID: "f1", SortBy: "data.a'; DROP--"})
	require.NoError(t, err)

	assert.Equal(t, "submittedAt", store.lastQ.SortBy)
}

func TestListResponses_RelationalPushesAllFilters(t *testing.T) {
	store := &fakeStore{kind: storage.KindRelational}
	engine := NewEngine(store)

	filters := model.ResponseFilters{
		{FieldID: "color", Operator: model.OpEquals, Value: "red"},
		{FieldID: "when", Operator: model.OpDateAfter, Value: "2024-01-01"},
	}
	_, err := engine.ListResponses(context.Background(), ListParams{FormID: "f1", Filters: filters})
	require.NoError(t, err)

	assert.Equal(t, filters, store.lastQ.Filters, "date filters included for relational backend")
}

func TestListResponses_DocumentHybridPath(t *testing.T) {
	store := &fakeStore{
		kind: storage.KindDocument,
		data: []*model.Response{
			{ID: "r1", Data: map[string]interface{}{"color": "red", "when": "2024-03-05"}},
			{ID: "r2", Data: map[string]interface{}{"color": "red", "when": "2023-01-01"}},
		},
		total: 2,
	}
	engine := NewEngine(store)

	page, err := engine.ListResponses(context.Background(), ListParams{
		FormID: "f1",
		Filters: model.ResponseFilters{
			{FieldID: "color", Operator: model.OpEquals, Value: "red"},
			{FieldID: "when", Operator: model.OpDateAfter, Value: "2024-01-01"},
		},
	})
	require.NoError(t, err)

	// Only the equality predicate reached the store.
	require.Len(t, store.lastQ.Filters, 1)
	assert.Equal(t, model.OpEquals, store.lastQ.Filters[0].Operator)

	// The date predicate was applied in memory over the returned page.
	require.Len(t, page.Data, 1)
	assert.Equal(t, "r1", page.Data[0].ID)

	// Total remains the database-side count.
	assert.Equal(t, int64(2), page.Total)
}

func TestListResponses_StorageErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	store := &fakeStore{kind: storage.KindRelational, listErr: boom}
	engine := NewEngine(store)

	_, err := engine.ListResponses(context.Background(), ListParams{FormID: "f1"})
	assert.ErrorIs(t, err, boom)
}

func TestListResponses_CanceledErrorWrapped(t *testing.T) {
	store := &fakeStore{kind: storage.KindRelational, listErr: context.Canceled}
	engine := NewEngine(store)

	_, err := engine.ListResponses(context.Background(), ListParams{FormID: "f1"})
	assert.ErrorIs(t, err, model.ErrCanceled)
}

type recordingNotifier struct {
	got []*model.Response
}

func (n *recordingNotifier) ResponseCreated(ctx context.Context, resp *model.Response) {
	n.got = append(n.got, resp)
}

func TestCreateResponse(t *testing.T) {
	store := &fakeStore{kind: storage.KindDocument}
	notifier := &recordingNotifier{}
	engine := NewEngine(store).WithNotifier(notifier)

	resp, err := engine.CreateResponse(context.Background(), "f1", map[string]interface{}{"color": "red"}, "")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "f1", resp.FormID)
	require.Len(t, notifier.got, 1)
	assert.Equal(t, resp.ID, notifier.got[0].ID)
}

func TestCreateResponse_IdempotentToken(t *testing.T) {
	store := &fakeStore{kind: storage.KindDocument}
	engine := NewEngine(store)

	first, err := engine.CreateResponse(context.Background(), "f1", map[string]interface{}{"a": "1"}, "tok")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionID("f1", "tok"), first.ID)

	_, err = engine.CreateResponse(context.Background(), "f1", map[string]interface{}{"a": "1"}, "tok")
	assert.ErrorIs(t, err, model.ErrExists)
}

func TestResolveSort(t *testing.T) {
	cases := []struct {
		sortBy, sortOrder string
		wantBy, wantOrder string
	}{
		{"submittedAt", "asc", "submittedAt", "asc"},
		{"updatedAt", "DESC", "updatedAt", "desc"},
		{"id", "", "id", "desc"},
		{"data.age", "asc", "data.age", "asc"},
		{"data.", "asc", "submittedAt", "asc"},
		{"data.a b", "asc", "submittedAt", "asc"},
		{"submitted_at", "asc", "submittedAt", "asc"},
		{"", "", "submittedAt", "desc"},
	}
	for _, tc := range cases {
		by, order := resolveSort(tc.sortBy, tc.sortOrder)
		assert.Equal(t, tc.wantBy, by, "sortBy %q", tc.sortBy)
		assert.Equal(t, tc.wantOrder, order, "sortOrder %q", tc.sortOrder)
	}
}
