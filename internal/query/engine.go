// Package query coordinates response listing: it classifies filters,
// hands the pushable subset to the storage backend and evaluates the
// remainder in memory.
package query

import (
	"context"

	"formbase/internal/filter"
	"formbase/internal/filter/memory"
	"formbase/internal/storage"
	"formbase/pkg/model"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	DefaultSortBy    = "submittedAt"
	DefaultSortOrder = "desc"
)

// Notifier is told about accepted submissions. Implementations must not
// block the request path on delivery.
type Notifier interface {
	ResponseCreated(ctx context.Context, resp *model.Response)
}

// Engine handles response listing and ingest over a storage backend.
type Engine struct {
	store    storage.ResponseStore
	notifier Notifier
}

// NewEngine creates a new query engine instance.
func NewEngine(store storage.ResponseStore) *Engine {
	return &Engine{store: store}
}

// WithNotifier sets the submission notifier.
func (e *Engine) WithNotifier(n Notifier) *Engine {
	e.notifier = n
	return e
}

// ListParams are the caller-supplied listing arguments, taken as-is from
// the API layer; the engine normalizes them.
type ListParams struct {
	FormID    string
	Filters   model.ResponseFilters
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// ListResponses returns one page of filtered responses.
//
// For the relational backend every filter is compiled to SQL and the
// store alone produces the page. For the document backend the date
// predicates cannot be pushed down; they are evaluated in memory over
// the returned page, and Total remains the database-side count (it may
// overcount when memory-only predicates are present).
func (e *Engine) ListResponses(ctx context.Context, p ListParams) (*model.Page, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	sortBy, sortOrder := resolveSort(p.SortBy, p.SortOrder)

	q := storage.ListQuery{
		FormID:    p.FormID,
		Filters:   p.Filters,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	}

	var memoryOnly model.ResponseFilters
	if e.store.Kind() == storage.KindDocument {
		q.Filters, memoryOnly = filter.PartitionFilters(p.Filters)
	}

	data, total, err := e.store.List(ctx, q)
	if err != nil {
		return nil, model.WrapError(err)
	}

	if len(memoryOnly) > 0 {
		data = memory.Apply(data, memoryOnly)
	}

	return model.NewPage(data, total, page, limit), nil
}

// CreateResponse ingests a submission. When clientToken is non-empty the
// response ID is derived from it, so retried submissions collapse to a
// single record and the retry reports model.ErrExists.
func (e *Engine) CreateResponse(ctx context.Context, formID string, data map[string]interface{}, clientToken string) (*model.Response, error) {
	resp := model.NewResponse(formID, data)
	if clientToken != "" {
		resp.ID = model.SubmissionID(formID, clientToken)
	}

	if err := e.store.Create(ctx, resp); err != nil {
		return nil, model.WrapError(err)
	}

	if e.notifier != nil {
		e.notifier.ResponseCreated(ctx, resp)
	}

	return resp, nil
}
