// Package storage defines the backend-agnostic contract for response
// persistence. Concrete backends live in subpackages; callers talk to
// ResponseStore and never see a backend's query language.
package storage

import (
	"context"

	"formbase/pkg/model"
)

// Kind identifies the family of query language a backend speaks.
type Kind string

const (
	// KindDocument is a schemaless document store (MongoDB).
	KindDocument Kind = "document"
	// KindRelational is a relational store with a JSONB data column (Postgres).
	KindRelational Kind = "relational"
)

// ListQuery describes one page of a filtered response listing. Filters
// passed here must already be restricted to what the backend can push
// down; the caller owns the hybrid memory-evaluation strategy.
type ListQuery struct {
	FormID    string
	Filters   model.ResponseFilters
	SortBy    string // recognized column or "data.<fieldId>" dynamic reference
	SortOrder string // "asc" or "desc"
	Offset    int
	Limit     int
}

// ResponseStore is implemented by each storage backend.
type ResponseStore interface {
	// Kind reports which compiler/classifier applies to this backend.
	Kind() Kind

	// List executes one page query plus one count query and returns the
	// page of responses and the total count of matching records.
	List(ctx context.Context, q ListQuery) ([]*model.Response, int64, error)

	// Create inserts a response. Returns model.ErrExists if a response
	// with the same ID is already stored.
	Create(ctx context.Context, resp *model.Response) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
