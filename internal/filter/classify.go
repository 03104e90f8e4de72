package filter

import (
	"formbase/internal/storage"
	"formbase/pkg/model"
)

// CanFilterAtDatabase reports whether every filter can be pushed down to
// the given backend. The document store cannot express the calendar-date
// operators, so their presence forces the hybrid DB+memory strategy. The
// relational store expresses every operator through guarded casts and
// never needs a memory fallback.
func CanFilterAtDatabase(filters model.ResponseFilters, kind storage.Kind) bool {
	if kind == storage.KindRelational {
		return true
	}
	for _, f := range filters {
		if f.Operator.IsDate() {
			return false
		}
	}
	return true
}

// PartitionFilters splits filters into the subset the document store can
// push down and the remainder that must be evaluated in memory.
func PartitionFilters(filters model.ResponseFilters) (pushable, memoryOnly model.ResponseFilters) {
	for _, f := range filters {
		if f.Operator.IsDate() {
			memoryOnly = append(memoryOnly, f)
		} else {
			pushable = append(pushable, f)
		}
	}
	return pushable, memoryOnly
}
