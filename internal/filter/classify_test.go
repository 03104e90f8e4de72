package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"formbase/internal/storage"
	"formbase/pkg/model"
)

func TestCanFilterAtDatabase_Document(t *testing.T) {
	plain := model.ResponseFilters{
		{FieldID: "color", Operator: model.OpEquals, Value: "red"},
		{FieldID: "size", Operator: model.OpIn, Values: []string{"s", "m"}},
	}
	assert.True(t, CanFilterAtDatabase(plain, storage.KindDocument))

	for _, op := range []model.FilterOperator{model.OpDateEquals, model.OpDateBefore, model.OpDateAfter, model.OpDateBetween} {
		withDate := append(model.ResponseFilters{}, plain...)
		withDate = append(withDate, model.ResponseFilter{FieldID: "when", Operator: op, Value: "2024-01-01"})
		assert.False(t, CanFilterAtDatabase(withDate, storage.KindDocument), "operator %s", op)
	}
}

func TestCanFilterAtDatabase_RelationalAlwaysTrue(t *testing.T) {
	filters := model.ResponseFilters{
		{FieldID: "when", Operator: model.OpDateBetween, DateRange: &model.DateRange{From: "2024-01-01", To: "2024-02-01"}},
		{FieldID: "color", Operator: model.OpEquals, Value: "red"},
	}
	assert.True(t, CanFilterAtDatabase(filters, storage.KindRelational))
	assert.True(t, CanFilterAtDatabase(nil, storage.KindRelational))
}

func TestPartitionFilters(t *testing.T) {
	filters := model.ResponseFilters{
		{FieldID: "color", Operator: model.OpEquals, Value: "red"},
		{FieldID: "when", Operator: model.OpDateAfter, Value: "2024-01-01"},
		{FieldID: "size", Operator: model.OpContains, Value: "m"},
	}

	pushable, memoryOnly := PartitionFilters(filters)

	assert.Len(t, pushable, 2)
	assert.Len(t, memoryOnly, 1)
	assert.Equal(t, model.OpDateAfter, memoryOnly[0].Operator)

	pushable, memoryOnly = PartitionFilters(nil)
	assert.Empty(t, pushable)
	assert.Empty(t, memoryOnly)
}
