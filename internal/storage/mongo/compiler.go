package mongo

import (
	"log/slog"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"formbase/internal/filter"
	"formbase/pkg/model"
)

// Compile maps response filters to a MongoDB filter document anchored on
// the form ID. Every predicate becomes one subtree under a single $and;
// filters the document store cannot express (or that lack their operand)
// compile to no condition rather than an error.
func Compile(formID string, filters model.ResponseFilters) bson.M {
	conds := make([]bson.M, 0, len(filters))
	for _, f := range filters {
		if c, ok := compileFilter(f); ok {
			conds = append(conds, c)
		}
	}

	q := bson.M{"formId": formID}
	if len(conds) > 0 {
		q["$and"] = conds
	}
	return q
}

func compileFilter(f model.ResponseFilter) (bson.M, bool) {
	if !filter.HasOperand(f) {
		return nil, false
	}
	// Field ids become BSON object keys, not concatenated code, but the
	// same allowed-character discipline applies.
	fieldID, err := filter.EnsureSafeFieldID(f.FieldID)
	if err != nil {
		slog.Warn("skipping filter with unsafe field id", "fieldId", f.FieldID)
		return nil, false
	}
	field := "data." + fieldID

	switch f.Operator {
	case model.OpIsEmpty:
		return bson.M{"$or": []bson.M{
			{field: bson.M{"$exists": false}},
			{field: nil},
			{field: ""},
		}}, true

	case model.OpIsNotEmpty:
		return bson.M{"$and": []bson.M{
			{field: bson.M{"$exists": true}},
			{field: bson.M{"$ne": nil}},
			{field: bson.M{"$ne": ""}},
		}}, true

	case model.OpEquals:
		if len(f.Values) > 0 {
			// Exact, order-independent array equality for checkbox fields.
			return bson.M{field: bson.M{
				"$all":  exactRegexes(f.Values),
				"$size": len(f.Values),
			}}, true
		}
		return bson.M{field: exactRegex(f.Value)}, true

	case model.OpNotEquals:
		return bson.M{field: bson.M{"$not": exactRegex(f.Value)}}, true

	case model.OpContains:
		return bson.M{field: ciRegex(regexp.QuoteMeta(f.Value))}, true

	case model.OpNotContains:
		return bson.M{field: bson.M{"$not": ciRegex(regexp.QuoteMeta(f.Value))}}, true

	case model.OpStartsWith:
		return bson.M{field: ciRegex("^" + regexp.QuoteMeta(f.Value))}, true

	case model.OpEndsWith:
		return bson.M{field: ciRegex(regexp.QuoteMeta(f.Value) + "$")}, true

	case model.OpGreaterThan:
		n, ok := filter.ParseNumber(f.Value)
		if !ok {
			return nil, false
		}
		return bson.M{field: bson.M{"$gt": n}}, true

	case model.OpLessThan:
		n, ok := filter.ParseNumber(f.Value)
		if !ok {
			return nil, false
		}
		return bson.M{field: bson.M{"$lt": n}}, true

	case model.OpBetween:
		bounds := bson.M{}
		if f.NumberRange.Min != nil {
			bounds["$gte"] = *f.NumberRange.Min
		}
		if f.NumberRange.Max != nil {
			bounds["$lte"] = *f.NumberRange.Max
		}
		return bson.M{field: bounds}, true

	case model.OpIn:
		// Per-value anchored regexes keep set membership case-insensitive,
		// matching single-value equality semantics.
		or := make([]bson.M, 0, len(f.Values))
		for _, v := range f.Values {
			or = append(or, bson.M{field: exactRegex(v)})
		}
		return bson.M{"$or": or}, true

	case model.OpNotIn:
		and := make([]bson.M, 0, len(f.Values))
		for _, v := range f.Values {
			and = append(and, bson.M{field: bson.M{"$not": exactRegex(v)}})
		}
		return bson.M{"$and": and}, true

	case model.OpContainsAll:
		return bson.M{field: bson.M{"$all": exactRegexes(f.Values)}}, true
	}

	// Date operators and anything unrecognized cannot be pushed to the
	// document store; the caller evaluates them in memory.
	slog.Debug("filter not supported by document query", "operator", f.Operator, "fieldId", f.FieldID)
	return nil, false
}

func ciRegex(pattern string) primitive.Regex {
	return primitive.Regex{Pattern: pattern, Options: "i"}
}

func exactRegex(value string) primitive.Regex {
	return ciRegex("^" + regexp.QuoteMeta(value) + "$")
}

func exactRegexes(values []string) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, exactRegex(v))
	}
	return out
}
