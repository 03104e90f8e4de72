// Package memory evaluates response filters in process, for predicates
// the document store cannot push down. Operator semantics mirror the two
// backend compilers: string comparisons are case-insensitive, numeric and
// date coercions return false on malformed values instead of failing.
package memory

import (
	"strconv"
	"strings"

	"formbase/internal/filter"
	"formbase/pkg/model"
)

// Apply returns the subset of records satisfying all given filters.
// Pure and synchronous; the input slice is not modified.
func Apply(records []*model.Response, filters model.ResponseFilters) []*model.Response {
	if len(filters) == 0 {
		return records
	}
	out := make([]*model.Response, 0, len(records))
	for _, r := range records {
		if matchesAll(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r *model.Response, filters model.ResponseFilters) bool {
	for _, f := range filters {
		// A filter without its operand is no condition, not a rejection.
		if !filter.HasOperand(f) {
			continue
		}
		if !Matches(r, f) {
			return false
		}
	}
	return true
}

// Matches evaluates a single predicate against a response. Filters whose
// operand is absent always match; see Apply for the listing-level policy.
func Matches(r *model.Response, f model.ResponseFilter) bool {
	if !filter.HasOperand(f) {
		return true
	}

	value, present := fieldValue(r, f.FieldID)

	switch f.Operator {
	case model.OpIsEmpty:
		return isEmpty(value, present)
	case model.OpIsNotEmpty:
		return !isEmpty(value, present)
	case model.OpEquals:
		if len(f.Values) > 0 {
			return arrayEquals(value, f.Values)
		}
		return stringEquals(value, f.Value)
	case model.OpNotEquals:
		return !stringEquals(value, f.Value)
	case model.OpContains:
		return contains(value, f.Value)
	case model.OpNotContains:
		return !contains(value, f.Value)
	case model.OpStartsWith:
		s, ok := asString(value)
		return ok && strings.HasPrefix(strings.ToLower(s), strings.ToLower(f.Value))
	case model.OpEndsWith:
		s, ok := asString(value)
		return ok && strings.HasSuffix(strings.ToLower(s), strings.ToLower(f.Value))
	case model.OpGreaterThan:
		return compareNumber(value, f.Value, func(a, b float64) bool { return a > b })
	case model.OpLessThan:
		return compareNumber(value, f.Value, func(a, b float64) bool { return a < b })
	case model.OpBetween:
		return numberBetween(value, f.NumberRange)
	case model.OpIn:
		return in(value, f.Values)
	case model.OpNotIn:
		return !in(value, f.Values)
	case model.OpContainsAll:
		return containsAll(value, f.Values)
	case model.OpDateEquals:
		return compareDate(value, f.Value, 0)
	case model.OpDateBefore:
		return compareDate(value, f.Value, -1)
	case model.OpDateAfter:
		return compareDate(value, f.Value, 1)
	case model.OpDateBetween:
		return dateBetween(value, f.DateRange)
	}

	// Unknown operator: no condition.
	return true
}

func fieldValue(r *model.Response, fieldID string) (interface{}, bool) {
	if r == nil || r.Data == nil {
		return nil, false
	}
	v, ok := r.Data[fieldID]
	return v, ok
}

// asString renders scalars the way the relational text accessor does:
// strings as themselves, JSON numbers and booleans as their JSON text.
// Arrays and objects have no scalar text form.
func asString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func asStrings(v interface{}) ([]string, bool) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := asString(e)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func asNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		return filter.ParseNumber(t)
	}
	return 0, false
}

func isEmpty(v interface{}, present bool) bool {
	if !present || v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func stringEquals(v interface{}, want string) bool {
	s, ok := asString(v)
	return ok && strings.EqualFold(s, want)
}

// arrayEquals is exact, order-independent array equality: equal
// cardinality and every expected element present (case-insensitively).
func arrayEquals(v interface{}, want []string) bool {
	have, ok := asStrings(v)
	if !ok || len(have) != len(want) {
		return false
	}
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// contains is substring match for scalar strings and case-insensitive
// element membership for stored arrays.
func contains(v interface{}, want string) bool {
	if have, ok := asStrings(v); ok {
		for _, h := range have {
			if strings.EqualFold(h, want) {
				return true
			}
		}
		return false
	}
	s, ok := asString(v)
	return ok && strings.Contains(strings.ToLower(s), strings.ToLower(want))
}

func in(v interface{}, wanted []string) bool {
	if have, ok := asStrings(v); ok {
		for _, h := range have {
			for _, w := range wanted {
				if strings.EqualFold(h, w) {
					return true
				}
			}
		}
		return false
	}
	s, ok := asString(v)
	if !ok {
		return false
	}
	for _, w := range wanted {
		if strings.EqualFold(s, w) {
			return true
		}
	}
	return false
}

func containsAll(v interface{}, wanted []string) bool {
	have, ok := asStrings(v)
	if !ok {
		return false
	}
	for _, w := range wanted {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func compareNumber(v interface{}, operand string, cmp func(a, b float64) bool) bool {
	stored, ok := asNumber(v)
	if !ok {
		return false
	}
	want, ok := filter.ParseNumber(operand)
	if !ok {
		return false
	}
	return cmp(stored, want)
}

func numberBetween(v interface{}, rng *model.NumberRange) bool {
	stored, ok := asNumber(v)
	if !ok {
		return false
	}
	if rng.Min != nil && stored < *rng.Min {
		return false
	}
	if rng.Max != nil && stored > *rng.Max {
		return false
	}
	return true
}

// storedDate coerces a stored value to a calendar date. Numbers are
// treated as unix-milliseconds epochs, matching the relational guard.
func storedDate(v interface{}) (int64, bool) {
	s, ok := asString(v)
	if !ok {
		return 0, false
	}
	t, ok := filter.ParseDate(s)
	if !ok {
		return 0, false
	}
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d), true
}

func operandDate(s string) (int64, bool) {
	t, ok := filter.ParseDate(s)
	if !ok {
		return 0, false
	}
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d), true
}

// compareDate compares at calendar-date granularity.
// dir < 0 means stored before operand, 0 equal, > 0 after.
func compareDate(v interface{}, operand string, dir int) bool {
	stored, ok := storedDate(v)
	if !ok {
		return false
	}
	want, ok := operandDate(operand)
	if !ok {
		return false
	}
	switch {
	case dir < 0:
		return stored < want
	case dir > 0:
		return stored > want
	default:
		return stored == want
	}
}

func dateBetween(v interface{}, rng *model.DateRange) bool {
	stored, ok := storedDate(v)
	if !ok {
		return false
	}
	if rng.From != "" {
		from, ok := operandDate(rng.From)
		if !ok || stored < from {
			return false
		}
	}
	if rng.To != "" {
		to, ok := operandDate(rng.To)
		if !ok || stored > to {
			return false
		}
	}
	return true
}
