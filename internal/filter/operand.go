package filter

import (
	"regexp"
	"strconv"
	"time"

	"formbase/pkg/model"
)

var (
	isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	allDigits     = regexp.MustCompile(`^\d+$`)
)

// ParseNumber coerces a stored or operand string to a float64.
// Returns false instead of an error on malformed input.
func ParseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDate coerces a value to a UTC calendar timestamp. Accepted shapes
// are an ISO date prefix (2006-01-02, optionally followed by a time part)
// and an all-digit unix-milliseconds epoch. These are the same two shapes
// the relational compiler's guard regexes admit; anything else is
// malformed and yields false.
func ParseDate(s string) (time.Time, bool) {
	if isoDatePrefix.MatchString(s) {
		t, err := time.Parse("2006-01-02", s[:10])
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	if allDigits.MatchString(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// HasOperand reports whether the filter carries the operand its operator
// requires. A filter without its operand compiles to no condition in
// every strategy; this is the single place that policy is defined.
func HasOperand(f model.ResponseFilter) bool {
	switch f.Operator {
	case model.OpIsEmpty, model.OpIsNotEmpty:
		return true
	case model.OpEquals:
		return f.Value != "" || len(f.Values) > 0
	case model.OpNotEquals, model.OpContains, model.OpNotContains,
		model.OpStartsWith, model.OpEndsWith,
		model.OpGreaterThan, model.OpLessThan,
		model.OpDateEquals, model.OpDateBefore, model.OpDateAfter:
		return f.Value != ""
	case model.OpBetween:
		return f.NumberRange != nil && (f.NumberRange.Min != nil || f.NumberRange.Max != nil)
	case model.OpIn, model.OpNotIn, model.OpContainsAll:
		return len(f.Values) > 0
	case model.OpDateBetween:
		return f.DateRange != nil && (f.DateRange.From != "" || f.DateRange.To != "")
	}
	return false
}
