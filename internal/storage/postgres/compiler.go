package postgres

import (
	"fmt"
	"strings"

	"formbase/internal/filter"
	"formbase/pkg/model"
)

// Guard patterns applied to stored values before any cast. Responses hold
// arbitrary JSON, so a cast without a shape check would abort the whole
// request the first time a field holds a non-numeric or non-date value.
const (
	numericPattern = `^-?\d+(\.\d+)?$`
	isoDatePattern = `^\d{4}-\d{2}-\d{2}`
	epochPattern   = `^\d+$`
)

// Compile maps response filters to parameterized SQL conditions over the
// JSONB data column. Conditions are joined with AND by the caller;
// placeholders are numbered from startIndex ($1 is reserved for the form
// ID). Field identifiers are the only user-controlled text interpolated
// into SQL and must pass the sanitizer; every operand value is bound.
func Compile(filters model.ResponseFilters, startIndex int) ([]string, []interface{}, error) {
	c := &compiler{next: startIndex}
	for _, f := range filters {
		if !filter.HasOperand(f) {
			continue
		}
		if err := c.add(f); err != nil {
			return nil, nil, err
		}
	}
	return c.conds, c.params, nil
}

type compiler struct {
	conds  []string
	params []interface{}
	next   int
}

// bind appends a parameter and returns its placeholder.
func (c *compiler) bind(v interface{}) string {
	c.params = append(c.params, v)
	p := fmt.Sprintf("$%d", c.next)
	c.next++
	return p
}

func (c *compiler) emit(cond string) {
	c.conds = append(c.conds, cond)
}

func (c *compiler) add(f model.ResponseFilter) error {
	fieldID, err := filter.EnsureSafeFieldID(f.FieldID)
	if err != nil {
		return err
	}

	// Each field is addressed twice: as jsonb for type and array
	// inspection, as text for string comparison.
	jsonAcc := fmt.Sprintf("data->'%s'", fieldID)
	textAcc := fmt.Sprintf("data->>'%s'", fieldID)

	switch f.Operator {
	case model.OpIsEmpty:
		c.emit(fmt.Sprintf("(NOT (data ? '%s') OR %s = 'null'::jsonb OR %s = '')",
			fieldID, jsonAcc, textAcc))

	case model.OpIsNotEmpty:
		c.emit(fmt.Sprintf("((data ? '%s') AND %s <> 'null'::jsonb AND %s <> '')",
			fieldID, jsonAcc, textAcc))

	case model.OpEquals:
		if len(f.Values) > 0 {
			c.emit(c.arrayEquals(jsonAcc, f.Values))
		} else {
			c.emit(fmt.Sprintf("LOWER(%s) = LOWER(%s)", textAcc, c.bind(f.Value)))
		}

	case model.OpNotEquals:
		// Null-safe: an absent field is not equal to anything.
		c.emit(fmt.Sprintf("(%s IS NULL OR LOWER(%s) <> LOWER(%s))",
			textAcc, textAcc, c.bind(f.Value)))

	case model.OpContains:
		c.emit(c.contains(jsonAcc, textAcc, f.Value))

	case model.OpNotContains:
		c.emit(fmt.Sprintf("(%s IS NULL OR NOT %s)",
			textAcc, c.contains(jsonAcc, textAcc, f.Value)))

	case model.OpStartsWith:
		c.emit(fmt.Sprintf("%s ILIKE %s", textAcc, c.bind(escapeLike(f.Value)+"%")))

	case model.OpEndsWith:
		c.emit(fmt.Sprintf("%s ILIKE %s", textAcc, c.bind("%"+escapeLike(f.Value))))

	case model.OpGreaterThan:
		c.numericCompare(textAcc, ">", f.Value)

	case model.OpLessThan:
		c.numericCompare(textAcc, "<", f.Value)

	case model.OpBetween:
		var parts []string
		if f.NumberRange.Min != nil {
			parts = append(parts, fmt.Sprintf("(%s)::numeric >= %s", textAcc, c.bind(*f.NumberRange.Min)))
		}
		if f.NumberRange.Max != nil {
			parts = append(parts, fmt.Sprintf("(%s)::numeric <= %s", textAcc, c.bind(*f.NumberRange.Max)))
		}
		c.emit(fmt.Sprintf("(CASE WHEN %s ~ '%s' THEN %s ELSE FALSE END)",
			textAcc, numericPattern, strings.Join(parts, " AND ")))

	case model.OpIn:
		c.emit(c.in(jsonAcc, textAcc, f.Values))

	case model.OpNotIn:
		c.emit(fmt.Sprintf("(%s IS NULL OR NOT %s)",
			textAcc, c.in(jsonAcc, textAcc, f.Values)))

	case model.OpContainsAll:
		c.emit(fmt.Sprintf("(jsonb_typeof(%s) = 'array' AND %s)",
			jsonAcc, c.allElementsPresent(jsonAcc, f.Values)))

	case model.OpDateEquals:
		c.dateCompare(textAcc, "=", f.Value)

	case model.OpDateBefore:
		c.dateCompare(textAcc, "<", f.Value)

	case model.OpDateAfter:
		c.dateCompare(textAcc, ">", f.Value)

	case model.OpDateBetween:
		c.dateBetween(textAcc, f.DateRange)
	}

	// Unrecognized operators compile to no condition.
	return nil
}

// arrayEquals is exact, order-independent array equality: cardinality
// must match and every expected element must have a case-insensitive
// match in the stored array, asserted via a NOT EXISTS anti-join.
func (c *compiler) arrayEquals(jsonAcc string, values []string) string {
	card := c.bind(len(values))
	arr := c.bind(values)
	return fmt.Sprintf(
		"(jsonb_typeof(%s) = 'array' AND jsonb_array_length(%s) = %s AND %s)",
		jsonAcc, jsonAcc, card, c.antiJoin(jsonAcc, arr))
}

func (c *compiler) allElementsPresent(jsonAcc string, values []string) string {
	return c.antiJoin(jsonAcc, c.bind(values))
}

// antiJoin asserts every element of the bound text[] has a
// case-insensitive match among the stored array's elements.
func (c *compiler) antiJoin(jsonAcc, arrParam string) string {
	return fmt.Sprintf(
		"NOT EXISTS (SELECT 1 FROM unnest(%s::text[]) AS want(value) "+
			"WHERE NOT EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) AS have(value) "+
			"WHERE LOWER(have.value) = LOWER(want.value)))",
		arrParam, jsonAcc)
}

// contains branches on the stored value's runtime JSON type: substring
// match for scalar strings, element membership for arrays.
func (c *compiler) contains(jsonAcc, textAcc, value string) string {
	elem := c.bind(value)
	pattern := c.bind("%" + escapeLike(value) + "%")
	return fmt.Sprintf(
		"(CASE WHEN jsonb_typeof(%s) = 'array' "+
			"THEN EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) AS elem(value) WHERE LOWER(elem.value) = LOWER(%s)) "+
			"ELSE %s ILIKE %s END)",
		jsonAcc, jsonAcc, elem, textAcc, pattern)
}

func (c *compiler) in(jsonAcc, textAcc string, values []string) string {
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}
	arr := c.bind(lowered)
	return fmt.Sprintf(
		"(CASE WHEN jsonb_typeof(%s) = 'array' "+
			"THEN EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) AS elem(value) WHERE LOWER(elem.value) = ANY(%s)) "+
			"ELSE LOWER(%s) = ANY(%s) END)",
		jsonAcc, jsonAcc, arr, textAcc, arr)
}

func (c *compiler) numericCompare(textAcc, op, operand string) {
	n, ok := filter.ParseNumber(operand)
	if !ok {
		return
	}
	c.emit(fmt.Sprintf("(CASE WHEN %s ~ '%s' THEN (%s)::numeric %s %s ELSE FALSE END)",
		textAcc, numericPattern, textAcc, op, c.bind(n)))
}

// isoDateExpr extracts the calendar date of an ISO-shaped stored value;
// epochDateExpr does the same for an all-digit unix-milliseconds value.
func isoDateExpr(textAcc string) string {
	return fmt.Sprintf("SUBSTRING(%s FROM 1 FOR 10)::date", textAcc)
}

func epochDateExpr(textAcc string) string {
	return fmt.Sprintf("to_timestamp(FLOOR((%s)::numeric / 1000))::date", textAcc)
}

func (c *compiler) dateCompare(textAcc, op, operand string) {
	day, ok := filter.ParseDate(operand)
	if !ok {
		return
	}
	p := c.bind(day.Format("2006-01-02"))
	c.emit(fmt.Sprintf(
		"(CASE WHEN %s ~ '%s' THEN %s %s %s::date "+
			"WHEN %s ~ '%s' THEN %s %s %s::date "+
			"ELSE FALSE END)",
		textAcc, isoDatePattern, isoDateExpr(textAcc), op, p,
		textAcc, epochPattern, epochDateExpr(textAcc), op, p))
}

func (c *compiler) dateBetween(textAcc string, rng *model.DateRange) {
	type bound struct {
		op    string
		param string
	}
	var bounds []bound
	if rng.From != "" {
		if day, ok := filter.ParseDate(rng.From); ok {
			bounds = append(bounds, bound{">=", c.bind(day.Format("2006-01-02"))})
		}
	}
	if rng.To != "" {
		if day, ok := filter.ParseDate(rng.To); ok {
			bounds = append(bounds, bound{"<=", c.bind(day.Format("2006-01-02"))})
		}
	}
	if len(bounds) == 0 {
		return
	}

	var isoParts, epochParts []string
	for _, b := range bounds {
		isoParts = append(isoParts, fmt.Sprintf("%s %s %s::date", isoDateExpr(textAcc), b.op, b.param))
		epochParts = append(epochParts, fmt.Sprintf("%s %s %s::date", epochDateExpr(textAcc), b.op, b.param))
	}

	c.emit(fmt.Sprintf(
		"(CASE WHEN %s ~ '%s' THEN %s "+
			"WHEN %s ~ '%s' THEN %s "+
			"ELSE FALSE END)",
		textAcc, isoDatePattern, strings.Join(isoParts, " AND "),
		textAcc, epochPattern, strings.Join(epochParts, " AND ")))
}

// escapeLike escapes LIKE metacharacters so operand text matches
// literally under ILIKE.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
