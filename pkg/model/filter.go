package model

// FilterOperator defines the supported response filter operators.
type FilterOperator string

const (
	OpIsEmpty     FilterOperator = "IS_EMPTY"
	OpIsNotEmpty  FilterOperator = "IS_NOT_EMPTY"
	OpEquals      FilterOperator = "EQUALS"
	OpNotEquals   FilterOperator = "NOT_EQUALS"
	OpContains    FilterOperator = "CONTAINS"
	OpNotContains FilterOperator = "NOT_CONTAINS"
	OpStartsWith  FilterOperator = "STARTS_WITH"
	OpEndsWith    FilterOperator = "ENDS_WITH"
	OpGreaterThan FilterOperator = "GREATER_THAN"
	OpLessThan    FilterOperator = "LESS_THAN"
	OpBetween     FilterOperator = "BETWEEN"
	OpIn          FilterOperator = "IN"
	OpNotIn       FilterOperator = "NOT_IN"
	OpContainsAll FilterOperator = "CONTAINS_ALL"
	OpDateEquals  FilterOperator = "DATE_EQUALS"
	OpDateBefore  FilterOperator = "DATE_BEFORE"
	OpDateAfter   FilterOperator = "DATE_AFTER"
	OpDateBetween FilterOperator = "DATE_BETWEEN"
)

// ValidOps returns all valid filter operators.
func ValidOps() []FilterOperator {
	return []FilterOperator{
		OpIsEmpty, OpIsNotEmpty, OpEquals, OpNotEquals,
		OpContains, OpNotContains, OpStartsWith, OpEndsWith,
		OpGreaterThan, OpLessThan, OpBetween,
		OpIn, OpNotIn, OpContainsAll,
		OpDateEquals, OpDateBefore, OpDateAfter, OpDateBetween,
	}
}

// IsValid checks if the operator is valid.
func (op FilterOperator) IsValid() bool {
	for _, v := range ValidOps() {
		if op == v {
			return true
		}
	}
	return false
}

// IsDate reports whether the operator compares calendar dates.
func (op FilterOperator) IsDate() bool {
	switch op {
	case OpDateEquals, OpDateBefore, OpDateAfter, OpDateBetween:
		return true
	}
	return false
}

// NumberRange holds the optional bounds of a BETWEEN filter.
// A nil bound means that side of the range is unconstrained.
type NumberRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// DateRange holds the optional bounds of a DATE_BETWEEN filter.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// ResponseFilters is a slice of ResponseFilter.
type ResponseFilters []ResponseFilter

// ResponseFilter is a single user-authored predicate against a dynamic
// field of a response's data. At most one of Value, Values, NumberRange
// and DateRange is meaningful for a given operator. A filter whose
// required operand is absent compiles to no condition rather than an
// error, so partially filled filter UI states never break a query.
type ResponseFilter struct {
	FieldID     string         `json:"fieldId"`
	Operator    FilterOperator `json:"operator"`
	Value       string         `json:"value,omitempty"`
	Values      []string       `json:"values,omitempty"`
	NumberRange *NumberRange   `json:"numberRange,omitempty"`
	DateRange   *DateRange     `json:"dateRange,omitempty"`
}

// Validate checks if the filter is well-formed enough to attempt compiling.
func (f ResponseFilter) Validate() bool {
	if f.FieldID == "" {
		return false
	}
	return f.Operator.IsValid()
}
