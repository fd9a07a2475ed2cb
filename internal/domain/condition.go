package domain

import (
	"encoding/json"
	"strings"
)

// Operator is a condition comparison operator.
type Operator string

// Recognized condition operators.
const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "notEquals"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "notContains"
)

// Known reports whether the operator is one the evaluator understands.
func (o Operator) Known() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals, OperatorContains, OperatorNotContains:
		return true
	}
	return false
}

// Condition gates an automation rule on a single card field.
// Value holds the decoded JSON scalar (string, float64, bool or nil).
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Validate checks that the condition names a field. Unknown operators are
// allowed through; the evaluator treats them as passing.
func (c Condition) Validate() error {
	if strings.TrimSpace(c.Field) == "" {
		return NewValidationError("condition.field", "cannot be empty", ErrValidation)
	}
	return nil
}

// DecodeConditions parses a JSON array of conditions. A null or empty
// document yields no conditions.
func DecodeConditions(raw []byte) ([]Condition, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var conditions []Condition
	if err := json.Unmarshal(raw, &conditions); err != nil {
		return nil, NewValidationError("conditions", "must be a JSON array", err)
	}
	return conditions, nil
}
