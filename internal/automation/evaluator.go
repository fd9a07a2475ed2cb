package automation

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
)

// Snapshot exposes the fields conditions can read. Unknown fields report
// ok == false.
type Snapshot interface {
	Field(name string) (value any, ok bool)
}

// Evaluate reports whether every condition holds for the snapshot. An empty
// list always holds.
func Evaluate(conditions []domain.Condition, entity Snapshot) bool {
	for _, c := range conditions {
		if !EvaluateCondition(c, entity) {
			return false
		}
	}
	return true
}

// EvaluateCondition evaluates one condition.
//
// equals and notEquals compare normalized scalars strictly: numbers compare
// as float64 and no string or number coercion happens. An unknown field is
// absent and equals nothing. contains and notContains need a string field and
// are false otherwise; a scalar value is matched by its text form, so 2 looks
// for "2". A null or composite value matches nothing. An unrecognized
// operator holds.
func EvaluateCondition(c domain.Condition, entity Snapshot) bool {
	got, present := entity.Field(c.Field)

	switch c.Operator {
	case domain.OperatorEquals:
		return present && strictEqual(got, c.Value)
	case domain.OperatorNotEquals:
		return !present || !strictEqual(got, c.Value)
	case domain.OperatorContains:
		field, needle, ok := stringPair(got, c.Value)
		return present && ok && strings.Contains(field, needle)
	case domain.OperatorNotContains:
		field, needle, ok := stringPair(got, c.Value)
		return present && ok && !strings.Contains(field, needle)
	default:
		return true
	}
}

// scalar is a normalized comparable value.
type scalar struct {
	kind reflect.Kind
	s    string
	f    float64
	b    bool
}

func normalize(v any) (scalar, bool) {
	switch t := v.(type) {
	case nil:
		return scalar{kind: reflect.Invalid}, true
	case uuid.UUID:
		return scalar{kind: reflect.String, s: t.String()}, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return scalar{kind: reflect.String, s: rv.String()}, true
	case reflect.Bool:
		return scalar{kind: reflect.Bool, b: rv.Bool()}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return scalar{kind: reflect.Float64, f: float64(rv.Int())}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return scalar{kind: reflect.Float64, f: float64(rv.Uint())}, true
	case reflect.Float32, reflect.Float64:
		return scalar{kind: reflect.Float64, f: rv.Float()}, true
	case reflect.Ptr:
		if rv.IsNil() {
			return scalar{kind: reflect.Invalid}, true
		}
		return normalize(rv.Elem().Interface())
	}
	return scalar{}, false
}

func strictEqual(a, b any) bool {
	na, ok := normalize(a)
	if !ok {
		return false
	}
	nb, ok := normalize(b)
	if !ok {
		return false
	}
	return na == nb
}

func stringPair(field, value any) (string, string, bool) {
	nf, ok := normalize(field)
	if !ok || nf.kind != reflect.String {
		return "", "", false
	}
	nv, ok := normalize(value)
	if !ok {
		return "", "", false
	}
	needle, ok := nv.text()
	if !ok {
		return "", "", false
	}
	return nf.s, needle, true
}

// text renders a scalar the way it is written in a rule document.
func (s scalar) text() (string, bool) {
	switch s.kind {
	case reflect.String:
		return s.s, true
	case reflect.Float64:
		return strconv.FormatFloat(s.f, 'f', -1, 64), true
	case reflect.Bool:
		return strconv.FormatBool(s.b), true
	}
	return "", false
}
