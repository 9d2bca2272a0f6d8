package harness

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// evaluate checks every assertion and records failures on result.
func evaluate(assertions []Assertion, result *Result) {
	for _, a := range assertions {
		if err := check(a, result); err != nil {
			result.AddFailure(err.Error())
		}
	}
}

func check(a Assertion, result *Result) error {
	switch a.Type {
	case AssertNoErrors:
		if len(result.Errors) > 0 {
			return &AssertionError{Type: a.Type, Expected: "no errors", Actual: strings.Join(result.Errors, "; ")}
		}
	case AssertErrorContains:
		for _, msg := range result.Errors {
			if strings.Contains(msg, a.Message) {
				return nil
			}
		}
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("an error containing %q", a.Message),
			Actual: fmt.Sprintf("%q", result.Errors)}
	case AssertEquals:
		got, err := Lookup(result.Data, a.Path)
		if err != nil {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%v at %s", a.Value, a.Path), Actual: err.Error()}
		}
		if !sameValue(got, a.Value) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%v at %s", a.Value, a.Path), Actual: fmt.Sprintf("%v", got)}
		}
	case AssertLength:
		got, err := Lookup(result.Data, a.Path)
		if err != nil {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d elements at %s", a.Count, a.Path), Actual: err.Error()}
		}
		list, ok := got.([]interface{})
		if !ok {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("a list at %s", a.Path), Actual: fmt.Sprintf("%T", got)}
		}
		if len(list) != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d elements at %s", a.Count, a.Path), Actual: strconv.Itoa(len(list))}
		}
	case AssertJoins:
		if len(result.Executions) == 0 {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d joins", a.Count), Actual: "no compiled query"}
		}
		if n := result.Executions[0].Plan.JoinCount(); n != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d joins", a.Count), Actual: strconv.Itoa(n)}
		}
	case AssertSkipped:
		if len(result.Executions) == 0 {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("skipped %v", a.Paths), Actual: "no compiled query"}
		}
		got := result.Executions[0].Skipped
		if len(got) != len(a.Paths) || (len(got) > 0 && !reflect.DeepEqual(got, a.Paths)) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("skipped %v", a.Paths), Actual: fmt.Sprintf("%v", got)}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// Lookup follows a dot-separated path through nested maps and lists.
func Lookup(data interface{}, path string) (interface{}, error) {
	cur := data
	for _, part := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]interface{}:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("no field %q", part)
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return nil, fmt.Errorf("no element %q in list of %d", part, len(v))
			}
			cur = v[i]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", cur, part)
		}
	}
	return cur, nil
}

// sameValue compares a response value with a YAML-decoded expectation.
// Integers compare by value regardless of their Go type.
func sameValue(got, want interface{}) bool {
	if gi, ok := asInt(got); ok {
		wi, ok := asInt(want)
		return ok && gi == wi
	}
	return reflect.DeepEqual(got, want)
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
