package harness

import (
	"github.com/roach88/dynql/internal/queryir"
)

// Execution records one root query the request compiled.
type Execution struct {
	Field   string         `json:"field"`
	Entity  string         `json:"entity"`
	Plan    queryir.Select `json:"-"`
	Skipped []string       `json:"skipped,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Data is the GraphQL response data.
	Data interface{} `json:"data"`

	// Errors are the GraphQL error messages of the response.
	Errors []string `json:"errors,omitempty"`

	// Executions lists the compiled root queries ordered by field name.
	Executions []Execution `json:"executions"`

	// Failures contains assertion failure messages.
	// Empty if Pass is true.
	Failures []string `json:"failures,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Errors:     []string{},
		Executions: []Execution{},
		Failures:   []string{},
	}
}

// AddFailure adds an assertion failure and marks the result as failed.
func (r *Result) AddFailure(msg string) {
	r.Failures = append(r.Failures, msg)
	r.Pass = false
}
