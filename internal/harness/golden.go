package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dynql/internal/ir"
)

// Snapshot renders a result as canonical JSON: the response data, its
// errors and the printable form of every compiled plan.
func Snapshot(name string, result *Result) ([]byte, error) {
	plans := make([]any, 0, len(result.Executions))
	for _, e := range result.Executions {
		skipped := make([]any, 0, len(e.Skipped))
		for _, p := range e.Skipped {
			skipped = append(skipped, p)
		}
		plans = append(plans, map[string]any{
			"entity":  e.Entity,
			"plan":    e.Plan.Describe(),
			"skipped": skipped,
		})
	}

	errs := make([]any, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, e)
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"data":          result.Data,
		"errors":        errs,
		"plans":         plans,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can inspect assertion failures.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot, err := Snapshot(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return result, nil
}
