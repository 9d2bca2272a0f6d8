package harness

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/compiler"
	"github.com/roach88/dynql/internal/querytree"
	"github.com/roach88/dynql/internal/repository"
	"github.com/roach88/dynql/internal/resolver"
	"github.com/roach88/dynql/internal/store"
)

// Harness runs scenarios. The zero value is usable and discards logs.
type Harness struct {
	Log *zap.SugaredLogger
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return (&Harness{}).Run(context.Background(), scenario)
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database.
//
// Execution flow:
//  1. Load the catalog and open an in-memory store over it
//  2. Seed fixtures, then inline seed rows
//  3. Execute the request against the generated schema
//  4. Evaluate assertions against the response and recorded plans
//
// Returns an error only when the scenario cannot be set up; request errors
// are part of the result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	log := h.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cat, err := catalog.Load(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	st, err := store.Open(":memory:", cat)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if scenario.Fixtures != "" {
		if _, err := st.SeedFile(ctx, scenario.Fixtures); err != nil {
			return nil, err
		}
	}
	if len(scenario.Seed) > 0 {
		if _, err := st.Seed(ctx, store.Fixtures(scenario.Seed)); err != nil {
			return nil, err
		}
	}

	comp := compiler.New(cat)
	rec := &recorder{
		compiler: comp,
		next:     repository.New(comp, st, log),
	}
	schema, err := resolver.NewSchema(cat, rec)
	if err != nil {
		return nil, err
	}

	res := graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  scenario.Query,
		VariableValues: scenario.Variables,
		Context:        ctx,
	})

	result := NewResult()
	result.Data = res.Data
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, e.Message)
	}
	result.Executions = rec.executions()

	evaluate(scenario.Assertions, result)

	log.Debugw("scenario finished", "scenario", scenario.Name, "pass", result.Pass)
	return result, nil
}

// recorder compiles each request tree on the side to record its plan, then
// delegates to the repository.
type recorder struct {
	compiler *compiler.Compiler
	next     resolver.Finder

	mu   sync.Mutex
	runs []Execution
}

func (r *recorder) record(tree *querytree.Node, marker string) {
	res, err := r.compiler.Compile(tree, marker)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, Execution{Field: tree.Name, Entity: marker, Plan: res.Plan, Skipped: res.Skipped})
}

func (r *recorder) executions() []Execution {
	r.mu.Lock()
	defer r.mu.Unlock()
	runs := append([]Execution{}, r.runs...)
	// Root fields resolve in map order.
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Field < runs[j].Field })
	return runs
}

func (r *recorder) FindOne(ctx context.Context, tree *querytree.Node, marker string) (map[string]any, bool, error) {
	r.record(tree, marker)
	return r.next.FindOne(ctx, tree, marker)
}

func (r *recorder) Find(ctx context.Context, tree *querytree.Node, marker string) ([]map[string]any, error) {
	r.record(tree, marker)
	return r.next.Find(ctx, tree, marker)
}
