// Package repository is the narrow find-one / find-many surface resolvers
// call. It compiles a selection tree into the store's query builder and
// hands execution and materialization to the store.
package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/dynql/internal/catalog"
	"github.com/roach88/dynql/internal/compiler"
	"github.com/roach88/dynql/internal/queryir"
	"github.com/roach88/dynql/internal/querytree"
)

// Store executes plans. *store.Store implements it.
type Store interface {
	// QueryBuilder returns a builder rooted at marker, possibly carrying a
	// default projection.
	QueryBuilder(marker string) (*queryir.Builder, *catalog.Entity, error)
	FindOne(ctx context.Context, b *queryir.Builder) (map[string]any, bool, error)
	FindMany(ctx context.Context, b *queryir.Builder) ([]map[string]any, error)
}

// Repository wires the compiler to a store.
type Repository struct {
	compiler *compiler.Compiler
	store    Store
	log      *zap.SugaredLogger
}

// New creates a repository. A nil logger disables logging.
func New(c *compiler.Compiler, s Store, log *zap.SugaredLogger) *Repository {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Repository{compiler: c, store: s, log: log}
}

// FindOne returns the single entity tree selects, or (nil, false, nil) when
// nothing matches.
func (r *Repository) FindOne(ctx context.Context, tree *querytree.Node, marker string) (map[string]any, bool, error) {
	b, err := r.prepare(tree, marker)
	if err != nil {
		return nil, false, err
	}
	entity, found, err := r.store.FindOne(ctx, b)
	if err != nil {
		return nil, false, fmt.Errorf("find one %s: %w", marker, err)
	}
	return entity, found, nil
}

// Find returns every entity tree selects.
func (r *Repository) Find(ctx context.Context, tree *querytree.Node, marker string) ([]map[string]any, error) {
	b, err := r.prepare(tree, marker)
	if err != nil {
		return nil, err
	}
	entities, err := r.store.FindMany(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", marker, err)
	}
	return entities, nil
}

// prepare replaces the store's default projection with tree's plan.
func (r *Repository) prepare(tree *querytree.Node, marker string) (*queryir.Builder, error) {
	b, entity, err := r.store.QueryBuilder(marker)
	if err != nil {
		return nil, err
	}
	b.ClearSelect()

	res, err := r.compiler.CompileInto(b, tree, entity)
	if err != nil {
		return nil, err
	}

	fingerprint, err := res.Plan.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s plan: %w", marker, err)
	}
	r.log.Debugw("compiled query",
		"entity", marker,
		"tree", tree.ToObject(),
		"plan", fingerprint,
		"joins", res.Plan.JoinCount(),
	)
	if len(res.Skipped) > 0 {
		r.log.Debugw("skipped non-relation selections", "entity", marker, "paths", res.Skipped)
	}

	return b, nil
}
