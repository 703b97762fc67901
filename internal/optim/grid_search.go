// Package optim searches controller gains against the simulator.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/swervesim/internal/sim"
)

// ErrNoCandidate is returned when every grid point failed to build or run.
var ErrNoCandidate = errors.New("optim: no candidate completed")

// BuildFunc assembles a fresh runner for one parameter set.
type BuildFunc func(params map[string]float64) (*sim.Runner, func(), error)

// GridSearch evaluates the cartesian product of parameter ranges and keeps
// the point with the lowest metric value.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs p once per grid point. Points that fail are skipped; on a tie
// the earliest point wins.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, p sim.Profile, cfg sim.Config, metricName string) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		val, err := evaluate(ctx, build, params, p, cfg, metricName)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		if val < best {
			best = val
			bestParams = params
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func evaluate(ctx context.Context, build BuildFunc, params map[string]float64, p sim.Profile, cfg sim.Config, metricName string) (float64, error) {
	r, cleanup, err := build(params)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	res, err := r.Run(ctx, p, cfg)
	if err != nil {
		return 0, err
	}
	val, ok := res.Metrics[metricName]
	if !ok || math.IsNaN(val) {
		return 0, fmt.Errorf("optim: metric %q not reported", metricName)
	}
	return val, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64) error) error {
	if depth == len(g.paramNames) {
		return visit(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, next, visit); err != nil {
			return err
		}
	}
	return nil
}
