package optim

import (
	"context"
	"fmt"
	"maps"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/glutensim/internal/sim"
)

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis reads "name=v1,v2,..." or "name=lo:hi:n" (n evenly spaced
// values, endpoints included).
func ParseAxis(s string) (Axis, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok || name == "" || spec == "" {
		return Axis{}, fmt.Errorf("axis %q: want name=v1,v2 or name=lo:hi:n", s)
	}

	if parts := strings.Split(spec, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return Axis{}, fmt.Errorf("axis %q: bad range", s)
		}
		values := make([]float64, n)
		for i := range values {
			if n == 1 {
				values[i] = lo
				continue
			}
			values[i] = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		return Axis{Name: name, Values: values}, nil
	}

	var values []float64
	for _, f := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		values = append(values, v)
	}
	return Axis{Name: name, Values: values}, nil
}

// Objective scores a finished engine; higher is better.
type Objective func(st sim.Stats, e *sim.Engine) float64

var Objectives = map[string]Objective{
	"modulus": func(st sim.Stats, _ *sim.Engine) float64 { return st.Modulus },
	"bonds":   func(st sim.Stats, _ *sim.Engine) float64 { return float64(st.Bonds) },
	// fewest breaks per bond formed
	"stability": func(st sim.Stats, _ *sim.Engine) float64 {
		return -float64(st.Broken) / math.Max(1, float64(st.Bonds)+float64(st.Broken))
	},
}

// Point is one evaluated combination.
type Point struct {
	Params map[string]float64
	Score  float64
	Final  sim.Stats
}

type GridSearch struct {
	axes []Axis
}

func NewGridSearch(axes []Axis) *GridSearch {
	return &GridSearch{axes: axes}
}

// Size is the number of combinations.
func (g *GridSearch) Size() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Search evaluates every combination of axis values. For each, build
// returns a fresh engine, the params are applied with SetParam, and the
// engine runs for duration before obj scores it. Points come back best
// first.
func (g *GridSearch) Search(
	ctx context.Context,
	build func() (*sim.Engine, error),
	duration float64,
	obj Objective,
) ([]Point, error) {
	points := make([]Point, 0, g.Size())
	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(params map[string]float64) error {
		e, err := build()
		if err != nil {
			return err
		}
		for _, name := range sortedNames(params) {
			if err := e.SetParam(name, params[name]); err != nil {
				return err
			}
		}
		if err := e.Run(ctx, duration); err != nil {
			return err
		}
		st := e.Stats()
		points = append(points, Point{Params: params, Score: obj(st, e), Final: st})
		return nil
	})
	if err != nil {
		return points, err
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Score > points[j].Score })
	return points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.axes) {
		return eval(maps.Clone(current))
	}

	axis := g.axes[depth]
	for _, val := range axis.Values {
		current[axis.Name] = val
		if err := g.searchRecursive(ctx, depth+1, current, eval); err != nil {
			return err
		}
	}
	delete(current, axis.Name)
	return nil
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
