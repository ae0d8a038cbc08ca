package system

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrDuplicateSystem = errors.New("duplicate system name")
	ErrUnknownSystem   = errors.New("unknown system")
	ErrPhaseConflict   = errors.New("ordering contradicts phase order")
	ErrCycle           = errors.New("system dependency cycle")
)

// graph is the validated, topologically sorted system order.
type graph struct {
	order [phaseCount][]int
	preds [][]int
}

// buildGraph validates specs and orders them. Within a phase, ties are
// broken by registration order so the result is reproducible.
func buildGraph(specs []Spec) (*graph, error) {
	index := make(map[string]int, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: system %d has no name", ErrUnknownSystem, i)
		}
		if s.Phase < 0 || int(s.Phase) >= phaseCount {
			return nil, fmt.Errorf("system %q: invalid phase %d", s.Name, s.Phase)
		}
		if _, dup := index[s.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSystem, s.Name)
		}
		index[s.Name] = i
	}

	succ := make([][]int, len(specs))
	preds := make([][]int, len(specs))
	edge := func(from, to int) {
		if !slices.Contains(succ[from], to) {
			succ[from] = append(succ[from], to)
			preds[to] = append(preds[to], from)
		}
	}

	for i, s := range specs {
		for _, name := range s.After {
			j, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q runs after %q", ErrUnknownSystem, s.Name, name)
			}
			switch {
			case specs[j].Phase > s.Phase:
				return nil, fmt.Errorf("%w: %q (%s) runs after %q (%s)", ErrPhaseConflict, s.Name, s.Phase, name, specs[j].Phase)
			case specs[j].Phase == s.Phase:
				edge(j, i)
			}
		}
		for _, name := range s.Before {
			j, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q runs before %q", ErrUnknownSystem, s.Name, name)
			}
			switch {
			case specs[j].Phase < s.Phase:
				return nil, fmt.Errorf("%w: %q (%s) runs before %q (%s)", ErrPhaseConflict, s.Name, s.Phase, name, specs[j].Phase)
			case specs[j].Phase == s.Phase:
				edge(i, j)
			}
		}
	}

	g := &graph{preds: preds}
	indegree := make([]int, len(specs))
	for i := range specs {
		indegree[i] = len(preds[i])
	}

	for phase := 0; phase < phaseCount; phase++ {
		var members, ready []int
		for i, s := range specs {
			if int(s.Phase) != phase {
				continue
			}
			members = append(members, i)
			if indegree[i] == 0 {
				ready = append(ready, i)
			}
		}
		for len(ready) > 0 {
			slices.Sort(ready)
			n := ready[0]
			ready = ready[1:]
			g.order[phase] = append(g.order[phase], n)
			for _, m := range succ[n] {
				indegree[m]--
				if indegree[m] == 0 {
					ready = append(ready, m)
				}
			}
		}
		if len(g.order[phase]) != len(members) {
			var stuck []string
			for _, i := range members {
				if indegree[i] > 0 {
					stuck = append(stuck, specs[i].Name)
				}
			}
			return nil, fmt.Errorf("%w in %s phase: %s", ErrCycle, Phase(phase), strings.Join(stuck, ", "))
		}
	}
	return g, nil
}
