package ecs

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/rotisserie/eris"
)

// ErrDependencyCycle is wrapped by errors reporting systems that can never
// be scheduled because of a dependency cycle.
var ErrDependencyCycle = eris.New("ecs: dependency cycle")

// Stage is a group of systems with no dependency among each other.
type Stage []SystemID

// Plan is the ordered sequence of stages derived from the dependency graph.
// Starved lists systems that never reach zero unresolved dependencies; they
// appear in no stage.
type Plan struct {
	Stages  []Stage
	Starved []SystemID
}

// StageOf returns the stage index of id, or -1 when id is not scheduled.
func (p Plan) StageOf(id SystemID) int {
	for i, stage := range p.Stages {
		if slices.Contains(stage, id) {
			return i
		}
	}
	return -1
}

// Len returns the number of scheduled systems.
func (p Plan) Len() int {
	n := 0
	for _, stage := range p.Stages {
		n += len(stage)
	}
	return n
}

// Fingerprint hashes the stage layout. Equal plans have equal fingerprints.
func (p Plan) Fingerprint() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 16)
	for _, stage := range p.Stages {
		buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(len(stage)))
		_, _ = d.Write(buf)
		for _, id := range stage {
			buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(id))
			_, _ = d.Write(buf)
		}
	}
	for _, id := range p.Starved {
		buf = binary.LittleEndian.AppendUint64(buf[:0], ^uint64(id))
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

// buildPlan runs Kahn's algorithm over nodes. deps maps a system to the
// systems it depends on; edges point dependency -> dependent. Every stage
// holds the systems whose dependencies all sit in earlier stages, sorted by id.
func buildPlan(nodes []SystemID, deps map[SystemID][]SystemID) Plan {
	inDegree := make(map[SystemID]int, len(nodes))
	for _, id := range nodes {
		inDegree[id] = 0
	}

	dependents := make(map[SystemID][]SystemID, len(deps))
	for id, ds := range deps {
		if _, ok := inDegree[id]; !ok {
			inDegree[id] = 0
		}
		for _, dep := range ds {
			if _, ok := inDegree[dep]; !ok {
				inDegree[dep] = 0
			}
			inDegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []SystemID
	for id, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	var plan Plan
	placed := 0
	for len(ready) > 0 {
		stage := ready
		ready = nil
		for _, id := range stage {
			for _, dependent := range dependents[id] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					ready = append(ready, dependent)
				}
			}
		}
		slices.Sort(ready)
		plan.Stages = append(plan.Stages, stage)
		placed += len(stage)
	}

	if placed < len(inDegree) {
		for id, degree := range inDegree {
			if degree > 0 {
				plan.Starved = append(plan.Starved, id)
			}
		}
		slices.Sort(plan.Starved)
	}

	return plan
}

// CycleError reports systems that a dependency cycle keeps out of every stage.
// OnCycle are the systems on a cycle; Blocked depend on one transitively.
type CycleError struct {
	OnCycle []SystemID
	Blocked []SystemID
}

func (e *CycleError) Error() string {
	if len(e.Blocked) == 0 {
		return fmt.Sprintf("%s: systems %v never run", ErrDependencyCycle.Error(), e.OnCycle)
	}
	return fmt.Sprintf("%s: systems %v never run, blocking %v", ErrDependencyCycle.Error(), e.OnCycle, e.Blocked)
}

func (e *CycleError) Unwrap() error {
	return ErrDependencyCycle
}

// newCycleError splits starved systems into those on a cycle and those only
// downstream of one.
func newCycleError(starved []SystemID, deps map[SystemID][]SystemID) *CycleError {
	inStarved := make(map[SystemID]bool, len(starved))
	for _, id := range starved {
		inStarved[id] = true
	}

	e := &CycleError{}
	for _, id := range starved {
		if reachesSelf(id, deps, inStarved) {
			e.OnCycle = append(e.OnCycle, id)
		} else {
			e.Blocked = append(e.Blocked, id)
		}
	}
	return e
}

func reachesSelf(start SystemID, deps map[SystemID][]SystemID, within map[SystemID]bool) bool {
	seen := make(map[SystemID]bool)
	stack := slices.Clone(deps[start])
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == start {
			return true
		}
		if seen[id] || !within[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, deps[id]...)
	}
	return false
}
