package ecs

import (
	"reflect"
	"sync"

	"github.com/TheBitDrifter/mask"
	"golang.org/x/sync/errgroup"
)

// maxFootprintBits is the number of component types a footprint mask can
// distinguish. Systems touching types beyond it run alone. Build with the
// mask package's m256, m512 or m1024 tags to raise it.
const maxFootprintBits = mask.MaxBits

// Footprinter is implemented by systems that can declare which component
// types they read or write. Only such systems share a concurrent wave.
type Footprinter interface {
	Footprint() []reflect.Type
}

// footprints assigns a mask bit per component type.
type footprints struct {
	mu   sync.Mutex
	bits map[reflect.Type]uint32
}

func newFootprints() *footprints {
	return &footprints{bits: make(map[reflect.Type]uint32)}
}

// of returns the footprint mask of sys and whether it has one. An empty
// footprint counts as none.
func (f *footprints) of(sys System) (mask.Mask, bool) {
	var m mask.Mask

	fp, ok := sys.(Footprinter)
	if !ok {
		return m, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range fp.Footprint() {
		bit, ok := f.bits[t]
		if !ok {
			bit = uint32(len(f.bits))
			f.bits[t] = bit
		}
		if bit >= maxFootprintBits {
			return m, false
		}
		m.Mark(bit)
	}
	return m, !m.IsEmpty()
}

// scheduled is a system resolved for one stage of one tick.
type scheduled struct {
	id     SystemID
	system System
}

// wave is a set of systems with pairwise disjoint footprints.
type wave struct {
	mask    mask.Mask
	members []scheduled
}

// stageExecutor runs the systems of one stage. Implementations must not
// return before every system of the stage has finished.
type stageExecutor interface {
	runStage(systems []scheduled, run func(scheduled))
}

type sequentialExecutor struct{}

func (sequentialExecutor) runStage(systems []scheduled, run func(scheduled)) {
	for _, sys := range systems {
		run(sys)
	}
}

// concurrentExecutor runs systems of a stage in waves. Systems in a wave
// touch disjoint component types, so no (type, entity) slot is written by two
// of them at once. Waves run one after another.
type concurrentExecutor struct {
	footprints *footprints
}

func (e *concurrentExecutor) runStage(systems []scheduled, run func(scheduled)) {
	waves, exclusive := e.partition(systems)

	for _, w := range waves {
		if len(w.members) == 1 {
			run(w.members[0])
			continue
		}

		var g errgroup.Group
		for _, sys := range w.members {
			g.Go(func() error {
				run(sys)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, sys := range exclusive {
		run(sys)
	}
}

// partition greedily packs systems into waves of disjoint footprints.
// Systems without a footprint are returned separately and run alone.
func (e *concurrentExecutor) partition(systems []scheduled) ([]*wave, []scheduled) {
	var waves []*wave
	var exclusive []scheduled

	for _, sys := range systems {
		m, ok := e.footprints.of(sys.system)
		if !ok {
			exclusive = append(exclusive, sys)
			continue
		}

		var target *wave
		for _, w := range waves {
			if w.mask.ContainsNone(m) {
				target = w
				break
			}
		}
		if target == nil {
			target = &wave{}
			waves = append(waves, target)
		}
		e.footprints.merge(&target.mask, sys.system)
		target.members = append(target.members, sys)
	}

	return waves, exclusive
}

// merge marks the footprint bits of sys in m.
func (f *footprints) merge(m *mask.Mask, sys System) {
	fp := sys.(Footprinter)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range fp.Footprint() {
		m.Mark(f.bits[t])
	}
}
