package main

import (
	"fmt"
	"math/rand/v2"
	"reflect"

	"github.com/plus3/simecs/ecs"
)

// Field is a stress component. Each marker type K yields a distinct
// component type with the same layout.
type Field[K any] struct {
	ecs.Record
	Value float64
}

func (f *Field[K]) value() *float64 {
	return &f.Value
}

func (f *Field[K]) Describe() string {
	return fmt.Sprintf("%s(base=%s, value=%g)", reflect.TypeFor[K]().Name(), f.Record.Describe(), f.Value)
}

type valuer interface {
	ecs.Component
	value() *float64
}

type (
	f00 struct{}
	f01 struct{}
	f02 struct{}
	f03 struct{}
	f04 struct{}
	f05 struct{}
	f06 struct{}
	f07 struct{}
	f08 struct{}
	f09 struct{}
	f10 struct{}
	f11 struct{}
	f12 struct{}
	f13 struct{}
	f14 struct{}
	f15 struct{}
)

// kind is a stress component type and a constructor for it.
type kind struct {
	typ   reflect.Type
	spawn func(v float64) valuer
}

func kindOf[K any]() kind {
	return kind{
		typ: reflect.TypeFor[Field[K]](),
		spawn: func(v float64) valuer {
			return &Field[K]{Record: ecs.NewRecord(), Value: v}
		},
	}
}

var kinds = []kind{
	kindOf[f00](), kindOf[f01](), kindOf[f02](), kindOf[f03](),
	kindOf[f04](), kindOf[f05](), kindOf[f06](), kindOf[f07](),
	kindOf[f08](), kindOf[f09](), kindOf[f10](), kindOf[f11](),
	kindOf[f12](), kindOf[f13](), kindOf[f14](), kindOf[f15](),
}

// spawnEntity adds between 1 and maxComponents distinct random kinds to e.
func spawnEntity(store *ecs.Store, rng *rand.Rand, e ecs.Entity, maxComponents int) {
	n := rng.IntN(min(maxComponents, len(kinds))) + 1
	for _, i := range rng.Perm(len(kinds))[:n] {
		store.AddAny(e, kinds[i].spawn(rng.Float64()))
	}
}
