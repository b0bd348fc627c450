package ecs_test

import (
	"fmt"

	"github.com/plus3/simecs/ecs"
)

// Common test component types
type Position struct {
	ecs.Record
	X, Y float32
}

func (p *Position) Describe() string {
	return fmt.Sprintf("Position(base=%s, x=%g, y=%g)", p.Record.Describe(), p.X, p.Y)
}

type Velocity struct {
	ecs.Record
	DX, DY float32
}

type Health struct {
	ecs.Record
	Current int
	Max     int
}

type Name struct {
	ecs.Record
	Value string
}

// Parent is owned by another entity, resolved through the store.
type Parent struct {
	ecs.Record
	Offset float32
}

func newPosition(x, y float32) *Position {
	return &Position{Record: ecs.NewRecord(), X: x, Y: y}
}

func newVelocity(dx, dy float32) *Velocity {
	return &Velocity{Record: ecs.NewRecord(), DX: dx, DY: dy}
}

func newHealth(current, max int) *Health {
	return &Health{Record: ecs.NewRecord(), Current: current, Max: max}
}
