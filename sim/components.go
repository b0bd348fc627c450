// Package sim provides a small bounded 2D world built on the ecs package: a
// world clock, the world bounds, and entities that wander through it.
package sim

import (
	"fmt"

	"github.com/plus3/simecs/ecs"
)

// WorldTime is the clock of a world entity.
type WorldTime struct {
	ecs.Record

	Running   bool
	TotalTime float64
	DeltaTime float64
	Step      float64
	TimeScale float64
}

// NewWorldTime creates a running clock advancing step*scale per tick.
func NewWorldTime(step, scale float64) *WorldTime {
	return &WorldTime{
		Record:    ecs.NewRecord(),
		Running:   true,
		Step:      step,
		TimeScale: scale,
	}
}

func (w *WorldTime) Describe() string {
	return fmt.Sprintf("WorldTime(base=%s, running=%t, total_time=%g, delta_time=%g, step=%g, time_scale=%g)",
		w.Record.Describe(), w.Running, w.TotalTime, w.DeltaTime, w.Step, w.TimeScale)
}

// WorldSpace2D is the rectangular extent of a world entity.
type WorldSpace2D struct {
	ecs.Record

	MinX, MaxX float64
	MinY, MaxY float64
}

// NewWorldSpace2D creates bounds spanning [minX, maxX] x [minY, maxY].
func NewWorldSpace2D(minX, maxX, minY, maxY float64) *WorldSpace2D {
	return &WorldSpace2D{
		Record: ecs.NewRecord(),
		MinX:   minX,
		MaxX:   maxX,
		MinY:   minY,
		MaxY:   maxY,
	}
}

// Contains reports whether (x, y) lies within the bounds, edges included.
func (s *WorldSpace2D) Contains(x, y float64) bool {
	return x >= s.MinX && x <= s.MaxX && y >= s.MinY && y <= s.MaxY
}

// Wrap moves a coordinate that left the bounds to the opposite edge. Each
// axis wraps independently; coordinates inside the bounds are unchanged.
func (s *WorldSpace2D) Wrap(x, y float64) (float64, float64) {
	switch {
	case x < s.MinX:
		x = s.MaxX
	case x > s.MaxX:
		x = s.MinX
	}
	switch {
	case y < s.MinY:
		y = s.MaxY
	case y > s.MaxY:
		y = s.MinY
	}
	return x, y
}

// Normalize maps (x, y) to fractions of the bounds, 0 at the minimum and 1
// at the maximum. An axis without extent maps to 0.5.
func (s *WorldSpace2D) Normalize(x, y float64) (float64, float64) {
	return fraction(x, s.MinX, s.MaxX), fraction(y, s.MinY, s.MaxY)
}

// Denormalize is the inverse of Normalize.
func (s *WorldSpace2D) Denormalize(u, v float64) (float64, float64) {
	return s.MinX + u*(s.MaxX-s.MinX), s.MinY + v*(s.MaxY-s.MinY)
}

func fraction(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}

func (s *WorldSpace2D) Describe() string {
	return fmt.Sprintf("WorldSpace2D(base=%s, min_x=%g, max_x=%g, min_y=%g, max_y=%g)",
		s.Record.Describe(), s.MinX, s.MaxX, s.MinY, s.MaxY)
}

// TimedEntity lets an entity follow the clock of its world at its own scale.
// Owner is the world entity.
type TimedEntity struct {
	ecs.Record

	Running   bool
	TimeScale float64
}

// NewTimedEntity creates a running TimedEntity owned by world.
func NewTimedEntity(world ecs.Entity, scale float64) *TimedEntity {
	return &TimedEntity{
		Record:    ecs.NewOwnedRecord(world),
		Running:   true,
		TimeScale: scale,
	}
}

func (t *TimedEntity) Describe() string {
	return fmt.Sprintf("TimedEntity(base=%s, running=%t, time_scale=%g)",
		t.Record.Describe(), t.Running, t.TimeScale)
}

// Wanderer moves in a straight line through its world, wrapping at the edges.
// Direction is in radians; Owner is the world entity.
type Wanderer struct {
	ecs.Record

	X, Y      float64
	Speed     float64
	Direction float64
}

// NewWanderer creates a Wanderer owned by world.
func NewWanderer(world ecs.Entity, x, y, speed, direction float64) *Wanderer {
	return &Wanderer{
		Record:    ecs.NewOwnedRecord(world),
		X:         x,
		Y:         y,
		Speed:     speed,
		Direction: direction,
	}
}

func (w *Wanderer) Describe() string {
	return fmt.Sprintf("Wanderer(base=%s, x=%g, y=%g, speed=%g, direction=%g)",
		w.Record.Describe(), w.X, w.Y, w.Speed, w.Direction)
}
