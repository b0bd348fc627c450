package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"time"
)

// Component is implemented by every type stored in a Store that takes part
// in change tracking. Embedding Record satisfies it; types with their own
// fields override Describe and render Record.Describe first.
type Component interface {
	Base() *Record
	Describe() string
}

// Record holds the metadata shared by all components.
//
// Owner is a plain entity reference resolved through a Store, never an
// ownership link. LastUpdatedAt and LastUpdatedBy are only written by a
// system after a successful update.
type Record struct {
	Owner         Entity
	CreatedAt     time.Time
	LastUpdatedAt time.Time
	LastUpdatedBy SystemID
}

// NewRecord returns a record without an owner, created now.
func NewRecord() Record {
	now := time.Now()
	return Record{
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// NewOwnedRecord returns a record owned by the given entity.
// Owned components must name their owner up front.
func NewOwnedRecord(owner Entity) Record {
	if owner == NoEntity {
		panic("owned record requires an owner entity")
	}
	r := NewRecord()
	r.Owner = owner
	return r
}

// Base returns the record itself so that embedding types satisfy Component.
func (r *Record) Base() *Record {
	return r
}

// OwnerEntity returns the owner and whether one is set.
func (r *Record) OwnerEntity() (Entity, bool) {
	return r.Owner, r.Owner != NoEntity
}

// MarkUpdateAt stamps the record as updated by the given system.
func (r *Record) MarkUpdateAt(at time.Time, by SystemID) {
	r.LastUpdatedAt = at
	r.LastUpdatedBy = by
}

// Describe renders the base fields.
func (r *Record) Describe() string {
	return fmt.Sprintf("Record(owner=%d, created_at=%d, last_updated_at=%d, last_updated_by=%d)",
		r.Owner, r.CreatedAt.UnixNano(), r.LastUpdatedAt.UnixNano(), r.LastUpdatedBy)
}

// Describe renders c, or "nil" when c is absent.
func Describe(c Component) string {
	if isNilComponent(c) {
		return "nil"
	}
	return c.Describe()
}

// ChangeSet is the set of components an update actually changed.
type ChangeSet map[Component]struct{}

// NewChangeSet creates a set holding the given components. Nil components
// are dropped.
func NewChangeSet(components ...Component) ChangeSet {
	cs := make(ChangeSet, len(components))
	for _, c := range components {
		cs.Add(c)
	}
	return cs
}

// Add inserts c. Nil components are ignored.
func (cs ChangeSet) Add(c Component) {
	if isNilComponent(c) {
		return
	}
	cs[c] = struct{}{}
}

// Merge adds every component of other.
func (cs ChangeSet) Merge(other ChangeSet) {
	for c := range other {
		cs[c] = struct{}{}
	}
}

// Contains reports whether c is in the set.
func (cs ChangeSet) Contains(c Component) bool {
	_, ok := cs[c]
	return ok
}

// Len returns the number of components in the set.
func (cs ChangeSet) Len() int {
	return len(cs)
}

// All iterates the set in no particular order.
func (cs ChangeSet) All() iter.Seq[Component] {
	return func(yield func(Component) bool) {
		for c := range cs {
			if !yield(c) {
				return
			}
		}
	}
}

// isNilComponent also catches typed nil pointers stored in the interface.
func isNilComponent(c Component) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
