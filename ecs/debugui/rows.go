package debugui

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/plus3/simecs/ecs"
)

// EntityRow is one line of the entity browser.
type EntityRow struct {
	ID             ecs.Entity
	ComponentTypes []string
	ComponentCount int
}

// BuildEntityRows lists every entity known to store with the names of its
// component types, in ascending entity order.
func BuildEntityRows(store *ecs.Store) []EntityRow {
	types := store.ComponentTypes()
	entities := store.Entities()

	rows := make([]EntityRow, 0, len(entities))
	for _, e := range entities {
		names := make([]string, 0, len(types))
		for _, t := range types {
			if store.HasType(e, t) {
				names = append(names, t.String())
			}
		}
		rows = append(rows, EntityRow{
			ID:             e,
			ComponentTypes: names,
			ComponentCount: len(names),
		})
	}
	return rows
}

// SortEntityRows orders rows by column: 0 id, 1 component names, 2 count.
func SortEntityRows(rows []EntityRow, column int, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var less bool

		switch column {
		case 1:
			less = strings.Join(a.ComponentTypes, ",") < strings.Join(b.ComponentTypes, ",")
		case 2:
			less = a.ComponentCount < b.ComponentCount
		default:
			less = a.ID < b.ID
		}

		if !ascending {
			return !less
		}
		return less
	})
}

// FilterEntityRows keeps rows whose id or component names contain text
// (case-insensitive) and, when typeName is set, that have that component type.
func FilterEntityRows(rows []EntityRow, text, typeName string) []EntityRow {
	if text == "" && typeName == "" {
		return rows
	}

	filtered := make([]EntityRow, 0, len(rows))
	filterLower := strings.ToLower(text)

	for _, row := range rows {
		if typeName != "" && !containsString(row.ComponentTypes, typeName) {
			continue
		}

		if text != "" {
			idStr := fmt.Sprintf("%d", row.ID)
			componentsStr := strings.ToLower(strings.Join(row.ComponentTypes, " "))
			if !strings.Contains(idStr, filterLower) && !strings.Contains(componentsStr, filterLower) {
				continue
			}
		}

		filtered = append(filtered, row)
	}
	return filtered
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// SortTypeRows orders component type statistics by column: 0 name, 1 count.
func SortTypeRows(rows []ecs.ComponentTypeStats, column int, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var less bool
		if column == 0 {
			less = a.Name < b.Name
		} else {
			less = a.Count < b.Count
		}
		if !ascending {
			return !less
		}
		return less
	})
}

// SystemRow is one line of the scheduler window.
type SystemRow struct {
	ID           ecs.SystemID
	Name         string
	Enabled      bool
	Stage        int
	Dependencies []ecs.SystemID
	Executions   int64
	Avg          time.Duration
	Min          time.Duration
	Max          time.Duration
	Last         time.Duration
}

// Starved reports whether the system was left out of the last plan.
func (r SystemRow) Starved() bool {
	return r.Stage < 0
}

// BuildSystemRows lists registered systems ordered by stage, then id. Systems
// missing from the last executed plan come last.
func BuildSystemRows(scheduler *ecs.Scheduler) []SystemRow {
	stats := scheduler.GetStats()

	rows := make([]SystemRow, 0, len(stats.Systems))
	for _, s := range stats.Systems {
		rows = append(rows, SystemRow{
			ID:           s.ID,
			Name:         s.Name,
			Enabled:      s.Enabled,
			Stage:        s.Stage,
			Dependencies: scheduler.Dependencies(s.ID),
			Executions:   s.ExecutionCount,
			Avg:          s.AvgDuration,
			Min:          s.MinDuration,
			Max:          s.MaxDuration,
			Last:         s.LastDuration,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Starved() != b.Starved() {
			return b.Starved()
		}
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		return a.ID < b.ID
	})
	return rows
}

// MatchEntities returns the entities of store that have every type in types.
func MatchEntities(store *ecs.Store, types []reflect.Type) []ecs.Entity {
	if len(types) == 0 {
		return nil
	}

	var matched []ecs.Entity
	for _, e := range store.Entities() {
		all := true
		for _, t := range types {
			if !store.HasType(e, t) {
				all = false
				break
			}
		}
		if all {
			matched = append(matched, e)
		}
	}
	return matched
}

// SetField assigns value to the field at index of the struct component points
// to. Numeric values are converted to the field's kind. It reports whether the
// field was set.
func SetField(component any, index int, value any) bool {
	val := reflect.ValueOf(component)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return false
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct || index < 0 || index >= val.NumField() {
		return false
	}

	field := val.Field(index)
	if !field.CanSet() {
		return false
	}

	v := reflect.ValueOf(value)
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !v.CanInt() {
			return false
		}
		field.SetInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch {
		case v.CanUint():
			field.SetUint(v.Uint())
		case v.CanInt() && v.Int() >= 0:
			field.SetUint(uint64(v.Int()))
		default:
			return false
		}
	case reflect.Float32, reflect.Float64:
		if !v.CanFloat() {
			return false
		}
		field.SetFloat(v.Float())
	case reflect.Bool:
		if v.Kind() != reflect.Bool {
			return false
		}
		field.SetBool(v.Bool())
	case reflect.String:
		if v.Kind() != reflect.String {
			return false
		}
		field.SetString(v.String())
	default:
		return false
	}
	return true
}

var recordType = reflect.TypeFor[ecs.Record]()

// FieldRow describes one exported field of a component struct.
type FieldRow struct {
	Name  string
	Index int
	// Type is the field type with one level of pointer removed.
	Type    reflect.Type
	Pointer bool
	// Record marks the embedded ecs.Record, shown through Describe.
	Record bool
	// Editable fields are scalars SetField can assign.
	Editable bool
}

var fieldRows sync.Map // reflect.Type -> []FieldRow

// ComponentFields lists the exported fields of struct type t, or a pointer to
// one, in declaration order. Results are cached per type.
func ComponentFields(t reflect.Type) []FieldRow {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if rows, ok := fieldRows.Load(t); ok {
		return rows.([]FieldRow)
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var rows []FieldRow
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		ft := f.Type
		pointer := ft.Kind() == reflect.Ptr
		if pointer {
			ft = ft.Elem()
		}
		rows = append(rows, FieldRow{
			Name:     f.Name,
			Index:    i,
			Type:     ft,
			Pointer:  pointer,
			Record:   f.Anonymous && ft == recordType,
			Editable: !pointer && scalarKind(ft.Kind()),
		})
	}

	actual, _ := fieldRows.LoadOrStore(t, rows)
	return actual.([]FieldRow)
}

func scalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool, reflect.String:
		return true
	}
	return false
}
