package ecs

import (
	"reflect"
	"unsafe"
)

// iface represents the internal memory layout of an interface{}.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// tupleLayout describes a component tuple type: a struct whose fields are
// pointers to component types. Embedded fields are always required; named
// fields can be marked with the `ecs:"optional"` struct tag.
type tupleLayout struct {
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr
}

func newTupleLayout[T any]() *tupleLayout {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("component tuple type must be a struct")
	}

	layout := &tupleLayout{
		types:       make([]reflect.Type, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldOffset: make([]uintptr, 0, structType.NumField()),
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			panic("component tuple fields must be pointer types")
		}

		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
		}

		layout.types = append(layout.types, field.Type.Elem())
		layout.optional = append(layout.optional, isOptional)
		layout.fieldOffset = append(layout.fieldOffset, field.Offset)
	}

	return layout
}

// hasRequired reports whether entity has every required component in store.
func (l *tupleLayout) hasRequired(store *Store, entity Entity) bool {
	for i, t := range l.types {
		if !l.optional[i] && !store.HasType(entity, t) {
			return false
		}
	}
	return true
}

// fill populates ptr with the components of entity. Missing components leave
// their field nil.
func (l *tupleLayout) fill(store *Store, entity Entity, ptr unsafe.Pointer) {
	for i, t := range l.types {
		fieldPtr := unsafe.Add(ptr, l.fieldOffset[i])

		component := store.GetType(entity, t)
		if component == nil {
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}
		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
	}
}

// complete reports whether every required field of the tuple at ptr is set.
func (l *tupleLayout) complete(ptr unsafe.Pointer) bool {
	for i := range l.types {
		if l.optional[i] {
			continue
		}
		if *(*unsafe.Pointer)(unsafe.Add(ptr, l.fieldOffset[i])) == nil {
			return false
		}
	}
	return true
}

// components returns the non-nil fields of the tuple at ptr that implement
// Component.
func (l *tupleLayout) components(ptr unsafe.Pointer) []Component {
	components := make([]Component, 0, len(l.types))
	for i, t := range l.types {
		fieldPtr := *(*unsafe.Pointer)(unsafe.Add(ptr, l.fieldOffset[i]))
		if fieldPtr == nil {
			continue
		}
		if c, ok := reflect.NewAt(t, fieldPtr).Interface().(Component); ok {
			components = append(components, c)
		}
	}
	return components
}
