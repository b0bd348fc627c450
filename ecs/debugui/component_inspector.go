package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/simecs/ecs"
)

func NewComponentInspector() *ComponentInspector {
	return &ComponentInspector{}
}

func (ci *ComponentInspector) Render(store *ecs.Store, selected ecs.Entity) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ci.selected = selected

	if ci.selected == ecs.NoEntity {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	if !store.Known(ci.selected) {
		imgui.Text(fmt.Sprintf("Entity %d not found", ci.selected))
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Entity ID: %d", ci.selected))
	imgui.Separator()

	for _, compType := range store.ComponentTypes() {
		component := store.GetType(ci.selected, compType)
		if component == nil {
			continue
		}

		if imgui.TreeNodeStr(compType.String()) {
			if c, ok := component.(ecs.Component); ok {
				imgui.Text(c.Describe())
				imgui.Separator()
			}
			ci.renderComponent(component, compType)
			imgui.TreePop()
		}
	}

	imgui.End()
}

func (ci *ComponentInspector) renderComponent(component any, compType reflect.Type) {
	val := reflect.ValueOf(component).Elem()

	for _, field := range ComponentFields(compType) {
		if field.Record {
			continue
		}
		fieldVal := val.Field(field.Index)
		if field.Pointer && !fieldVal.IsNil() {
			fieldVal = fieldVal.Elem()
		}

		ci.renderField(component, field.Name, fieldVal, field)
	}
}

// renderField draws one field. Top-level scalar fields are editable; values
// are written back through SetField on component.
func (ci *ComponentInspector) renderField(component any, name string, val reflect.Value, field FieldRow) {
	if !val.IsValid() {
		imgui.Text(fmt.Sprintf("%s: <invalid>", name))
		return
	}

	if field.Pointer && val.IsNil() {
		imgui.Text(fmt.Sprintf("%s: nil", name))
		return
	}

	editable := component != nil && field.Editable

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) && editable {
			SetField(component, field.Index, int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) && editable && v >= 0 {
			SetField(component, field.Index, uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(fmt.Sprintf("##%s", name), &v) && editable {
			SetField(component, field.Index, float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) && editable {
			SetField(component, field.Index, v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(fmt.Sprintf("##%s", name), "", &v, imgui.InputTextFlagsNone, nil) && editable {
			SetField(component, field.Index, v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			for _, nf := range ComponentFields(val.Type()) {
				nestedVal := val.Field(nf.Index)
				if nf.Pointer && !nestedVal.IsNil() {
					nestedVal = nestedVal.Elem()
				}
				ci.renderField(nil, nf.Name, nestedVal, nf)
			}
			imgui.TreePop()
		}

	case reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	case reflect.Func:
		imgui.Text(fmt.Sprintf("%s: func", name))

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}
