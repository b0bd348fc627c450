package debugui

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/simecs/ecs"
)

func NewQueryDebugger() *QueryDebugger {
	return &QueryDebugger{
		selected: make(map[string]bool),
		types:    make(map[string]reflect.Type),
	}
}

// Select toggles typeName in the query.
func (qd *QueryDebugger) Select(typeName string, on bool) {
	if on {
		qd.selected[typeName] = true
	} else {
		delete(qd.selected, typeName)
	}
}

// Query returns the entities of store that have every selected type. Selected
// names the store does not know match nothing.
func (qd *QueryDebugger) Query(store *ecs.Store) []ecs.Entity {
	qd.refreshTypes(store)

	required := make([]reflect.Type, 0, len(qd.selected))
	for name := range qd.selected {
		t, ok := qd.types[name]
		if !ok {
			return nil
		}
		required = append(required, t)
	}
	return MatchEntities(store, required)
}

func (qd *QueryDebugger) refreshTypes(store *ecs.Store) {
	clear(qd.types)
	for _, t := range store.ComponentTypes() {
		qd.types[t.String()] = t
	}
}

func (qd *QueryDebugger) Render(store *ecs.Store) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	qd.refreshTypes(store)

	imgui.Text("Select Component Types:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		clear(qd.selected)
	}

	names := make([]string, 0, len(qd.types))
	for name := range qd.types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		selected := qd.selected[name]
		if imgui.Checkbox(name, &selected) {
			qd.Select(name, selected)
		}
	}

	imgui.Separator()

	if len(qd.selected) == 0 {
		imgui.Text("No component types selected")
		imgui.End()
		return
	}

	matched := qd.Query(store)
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(matched)))

	if imgui.TreeNodeStr("Entities") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryEntityTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity ID")
			imgui.TableSetupColumn("Components")
			imgui.TableHeadersRow()

			for _, e := range matched {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				imgui.Text(fmt.Sprintf("%d", e))

				imgui.TableSetColumnIndex(1)
				components := store.Components(e)
				described := make([]string, len(components))
				for i, c := range components {
					described[i] = ecs.Describe(c)
				}
				imgui.Text(strings.Join(described, "\n"))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}
