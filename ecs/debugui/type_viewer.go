package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/simecs/ecs"
)

func NewComponentTypeViewer() *ComponentTypeViewer {
	return &ComponentTypeViewer{
		sortColumn:    1,
		sortAscending: false,
	}
}

// Render draws the per-type population table. It returns the name of the
// type clicked this frame, or "".
func (tv *ComponentTypeViewer) Render(store *ecs.Store) string {
	if !imgui.BeginV("Component Types", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return ""
	}

	stats := store.Stats()
	tv.rows = stats.Types
	SortTypeRows(tv.rows, tv.sortColumn, tv.sortAscending)

	imgui.Text(fmt.Sprintf("Entities: %d  Components: %d", stats.EntityCount, stats.ComponentCount))
	imgui.Separator()

	maxCount := 0
	for _, row := range tv.rows {
		maxCount = max(maxCount, row.Count)
	}

	var clicked string

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("TypeTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Component Type")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			tv.sortColumn = int(spec.ColumnIndex())
			tv.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			SortTypeRows(tv.rows, tv.sortColumn, tv.sortAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, row := range tv.rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(row.Name, tv.selected == row.Name, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				tv.selected = row.Name
				clicked = row.Name
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Count))

			if maxCount > 0 {
				barWidth := float32(row.Count) / float32(maxCount) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}
		}

		imgui.EndTable()
	}

	imgui.End()
	return clicked
}
