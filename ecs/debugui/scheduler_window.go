package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/simecs/ecs"
)

func NewSchedulerWindow() *SchedulerWindow {
	return &SchedulerWindow{}
}

func (sw *SchedulerWindow) Render(scheduler *ecs.Scheduler) {
	if !imgui.BeginV("Scheduler", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	stats := scheduler.GetStats()
	imgui.Text(fmt.Sprintf("Systems: %d  Stages: %d  Ticks: %d", stats.SystemCount, stats.Stages, stats.Ticks))
	imgui.Text(fmt.Sprintf("Plan: %016x", stats.Fingerprint))

	if len(stats.Starved) > 0 {
		imgui.TextColored(imgui.NewVec4(1, 0.3, 0.3, 1), fmt.Sprintf("Starved by cycle: %v", stats.Starved))
	}
	imgui.Checkbox("Starved only", &sw.showStarvedOnly)
	imgui.Separator()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSizingFixedFit
	if imgui.BeginTableV("Systems", 7, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("On")
		imgui.TableSetupColumn("ID")
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("Stage")
		imgui.TableSetupColumn("Depends On")
		imgui.TableSetupColumn("Avg (ms)")
		imgui.TableSetupColumn("Max (ms)")
		imgui.TableHeadersRow()

		for _, row := range BuildSystemRows(scheduler) {
			if sw.showStarvedOnly && !row.Starved() {
				continue
			}

			imgui.TableNextRow()

			imgui.TableNextColumn()
			enabled := row.Enabled
			if imgui.Checkbox(fmt.Sprintf("##enabled%d", row.ID), &enabled) {
				if sys, ok := scheduler.System(row.ID); ok {
					if enabled {
						sys.Enable()
					} else {
						sys.Disable()
					}
				}
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.ID))

			imgui.TableNextColumn()
			imgui.Text(row.Name)

			imgui.TableNextColumn()
			if row.Starved() {
				imgui.TextColored(imgui.NewVec4(1, 0.3, 0.3, 1), "starved")
			} else {
				imgui.Text(fmt.Sprintf("%d", row.Stage))
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%v", row.Dependencies))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.3f", float64(row.Avg.Microseconds())/1000.0))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.3f", float64(row.Max.Microseconds())/1000.0))
		}
		imgui.EndTable()
	}

	imgui.End()
}
