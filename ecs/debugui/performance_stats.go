package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/simecs/ecs"
)

func NewPerformanceStats(historyFrames int) *PerformanceStats {
	return &PerformanceStats{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
	}
}

// Record stores the duration of one frame, in seconds.
func (ps *PerformanceStats) Record(deltaTime float32) {
	ps.frameHistory[ps.frameIndex] = deltaTime * 1000.0
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

// AverageFrameTime returns the mean recorded frame time in milliseconds.
func (ps *PerformanceStats) AverageFrameTime() float32 {
	var total float32
	for _, ft := range ps.frameHistory {
		total += ft
	}
	return total / float32(ps.historyFrames)
}

func (ps *PerformanceStats) Render(store *ecs.Store, scheduler *ecs.Scheduler, deltaTime float32) {
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.Record(deltaTime)

	storeStats := store.Stats()
	imgui.Text(fmt.Sprintf("Total Entities: %d", storeStats.EntityCount))
	imgui.Text(fmt.Sprintf("Component Types: %d", len(storeStats.Types)))
	imgui.Text(fmt.Sprintf("Components: %d", storeStats.ComponentCount))

	if scheduler != nil {
		schedStats := scheduler.GetStats()
		imgui.Text(fmt.Sprintf("Ticks: %d", schedStats.Ticks))
		imgui.Text(fmt.Sprintf("System Executions: %d", schedStats.TotalExecutions))
	}

	avgFrameTime := ps.AverageFrameTime()
	if avgFrameTime > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avgFrameTime, 1000.0/avgFrameTime))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	imgui.End()
}

type FrameTimer struct {
	lastFrameTime time.Time
	now           func() time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
		now:           time.Now,
	}
}

// GetDeltaTime returns the seconds elapsed since the previous call.
func (ft *FrameTimer) GetDeltaTime() float32 {
	now := ft.now()
	delta := float32(now.Sub(ft.lastFrameTime).Seconds())
	ft.lastFrameTime = now
	return delta
}
