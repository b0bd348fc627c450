// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// Render functions live in ImguiItem components and are run by a system after each tick.
package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/simecs/ecs"
)

// Names of the systems this package provides.
const (
	ImguiSystemName      = "imgui"
	ImguiInputSystemName = "imgui_input"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	ecs.Record
	Render func()
}

// NewImguiItem creates an ImguiItem calling render.
func NewImguiItem(render func()) *ImguiItem {
	return &ImguiItem{Record: ecs.NewRecord(), Render: render}
}

func (i *ImguiItem) Describe() string {
	return "ImguiItem(base=" + i.Record.Describe() + ")"
}

// ImguiInputState tracks Dear ImGui's input capture state.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	ecs.Record
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

func NewImguiInputState() *ImguiInputState {
	return &ImguiInputState{Record: ecs.NewRecord()}
}

func (s *ImguiInputState) Describe() string {
	return fmt.Sprintf("ImguiInputState(base=%s, want_capture_mouse=%t, want_capture_keyboard=%t)",
		s.Record.Describe(), s.WantCaptureMouse, s.WantCaptureKeyboard)
}

// MouseFree reports whether the world may handle mouse input. A nil state
// never blocks input.
func (s *ImguiInputState) MouseFree() bool {
	return s == nil || !s.WantCaptureMouse
}

// KeyboardFree reports whether the world may handle keyboard input.
func (s *ImguiInputState) KeyboardFree() bool {
	return s == nil || !s.WantCaptureKeyboard
}

// ImguiView is the tuple the imgui system reads.
type ImguiView struct {
	*ImguiItem
}

// NewImguiSystem defers the render function of every ImguiItem to cmds, so
// widgets are drawn after all stages of the tick have run.
func NewImguiSystem(store *ecs.Store, cmds *ecs.Commands, opts ...ecs.GenericOption) *ecs.GenericSystem[ImguiView] {
	return ecs.NewGenericSystem[ImguiView](ImguiSystemName, store, ecs.BehaviorFuncs[ImguiView]{
		ApplyFunc: func(_ ecs.Entity, c ImguiView) ecs.ChangeSet {
			if c.Render != nil {
				cmds.Defer(c.Render)
			}
			return nil
		},
	}, opts...)
}

// InputView is the tuple the input state system updates.
type InputView struct {
	*ImguiInputState
}

// InputSource reports whether ImGui wants the mouse and the keyboard.
type InputSource func() (mouse, keyboard bool)

// ImguiInput reads the capture flags of the current ImGui context.
func ImguiInput() (mouse, keyboard bool) {
	io := imgui.CurrentIO()
	return io.WantCaptureMouse(), io.WantCaptureKeyboard()
}

// NewInputStateSystem copies the capture flags reported by source into every
// ImguiInputState. A nil source reads ImguiInput, which requires a current
// ImGui context.
func NewInputStateSystem(store *ecs.Store, source InputSource, opts ...ecs.GenericOption) *ecs.GenericSystem[InputView] {
	if source == nil {
		source = ImguiInput
	}
	return ecs.NewGenericSystem[InputView](ImguiInputSystemName, store, ecs.BehaviorFuncs[InputView]{
		ApplyFunc: func(_ ecs.Entity, c InputView) ecs.ChangeSet {
			mouse, keyboard := source()
			if mouse == c.WantCaptureMouse && keyboard == c.WantCaptureKeyboard {
				return nil
			}
			c.WantCaptureMouse = mouse
			c.WantCaptureKeyboard = keyboard
			return ecs.NewChangeSet(c.ImguiInputState)
		},
	}, opts...)
}
