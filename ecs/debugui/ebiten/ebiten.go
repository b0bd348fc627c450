// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/simecs/ecs"
	"github.com/plus3/simecs/ecs/debugui"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// Use this to integrate Dear ImGui rendering into Ebiten game loops.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window. The ImGui ini file is
// disabled.
func NewImguiBackend(title string, width, height int) *ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &ImguiBackend{EbitenBackend: backend}
}

// Game implements ebiten.Game. Each Update runs one scheduler tick inside an
// ImGui frame, so render functions deferred by the ImGui system draw in it.
type Game struct {
	Backend   *ImguiBackend
	Store     *ecs.Store
	Scheduler *ecs.Scheduler

	// DrawWorld, when set, draws below the ImGui overlay.
	DrawWorld func(screen *ebiten.Image)

	// Input is refreshed by the ImGui input system. HandleInput, when set,
	// runs after each tick with it so the world can skip input ImGui wants.
	Input       *debugui.ImguiInputState
	HandleInput func(input *debugui.ImguiInputState)
}

func (g *Game) Update() error {
	g.Backend.BeginFrame()
	g.Scheduler.Once(g.Store)
	g.Backend.EndFrame()

	if g.HandleInput != nil {
		g.HandleInput(g.Input)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawWorld != nil {
		g.DrawWorld(screen)
	}
	g.Backend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.Backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

var _ ebiten.Game = (*Game)(nil)
