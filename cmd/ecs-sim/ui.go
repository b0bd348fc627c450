package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/plus3/simecs/ecs"
	"github.com/plus3/simecs/ecs/debugui"
	debugui_ebiten "github.com/plus3/simecs/ecs/debugui/ebiten"
	"github.com/plus3/simecs/sim"
)

const (
	screenWidth  = 1280
	screenHeight = 720
)

var wandererColor = color.RGBA{179, 229, 252, 255}

// runUI opens a window that ticks the simulation once per frame and shows
// the inspector over a plot of the wanderers. Space pauses the world clock
// and a left click spawns a wanderer, unless ImGui holds the input.
func runUI(s *sim.Simulator) error {
	backend := debugui_ebiten.NewImguiBackend("ecs-sim", screenWidth, screenHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	debugui.SpawnDebugUI(s.Entities(), s.Store, s.Scheduler)
	imguiID := s.Scheduler.Register(debugui.NewImguiSystem(s.Store, s.Scheduler.Commands()))
	s.Scheduler.AddDependency(imguiID, s.Systems.Movement)

	input := debugui.NewImguiInputState()
	ecs.Add(s.Store, s.Entities().Allocate(), input)
	s.Scheduler.Register(debugui.NewInputStateSystem(s.Store, nil))

	screen := struct{ w, h int }{screenWidth, screenHeight}
	game := &debugui_ebiten.Game{
		Backend:   backend,
		Store:     s.Store,
		Scheduler: s.Scheduler,
		DrawWorld: func(img *ebiten.Image) {
			screen.w, screen.h = img.Bounds().Dx(), img.Bounds().Dy()
			drawWanderers(img, s)
		},
		Input: input,
		HandleInput: func(input *debugui.ImguiInputState) {
			if input.KeyboardFree() && inpututil.IsKeyJustPressed(ebiten.KeySpace) {
				togglePause(s)
			}
			if input.MouseFree() && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
				cx, cy := ebiten.CursorPosition()
				spawnAt(s, float32(cx), float32(cy), screen.w, screen.h)
			}
		},
	}
	return ebiten.RunGame(game)
}

func drawWanderers(screen *ebiten.Image, s *sim.Simulator) {
	bounds := s.Bounds()
	if bounds == nil {
		return
	}

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	for _, wanderer := range ecs.All[sim.Wanderer](s.Store) {
		sx, sy := toScreen(bounds, wanderer.X, wanderer.Y, w, h)
		vector.DrawFilledCircle(screen, sx, sy, 4, wandererColor, false)
	}
}

// toScreen maps world coordinates to pixels with y growing downwards.
func toScreen(bounds *sim.WorldSpace2D, x, y float64, w, h int) (float32, float32) {
	u, v := bounds.Normalize(x, y)
	return float32(u * float64(w)), float32((1 - v) * float64(h))
}

// toWorld is the inverse of toScreen.
func toWorld(bounds *sim.WorldSpace2D, sx, sy float32, w, h int) (float64, float64) {
	u, v := 0.5, 0.5
	if w > 0 {
		u = float64(sx) / float64(w)
	}
	if h > 0 {
		v = 1 - float64(sy)/float64(h)
	}
	return bounds.Denormalize(u, v)
}

// spawnAt adds a default wanderer under the given pixel.
func spawnAt(s *sim.Simulator, sx, sy float32, w, h int) ecs.Entity {
	bounds := s.Bounds()
	if bounds == nil {
		return ecs.NoEntity
	}
	wc := sim.DefaultWanderer()
	wc.X, wc.Y = toWorld(bounds, sx, sy, w, h)
	return s.SpawnWanderer(wc)
}

func togglePause(s *sim.Simulator) {
	if clock := s.Clock(); clock != nil {
		clock.Running = !clock.Running
	}
}
