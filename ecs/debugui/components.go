package debugui

import (
	"reflect"

	"github.com/plus3/simecs/ecs"
)

type EntityBrowser struct {
	rows               []EntityRow
	selected           ecs.Entity
	filterText         string
	filterType         string
	sortColumn         int
	sortAscending      bool
	maxEntitiesPerPage int
	currentPage        int
}

type ComponentInspector struct {
	selected ecs.Entity
}

type ComponentTypeViewer struct {
	rows          []ecs.ComponentTypeStats
	selected      string
	sortColumn    int
	sortAscending bool
}

type PerformanceStats struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

type QueryDebugger struct {
	selected map[string]bool
	types    map[string]reflect.Type
}

type SchedulerWindow struct {
	showStarvedOnly bool
}
