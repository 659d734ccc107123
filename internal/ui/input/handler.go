package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/ui/layout"
)

// Action is a viewer command triggered by a key.
type Action int

const (
	ActionNone Action = iota
	ActionTogglePause
	ActionStep
	ActionToggleThreat
	ActionCopyReport
	ActionCycleViewer
	ActionFaster
	ActionSlower
)

var keyBindings = []struct {
	key    ebiten.Key
	action Action
}{
	{ebiten.KeySpace, ActionTogglePause},
	{ebiten.KeyN, ActionStep},
	{ebiten.KeyArrowRight, ActionStep},
	{ebiten.KeyT, ActionToggleThreat},
	{ebiten.KeyC, ActionCopyReport},
	{ebiten.KeyV, ActionCycleViewer},
	{ebiten.KeyEqual, ActionFaster},
	{ebiten.KeyMinus, ActionSlower},
}

// Handler tracks hover and selection on the board and collects the key
// actions of the current frame.
type Handler struct {
	grid layout.Grid

	// Hover state
	hover    core.Coordinate
	hasHover bool

	// Selection state
	selected     core.Coordinate
	hasSelection bool

	actions []Action
}

func NewHandler(grid layout.Grid) *Handler {
	return &Handler{grid: grid}
}

// Update polls ebiten once per frame.
func (h *Handler) Update() {
	h.hover, h.hasHover = CursorCell(h.grid)

	if IsLeftClickJustPressed() {
		h.handleLeftClick()
	}
	if IsRightClickJustPressed() {
		h.hasSelection = false
	}

	h.actions = h.actions[:0]
	for _, b := range keyBindings {
		if inpututil.IsKeyJustPressed(b.key) {
			h.actions = append(h.actions, b.action)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		h.hasSelection = false
	}
}

func (h *Handler) handleLeftClick() {
	if !h.hasHover {
		return
	}
	// Clicking the selected cell again deselects it
	if h.hasSelection && h.selected == h.hover {
		h.hasSelection = false
		return
	}
	h.selected, h.hasSelection = h.hover, true
}

// Actions returns this frame's key actions in binding order.
func (h *Handler) Actions() []Action {
	return h.actions
}

func (h *Handler) Hovered() (core.Coordinate, bool) {
	return h.hover, h.hasHover
}

func (h *Handler) Selected() (core.Coordinate, bool) {
	return h.selected, h.hasSelection
}

func (h *Handler) ClearSelection() {
	h.hasSelection = false
}
