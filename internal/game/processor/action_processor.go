package processor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
)

// ActionProcessor validates commands against a snapshot and applies the
// legal ones in place.
type ActionProcessor struct {
	rules  rules.Queries
	logger zerolog.Logger
}

// NewActionProcessor creates a new action processor
func NewActionProcessor(q rules.Queries, logger zerolog.Logger) *ActionProcessor {
	if q == nil {
		q = rules.NewStandard()
	}
	return &ActionProcessor{
		rules:  q,
		logger: logger.With().Str("component", "ActionProcessor").Logger(),
	}
}

// Process applies cmd to state and returns the energy it cost. A refused
// command leaves state untouched; the error is wrapped with the command.
func (ap *ActionProcessor) Process(ctx context.Context, state *core.GameState, cmd core.Command) (int, error) {
	select {
	case <-ctx.Done():
		ap.logger.Warn().Err(ctx.Err()).Msg("Action processing interrupted by context cancellation")
		return 0, ctx.Err()
	default:
	}

	cost, err := ap.Validate(state, cmd)
	if err != nil {
		wrapped := core.WrapActionError(&cmd, err)
		ap.logger.Debug().Err(wrapped).Msg("Action refused")
		return 0, wrapped
	}

	rules.Apply(ap.rules, state, cmd, cost)
	ap.logger.Debug().
		Str("player", cmd.Player.String()).
		Str("action", cmd.String()).
		Int("cost", cost).
		Int("energy_left", state.Players[cmd.Player].Energy).
		Msg("Action applied")
	return cost, nil
}

// Validate reports whether cmd is legal on state and what it would cost.
func (ap *ActionProcessor) Validate(state *core.GameState, cmd core.Command) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}
	switch {
	case state.GameOver:
		return 0, core.ErrGameOver
	case state.Phase != core.PhaseAction:
		return 0, core.ErrWrongPhase
	case state.CurrentPlayer != cmd.Player:
		return 0, core.ErrNotYourTurn
	}

	u := state.Unit(cmd.UnitID)
	switch {
	case u == nil:
		return 0, core.ErrUnitNotFound
	case u.Owner != cmd.Player:
		return 0, core.ErrNotOwned
	case u.IsDead:
		return 0, core.ErrUnitDead
	case u.HasActedThisRound:
		return 0, core.ErrUnitActed
	}
	if cmd.Type == core.ActionEndTurn {
		// Ending a unit's turn is not an action on the board.
		return 0, core.ErrIllegalAction
	}

	if err := ap.checkTarget(state, u, cmd); err != nil {
		return 0, err
	}

	cost := rules.ActionCost(ap.rules, state, u, cmd)
	if state.Players[cmd.Player].Energy < cost {
		return 0, core.ErrInsufficientEnergy
	}
	if !cmd.Type.IsEvolve() && !ap.rules.CheckEnergyCap(u, cost) {
		return 0, core.ErrEnergyCap
	}
	return cost, nil
}

func (ap *ActionProcessor) checkTarget(state *core.GameState, u *core.Unit, cmd core.Command) error {
	side := u.Owner
	evo := func(t core.UnitType) core.EvolutionLevel { return state.Evolution(side, t) }
	cell := cmd.Target.Cell

	switch cmd.Type {
	case core.ActionMove:
		if u.Pos.Manhattan(cell) != 1 {
			return core.ErrNotAdjacent
		}
		if state.Grid.IsObstacle(cell) {
			return core.ErrObstacle
		}
		if state.Occupied(cell) {
			return core.ErrOccupied
		}

	case core.ActionAttack:
		if u.Type != core.General {
			return core.ErrIllegalAction
		}
		if !rules.CanGeneralAttack(ap.rules, state, u, state.Unit(cmd.Target.UnitID)) {
			return core.ErrOutOfRange
		}

	case core.ActionScan:
		if u.Type != core.Sweeper {
			return core.ErrIllegalAction
		}

	case core.ActionSensorScan:
		if u.Type != core.Sweeper {
			return core.ErrIllegalAction
		}
		if evo(core.Sweeper).B < 1 {
			return core.ErrNotUnlocked
		}

	case core.ActionPlaceTower:
		if u.Type != core.Sweeper {
			return core.ErrIllegalAction
		}
		if evo(core.Sweeper).A < 1 {
			return core.ErrNotUnlocked
		}
		if len(state.BuildingsOf(side, core.Tower)) >= rules.TowerLimit(state, side) || state.BuildingAt(side, core.Tower, u.Pos) {
			return core.ErrLimitReached
		}

	case core.ActionDetonateTower:
		if u.Type != core.Sweeper || !evo(core.Sweeper).A3(2) {
			return core.ErrNotUnlocked
		}

	case core.ActionPlaceMine:
		if u.Type != core.Maker {
			return core.ErrIllegalAction
		}
		if u.Pos.Manhattan(cell) != 1 {
			return core.ErrNotAdjacent
		}
		if !rules.CanOccupy(state, cell) {
			return core.ErrOccupied
		}
		if m := state.MineAt(cell); m != nil && (m.Owner == side || m.RevealedTo(side)) {
			return core.ErrOccupied
		}
		if !mineUnlocked(rules.MakerMineTypes(state, side), cmd.MineType) {
			return core.ErrNotUnlocked
		}

	case core.ActionPlaceFactory:
		if u.Type != core.Maker || evo(core.Maker).B < 1 {
			return core.ErrNotUnlocked
		}
		if len(state.BuildingsOf(side, core.Factory)) >= rules.FactoryLimit(state, side) || state.BuildingAt(side, core.Factory, u.Pos) {
			return core.ErrLimitReached
		}

	case core.ActionPlaceHub:
		if u.Type != core.Ranger || evo(core.Ranger).A < 1 {
			return core.ErrNotUnlocked
		}
		if len(state.BuildingsOf(side, core.Hub)) > 0 {
			return core.ErrLimitReached
		}

	case core.ActionTeleport:
		hubs := state.BuildingsOf(side, core.Hub)
		if len(hubs) == 0 {
			return core.ErrIllegalAction
		}
		if (u.Type == core.Ranger && evo(core.Ranger).A < 2) || (u.Type != core.Ranger && !evo(core.Ranger).A3(2)) {
			return core.ErrNotUnlocked
		}
		if other := state.UnitAt(hubs[0].Pos); other != nil && other.ID != u.ID {
			return core.ErrOccupied
		}

	case core.ActionPickupMine:
		if u.Type != core.Ranger || u.CarryingMine {
			return core.ErrIllegalAction
		}
		reach := 0
		if evo(core.Ranger).B >= 1 {
			reach = 2
		}
		m := state.MineAt(cell)
		if m == nil || !(m.Owner == side || m.RevealedTo(side)) {
			return core.ErrIllegalAction
		}
		if u.Pos.Manhattan(cell) > reach {
			return core.ErrOutOfRange
		}

	case core.ActionDropMine:
		if u.Type != core.Ranger || !u.CarryingMine {
			return core.ErrIllegalAction
		}
		if state.MineAt(u.Pos) != nil || state.MinesOwnedBy(side) >= core.MaxMinesOnBoard {
			return core.ErrLimitReached
		}

	case core.ActionThrowMine:
		if u.Type != core.Ranger || !u.CarryingMine || !evo(core.Ranger).B3(2) {
			return core.ErrNotUnlocked
		}
		if u.Pos.Manhattan(cell) > 2 {
			return core.ErrOutOfRange
		}

	case core.ActionDisarm:
		if u.Type != core.Defuser {
			return core.ErrIllegalAction
		}
		if m := state.MineAt(cell); m == nil || m.Owner == side {
			return core.ErrIllegalAction
		}
		if u.Pos.Chebyshev(cell) > 1 {
			return core.ErrOutOfRange
		}

	case core.ActionMoveMine:
		if u.Type != core.Defuser || evo(core.Defuser).B < 2 {
			return core.ErrNotUnlocked
		}
		if m := state.MineAt(*cmd.Source); m == nil || m.Owner == side || u.Pos.Manhattan(m.Pos) > 2 {
			return core.ErrIllegalAction
		}
		if u.Pos.Manhattan(cell) > 2 {
			return core.ErrOutOfRange
		}

	case core.ActionConvertMine:
		if u.Type != core.Defuser || !evo(core.Defuser).B3(1) {
			return core.ErrNotUnlocked
		}
		if m := state.MineAt(cell); m == nil || m.Owner == side || u.Pos.Manhattan(cell) > 2 {
			return core.ErrIllegalAction
		}

	case core.ActionPickupFlag:
		owner := state.Players[side]
		if !rules.CanCarryFlag(state, u) || u.HasFlag || u.Pos != owner.FlagPosition || state.FlagCarrier(side) != nil {
			return core.ErrIllegalAction
		}

	case core.ActionDropFlag:
		if !u.HasFlag {
			return core.ErrIllegalAction
		}

	default:
		if cmd.Type.IsEvolve() {
			return checkEvolve(state, u, cmd.Type)
		}
	}
	return nil
}

func checkEvolve(state *core.GameState, u *core.Unit, action core.ActionType) error {
	branch := action.EvolveBranch()
	owner := state.Players[u.Owner]
	levels := state.Evolution(u.Owner, u.Type)
	level := levels.Level(branch)
	if level >= core.MaxEvolveLevel {
		return core.ErrLimitReached
	}
	if owner.Quest.Progress(u.Type, branch) < core.EvolutionThresholds[u.Type][branch][level] {
		return core.ErrNotUnlocked
	}
	// The last level picks a variant unless one was picked before.
	wantVariant := level == core.MaxEvolveLevel-1 && levels.Variant(branch) == 0
	if (action.EvolveVariant() != 0) != wantVariant {
		return core.ErrIllegalAction
	}
	return nil
}

func mineUnlocked(kinds []core.MineType, kind core.MineType) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
