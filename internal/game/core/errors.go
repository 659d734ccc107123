package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrObstacle           = errors.New("target cell is an obstacle")
	ErrOccupied           = errors.New("target cell is occupied")
	ErrNotAdjacent        = errors.New("cells are not adjacent")
	ErrOutOfRange         = errors.New("target out of range")
	ErrUnitNotFound       = errors.New("unit not found")
	ErrUnitDead           = errors.New("unit is dead")
	ErrUnitActed          = errors.New("unit already acted this round")
	ErrNotOwned           = errors.New("unit not owned by player")
	ErrInsufficientEnergy = errors.New("insufficient energy")
	ErrEnergyCap          = errors.New("energy cap exceeded")
	ErrTargetKind         = errors.New("target kind does not match action type")
	ErrNotUnlocked        = errors.New("action not unlocked")
	ErrLimitReached       = errors.New("placement limit reached")
	ErrIllegalAction      = errors.New("action not legal for unit")
	ErrGameOver           = errors.New("game is over")
	ErrInvalidPlayer      = errors.New("invalid player ID")
	ErrNotYourTurn        = errors.New("not this player's turn")
	ErrWrongPhase         = errors.New("game is not in the action phase")
)

// WrapActionError annotates err with the player, unit and action of cmd.
func WrapActionError(cmd *Command, err error) error {
	if err == nil {
		return nil
	}
	if cmd == nil {
		return fmt.Errorf("player action: %w", err)
	}
	if cmd.Target.Kind == TargetNone {
		return fmt.Errorf("player %s: %s %s: %w", cmd.Player, cmd.UnitID, cmd.Type, err)
	}
	return fmt.Errorf("player %s: %s %s %s: %w", cmd.Player, cmd.UnitID, cmd.Type, cmd.Target, err)
}
