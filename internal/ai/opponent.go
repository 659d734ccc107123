package ai

import (
	"github.com/mitchelldurbincs/tacticsai/internal/common"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

const (
	signalDecay      = 0.8
	signalCeiling    = 10.0
	hotspotDecay     = 0.86
	hotspotFloor     = 0.35
	hotspotCeiling   = 12.0
	hotspotGain      = 1.2
	hotspotCarryGain = 2.4
)

// OpponentModel holds smoothed signals about how the other side plays.
type OpponentModel struct {
	Aggression   float64
	FlagRush     float64
	MinePressure float64
	Hotspots     map[core.Coordinate]float64
	Samples      int
}

func NewOpponentModel() OpponentModel {
	return OpponentModel{Hotspots: map[core.Coordinate]float64{}}
}

// Clone copies the hotspot map so the result can be mutated freely.
func (m OpponentModel) Clone() OpponentModel {
	out := m
	out.Hotspots = make(map[core.Coordinate]float64, len(m.Hotspots))
	for k, v := range m.Hotspots {
		out.Hotspots[k] = v
	}
	return out
}

// UpdateOpponentModel folds the change between two snapshots into prev and
// returns the new model. prev is not modified. A nil prevState means there
// is nothing to compare yet.
func UpdateOpponentModel(prev OpponentModel, prevState, nextState *core.GameState, side core.PlayerID) OpponentModel {
	if prevState == nil || nextState == nil {
		return prev
	}
	enemy := side.Opponent()
	ownFlag := nextState.Players[side].FlagPosition

	toward := 0
	carrier := false
	nextEnemy := nextState.AliveUnits(enemy)
	for _, u := range nextEnemy {
		if u.HasFlag {
			carrier = true
		}
		before := prevState.Unit(u.ID)
		if before == nil || before.IsDead {
			continue
		}
		if u.Pos.Manhattan(ownFlag) < before.Pos.Manhattan(ownFlag) {
			toward++
		}
	}

	mineDelta := max(0, nextState.MinesOwnedBy(enemy)-prevState.MinesOwnedBy(enemy))

	hpLoss, deaths := 0, 0
	for _, u := range nextState.Players[side].Units {
		before := prevState.Unit(u.ID)
		if before == nil {
			continue
		}
		hpLoss += max(0, before.HP-u.HP)
		if !before.IsDead && u.IsDead {
			deaths++
		}
	}

	aggressionGain := float64(hpLoss)*0.08 + float64(deaths)*1.5
	flagRushGain := float64(toward) * 0.9
	if carrier {
		flagRushGain += 1.7
	}
	mineGain := float64(mineDelta) * 1.4

	hotspots := make(map[core.Coordinate]float64, len(prev.Hotspots)+len(nextEnemy))
	for k, v := range prev.Hotspots {
		if d := v * hotspotDecay; d >= hotspotFloor {
			hotspots[k] = d
		}
	}
	for _, u := range nextEnemy {
		gain := hotspotGain
		if u.HasFlag {
			gain = hotspotCarryGain
		}
		hotspots[u.Pos] = common.Clamp(hotspots[u.Pos]+gain, 0, hotspotCeiling)
	}

	return OpponentModel{
		Aggression:   common.Clamp(prev.Aggression*signalDecay+aggressionGain, 0, signalCeiling),
		FlagRush:     common.Clamp(prev.FlagRush*signalDecay+flagRushGain, 0, signalCeiling),
		MinePressure: common.Clamp(prev.MinePressure*signalDecay+mineGain, 0, signalCeiling),
		Hotspots:     hotspots,
		Samples:      prev.Samples + 1,
	}
}
