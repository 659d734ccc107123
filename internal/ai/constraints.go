package ai

import (
	"math"
	"sort"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

type constrained struct {
	c               Candidate
	key             float64
	lethal          bool
	lethalOnCarrier bool
}

// ApplyHardConstraints reorders actions for u so that tactical must-dos
// surface first: lethal strikes, hits on a flag carrier, defending the own
// flag, and keeping a wounded General out of danger. Lethal actions on a
// carrier lead, then other lethal actions, then everything by adjusted
// score. Scores are not changed, only order, so applying it twice gives the
// same result.
func (p *Planner) ApplyHardConstraints(state *core.GameState, u *core.Unit, actions []Candidate, ctx *Context) []Candidate {
	out, _ := p.constrain(state, u, actions, ctx)
	return out
}

// constrain is ApplyHardConstraints that also reports whether the leader
// is a lethal strike. Such a leader must not be displaced by a feint.
func (p *Planner) constrain(state *core.GameState, u *core.Unit, actions []Candidate, ctx *Context) ([]Candidate, bool) {
	if len(actions) <= 1 || u == nil {
		return actions, false
	}
	enemy := u.Owner.Opponent()
	ownFlag := state.Players[u.Owner].FlagPosition
	foes := state.AliveUnits(enemy)

	carrier := state.FlagCarrier(enemy)
	urgent := carrier != nil && carrier.Pos.Manhattan(ownFlag) <= 5
	nearest := math.MaxInt
	for _, f := range foes {
		nearest = min(nearest, f.Pos.Manhattan(ownFlag))
	}
	strict := nearest <= 3
	woundedGeneral := u.Type == core.General && u.MaxHP > 0 && u.HPRatio() <= 0.4
	towers := state.BuildingsOf(u.Owner, core.Tower)
	defuserB3v2 := state.Evolution(u.Owner, core.Defuser).B3(2)

	items := make([]constrained, len(actions))
	for i, a := range actions {
		bonus := 0.0
		lethal, lethalOnCarrier := false, false
		cell := a.Target.Cell
		isCell := a.Target.Kind == core.TargetCell

		switch a.Type {
		case core.ActionAttack:
			if t := state.Unit(a.Target.UnitID); t != nil {
				lethal = p.rules.AttackDamage(state, u, t) >= t.HP
				lethalOnCarrier = lethal && t.HasFlag
				if lethal {
					bonus += 120
				}
				if t.HasFlag {
					bonus += 110
				}
				if strict && t.Pos.Manhattan(ownFlag) <= 2 {
					bonus += 90
				}
			}

		case core.ActionDetonateTower:
			kills, carrierKill := 0, false
			for _, f := range foes {
				inBlast := false
				for _, t := range towers {
					if t.Pos.Chebyshev(f.Pos) <= 1 {
						inBlast = true
						break
					}
				}
				if inBlast && f.HP <= 3 {
					kills++
					carrierKill = carrierKill || f.HasFlag
				}
			}
			if kills > 0 {
				lethal = true
				bonus += float64(kills) * 120
				if carrierKill {
					lethalOnCarrier = true
					bonus += 160
				}
			}

		case core.ActionThrowMine:
			if v := state.UnitAt(cell); isCell && v != nil && v.Owner == enemy {
				kill := v.HP <= core.MineDamage
				if kill {
					lethal = true
					bonus += 110
				}
				if v.HasFlag {
					bonus += 95
					if kill {
						lethalOnCarrier = true
						bonus += 120
					}
				}
			}

		case core.ActionMoveMine:
			if v := state.UnitAt(cell); defuserB3v2 && isCell && v != nil && v.Owner == enemy {
				kill := v.HP <= int(math.Floor(core.MineDamage*0.4))
				if kill {
					lethal = true
					bonus += 95
				}
				if v.HasFlag {
					bonus += 85
					if kill {
						lethalOnCarrier = true
						bonus += 110
					}
				}
			}
		}

		if urgent {
			switch {
			case a.Type == core.ActionAttack:
				if t := state.Unit(a.Target.UnitID); t != nil && t.HasFlag {
					bonus += 180
				}
			case a.Type.IsRepositioning() && isCell:
				before := u.Pos.Manhattan(carrier.Pos)
				after := cell.Manhattan(carrier.Pos)
				bonus += float64(max(0, before-after)) * 30
				if after <= 1 {
					bonus += 40
				}
			case (a.Type == core.ActionScan || a.Type == core.ActionSensorScan) && isCell:
				if cell.Manhattan(carrier.Pos) <= 1 {
					bonus += 35
				}
			case a.Type == core.ActionEndTurn:
				bonus -= 180
			}
		}

		if strict {
			switch {
			case a.Type.IsRepositioning() && isCell:
				before := u.Pos.Manhattan(ownFlag)
				after := cell.Manhattan(ownFlag)
				bonus += float64(max(0, before-after)) * 22
				if after > before {
					bonus -= 35
				}
			case (a.Type == core.ActionPlaceMine || a.Type == core.ActionPlaceTower ||
				a.Type == core.ActionConvertMine || a.Type == core.ActionMoveMine) && isCell:
				if cell.Manhattan(ownFlag) <= 2 {
					bonus += 36
				}
			case a.Type == core.ActionEndTurn:
				bonus -= 120
			}
		}

		if woundedGeneral {
			if a.Type.IsRepositioning() && isCell {
				risk := 0.0
				if ctx != nil {
					risk = ctx.Threat.At(cell)
				}
				switch {
				case risk >= 22:
					bonus -= 220
				case risk <= 10:
					bonus += 20
				}
			}
			if a.Type == core.ActionAttack && !lethal {
				bonus -= 60
			}
		}

		items[i] = constrained{c: a, key: a.RankScore() + bonus, lethal: lethal, lethalOnCarrier: lethalOnCarrier}
	}

	bucket := func(it constrained) int { return 0 }
	switch {
	case anyItem(items, func(it constrained) bool { return it.lethalOnCarrier }):
		bucket = func(it constrained) int {
			if it.lethalOnCarrier {
				return 1
			}
			return 0
		}
	case anyItem(items, func(it constrained) bool { return it.lethal }):
		bucket = func(it constrained) int {
			if it.lethal {
				return 1
			}
			return 0
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		bi, bj := bucket(items[i]), bucket(items[j])
		if bi != bj {
			return bi > bj
		}
		return items[i].key > items[j].key
	})

	out := make([]Candidate, len(items))
	for i, it := range items {
		out[i] = it.c
	}
	return out, items[0].lethal || items[0].lethalOnCarrier
}

func anyItem(items []constrained, pred func(constrained) bool) bool {
	for _, it := range items {
		if pred(it) {
			return true
		}
	}
	return false
}
