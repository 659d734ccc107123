package ai

import (
	"sort"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
)

// Per-type caps on how many scored options survive generation.
const (
	topMoves       = 4
	topScans       = 2
	topSensors     = 2
	topMines       = 2
	topDisarms     = 2
	topPickupMines = 3
	topThrows      = 5
	topMoveMines   = 8
	topConverts    = 4
)

// GenerateUnitCandidates scores every living own unit that has not acted
// this round. Each score carries a small random nudge scaled by the
// difficulty's jitter.
func (p *Planner) GenerateUnitCandidates(state *core.GameState, d Difficulty, ctx *Context, side core.PlayerID) []UnitCandidate {
	jitter := weightsFor(d).Jitter
	var out []UnitCandidate
	for _, u := range state.AliveUnits(side) {
		if u.HasActedThisRound {
			continue
		}
		b := p.EvaluateUnitPriorityWithContext(state, u, d, ctx)
		score := b.Total + (p.randFloat()*jitter - jitter/2)
		b.Total = score
		out = append(out, UnitCandidate{UnitID: u.ID, Score: score, Breakdown: b})
	}
	return out
}

// keepTop sorts list by score and keeps the best n.
func keepTop(list []Candidate, n int) []Candidate {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Score > list[j].Score })
	if len(list) > n {
		list = list[:n]
	}
	return list
}

// GenerateActions enumerates the legal, scored actions for u. A nil or dead
// unit yields nothing; otherwise ending the turn is always included.
func (p *Planner) GenerateActions(state *core.GameState, u *core.Unit, d Difficulty, ctx *Context) []Candidate {
	if u == nil || u.IsDead {
		return nil
	}
	q := p.rules
	owner := state.Players[u.Owner]
	enemy := u.Owner.Opponent()
	threat := ctx.ThreatMap()

	affordable := func(cost int) bool {
		return owner.Energy >= cost && q.CheckEnergyCap(u, cost)
	}
	score := func(action core.ActionType, target core.Target, cost int, mine core.MineType, source *core.Coordinate) Candidate {
		b := p.EvaluateAction(state, u, action, target, d, cost, mine, ctx)
		return Candidate{
			UnitID:     u.ID,
			Type:       action,
			Target:     target,
			Source:     source,
			MineType:   mine,
			EnergyCost: cost,
			Score:      b.Total,
			Breakdown:  b,
		}
	}

	var actions []Candidate
	evo := func(t core.UnitType) core.EvolutionLevel { return state.Evolution(u.Owner, t) }

	// Move
	moveCost := q.DisplayCost(state, u, rules.MoveBaseCost(u), core.ActionMove)
	if affordable(moveCost) {
		var moves []Candidate
		for _, c := range u.Pos.ValidNeighbors() {
			if !rules.CanOccupy(state, c) {
				continue
			}
			if EvaluateTargetCellRisk(state, u, c, threat) >= obstacleRisk {
				continue
			}
			moves = append(moves, score(core.ActionMove, core.CellTarget(c), moveCost, 0, nil))
		}
		actions = append(actions, keepTop(moves, topMoves)...)
	}

	// Attack
	if u.Type == core.General {
		cost := rules.GeneralAttackCost(q, state, u)
		for _, t := range state.AliveUnits(enemy) {
			if rules.CanGeneralAttack(q, state, u, t) {
				actions = append(actions, score(core.ActionAttack, core.UnitTarget(t.ID), cost, 0, nil))
			}
		}
	}

	switch u.Type {
	case core.Sweeper:
		actions = append(actions, p.sweeperActions(state, u, score, affordable)...)
	case core.Maker:
		actions = append(actions, p.makerActions(state, u, score, affordable)...)
	case core.Ranger:
		actions = append(actions, p.rangerActions(state, u, score, affordable)...)
	case core.Defuser:
		actions = append(actions, p.defuserActions(state, u, score, affordable)...)
	}

	// Any unit may use the hub once the Ranger reaches A3 variant 2.
	if u.Type != core.Ranger && evo(core.Ranger).A3(2) {
		const cost = 5
		if hubs := state.BuildingsOf(u.Owner, core.Hub); len(hubs) > 0 && affordable(cost) {
			if hub := hubs[0].Pos; !hubBlocked(state, u, hub) {
				actions = append(actions, score(core.ActionTeleport, core.CellTarget(hub), cost, 0, nil))
			}
		}
	}

	// Evolution
	levels := evo(u.Type)
	for _, branch := range []core.Branch{core.BranchA, core.BranchB} {
		level := levels.Level(branch)
		if level >= core.MaxEvolveLevel {
			continue
		}
		cost := core.EvolutionCosts[level]
		if owner.Energy < cost || owner.Quest.Progress(u.Type, branch) < core.EvolutionThresholds[u.Type][branch][level] {
			continue
		}
		for _, action := range evolveActions(branch, level, levels.Variant(branch)) {
			actions = append(actions, score(action, core.NoTarget(), cost, 0, nil))
		}
	}

	// Flag
	if rules.CanCarryFlag(state, u) && !u.HasFlag && u.Pos == owner.FlagPosition && state.FlagCarrier(u.Owner) == nil {
		actions = append(actions, score(core.ActionPickupFlag, core.NoTarget(), 0, 0, nil))
	}
	if u.HasFlag {
		actions = append(actions, score(core.ActionDropFlag, core.NoTarget(), 0, 0, nil))
	}

	actions = append(actions, score(core.ActionEndTurn, core.NoTarget(), 0, 0, nil))
	return actions
}

type scoreFunc func(core.ActionType, core.Target, int, core.MineType, *core.Coordinate) Candidate

func evolveActions(branch core.Branch, level, variant int) []core.ActionType {
	variants := level == core.MaxEvolveLevel-1 && variant == 0
	if branch == core.BranchA {
		if variants {
			return []core.ActionType{core.ActionEvolveA1, core.ActionEvolveA2}
		}
		return []core.ActionType{core.ActionEvolveA}
	}
	if variants {
		return []core.ActionType{core.ActionEvolveB1, core.ActionEvolveB2}
	}
	return []core.ActionType{core.ActionEvolveB}
}

// hubBlocked reports another living unit standing on the hub.
func hubBlocked(state *core.GameState, u *core.Unit, hub core.Coordinate) bool {
	other := state.UnitAt(hub)
	return other != nil && other.ID != u.ID
}

func (p *Planner) sweeperActions(state *core.GameState, u *core.Unit, score scoreFunc, affordable func(int) bool) []Candidate {
	q := p.rules
	owner := state.Players[u.Owner]
	enemy := state.Players[u.Owner.Opponent()]
	levels := state.Evolution(u.Owner, core.Sweeper)
	var out []Candidate

	targets := []core.Coordinate{enemy.FlagPosition}
	for _, e := range state.AliveUnits(enemy.ID) {
		targets = append(targets, e.Pos)
		targets = append(targets, e.Pos.Neighbors()...)
	}
	scanTargets := func(action core.ActionType, cells []core.Coordinate, cost, keep int) []Candidate {
		seen := map[core.Coordinate]bool{}
		var list []Candidate
		for _, c := range cells {
			if !c.InBounds() || state.Grid.IsObstacle(c) || seen[c] {
				continue
			}
			seen[c] = true
			list = append(list, score(action, core.CellTarget(c), cost, 0, nil))
		}
		return keepTop(list, keep)
	}

	scanBase := 3
	if owner.Quest.SweeperScansThisRound >= 2 {
		scanBase = 4
	}
	if cost := q.TerritoryCost(u, scanBase); affordable(cost) {
		out = append(out, scanTargets(core.ActionScan, targets, cost, topScans)...)
	}

	if levels.B >= 1 {
		cost := 5
		if levels.B >= 3 {
			cost = 4
		}
		if affordable(cost) {
			cells := append(append([]core.Coordinate(nil), targets...), u.Pos)
			out = append(out, scanTargets(core.ActionSensorScan, cells, cost, topSensors)...)
		}
	}

	towers := state.BuildingsOf(u.Owner, core.Tower)
	if levels.A >= 1 && len(towers) < rules.TowerLimit(state, u.Owner) && !state.BuildingAt(u.Owner, core.Tower, u.Pos) {
		base := 6
		if levels.A3(1) {
			base = 5
		}
		if cost := q.TerritoryCost(u, base); affordable(cost) {
			out = append(out, score(core.ActionPlaceTower, core.CellTarget(u.Pos), cost, 0, nil))
		}
	}

	if levels.A3(2) && len(towers) > 0 {
		const cost = 2
		inRange := false
		for _, t := range towers {
			if len(rules.EnemyMinesWithin(state, u.Owner, t.Pos, 1)) > 0 {
				inRange = true
				break
			}
		}
		if inRange && affordable(cost) {
			out = append(out, score(core.ActionDetonateTower, core.NoTarget(), cost, 0, nil))
		}
	}
	return out
}

func (p *Planner) makerActions(state *core.GameState, u *core.Unit, score scoreFunc, affordable func(int) bool) []Candidate {
	q := p.rules
	var out []Candidate

	var mines []Candidate
	kinds := rules.MakerMineTypes(state, u.Owner)
	for _, c := range u.Pos.ValidNeighbors() {
		if !rules.CanOccupy(state, c) {
			continue
		}
		if m := state.MineAt(c); m != nil && (m.Owner == u.Owner || m.RevealedTo(u.Owner)) {
			continue
		}
		for _, kind := range kinds {
			cost := q.TerritoryCost(u, kind.BaseCost())
			if !affordable(cost) {
				continue
			}
			mines = append(mines, score(core.ActionPlaceMine, core.CellTarget(c), cost, kind, nil))
		}
	}
	out = append(out, keepTop(mines, topMines)...)

	levels := state.Evolution(u.Owner, core.Maker)
	factories := state.BuildingsOf(u.Owner, core.Factory)
	if levels.B >= 1 && len(factories) < rules.FactoryLimit(state, u.Owner) && !state.BuildingAt(u.Owner, core.Factory, u.Pos) {
		if cost := q.TerritoryCost(u, 6); affordable(cost) {
			out = append(out, score(core.ActionPlaceFactory, core.CellTarget(u.Pos), cost, 0, nil))
		}
	}
	return out
}

func (p *Planner) rangerActions(state *core.GameState, u *core.Unit, score scoreFunc, affordable func(int) bool) []Candidate {
	q := p.rules
	levels := state.Evolution(u.Owner, core.Ranger)
	hubs := state.BuildingsOf(u.Owner, core.Hub)
	var out []Candidate

	if levels.A >= 1 && len(hubs) == 0 {
		if cost := q.DisplayCost(state, u, 4, core.ActionPlaceHub); affordable(cost) {
			out = append(out, score(core.ActionPlaceHub, core.CellTarget(u.Pos), cost, 0, nil))
		}
	}

	if levels.A >= 2 && len(hubs) > 0 {
		cost := 0
		if levels.A3(2) {
			cost = 3
		}
		if hub := hubs[0].Pos; !hubBlocked(state, u, hub) && affordable(cost) {
			out = append(out, score(core.ActionTeleport, core.CellTarget(hub), cost, 0, nil))
		}
	}

	if !u.CarryingMine {
		reach := 0
		if levels.B >= 1 {
			reach = 2
		}
		var pickups []Candidate
		for _, m := range state.Mines {
			if u.Pos.Manhattan(m.Pos) > reach || !(m.Owner == u.Owner || m.RevealedTo(u.Owner)) {
				continue
			}
			pickups = append(pickups, score(core.ActionPickupMine, core.CellTarget(m.Pos), 0, 0, nil))
		}
		return append(out, keepTop(pickups, topPickupMines)...)
	}

	if state.MineAt(u.Pos) == nil && !state.Grid.IsObstacle(u.Pos) && state.MinesOwnedBy(u.Owner) < core.MaxMinesOnBoard {
		out = append(out, score(core.ActionDropMine, core.CellTarget(u.Pos), 0, u.CarriedMine, nil))
	}

	if levels.B3(2) {
		if cost := q.TerritoryCost(u, 5); affordable(cost) {
			var throws []Candidate
			for _, c := range append([]core.Coordinate{u.Pos}, u.Pos.Within(2)...) {
				v := state.UnitAt(c)
				hit := v != nil && v.Owner != u.Owner
				if !hit && state.MineAt(c) != nil {
					continue
				}
				throws = append(throws, score(core.ActionThrowMine, core.CellTarget(c), cost, u.CarriedMine, nil))
			}
			out = append(out, keepTop(throws, topThrows)...)
		}
	}
	return out
}

func (p *Planner) defuserActions(state *core.GameState, u *core.Unit, score scoreFunc, affordable func(int) bool) []Candidate {
	q := p.rules
	levels := state.Evolution(u.Owner, core.Defuser)
	var out []Candidate

	if cost := q.TerritoryCost(u, u.Stats().DisarmCost); affordable(cost) {
		var disarms []Candidate
		for _, m := range rules.EnemyMinesWithin(state, u.Owner, u.Pos, 1) {
			disarms = append(disarms, score(core.ActionDisarm, core.CellTarget(m.Pos), cost, 0, nil))
		}
		out = append(out, keepTop(disarms, topDisarms)...)
	}

	var nearby []core.Mine
	for _, m := range state.Mines {
		if m.Owner != u.Owner && u.Pos.Manhattan(m.Pos) <= 2 {
			nearby = append(nearby, m)
		}
	}

	if levels.B >= 2 {
		cost := 2
		if levels.B3(2) {
			cost = 5
		}
		if affordable(cost) {
			var moves []Candidate
			cells := append([]core.Coordinate{u.Pos}, u.Pos.Within(2)...)
			for _, m := range nearby {
				src := m.Pos
				for _, c := range cells {
					if c == src {
						continue
					}
					moves = append(moves, score(core.ActionMoveMine, core.CellTarget(c), cost, 0, &src))
				}
			}
			out = append(out, keepTop(moves, topMoveMines)...)
		}
	}

	if levels.B3(1) && state.MinesOwnedBy(u.Owner) < core.MaxMinesOnBoard+1 {
		const cost = 5
		if affordable(cost) {
			var converts []Candidate
			for _, m := range nearby {
				converts = append(converts, score(core.ActionConvertMine, core.CellTarget(m.Pos), cost, 0, nil))
			}
			out = append(out, keepTop(converts, topConverts)...)
		}
	}
	return out
}
