package ai

import (
	"github.com/mitchelldurbincs/tacticsai/internal/common"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
)

func weightsFor(d Difficulty) Weights {
	if d < 0 || d >= difficultyCount {
		return DifficultyWeights[Normal]
	}
	return DifficultyWeights[d]
}

func countEnemiesWithin(state *core.GameState, enemy core.PlayerID, c core.Coordinate, radius int) int {
	n := 0
	for _, u := range state.AliveUnits(enemy) {
		if u.Pos.Chebyshev(c) <= radius {
			n++
		}
	}
	return n
}

func nearFlag(c, flag core.Coordinate, radius int, near, far float64) float64 {
	if c.Manhattan(flag) <= radius {
		return near
	}
	return far
}

// EvaluateUnitPriority scores how urgently unit should act, without any
// planning context.
func (p *Planner) EvaluateUnitPriority(state *core.GameState, u *core.Unit, d Difficulty) Breakdown {
	w := weightsFor(d)
	enemy := u.Owner.Opponent()
	owner := state.Players[u.Owner]

	attack := 0.0
	if u.Type == core.General {
		for _, t := range state.AliveUnits(enemy) {
			if rules.CanGeneralAttack(p.rules, state, u, t) {
				attack = 12
				break
			}
		}
	}
	flag := float64(max(0, 12-u.Pos.Manhattan(state.Players[enemy].FlagPosition)))
	ratio := 0.0
	if u.MaxHP > 0 {
		ratio = float64(u.HP) / float64(u.MaxHP)
	}
	safety := 3.0
	if ratio < 0.4 {
		safety = 8
	}
	energy := 0.0
	if owner.Energy > 0 {
		moveCost := float64(p.rules.DisplayCost(state, u, u.Stats().MoveCost, core.ActionMove))
		energy = max(0, 8-moveCost/float64(max(1, owner.Energy))*20)
	}

	total := attack*w.UnitAttackOpportunity +
		flag*w.UnitFlagPressure +
		safety*w.UnitSurvival +
		energy*w.UnitEnergyEfficiency
	return Breakdown{Total: common.Finite(total), Attack: attack, Flag: flag, Safety: safety, Energy: energy}
}

// EvaluateUnitPriorityWithContext adds intent, formation, opponent, opening
// and endgame terms to the base priority. A nil ctx returns the base.
func (p *Planner) EvaluateUnitPriorityWithContext(state *core.GameState, u *core.Unit, d Difficulty, ctx *Context) Breakdown {
	base := p.EvaluateUnitPriority(state, u, d)
	if ctx == nil {
		return base
	}
	total := base.Total
	t := u.Type
	generalOrRanger := t == core.General || t == core.Ranger

	switch ctx.Intent {
	case PushFlag:
		if u.HasFlag {
			total += 8
		}
		if generalOrRanger {
			total += 2
		}
	case HuntFlagCarrier:
		if generalOrRanger {
			total += 4
		}
		if t == core.Sweeper {
			total += 1.5
		}
	case ControlMines:
		if t == core.Sweeper || t == core.Defuser || t == core.Maker {
			total += 4
		}
	case Stabilize:
		if u.HPRatio() <= 0.5 {
			total += 3
		}
		if t == core.Defuser || t == core.Sweeper {
			total += 2
		}
	}

	if role, ok := ctx.RoleOf(u.ID); ok {
		total += FormationBonus(state, u, role, ctx.Intent, u.Owner)
	}

	if ctx.Opponent.FlagRush >= 4.5 && generalOrRanger {
		total += 2
	}
	if ctx.Opponent.MinePressure >= 4.5 && (t == core.Sweeper || t == core.Defuser) {
		total += 2.8
	}

	if ctx.Opening.Active {
		w := ctx.Opening.Weight
		switch {
		case ctx.Opening.Plan == PlanCenterBreak && generalOrRanger:
			total += 1.6 * w
		case ctx.Opening.Plan == PlanMineScreen && (t == core.Maker || t == core.Sweeper):
			total += 1.5 * w
		case ctx.Opening.Plan == PlanFortress && t == core.Defuser:
			total += 1.8 * w
		}
	}

	if ctx.Endgame.Active {
		urgency := ctx.Endgame.Urgency
		switch ctx.Endgame.Mode {
		case EndgameRace:
			if u.HasFlag {
				total += 6.5 * urgency
			}
			if generalOrRanger {
				total += 2.1 * urgency
			}
		case EndgameDefense:
			dist := float64(u.Pos.Manhattan(state.Players[u.Owner].FlagPosition))
			total += max(0, 6-dist) * 0.8 * urgency
			if t == core.Sweeper || t == core.Defuser || t == core.General {
				total += 1.8 * urgency
			}
		case EndgameAttrition:
			if u.MaxHP > 0 && u.HPRatio() < 0.45 {
				total += 1.2 * urgency
			} else {
				total += 0.5 * urgency
			}
		}
	}

	base.Total = common.Finite(total)
	return base
}

// endgameActionBias nudges actions toward what the endgame mode needs.
func endgameActionBias(state *core.GameState, ctx *Context, u *core.Unit, action core.ActionType, target *core.Coordinate) float64 {
	if ctx == nil || !ctx.Endgame.Active {
		return 0
	}
	urgency := ctx.Endgame.Urgency
	switch ctx.Endgame.Mode {
	case EndgameRace:
		switch {
		case u.HasFlag && action == core.ActionMove:
			return 2.2 * urgency
		case action == core.ActionPickupFlag:
			return 1.6 * urgency
		case action == core.ActionTeleport:
			return 1.5 * urgency
		case action == core.ActionAttack:
			return 1.1 * urgency
		case action == core.ActionDropFlag:
			return -2.7 * urgency
		case action == core.ActionEndTurn:
			return -1.8 * urgency
		}
	case EndgameDefense:
		switch action {
		case core.ActionAttack:
			return 2.5 * urgency
		case core.ActionScan, core.ActionSensorScan, core.ActionDisarm:
			return 1.6 * urgency
		case core.ActionPlaceTower, core.ActionConvertMine, core.ActionMoveMine:
			return 1.3 * urgency
		case core.ActionDropFlag:
			return 1.1 * urgency
		case core.ActionEndTurn:
			return -1.5 * urgency
		case core.ActionMove:
			if target == nil {
				return 0
			}
			flag := state.Players[u.Owner].FlagPosition
			gain := u.Pos.Manhattan(flag) - target.Manhattan(flag)
			return float64(max(0, gain)) * 0.9 * urgency
		}
	case EndgameAttrition:
		switch action {
		case core.ActionAttack:
			return 1.2 * urgency
		case core.ActionDetonateTower, core.ActionThrowMine:
			return 1.3 * urgency
		case core.ActionMove:
			return 0.7 * urgency
		case core.ActionEndTurn:
			return -0.8 * urgency
		}
	}
	return 0
}

func opponentActionBias(ctx *Context, action core.ActionType) float64 {
	if ctx == nil {
		return 0
	}
	bias := 0.0
	opp := ctx.Opponent
	if opp.MinePressure >= 4.5 {
		switch action {
		case core.ActionScan, core.ActionSensorScan, core.ActionDisarm:
			bias += 1.8
		case core.ActionPlaceMine, core.ActionPlaceTower, core.ActionMoveMine, core.ActionConvertMine:
			bias += 1.1
		}
	}
	if opp.FlagRush >= 4.5 {
		switch action {
		case core.ActionAttack:
			bias += 2.3
		case core.ActionMove, core.ActionTeleport:
			bias += 1.2
		}
	}
	if opp.Aggression >= 5.5 {
		if action == core.ActionEndTurn && ctx.Intent == Stabilize {
			bias += 1
		}
		if action == core.ActionDropFlag {
			bias += 0.8
		}
	}
	return bias
}

// EvaluateAction scores one concrete action. It never mutates state and a
// nil ctx scores every context-dependent term as zero.
func (p *Planner) EvaluateAction(state *core.GameState, u *core.Unit, action core.ActionType, target core.Target, d Difficulty, cost int, mine core.MineType, ctx *Context) Breakdown {
	w := weightsFor(d)
	enemy := u.Owner.Opponent()
	enemyFlag := state.Players[enemy].FlagPosition
	ownFlag := state.Players[u.Owner].FlagPosition
	role, hasRole := ctx.RoleOf(u.ID)
	threat := ctx.ThreatMap()

	var attack, flag, safety, utility float64
	energy := float64(max(0, 10-cost))

	cell := target.Cell
	isCell := target.Kind == core.TargetCell

	switch {
	case action == core.ActionMove && isCell:
		cur := u.Pos.Manhattan(enemyFlag)
		next := cell.Manhattan(enemyFlag)
		advance := float64(max(0, cur-next))
		if u.HasFlag {
			flag = advance * 6
		} else {
			flag = advance * 3
		}
		safety = max(0, 20-EvaluateTargetCellRisk(state, u, cell, threat))
		hot := HotspotPressure(ctx, cell, 4)
		if hasRole {
			switch role {
			case Striker:
				utility += advance*1.4 + hot*0.45
			case Flanker:
				utility += abs(float64(cell.C-ownFlag.C))*0.5 + hot*0.35
			case Controller:
				center := float64(enemyFlag.C+ownFlag.C) / 2
				utility += max(0, 4-abs(float64(cell.C)-center))*1.2 + hot*0.55
			case Scout:
				utility += hot * 0.9
			case Support:
				before := u.Pos.Manhattan(ownFlag)
				after := cell.Manhattan(ownFlag)
				utility += float64(max(0, before-after)) * 1.1
				safety += float64(max(0, 4-after)) * 0.5
			}
		}

	case action == core.ActionAttack && target.Kind == core.TargetUnit:
		t := state.Unit(target.UnitID)
		if t != nil {
			dmg := p.rules.AttackDamage(state, u, t)
			attack = float64(dmg * 2)
			if t.HP-dmg <= 0 {
				attack += 10
			}
			if t.HasFlag {
				attack += 8
			}
		}
		safety = 7

	case action == core.ActionScan:
		base := 6.0
		if isCell {
			unrevealed := 0
			for _, m := range state.Mines {
				if m.Owner != u.Owner && !m.RevealedTo(u.Owner) && m.Pos.Chebyshev(cell) <= 2 {
					unrevealed++
				}
			}
			base += float64(countEnemiesWithin(state, enemy, cell, 2))*2 +
				nearFlag(cell, enemyFlag, 3, 3, 0) +
				float64(unrevealed)*2 +
				HotspotPressure(ctx, cell, 4)*0.8
		}
		utility = base
		safety = 6

	case action == core.ActionSensorScan:
		base := 7.5
		if isCell {
			base += float64(countEnemiesWithin(state, enemy, cell, 2))*2.2 +
				nearFlag(cell, enemyFlag, 3, 3.5, 0) +
				HotspotPressure(ctx, cell, 4)*0.9
		}
		utility = base
		safety = 6.5

	case action == core.ActionPlaceMine && isCell:
		nearEF := nearFlag(cell, enemyFlag, 4, 8, 3)
		foes := state.AliveUnits(enemy)
		minDist := 6
		if len(foes) > 0 {
			minDist = cell.Manhattan(foes[0].Pos)
			for _, f := range foes[1:] {
				minDist = min(minDist, cell.Manhattan(f.Pos))
			}
		}
		pressure := 0.0
		switch {
		case minDist <= 2:
			pressure = 8
		case minDist <= 4:
			pressure = 4
		}
		typeBonus := 0.0
		switch mine {
		case core.MineSlow:
			typeBonus = 2
			if minDist <= 2 {
				typeBonus = 6
			}
		case core.MineSmoke:
			typeBonus = 1
			if minDist <= 3 {
				typeBonus = 4
			}
		case core.MineChain:
			typeBonus = 3
			if nearEF >= 8 {
				typeBonus = 6
			}
		case core.MineNuke:
			typeBonus = 4
			if countEnemiesWithin(state, enemy, cell, 2) >= 2 {
				typeBonus = 10
			}
		}
		utility = nearEF + pressure + typeBonus + HotspotPressure(ctx, cell, 3)*0.75
		safety = max(0, 14-EvaluateTargetCellRisk(state, u, cell, threat))

	case action == core.ActionPlaceTower && isCell:
		coverage := len(rules.EnemyMinesWithin(state, u.Owner, cell, 1))
		utility = 8 + float64(coverage)*4 + float64(countEnemiesWithin(state, enemy, cell, 2))*1.6
		safety = 6.5

	case action == core.ActionDetonateTower:
		towers := state.BuildingsOf(u.Owner, core.Tower)
		covered := func(c core.Coordinate) bool {
			for _, t := range towers {
				if t.Pos.Chebyshev(c) <= 1 {
					return true
				}
			}
			return false
		}
		mines, foes := 0, 0
		for _, m := range state.Mines {
			if m.Owner != u.Owner && covered(m.Pos) {
				mines++
			}
		}
		for _, f := range state.AliveUnits(enemy) {
			if covered(f.Pos) {
				foes++
			}
		}
		attack = float64(foes) * 5.5
		utility = 9 + float64(mines)*3.5
		safety = 5.5

	case action == core.ActionPlaceFactory && isCell:
		utility = 7 + float64(max(0, 10-cell.Manhattan(enemyFlag)))*0.4
		safety = 5

	case action == core.ActionPlaceHub && isCell:
		utility = 8 + float64(max(0, 9-cell.Manhattan(enemyFlag)))*0.35 +
			float64(max(0, 6-cell.Manhattan(ownFlag)))*0.25
		safety = 5.5

	case action == core.ActionTeleport && isCell:
		push := float64(max(0, u.Pos.Manhattan(enemyFlag)-cell.Manhattan(enemyFlag)))
		def := float64(max(0, u.Pos.Manhattan(ownFlag)-cell.Manhattan(ownFlag)))
		if u.HasFlag {
			flag = push * 4
		} else {
			flag = push * 2.2
		}
		utility = 6 + push*1.8 + def*1.1
		safety = max(0, 20-EvaluateTargetCellRisk(state, u, cell, threat))

	case action == core.ActionThrowMine && isCell:
		hit := 0
		if v := state.UnitAt(cell); v != nil && v.Owner == enemy {
			hit = 1
		}
		attack = float64(hit) * 8.5
		utility = 7 + nearFlag(cell, enemyFlag, 3, 6, 2) + float64(hit)*3.5
		safety = 5.2

	case action == core.ActionPickupMine && isCell:
		utility = 6.5 + nearFlag(cell, enemyFlag, 4, 3, 0)
		safety = 6

	case action == core.ActionDropMine && isCell:
		utility = 6 + nearFlag(cell, enemyFlag, 4, 6, 2)
		safety = 5.8

	case action == core.ActionMoveMine && isCell:
		near := 0
		for _, f := range state.AliveUnits(enemy) {
			if f.Pos.Manhattan(cell) <= 1 {
				near++
			}
		}
		utility = 8 + float64(near)*2.4 + nearFlag(cell, enemyFlag, 4, 5, 1)
		safety = 5.2

	case action == core.ActionConvertMine && isCell:
		utility = 9 + nearFlag(cell, enemyFlag, 4, 5.5, 2)
		safety = 6.2

	case action == core.ActionDisarm:
		local, hot := 0, 0.0
		if isCell {
			local = countEnemiesWithin(state, enemy, cell, 2)
			hot = HotspotPressure(ctx, cell, 3)
		}
		utility = 9 + float64(local)*2 + hot*0.65
		safety = 7

	case action == core.ActionPickupFlag:
		flag = 12
		utility = 5

	case action == core.ActionDropFlag:
		if countEnemiesWithin(state, enemy, u.Pos, 2) >= 2 {
			utility, safety = 7, 10
		} else {
			utility, safety = 2, 3
		}

	case action.IsEvolve():
		branch := action.EvolveBranch()
		next := min(core.MaxEvolveLevel, state.Evolution(u.Owner, u.Type).Level(branch)+1)
		utility = 7 + float64(next)*2.2
		safety = 4.5
		switch {
		case u.Type == core.General && branch == core.BranchA:
			attack += 4.5
		case u.Type == core.General && branch == core.BranchB:
			flag += 4.5
		case u.Type == core.Ranger && branch == core.BranchA:
			flag += 2.5
			utility += 1.5
		case u.Type == core.Maker && branch == core.BranchB:
			utility += 2
		case u.Type == core.Defuser && branch == core.BranchB:
			safety += 1.8
		}
		if action.EvolveVariant() != 0 {
			utility += 1.2
		}

	case action == core.ActionEndTurn:
		utility = 0.5
		safety = 1.5
		energy = 1
	}

	if ctx != nil && cost > 0 {
		penalty := float64(max(0, ctx.Reserve-(state.Players[u.Owner].Energy-cost)))
		energy = max(0, energy-penalty*1.6)
	}

	bias := 0.0
	if ctx != nil && ctx.Intent >= 0 && ctx.Intent < intentCount {
		bias += IntentActionBonus[ctx.Intent][action]
	}
	if hasRole && role >= 0 && role < roleCount {
		bias += RoleActionBonus[role][action]
	}
	bias += opponentActionBias(ctx, action)

	var targetPos *core.Coordinate
	if pos, ok := target.Position(state); ok {
		targetPos = &pos
	}
	bias += OpeningActionBias(ctx, u, action, targetPos, mine)
	bias += endgameActionBias(state, ctx, u, action, targetPos)

	attack, flag = common.Finite(attack), common.Finite(flag)
	safety, utility, energy = common.Finite(safety), common.Finite(utility), common.Finite(energy)
	total := attack*w.ActionDamage +
		flag*w.ActionFlagPressure +
		safety*w.ActionSafety +
		utility*w.ActionUtility +
		energy*0.6 +
		common.Finite(bias)

	return Breakdown{Total: total, Attack: attack, Flag: flag, Safety: safety, Utility: utility, Energy: energy}
}
