package rules

import (
	"testing"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWinConditionChecker(t *testing.T) {
	wc := NewWinConditionChecker(testutil.NopLogger())

	s := testutil.StandardState()
	over, _ := wc.CheckGameOver(s)
	assert.False(t, over)

	s.Players[core.P2].FlagPosition = core.FlagStart(core.P1)
	over, winner := wc.CheckGameOver(s)
	assert.True(t, over)
	assert.Equal(t, core.P2, winner)

	s = testutil.StandardState()
	s.Unit("p2-general").IsDead = true
	over, winner = wc.CheckGameOver(s)
	assert.True(t, over)
	assert.Equal(t, core.P1, winner)
}
