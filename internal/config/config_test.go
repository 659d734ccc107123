package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

func resetGlobals() {
	cfg = nil
	v = nil
}

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
ai:
  difficulty: hard
  profile: aggressive
  decision_budget: 900ms
  pacing_scale: 0.5
selfplay:
  turn_limit: 12
server:
  grpc_server:
    port: 8080
ui:
  window:
    width: 1024
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	resetGlobals()
	require.NoError(t, Init(configFile))

	c := Get()
	assert.Equal(t, "hard", c.AI.Difficulty)
	assert.Equal(t, "aggressive", c.AI.Profile)
	assert.Equal(t, 900*time.Millisecond, c.AI.DecisionBudget)
	assert.Equal(t, ai.SelectionBudget, c.AI.SelectionBudget, "untouched keys keep defaults")
	assert.Equal(t, 0.5, c.AI.PacingScale)
	assert.Equal(t, 12, c.SelfPlay.TurnLimit)
	assert.Equal(t, 8080, c.Server.GRPCServer.Port)
	assert.Equal(t, 1024, c.UI.Window.Width)
}

func TestInitWithDefaults(t *testing.T) {
	resetGlobals()
	require.NoError(t, Init("/non/existent/path/config.yaml"))

	c := Get()
	assert.Equal(t, "normal", c.AI.Difficulty)
	assert.Equal(t, ai.DecisionBudget, c.AI.DecisionBudget)
	assert.Equal(t, ai.MaxActionRetries, c.AI.MaxRetries)
	assert.Equal(t, 50051, c.Server.GRPCServer.Port)
	assert.Equal(t, 30*time.Minute, c.Server.GRPCServer.SessionIdleTimeout)
}

func TestEnvironmentVariables(t *testing.T) {
	resetGlobals()
	t.Setenv("TAI_AI_DIFFICULTY", "easy")
	t.Setenv("TAI_SERVER_GRPC_SERVER_PORT", "9090")

	require.NoError(t, Init(""))

	c := Get()
	assert.Equal(t, "easy", c.AI.Difficulty)
	assert.Equal(t, 9090, c.Server.GRPCServer.Port)
}

func TestSet(t *testing.T) {
	resetGlobals()
	require.NoError(t, Init(""))

	Set("ai.profile", "conservative")
	Set("ui.cell_size", 48)

	c := Get()
	assert.Equal(t, "conservative", c.AI.Profile)
	assert.Equal(t, 48, c.UI.CellSize)
}

func TestGetHelpers(t *testing.T) {
	resetGlobals()
	require.NoError(t, Init(""))

	Set("test.string", "hello")
	Set("test.int", 42)
	Set("test.bool", true)
	Set("test.float", 3.14)

	assert.Equal(t, "hello", GetString("test.string"))
	assert.Equal(t, 42, GetInt("test.int"))
	assert.Equal(t, true, GetBool("test.bool"))
	assert.Equal(t, 3.14, GetFloat64("test.float"))
}

func TestLoadEnvironmentConfig(t *testing.T) {
	tmpDir := t.TempDir()

	baseConfig := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(baseConfig, []byte(`
ai:
  difficulty: normal
server:
  grpc_server:
    port: 50051
`), 0644))

	envConfig := filepath.Join(tmpDir, "config.prod.yaml")
	require.NoError(t, os.WriteFile(envConfig, []byte(`
ai:
  difficulty: hard
server:
  log_level: error
`), 0644))

	oldWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() { _ = os.Chdir(oldWd) }()

	resetGlobals()
	require.NoError(t, Init(baseConfig))
	require.NoError(t, LoadEnvironmentConfig("prod"))

	c := Get()
	assert.Equal(t, "hard", c.AI.Difficulty)
	assert.Equal(t, "error", c.Server.LogLevel)
	assert.Equal(t, 50051, c.Server.GRPCServer.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		resetGlobals()
		require.NoError(t, Init(""))
		c := *Get()
		return &c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown difficulty", mutate: func(c *Config) { c.AI.Difficulty = "nightmare" }, wantErr: true},
		{name: "unknown profile", mutate: func(c *Config) { c.AI.Profile = "reckless" }, wantErr: true},
		{name: "unknown side", mutate: func(c *Config) { c.AI.Side = "p3" }, wantErr: true},
		{name: "zero budget", mutate: func(c *Config) { c.AI.DecisionBudget = 0 }, wantErr: true},
		{name: "selection over decision budget", mutate: func(c *Config) { c.AI.SelectionBudget = 2 * c.AI.DecisionBudget }, wantErr: true},
		{name: "no retries", mutate: func(c *Config) { c.AI.MaxRetries = 0 }, wantErr: true},
		{name: "negative pacing", mutate: func(c *Config) { c.AI.PacingScale = -1 }, wantErr: true},
		{name: "density above one", mutate: func(c *Config) { c.SelfPlay.ObstacleDensity = 1.5 }, wantErr: true},
		{name: "trace without directory", mutate: func(c *Config) { c.Trace.Enabled = true; c.Trace.Directory = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.GRPCServer.Port = 70000 }, wantErr: true},
		{name: "no idle timeout", mutate: func(c *Config) { c.Server.GRPCServer.SessionIdleTimeout = 0 }, wantErr: true},
		{name: "spectator without address", mutate: func(c *Config) { c.Server.Spectator.Enabled = true; c.Server.Spectator.Address = "" }, wantErr: true},
		{name: "zero queue threshold", mutate: func(c *Config) { c.Monitoring.QueueThreshold = 0 }, wantErr: true},
		{name: "zero cell size", mutate: func(c *Config) { c.UI.CellSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAgentSettings(t *testing.T) {
	resetGlobals()
	require.NoError(t, Init(""))
	c := Get()
	c.SelfPlay.P1Difficulty = "easy"
	c.SelfPlay.P2Difficulty = "hard"

	s, err := c.AI.AgentSettings()
	require.NoError(t, err)
	assert.Equal(t, ai.Normal, s.Difficulty)
	assert.Equal(t, ai.Balanced, s.Profile)
	assert.Equal(t, ai.DecisionBudget, s.DecisionBudget)
	assert.Equal(t, ai.SelectionBudget, s.SelectionBudget)

	c.AI.SelectionBudget = 150 * time.Millisecond
	s, err = c.AI.AgentSettings()
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, s.SelectionBudget)

	p1, err := c.SelfPlaySettings(core.P1)
	require.NoError(t, err)
	assert.Equal(t, ai.Easy, p1.Difficulty)
	p2, err := c.SelfPlaySettings(core.P2)
	require.NoError(t, err)
	assert.Equal(t, ai.Hard, p2.Difficulty)
}
