package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/tacticsai/internal/agent"
	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// Config holds all configuration for the application
type Config struct {
	AI          AIConfig          `mapstructure:"ai"`
	SelfPlay    SelfPlayConfig    `mapstructure:"selfplay"`
	Trace       TraceConfig       `mapstructure:"trace"`
	Server      ServerConfig      `mapstructure:"server"`
	UI          UIConfig          `mapstructure:"ui"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Development DevelopmentConfig `mapstructure:"development"`
}

// AIConfig holds the decision engine knobs
type AIConfig struct {
	Difficulty        string        `mapstructure:"difficulty"`
	Profile           string        `mapstructure:"profile"`
	Side              string        `mapstructure:"side"`
	Debug             bool          `mapstructure:"debug"`
	DecisionBudget    time.Duration `mapstructure:"decision_budget"`
	SelectionBudget   time.Duration `mapstructure:"selection_budget"`
	MaxRetries        int           `mapstructure:"max_retries"`
	MaxActionsPerUnit int           `mapstructure:"max_actions_per_unit"`
	PacingScale       float64       `mapstructure:"pacing_scale"`
	OpeningBook       string        `mapstructure:"opening_book"`
}

// SelfPlayConfig holds settings for headless AI vs AI matches
type SelfPlayConfig struct {
	Games           int     `mapstructure:"games"`
	Seed            int64   `mapstructure:"seed"`
	TurnLimit       int     `mapstructure:"turn_limit"`
	ObstacleDensity float64 `mapstructure:"obstacle_density"`
	P1Difficulty    string  `mapstructure:"p1_difficulty"`
	P2Difficulty    string  `mapstructure:"p2_difficulty"`
	RealTime        bool    `mapstructure:"real_time"`
}

// TraceConfig holds decision trace persistence settings
type TraceConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Directory      string        `mapstructure:"directory"`
	BufferCapacity int           `mapstructure:"buffer_capacity"`
	FlushInterval  time.Duration `mapstructure:"flush_interval"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	GRPCServer GRPCServerConfig `mapstructure:"grpc_server"`
	Spectator  SpectatorConfig  `mapstructure:"spectator"`
	LogLevel   string           `mapstructure:"log_level"`
}

// GRPCServerConfig holds gRPC server configuration
type GRPCServerConfig struct {
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	MaxSessions           int           `mapstructure:"max_sessions"`
	SessionIdleTimeout    time.Duration `mapstructure:"session_idle_timeout"`
	EnableReflection      bool          `mapstructure:"enable_reflection"`
	GracefulShutdownDelay int           `mapstructure:"graceful_shutdown_delay"`
}

// SpectatorConfig holds the websocket feed settings
type SpectatorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// UIConfig holds viewer settings
type UIConfig struct {
	Window            WindowConfig `mapstructure:"window"`
	CellSize          int          `mapstructure:"cell_size"`
	ShowThreatOverlay bool         `mapstructure:"show_threat_overlay"`
}

// WindowConfig holds window settings
type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

// MonitoringConfig holds runtime monitor settings
type MonitoringConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Interval           time.Duration `mapstructure:"interval"`
	GoroutineThreshold int           `mapstructure:"goroutine_threshold"`
	QueueThreshold     int           `mapstructure:"queue_threshold"`
}

// DevelopmentConfig holds development/debug settings
type DevelopmentConfig struct {
	VerboseLogging bool `mapstructure:"verbose_logging"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("ai.difficulty", "normal")
	v.SetDefault("ai.profile", "balanced")
	v.SetDefault("ai.side", "p2")
	v.SetDefault("ai.debug", false)
	v.SetDefault("ai.decision_budget", ai.DecisionBudget)
	v.SetDefault("ai.selection_budget", ai.SelectionBudget)
	v.SetDefault("ai.max_retries", ai.MaxActionRetries)
	v.SetDefault("ai.max_actions_per_unit", ai.MaxActionsPerUnit)
	v.SetDefault("ai.pacing_scale", 1.0)
	v.SetDefault("ai.opening_book", "")

	// Self-play defaults
	v.SetDefault("selfplay.games", 1)
	v.SetDefault("selfplay.seed", 0)
	v.SetDefault("selfplay.turn_limit", 40)
	v.SetDefault("selfplay.obstacle_density", 0.5)
	v.SetDefault("selfplay.p1_difficulty", "normal")
	v.SetDefault("selfplay.p2_difficulty", "normal")
	v.SetDefault("selfplay.real_time", false)

	// Trace defaults
	v.SetDefault("trace.enabled", false)
	v.SetDefault("trace.directory", "traces")
	v.SetDefault("trace.buffer_capacity", 4096)
	v.SetDefault("trace.flush_interval", 5*time.Second)

	// Server defaults
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.grpc_server.host", "0.0.0.0")
	v.SetDefault("server.grpc_server.port", 50051)
	v.SetDefault("server.grpc_server.max_sessions", 100)
	v.SetDefault("server.grpc_server.session_idle_timeout", 30*time.Minute)
	v.SetDefault("server.grpc_server.enable_reflection", true)
	v.SetDefault("server.grpc_server.graceful_shutdown_delay", 5)
	v.SetDefault("server.spectator.enabled", false)
	v.SetDefault("server.spectator.address", ":8090")

	// UI defaults
	v.SetDefault("ui.window.width", 960)
	v.SetDefault("ui.window.height", 400)
	v.SetDefault("ui.window.title", "Tactics AI")
	v.SetDefault("ui.cell_size", 40)
	v.SetDefault("ui.show_threat_overlay", true)

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.interval", 10*time.Second)
	v.SetDefault("monitoring.goroutine_threshold", 500)
	v.SetDefault("monitoring.queue_threshold", 64)

	// Development defaults
	v.SetDefault("development.verbose_logging", false)
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	// Set defaults before loading any config
	setViperDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/tacticsai")
	}

	// Set environment variable prefix
	v.SetEnvPrefix("TAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// A specific file that does not exist is fine: defaults apply.
		if configPath == "" {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Unmarshal into config struct
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Validate configuration
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		// Initialize with defaults if not already initialized
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig loads environment-specific config overlay
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	envFile := fmt.Sprintf("config.%s.yaml", env)

	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error merging environment config %s: %w", envFile, err)
		}
	}

	// Re-unmarshal with merged config
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}

	return nil
}

// Set allows runtime config updates
func Set(key string, value interface{}) {
	v.Set(key, value)
	// Re-unmarshal to update struct
	_ = v.Unmarshal(cfg)
}

// GetString gets a string value from config
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt gets an int value from config
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool gets a bool value from config
func GetBool(key string) bool {
	return v.GetBool(key)
}

// GetFloat64 gets a float64 value from config
func GetFloat64(key string) float64 {
	return v.GetFloat64(key)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file. onChange only sees
// configurations that pass Validate; a bad edit keeps the previous values.
func WatchConfig(onChange func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		if err := v.Unmarshal(next); err != nil {
			return
		}
		if err := Validate(next); err != nil {
			return
		}
		cfg = next
		if onChange != nil {
			onChange(next)
		}
	})
	v.WatchConfig()
}

// AgentSettings converts the ai section into agent settings.
func (c AIConfig) AgentSettings() (agent.Settings, error) {
	d, err := ai.ParseDifficulty(c.Difficulty)
	if err != nil {
		return agent.Settings{}, err
	}
	p, err := ai.ParseProfile(c.Profile)
	if err != nil {
		return agent.Settings{}, err
	}
	s := agent.Settings{
		Difficulty:        d,
		Profile:           p,
		DecisionBudget:    c.DecisionBudget,
		SelectionBudget:   c.SelectionBudget,
		MaxRetries:        c.MaxRetries,
		MaxActionsPerUnit: c.MaxActionsPerUnit,
		PacingScale:       c.PacingScale,
		Debug:             c.Debug,
	}
	return s, s.Validate()
}

// SelfPlaySettings returns the settings of side in a self-play match: the ai
// section with that side's difficulty.
func (c *Config) SelfPlaySettings(side core.PlayerID) (agent.Settings, error) {
	aiCfg := c.AI
	aiCfg.Difficulty = c.SelfPlay.P1Difficulty
	if side == core.P2 {
		aiCfg.Difficulty = c.SelfPlay.P2Difficulty
	}
	return aiCfg.AgentSettings()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	// Validate the decision engine
	if _, err := ai.ParseDifficulty(c.AI.Difficulty); err != nil {
		return fmt.Errorf("ai.difficulty: %w", err)
	}
	if _, err := ai.ParseProfile(c.AI.Profile); err != nil {
		return fmt.Errorf("ai.profile: %w", err)
	}
	if _, err := core.ParsePlayerID(c.AI.Side); err != nil {
		return fmt.Errorf("ai.side: %w", err)
	}
	if c.AI.DecisionBudget <= 0 {
		return fmt.Errorf("ai.decision_budget must be positive")
	}
	if c.AI.SelectionBudget <= 0 || c.AI.SelectionBudget > c.AI.DecisionBudget {
		return fmt.Errorf("ai.selection_budget must be positive and within the decision budget")
	}
	if c.AI.MaxRetries <= 0 {
		return fmt.Errorf("ai.max_retries must be positive")
	}
	if c.AI.MaxActionsPerUnit <= 0 {
		return fmt.Errorf("ai.max_actions_per_unit must be positive")
	}
	if c.AI.PacingScale < 0 {
		return fmt.Errorf("ai.pacing_scale must be non-negative")
	}

	// Validate self-play
	if c.SelfPlay.Games <= 0 {
		return fmt.Errorf("selfplay.games must be positive")
	}
	if c.SelfPlay.TurnLimit <= 0 {
		return fmt.Errorf("selfplay.turn_limit must be positive")
	}
	if c.SelfPlay.ObstacleDensity < 0 || c.SelfPlay.ObstacleDensity > 1 {
		return fmt.Errorf("selfplay.obstacle_density must be between 0 and 1")
	}
	for _, d := range []string{c.SelfPlay.P1Difficulty, c.SelfPlay.P2Difficulty} {
		if _, err := ai.ParseDifficulty(d); err != nil {
			return fmt.Errorf("selfplay difficulty: %w", err)
		}
	}

	// Validate traces
	if c.Trace.Enabled && c.Trace.Directory == "" {
		return fmt.Errorf("trace.directory is required when traces are enabled")
	}
	if c.Trace.BufferCapacity <= 0 {
		return fmt.Errorf("trace.buffer_capacity must be positive")
	}
	if c.Trace.FlushInterval <= 0 {
		return fmt.Errorf("trace.flush_interval must be positive")
	}

	// Validate server configuration
	if c.Server.GRPCServer.Port <= 0 || c.Server.GRPCServer.Port > 65535 {
		return fmt.Errorf("server.grpc_server.port must be between 1 and 65535")
	}
	if c.Server.GRPCServer.MaxSessions <= 0 {
		return fmt.Errorf("server.grpc_server.max_sessions must be positive")
	}
	if c.Server.GRPCServer.SessionIdleTimeout <= 0 {
		return fmt.Errorf("server.grpc_server.session_idle_timeout must be positive")
	}
	if c.Server.GRPCServer.GracefulShutdownDelay < 0 {
		return fmt.Errorf("server.grpc_server.graceful_shutdown_delay must be non-negative")
	}
	if c.Server.Spectator.Enabled && c.Server.Spectator.Address == "" {
		return fmt.Errorf("server.spectator.address is required when the spectator feed is enabled")
	}

	// Validate UI configuration
	if c.UI.Window.Width <= 0 || c.UI.Window.Height <= 0 {
		return fmt.Errorf("ui.window dimensions must be positive")
	}
	if c.UI.CellSize <= 0 {
		return fmt.Errorf("ui.cell_size must be positive")
	}

	// Validate monitoring
	if c.Monitoring.Interval <= 0 {
		return fmt.Errorf("monitoring.interval must be positive")
	}
	if c.Monitoring.GoroutineThreshold <= 0 || c.Monitoring.QueueThreshold <= 0 {
		return fmt.Errorf("monitoring thresholds must be positive")
	}

	return nil
}
