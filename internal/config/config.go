package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	RiotAPIKey     string `envconfig:"RIOT_API_KEY" required:"true"`
	AccountBaseURL string `envconfig:"RIOT_ACCOUNT_BASE_URL" default:"https://asia.api.riotgames.com/riot/account/v1/accounts/by-riot-id"`
	LeagueBaseURL  string `envconfig:"RIOT_TFT_LEAGUE_BASE_URL" default:"https://kr.api.riotgames.com/tft/league/v1/by-puuid"`
	MatchBaseURL   string `envconfig:"RIOT_TFT_MATCH_BASE_URL" default:"https://asia.api.riotgames.com/tft/match/v1"`
	DBPath         string `envconfig:"DB_PATH" default:"roster.db"`
	ServerPort     string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	AdminToken     string `envconfig:"ADMIN_TOKEN"`
	Sync           SyncConfig
}

// SyncConfig holds the tunables of the member synchronization pipeline.
type SyncConfig struct {
	MaxAttempts      int           `envconfig:"SYNC_MAX_ATTEMPTS" default:"5"`
	BackoffBase      time.Duration `envconfig:"SYNC_BACKOFF_BASE" default:"1s"`
	BackoffMax       time.Duration `envconfig:"SYNC_BACKOFF_MAX" default:"16s"`
	BackoffJitter    time.Duration `envconfig:"SYNC_BACKOFF_JITTER" default:"300ms"`
	ThrottleFallback time.Duration `envconfig:"SYNC_THROTTLE_FALLBACK" default:"30s"`

	ManualCooldown time.Duration `envconfig:"SYNC_MANUAL_COOLDOWN" default:"10m"`
	BatchCooldown  time.Duration `envconfig:"SYNC_BATCH_COOLDOWN" default:"5m"`

	MatchCount  int           `envconfig:"SYNC_MATCH_COUNT" default:"5"`
	MatchDelay  time.Duration `envconfig:"SYNC_MATCH_DELAY" default:"1200ms"`
	MemberDelay time.Duration `envconfig:"SYNC_MEMBER_DELAY" default:"1500ms"`

	BatchSize        int           `envconfig:"SYNC_BATCH_SIZE" default:"20"`
	StaleAfter       time.Duration `envconfig:"SYNC_STALE_AFTER" default:"1h"`
	RunningTimeout   time.Duration `envconfig:"SYNC_RUNNING_TIMEOUT" default:"15m"`
	ScheduleInterval time.Duration `envconfig:"SYNC_SCHEDULE_INTERVAL" default:"0s"`

	SuccessLogRetention time.Duration `envconfig:"SYNC_LOG_SUCCESS_RETENTION" default:"168h"`
	FailureLogRetention time.Duration `envconfig:"SYNC_LOG_FAILURE_RETENTION" default:"720h"`

	PrimaryQueue   string `envconfig:"SYNC_PRIMARY_QUEUE" default:"RANKED_TFT"`
	SecondaryQueue string `envconfig:"SYNC_SECONDARY_QUEUE" default:"RANKED_TFT_DOUBLE_UP"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("max_attempts", cfg.Sync.MaxAttempts).
		Dur("stale_after", cfg.Sync.StaleAfter).
		Dur("schedule_interval", cfg.Sync.ScheduleInterval).
		Bool("admin_token_set", cfg.AdminToken != "").
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RiotAPIKey == "" {
		return fmt.Errorf("RIOT_API_KEY is required")
	}
	s := c.Sync
	if s.MaxAttempts < 1 {
		return fmt.Errorf("SYNC_MAX_ATTEMPTS must be at least 1, got %d", s.MaxAttempts)
	}
	if s.BackoffBase <= 0 || s.BackoffMax < s.BackoffBase {
		return fmt.Errorf("invalid backoff window: base=%s max=%s", s.BackoffBase, s.BackoffMax)
	}
	if s.MatchCount < 0 {
		return fmt.Errorf("SYNC_MATCH_COUNT must not be negative, got %d", s.MatchCount)
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be at least 1, got %d", s.BatchSize)
	}
	if s.PrimaryQueue == "" || s.SecondaryQueue == "" || s.PrimaryQueue == s.SecondaryQueue {
		return fmt.Errorf("queue variants must be two distinct non-empty values")
	}
	return nil
}

var Module = fx.Provide(Load)
