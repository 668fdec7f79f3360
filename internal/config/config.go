package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"mafia/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Janitor JanitorConfig
	Chat    ChatConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port      string
	Host      string
	Env       string // "development" or "production"
	PublicURL string // base of invite links; derived from the request when empty
}

// GameConfig holds the rules applied to every new room
type GameConfig struct {
	MinPlayers         int
	MaxPlayers         int
	RoleRevealDelay    time.Duration
	NightDelay         time.Duration
	MultipleMafiaKills bool
}

// JanitorConfig controls the background sweep of idle rooms and players
type JanitorConfig struct {
	Interval    time.Duration
	RoomExpiry  time.Duration
	PlayerGrace time.Duration
}

// ChatConfig bounds chat traffic per player
type ChatConfig struct {
	RateCount  int
	RateWindow time.Duration
	MaxLength  int
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads an optional .env file, then builds the configuration from
// environment variables with defaults. Only an unreadable or malformed .env
// file is an error.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "8080"),
			Host:      getEnv("HOST", "0.0.0.0"),
			Env:       getEnv("ENV", "development"),
			PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
		},
		Game: GameConfig{
			MinPlayers:         getEnvInt("MIN_PLAYERS", 3),
			MaxPlayers:         getEnvInt("MAX_PLAYERS", 16),
			RoleRevealDelay:    time.Duration(getEnvInt("ROLE_REVEAL_SECONDS", 5)) * time.Second,
			NightDelay:         time.Duration(getEnvInt("NIGHT_DELAY_SECONDS", 3)) * time.Second,
			MultipleMafiaKills: getEnvBool("MULTIPLE_MAFIA_KILLS", true),
		},
		Janitor: JanitorConfig{
			Interval:    getEnvDuration("JANITOR_INTERVAL", 30*time.Second),
			RoomExpiry:  getEnvDuration("ROOM_EXPIRY", 5*time.Minute),
			PlayerGrace: getEnvDuration("PLAYER_GRACE", 2*time.Minute),
		},
		Chat: ChatConfig{
			RateCount:  getEnvInt("CHAT_RATE_COUNT", 5),
			RateWindow: getEnvDuration("CHAT_RATE_WINDOW", 10*time.Second),
			MaxLength:  getEnvInt("CHAT_MAX_LENGTH", 200),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}, nil
}

// loadDotEnv loads the given files into the environment, skipping missing ones
func loadDotEnv(filenames ...string) error {
	for _, filename := range filenames {
		err := godotenv.Load(filename)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("load %s: %w", filename, err)
	}
	return nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var err error

	if c.Server.Port == "" {
		err = multierr.Append(err, errors.New("PORT must not be empty"))
	}
	if c.Game.MinPlayers < 3 {
		err = multierr.Append(err, fmt.Errorf("MIN_PLAYERS must be at least 3, got %d", c.Game.MinPlayers))
	}
	if c.Game.MaxPlayers < c.Game.MinPlayers {
		err = multierr.Append(err, fmt.Errorf("MAX_PLAYERS (%d) must not be below MIN_PLAYERS (%d)", c.Game.MaxPlayers, c.Game.MinPlayers))
	}
	if c.Game.RoleRevealDelay < 0 || c.Game.NightDelay < 0 {
		err = multierr.Append(err, errors.New("phase delays must not be negative"))
	}
	if c.Janitor.Interval <= 0 {
		err = multierr.Append(err, errors.New("JANITOR_INTERVAL must be positive"))
	}
	if c.Janitor.RoomExpiry <= 0 || c.Janitor.PlayerGrace <= 0 {
		err = multierr.Append(err, errors.New("ROOM_EXPIRY and PLAYER_GRACE must be positive"))
	}
	if c.Chat.RateCount > 0 && c.Chat.RateWindow <= 0 {
		err = multierr.Append(err, errors.New("CHAT_RATE_WINDOW must be positive when rate limiting is enabled"))
	}
	if c.Chat.MaxLength <= 0 {
		err = multierr.Append(err, errors.New("CHAT_MAX_LENGTH must be positive"))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		err = multierr.Append(err, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logging.Format))
	}

	return err
}

// Rules converts the game configuration into per-room settings
func (c *Config) Rules() domain.GameSettings {
	return domain.GameSettings{
		MinPlayers:         c.Game.MinPlayers,
		MaxPlayers:         c.Game.MaxPlayers,
		RoleRevealDelay:    c.Game.RoleRevealDelay,
		NightDelay:         c.Game.NightDelay,
		MultipleMafiaKills: c.Game.MultipleMafiaKills,
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns an environment variable as a boolean or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s", "5m") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
