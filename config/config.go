package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"
)

// TokenEnv overrides discord.token when set.
const TokenEnv = "DISCORD_TOKEN"

var ErrMissingToken = errors.New("discord token not set (config discord.token or " + TokenEnv + ")")

type Config struct {
	Discord    DiscordConfig    `json:"discord"`
	Storage    StorageConfig    `json:"storage"`
	Tickets    TicketsConfig    `json:"tickets"`
	Moderation ModerationConfig `json:"moderation"`
	Events     EventsConfig     `json:"events"`
	Status     StatusConfig     `json:"status"`
	Log        LogConfig        `json:"log"`
	LangFile   string           `json:"lang_file"`
}

type DiscordConfig struct {
	Token  string `json:"token"`
	Prefix string `json:"prefix"`
}

type StorageConfig struct {
	Driver   string         `json:"driver"`
	File     FileConfig     `json:"file"`
	SQLite   SQLiteConfig   `json:"sqlite"`
	MongoDB  MongoDBConfig  `json:"mongodb"`
	Redis    RedisConfig    `json:"redis"`
	Postgres PostgresConfig `json:"postgres"`
}

type FileConfig struct {
	Path string `json:"path"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type MongoDBConfig struct {
	URI        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Key      string `json:"key"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type TicketsConfig struct {
	ChannelPrefix     string `json:"channel_prefix"`
	CloseDelaySeconds int    `json:"close_delay_seconds"`
	StaffRole         string `json:"staff_role"`
	Category          string `json:"category"`
}

type ModerationConfig struct {
	ConfirmationTTLSeconds int    `json:"confirmation_ttl_seconds"`
	LogChannel             string `json:"log_channel"`
}

type EventsConfig struct {
	AMQPURL  string `json:"amqp_url"`
	Exchange string `json:"exchange"`
}

type StatusConfig struct {
	Addr string `json:"addr"`
}

type LogConfig struct {
	Level    string `json:"level"`
	Encoding string `json:"encoding"`
}

// CloseDelay is how long a ticket stays in the Closing state.
func (t TicketsConfig) CloseDelay() time.Duration {
	return time.Duration(t.CloseDelaySeconds) * time.Second
}

// ConfirmationTTL is how long a !clear confirmation stays visible.
func (m ModerationConfig) ConfirmationTTL() time.Duration {
	return time.Duration(m.ConfirmationTTLSeconds) * time.Second
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads path (JSON with comments allowed), applies defaults and the
// environment override for the token. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := json.Unmarshal(std, &cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if tok := os.Getenv(TokenEnv); tok != "" {
		cfg.Discord.Token = tok
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Validate reports configuration that makes startup impossible.
func (c *Config) Validate() error {
	if c.Discord.Token == "" || c.Discord.Token == "YOUR_DISCORD_BOT_TOKEN_HERE" {
		return ErrMissingToken
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Discord.Prefix == "" {
		cfg.Discord.Prefix = "!"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if cfg.Storage.File.Path == "" {
		cfg.Storage.File.Path = "joinrole.json"
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/bot.db"
	}
	if cfg.Storage.MongoDB.Database == "" {
		cfg.Storage.MongoDB.Database = "support_bot"
	}
	if cfg.Storage.MongoDB.Collection == "" {
		cfg.Storage.MongoDB.Collection = "settings"
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Storage.Redis.Key == "" {
		cfg.Storage.Redis.Key = "support-bot:joinrole"
	}
	if cfg.Tickets.ChannelPrefix == "" {
		cfg.Tickets.ChannelPrefix = "ticket-"
	}
	if cfg.Tickets.CloseDelaySeconds <= 0 {
		cfg.Tickets.CloseDelaySeconds = 5
	}
	if cfg.Moderation.ConfirmationTTLSeconds <= 0 {
		cfg.Moderation.ConfirmationTTLSeconds = 3
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "support-bot.events"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Encoding == "" {
		cfg.Log.Encoding = "console"
	}
}
