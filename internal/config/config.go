package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "OUSTAD"

type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Telegram TelegramConfig `mapstructure:"telegram" validate:"-"`
	Store    StoreConfig    `mapstructure:"store"`
}

type BotConfig struct {
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogPretty bool   `mapstructure:"log_pretty"`
	Prefix    string `mapstructure:"prefix" validate:"required"`
	Community string `mapstructure:"community" validate:"required"`
	// Timezone is an IANA name. Empty means the host's local time.
	Timezone string `mapstructure:"timezone"`
	// AdminIDs may stop the bot with the kill command.
	AdminIDs []string `mapstructure:"admin_ids"`
}

// TelegramConfig is only needed to serve, so it is checked by RequireTelegram.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" validate:"required"`
	ChatID   int64  `mapstructure:"chat_id" validate:"required"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

var validate = validator.New()

// Load reads the TOML file at path, or config.toml from the working
// directory when path is empty. OUSTAD_ environment variables override the
// file, e.g. OUSTAD_TELEGRAM_BOT_TOKEN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetDefault("bot.log_level", "info")
	v.SetDefault("bot.log_pretty", false)
	v.SetDefault("bot.prefix", "!")
	v.SetDefault("bot.community", "")
	v.SetDefault("bot.timezone", "")
	v.SetDefault("bot.admin_ids", []string{})
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if strings.ContainsAny(c.Bot.Prefix, " \t\n") {
		return fmt.Errorf("command prefix %q must not contain whitespace", c.Bot.Prefix)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// RequireTelegram checks the settings needed to connect to Telegram.
func (c *Config) RequireTelegram() error {
	if err := validate.Struct(&c.Telegram); err != nil {
		return fmt.Errorf("telegram config validation failed: %w", err)
	}
	return nil
}

// Location is the time zone in which a day starts and ends.
func (c *Config) Location() (*time.Location, error) {
	if c.Bot.Timezone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Bot.Timezone, err)
	}
	return loc, nil
}
