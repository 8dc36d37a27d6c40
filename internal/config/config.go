// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every knob the table simulator understands. Values come
// from HOLDEM_-prefixed environment variables with sane defaults for a
// local run.
type Config struct {
	TableID        string        `env:"TABLE_ID"`
	MaxSeats       int           `env:"MAX_SEATS" envDefault:"9"`
	SmallBlind     int64         `env:"SMALL_BLIND" envDefault:"10"`
	BigBlind       int64         `env:"BIG_BLIND" envDefault:"20"`
	TimeBank       time.Duration `env:"TIME_BANK" envDefault:"30s"`
	AutoStartDelay time.Duration `env:"AUTO_START_DELAY" envDefault:"1s"`

	DBPath   string `env:"DB_PATH" envDefault:"holdem.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Simulator settings.
	SimSeats int   `env:"SIM_SEATS" envDefault:"3"`
	SimBuyIn int64 `env:"SIM_BUYIN" envDefault:"1000"`
	SimHands int   `env:"SIM_HANDS" envDefault:"10"`
	SimSeed  int64 `env:"SIM_SEED"` // 0 seeds the deck from the clock
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "HOLDEM_"}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.SmallBlind <= 0 || c.BigBlind <= 0 {
		return fmt.Errorf("blinds must be positive, got %d/%d", c.SmallBlind, c.BigBlind)
	}
	if c.SmallBlind > c.BigBlind {
		return fmt.Errorf("small blind %d exceeds big blind %d", c.SmallBlind, c.BigBlind)
	}
	if c.MaxSeats < 2 {
		return fmt.Errorf("max seats must be at least 2, got %d", c.MaxSeats)
	}
	if c.SimSeats < 2 || c.SimSeats > c.MaxSeats {
		return fmt.Errorf("sim seats %d out of range [2, %d]", c.SimSeats, c.MaxSeats)
	}
	if c.SimBuyIn < c.BigBlind {
		return fmt.Errorf("sim buy-in %d below big blind %d", c.SimBuyIn, c.BigBlind)
	}
	return nil
}
