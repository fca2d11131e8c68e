// Package daemon loads the engine configuration from TOML.
// The file lives at ~/.inkwell/config.toml; every field has a default so a
// missing file is not an error.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/inkwell-network/inkwell/internal/app/lifecycle"
	"github.com/inkwell-network/inkwell/internal/app/promo"
	"github.com/inkwell-network/inkwell/internal/app/reading"
	"github.com/inkwell-network/inkwell/internal/app/reward"
	"github.com/inkwell-network/inkwell/internal/domain"
)

// Config is the daemon configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Economy EconomyConfig `toml:"economy"`
	Log     LogConfig     `toml:"log"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// StorageConfig controls the data directory.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// EconomyConfig holds the fee and reward schedule. Amounts are fixed-point
// decimal strings so the file never carries floats.
type EconomyConfig struct {
	PublishFee          string `toml:"publish_fee"`
	RejectRefund        string `toml:"reject_refund"`
	RewardAmount        string `toml:"reward_amount"`
	RewardPoints        int64  `toml:"reward_points"`
	ReferralBonus       string `toml:"referral_bonus"`
	PromotionFee        string `toml:"promotion_fee"`
	MinReadSeconds      int64  `toml:"min_read_seconds"`
	MaxHeartbeatSeconds int64  `toml:"max_heartbeat_seconds"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // console, json
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8954,
			Metrics: true,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Economy: EconomyConfig{
			PublishFee:          "150.00",
			RejectRefund:        "75.00",
			RewardAmount:        "10.00",
			RewardPoints:        10,
			ReferralBonus:       "200.00",
			PromotionFee:        "500.00",
			MinReadSeconds:      30,
			MaxHeartbeatSeconds: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".inkwell", "config.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".inkwell"
	}
	return filepath.Join(home, ".inkwell")
}

// ─── Service Config Derivation ──────────────────────────────────────────────

// LifecycleConfig parses the fee schedule for the lifecycle controller.
func (c Config) LifecycleConfig() (lifecycle.Config, error) {
	fee, err := domain.ParseMoney(c.Economy.PublishFee)
	if err != nil {
		return lifecycle.Config{}, fmt.Errorf("publish_fee: %w", err)
	}
	refund, err := domain.ParseMoney(c.Economy.RejectRefund)
	if err != nil {
		return lifecycle.Config{}, fmt.Errorf("reject_refund: %w", err)
	}
	return lifecycle.Config{PublishFee: fee, RejectRefund: refund}, nil
}

// ReadingConfig derives the tracker thresholds.
func (c Config) ReadingConfig() reading.Config {
	cfg := reading.DefaultConfig()
	if c.Economy.MinReadSeconds > 0 {
		cfg.MinReadSeconds = c.Economy.MinReadSeconds
	}
	if c.Economy.MaxHeartbeatSeconds > 0 {
		cfg.MaxHeartbeatSeconds = c.Economy.MaxHeartbeatSeconds
	}
	return cfg
}

// RewardConfig parses the payout schedule.
func (c Config) RewardConfig() (reward.Config, error) {
	amount, err := domain.ParseMoney(c.Economy.RewardAmount)
	if err != nil {
		return reward.Config{}, fmt.Errorf("reward_amount: %w", err)
	}
	return reward.Config{Amount: amount, Points: c.Economy.RewardPoints}, nil
}

// PromoConfig parses the issuer amounts.
func (c Config) PromoConfig() (promo.Config, error) {
	referral, err := domain.ParseMoney(c.Economy.ReferralBonus)
	if err != nil {
		return promo.Config{}, fmt.Errorf("referral_bonus: %w", err)
	}
	promotionFee, err := domain.ParseMoney(c.Economy.PromotionFee)
	if err != nil {
		return promo.Config{}, fmt.Errorf("promotion_fee: %w", err)
	}
	return promo.Config{ReferralBonus: referral, PromotionFee: promotionFee}, nil
}
