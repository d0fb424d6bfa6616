package config

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// LoyaltyConfig controls the reward cadence applied at checkout.
type LoyaltyConfig struct {
	RewardInterval  int `mapstructure:"rewardInterval" json:"rewardInterval"`
	DiscountPercent int `mapstructure:"discountPercent" json:"discountPercent"`
}

func DefaultLoyaltyConfig() LoyaltyConfig {
	return LoyaltyConfig{
		RewardInterval:  5,
		DiscountPercent: 10,
	}
}

type LoyaltyConfigHolder struct {
	current atomic.Value // holds LoyaltyConfig
}

func NewLoyaltyConfigHolder() (*LoyaltyConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("loyalty")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/cakeraft/config") // Volume-mounted config
	v.AddConfigPath("/etc/cakeraft")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("CAKERAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// if config file not found, use defaults
		defaults := DefaultLoyaltyConfig()
		v.SetDefault("loyalty.rewardInterval", defaults.RewardInterval)
		v.SetDefault("loyalty.discountPercent", defaults.DiscountPercent)
	}

	var cfg LoyaltyConfig
	if err := v.UnmarshalKey("loyalty", &cfg); err != nil {
		return nil, err
	}
	if err := validateLoyaltyConfig(cfg); err != nil {
		return nil, err
	}

	holder := &LoyaltyConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated LoyaltyConfig
		if err := v.UnmarshalKey("loyalty", &updated); err != nil {
			zap.L().Warn("loyalty config reload failed", zap.Error(err))
			return
		}
		if err := validateLoyaltyConfig(updated); err != nil {
			zap.L().Warn("loyalty config rejected, keeping last good", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("loyalty config reloaded",
			zap.String("file", e.Name),
			zap.Int("reward_interval", updated.RewardInterval),
			zap.Int("discount_percent", updated.DiscountPercent),
		)
	})

	return holder, nil
}

func (h *LoyaltyConfigHolder) Get() LoyaltyConfig {
	return h.current.Load().(LoyaltyConfig)
}

// NewStaticLoyaltyConfigHolder returns a holder pinned to cfg. Intended for tests.
func NewStaticLoyaltyConfigHolder(cfg LoyaltyConfig) *LoyaltyConfigHolder {
	holder := &LoyaltyConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateLoyaltyConfig(cfg LoyaltyConfig) error {
	if cfg.RewardInterval < 2 {
		return fmt.Errorf("loyalty.rewardInterval must be >= 2, got %d", cfg.RewardInterval)
	}
	if cfg.DiscountPercent < 1 || cfg.DiscountPercent > 100 {
		return fmt.Errorf("loyalty.discountPercent must be between 1 and 100, got %d", cfg.DiscountPercent)
	}
	return nil
}
