package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// QuotaDefault describes the system default for one named quota.
type QuotaDefault struct {
	Type  string `mapstructure:"type"`
	Limit int64  `mapstructure:"limit"`
}

// QuotasConfig holds the default quota set seeded into new ledger entries.
type QuotasConfig struct {
	Defaults map[string]QuotaDefault `mapstructure:"defaults"`
}

const (
	QuotaTypeConsumable = "consumable"
	QuotaTypeFixed      = "fixed"
)

// DefaultQuotasConfig mirrors the product defaults: every account starts
// with zero-limit message and schedule credits until a plan grants more.
func DefaultQuotasConfig() QuotasConfig {
	return QuotasConfig{
		Defaults: map[string]QuotaDefault{
			"messages":  {Type: QuotaTypeConsumable, Limit: 0},
			"schedules": {Type: QuotaTypeConsumable, Limit: 0},
		},
	}
}

// QuotasConfigHolder serves the current quota defaults and hot-reloads them
// when the backing file changes.
type QuotasConfigHolder struct {
	current atomic.Value // holds QuotasConfig
}

func NewQuotasConfigHolder() (*QuotasConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("quotas")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/closeby/config")
	v.AddConfigPath("/etc/closeby")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CLOSEBY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultQuotasConfig()
		v.SetDefault("quotas.defaults", defaults.Defaults)
	}

	var cfg QuotasConfig
	if err := v.UnmarshalKey("quotas", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Defaults) == 0 {
		cfg = DefaultQuotasConfig()
	}
	if err := validateQuotasConfig(cfg); err != nil {
		return nil, err
	}

	holder := &QuotasConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated QuotasConfig
		if err := v.UnmarshalKey("quotas", &updated); err != nil {
			log.Printf("[quotas-config] reload failed: %v", err)
			return
		}
		if err := validateQuotasConfig(updated); err != nil {
			log.Printf("[quotas-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

// NewStaticQuotasConfigHolder wraps a fixed config, without file watching.
func NewStaticQuotasConfigHolder(cfg QuotasConfig) (*QuotasConfigHolder, error) {
	if err := validateQuotasConfig(cfg); err != nil {
		return nil, err
	}
	holder := &QuotasConfigHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

// Current returns the active quota defaults.
func (h *QuotasConfigHolder) Current() QuotasConfig {
	return h.current.Load().(QuotasConfig)
}

func validateQuotasConfig(cfg QuotasConfig) error {
	for name, def := range cfg.Defaults {
		if strings.TrimSpace(name) == "" {
			return errors.New("quota name must not be empty")
		}
		if def.Type != QuotaTypeConsumable && def.Type != QuotaTypeFixed {
			return errors.New("quota type must be consumable or fixed")
		}
		if def.Limit < 0 {
			return errors.New("quota limit must not be negative")
		}
	}
	return nil
}
