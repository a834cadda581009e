// Package config loads the powctld daemon configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/micro-nova/powctl-go/internal/powctl"
)

// Config is the daemon configuration. Nothing in it describes charger
// parameters: those are re-derived from hardware at every start.
type Config struct {
	// EventHandler builds the charger device with an interrupt-backed event.
	EventHandler bool           `yaml:"event_handler"`
	Retry        RetryConfig    `yaml:"retry"`
	Bus          BusConfig      `yaml:"bus"`
	GPIO         GPIOConfig     `yaml:"gpio"`
	Watchdog     WatchdogConfig `yaml:"watchdog"`
	HTTP         HTTPConfig     `yaml:"http"`
	Auth         AuthConfig     `yaml:"auth"`
	Zeroconf     ZeroconfConfig `yaml:"zeroconf"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Interval    time.Duration `yaml:"interval"`
}

type BusConfig struct {
	// MaxOpsPerSec paces charger bus transactions; 0 disables pacing.
	MaxOpsPerSec int `yaml:"max_ops_per_sec"`
}

// GPIOConfig names the host pins (periph.io names) behind each pad.
type GPIOConfig struct {
	ChargeEnablePin string `yaml:"charge_enable_pin"`
	InterruptPin    string `yaml:"interrupt_pin"`
}

type WatchdogConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	// KeysFile lists the API keys allowed to change charger settings. Empty
	// leaves the API open.
	KeysFile string `yaml:"keys_file"`
}

type ZeroconfConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		EventHandler: true,
		Retry: RetryConfig{
			MaxAttempts: powctl.DefaultMaxAttempts,
			Interval:    powctl.DefaultRetryInterval,
		},
		Bus: BusConfig{MaxOpsPerSec: 500},
		GPIO: GPIOConfig{
			ChargeEnablePin: "GPIO17",
			InterruptPin:    "GPIO27",
		},
		Watchdog: WatchdogConfig{Enabled: true, Timeout: 40 * time.Second},
		HTTP:     HTTPConfig{Addr: ":8080"},
		Zeroconf: ZeroconfConfig{Enabled: true, Name: "powctl"},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("config: no config file, using defaults", "path", path)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Retry.MaxAttempts < 1:
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	case c.Retry.Interval < 0:
		return fmt.Errorf("retry.interval must not be negative, got %s", c.Retry.Interval)
	case c.Bus.MaxOpsPerSec < 0:
		return fmt.Errorf("bus.max_ops_per_sec must not be negative, got %d", c.Bus.MaxOpsPerSec)
	case c.GPIO.ChargeEnablePin == "":
		return errors.New("gpio.charge_enable_pin is required")
	case c.EventHandler && c.GPIO.InterruptPin == "":
		return errors.New("gpio.interrupt_pin is required with event_handler")
	case c.Watchdog.Timeout < 0:
		return fmt.Errorf("watchdog.timeout must not be negative, got %s", c.Watchdog.Timeout)
	case c.Watchdog.Enabled && c.Watchdog.Timeout < time.Second:
		return fmt.Errorf("watchdog.timeout must be at least 1s when enabled, got %s", c.Watchdog.Timeout)
	case c.HTTP.Addr == "":
		return errors.New("http.addr is required")
	case c.Zeroconf.Enabled && c.Zeroconf.Name == "":
		return errors.New("zeroconf.name is required when zeroconf is enabled")
	}
	return nil
}

// RetryPolicy converts the retry section for the driver.
func (c Config) RetryPolicy() powctl.RetryPolicy {
	return powctl.RetryPolicy{MaxAttempts: c.Retry.MaxAttempts, Interval: c.Retry.Interval}
}
