// Package config loads the kernel configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"cbos/hal"
	"cbos/services/logger"
	"cbos/task"
)

type Kernel struct {
	// TickHz is the timer interrupt rate.
	TickHz int `toml:"tick_hz"`
	// ReadyQueue is the ready queue capacity, a power of two.
	ReadyQueue int `toml:"ready_queue"`
}

type Log struct {
	Level string `toml:"level"`
}

type Shell struct {
	Prompt  string `toml:"prompt"`
	MaxLine int    `toml:"max_line"`
}

type StatusLine struct {
	Name    string `toml:"name"`
	Enabled bool   `toml:"enabled"`
}

type Host struct {
	Scale   int `toml:"scale"`
	FrameHz int `toml:"frame_hz"`
}

type Config struct {
	Kernel     Kernel     `toml:"kernel"`
	Log        Log        `toml:"log"`
	Shell      Shell      `toml:"shell"`
	StatusLine StatusLine `toml:"statusline"`
	Host       Host       `toml:"host"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Kernel:     Kernel{TickHz: hal.DefaultPITHz, ReadyQueue: task.MaxQueuedTasks},
		Log:        Log{Level: "info"},
		Shell:      Shell{Prompt: "> ", MaxLine: 80},
		StatusLine: StatusLine{Name: "cbos ", Enabled: true},
		Host:       Host{Scale: 2, FrameHz: 60},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("shell", "prompt") && cfg.Shell.Prompt == "" {
		return Config{}, fmt.Errorf("config: %s: shell.prompt must not be empty", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Kernel.TickHz < hal.MinPITHz || c.Kernel.TickHz > hal.MaxPITHz {
		errs = append(errs, fmt.Errorf("kernel.tick_hz %d out of range %d..%d", c.Kernel.TickHz, hal.MinPITHz, hal.MaxPITHz))
	}
	if n, err := safecast.Conv[uint32](c.Kernel.ReadyQueue); err != nil || n < 2 || bits.OnesCount32(n) != 1 {
		errs = append(errs, fmt.Errorf("kernel.ready_queue %d is not a power of two >= 2", c.Kernel.ReadyQueue))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Shell.MaxLine < 1 {
		errs = append(errs, fmt.Errorf("shell.max_line %d must be positive", c.Shell.MaxLine))
	}
	if c.Host.Scale < 1 {
		errs = append(errs, fmt.Errorf("host.scale %d must be positive", c.Host.Scale))
	}
	if c.Host.FrameHz < 1 || c.Host.FrameHz > 1000 {
		errs = append(errs, fmt.Errorf("host.frame_hz %d out of range 1..1000", c.Host.FrameHz))
	}
	return errors.Join(errs...)
}
