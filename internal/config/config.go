// Package config loads the optional TOML configuration file. Every field has
// a default, so running without a file works.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/grieferpig/zippify/internal/params"
)

// Audio contains device and stream configuration.
type Audio struct {
	InputDevice  string  `toml:"input_device"`
	OutputDevice string  `toml:"output_device"`
	SampleRate   float64 `toml:"sample_rate"` // 0 = device default
	BlockSize    int     `toml:"block_size"`
}

// Editor controls the SDL editor window.
type Editor struct {
	Enabled bool `toml:"enabled"`
}

// Web controls the remote automation/status server.
type Web struct {
	Port int `toml:"port"` // 0 disables the server
}

// Params holds the startup parameter values in natural units. They are
// applied through the same normalized setters host automation uses; this is
// not preset persistence.
type Params struct {
	ClampThresholdDB float64 `toml:"clamp_threshold_db"`
	LosePrecision    bool    `toml:"lose_precision"`
	Mix              float64 `toml:"mix"`
	GainDB           float64 `toml:"gain_db"`
}

// Config is the full configuration tree.
type Config struct {
	Audio  Audio  `toml:"audio"`
	Editor Editor `toml:"editor"`
	Web    Web    `toml:"web"`
	Params Params `toml:"params"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Audio: Audio{
			BlockSize: 512,
		},
		Editor: Editor{
			Enabled: true,
		},
		Params: Params{
			ClampThresholdDB: -12,
			LosePrecision:    true,
			Mix:              1,
			GainDB:           0,
		},
	}
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges. The editor slider enforces the same limits
// interactively.
func (c Config) Validate() error {
	if c.Audio.BlockSize < 0 {
		return fmt.Errorf("audio.block_size must not be negative (got %d)", c.Audio.BlockSize)
	}
	if c.Audio.SampleRate < 0 {
		return fmt.Errorf("audio.sample_rate must not be negative (got %g)", c.Audio.SampleRate)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port out of range (got %d)", c.Web.Port)
	}
	if c.Params.ClampThresholdDB > 0 || c.Params.ClampThresholdDB < -40 {
		return fmt.Errorf("params.clamp_threshold_db must be in [-40, 0] (got %g)", c.Params.ClampThresholdDB)
	}
	if c.Params.Mix < 0 || c.Params.Mix > 1 {
		return fmt.Errorf("params.mix must be in [0, 1] (got %g)", c.Params.Mix)
	}
	if c.Params.GainDB < 0 || c.Params.GainDB > 24.5 {
		return fmt.Errorf("params.gain_db must be in [0, 24.5] (got %g)", c.Params.GainDB)
	}
	return nil
}

// Apply pushes the startup values through the normalized host-facing setters,
// so configuration is indistinguishable from any other automation source.
func (p Params) Apply(store *params.Store) {
	store.Set(params.ParamClampThreshold, params.ToLinear(float32(p.ClampThresholdDB)))
	if p.LosePrecision {
		store.Set(params.ParamLosePrecision, 1)
	} else {
		store.Set(params.ParamLosePrecision, 0)
	}
	store.Set(params.ParamMix, float32(p.Mix))
	store.Set(params.ParamGain, params.NormalizeGain(params.ToLinear(float32(p.GainDB))))
}
