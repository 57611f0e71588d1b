// Package config loads the immutable engine configuration. One Config value
// is built at startup and handed to every component; nothing reads globals.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Seed int64 `yaml:"seed"`

	ChunkWidth  int `yaml:"chunk_width"`
	ChunkHeight int `yaml:"chunk_height"`

	RenderDistance int `yaml:"render_distance"`
	RenderHeight   int `yaml:"render_height"`

	TickRateHz    int `yaml:"tick_rate_hz"`
	WorkerSleepMs int `yaml:"worker_sleep_ms"`

	SeaLevel int `yaml:"sea_level"`
}

// Default returns the reference configuration before overrides.
func Default() Config {
	return Config{
		Seed:           1337,
		ChunkWidth:     32,
		ChunkHeight:    256,
		RenderDistance: 6,
		RenderHeight:   0,
		TickRateHz:     60,
		WorkerSleepMs:  4,
		SeaLevel:       62,
	}
}

// Load reads engine.yaml from path over the defaults.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("engine.yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.ChunkWidth <= 0 || c.ChunkHeight <= 0 {
		return fmt.Errorf("engine.yaml: chunk dimensions %dx%d must be positive", c.ChunkWidth, c.ChunkHeight)
	}
	if c.RenderDistance < 0 || c.RenderHeight < 0 {
		return fmt.Errorf("engine.yaml: render distances may not be negative")
	}
	if c.TickRateHz <= 0 {
		return fmt.Errorf("engine.yaml: tick_rate_hz %d must be positive", c.TickRateHz)
	}
	if c.WorkerSleepMs <= 0 {
		return fmt.Errorf("engine.yaml: worker_sleep_ms %d must be positive", c.WorkerSleepMs)
	}
	if c.SeaLevel < 0 || c.SeaLevel >= c.ChunkHeight {
		return fmt.Errorf("engine.yaml: sea_level %d outside chunk height %d", c.SeaLevel, c.ChunkHeight)
	}
	return nil
}

func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRateHz)
}

func (c Config) WorkerSleep() time.Duration {
	return time.Duration(c.WorkerSleepMs) * time.Millisecond
}
