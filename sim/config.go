package sim

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every error Config.Validate returns.
var ErrInvalidConfig = eris.New("sim: invalid config")

// Config describes a world and how long to run it.
type Config struct {
	World     WorldConfig      `yaml:"world"`
	Wanderers []WandererConfig `yaml:"wanderers"`

	// Ticks is the number of ticks to run. Zero runs until interrupted.
	Ticks int `yaml:"ticks"`
	// Interval is the wall-clock time between ticks when running until
	// interrupted.
	Interval time.Duration `yaml:"interval"`

	Concurrent bool   `yaml:"concurrent"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
}

// WorldConfig holds the clock and bounds of the world entity.
type WorldConfig struct {
	MinX      float64 `yaml:"min_x"`
	MaxX      float64 `yaml:"max_x"`
	MinY      float64 `yaml:"min_y"`
	MaxY      float64 `yaml:"max_y"`
	Step      float64 `yaml:"step"`
	TimeScale float64 `yaml:"time_scale"`
	Running   bool    `yaml:"running"`
}

// WandererConfig holds the starting state of one wandering entity.
type WandererConfig struct {
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Speed     float64 `yaml:"speed"`
	Direction float64 `yaml:"direction"`
	TimeScale float64 `yaml:"time_scale"`
	Running   bool    `yaml:"running"`
}

// DefaultConfig returns a world spanning [-10, 10] on both axes with a single
// wanderer at the origin heading along the x axis at speed 1.
func DefaultConfig() Config {
	return Config{
		World: WorldConfig{
			MinX:      -10,
			MaxX:      10,
			MinY:      -10,
			MaxY:      10,
			Step:      1,
			TimeScale: 1,
			Running:   true,
		},
		Wanderers: []WandererConfig{DefaultWanderer()},
		Ticks:     10,
		Interval:  time.Second,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// DefaultWanderer returns a running wanderer at the origin with speed 1.
func DefaultWanderer() WandererConfig {
	return WandererConfig{Speed: 1, TimeScale: 1, Running: true}
}

// UnmarshalYAML fills the fields a document leaves out from DefaultWanderer.
func (w *WandererConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain WandererConfig
	p := plain(DefaultWanderer())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*w = WandererConfig(p)
	return nil
}

// ParseConfig decodes YAML on top of DefaultConfig. A wanderers list in data
// replaces the default wanderer.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, eris.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "read config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, eris.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	w := c.World
	switch {
	case w.MinX > w.MaxX:
		return eris.Wrapf(ErrInvalidConfig, "min_x %g exceeds max_x %g", w.MinX, w.MaxX)
	case w.MinY > w.MaxY:
		return eris.Wrapf(ErrInvalidConfig, "min_y %g exceeds max_y %g", w.MinY, w.MaxY)
	case w.Step < 0:
		return eris.Wrapf(ErrInvalidConfig, "negative step %g", w.Step)
	case c.Ticks < 0:
		return eris.Wrapf(ErrInvalidConfig, "negative ticks %d", c.Ticks)
	case c.Ticks == 0 && c.Interval <= 0:
		return eris.Wrap(ErrInvalidConfig, "running until interrupted requires a positive interval")
	}
	for i, wc := range c.Wanderers {
		if wc.Speed < 0 {
			return eris.Wrapf(ErrInvalidConfig, "wanderer %d: negative speed %g", i, wc.Speed)
		}
	}
	return nil
}
