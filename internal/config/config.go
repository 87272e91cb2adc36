package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration errors; effects wrap it too.
var ErrInvalid = errors.New("invalid configuration")

type Mode string

const (
	Pattern Mode = "pattern"
	Fire    Mode = "fire"
)

// LedRange binds a walk of LED indices to consecutive pattern slots.
// LedStart > LedEnd walks downwards. Both ends are inclusive.
type LedRange struct {
	Index        int `yaml:"index"`
	LedStart     int `yaml:"led_start"`
	LedEnd       int `yaml:"led_end"`
	PatternStart int `yaml:"pattern_start"` // kept for config compatibility; mapping always starts at slot 0
}

type FireCfg struct {
	Cooling     int  `yaml:"cooling"`      // rate at which cells cool off
	Sparks      int  `yaml:"sparks"`       // ignition attempts per frame
	SparkHeight int  `yaml:"spark_height"` // max distance from the bottom for a new spark
	Sparking    int  `yaml:"sparking"`     // ignition chance, out of 255
	Reversed    bool `yaml:"reversed"`     // draw from the far end inwards
	Mirrored    bool `yaml:"mirrored"`     // split the strip and duplicate the drawing
	Horizontal  bool `yaml:"horizontal"`   // symmetric diffusion kernel
}

type SPI struct {
	Buses   []string `yaml:"buses"`    // e.g. SPI0.0, SPI5.0
	SpeedHz int      `yaml:"speed_hz"` // e.g. 2400000
}

type LimiterCfg struct {
	WhiteCap  float64 `yaml:"white_cap"`   // max R+G+B per LED in 0..3, 0 disables
	LEDChanMA float64 `yaml:"led_chan_ma"` // mA per channel at full scale
	BudgetMA  float64 `yaml:"budget_ma"`   // global budget, 0 disables
}

type Output struct {
	Driver       string     `yaml:"driver"` // spi | screen | term | none, comma separated
	SPI          SPI        `yaml:"spi,omitempty"`
	HeartbeatPin string     `yaml:"heartbeat_pin,omitempty"`
	PreviewAddr  string     `yaml:"preview_addr,omitempty"`
	Limiter      LimiterCfg `yaml:"limiter,omitempty"`
}

type Sensor struct {
	LightPin   string `yaml:"light_pin,omitempty"`
	IntervalMs int    `yaml:"interval_ms,omitempty"`
}

type Config struct {
	LedCount     int     `yaml:"led_count"`
	Mode         Mode    `yaml:"mode"`
	TargetFPS    float64 `yaml:"target_fps"`
	FrameDelayMs int     `yaml:"frame_delay_ms"`
	Seed         uint64  `yaml:"seed"`

	PatternOffsetPerFrame int        `yaml:"pattern_offset_per_frame"`
	PatternToRepeat       []string   `yaml:"pattern_to_repeat"`
	LedDefinitions        []LedRange `yaml:"led_definitions"`

	Fire FireCfg `yaml:"fire"`

	Output Output `yaml:"output"`
	Sensor Sensor `yaml:"sensor,omitempty"`
}

// Default is a 150 LED fps-paced pattern run printing to the console.
func Default() *Config {
	return &Config{
		LedCount:              150,
		Mode:                  Pattern,
		TargetFPS:             30,
		PatternOffsetPerFrame: 1,
		PatternToRepeat:       []string{"FFFF0000", "FF00FF00", "FF0000FF"},
		LedDefinitions:        []LedRange{{Index: 0, LedStart: 0, LedEnd: 149}},
		Fire: FireCfg{
			Cooling:     55,
			Sparks:      3,
			SparkHeight: 4,
			Sparking:    120,
		},
		Output: Output{
			Driver:  "screen",
			SPI:     SPI{Buses: []string{"SPI0.0"}, SpeedHz: 2400000},
			Limiter: LimiterCfg{LEDChanMA: 20},
		},
		Sensor: Sensor{IntervalMs: 250},
	}
}

// FixedDelay reports whether pacing uses frame_delay_ms instead of target_fps.
func (c *Config) FixedDelay() bool {
	return c.FrameDelayMs > 0
}

// Interval is the time budget of one frame.
func (c *Config) Interval() time.Duration {
	if c.FixedDelay() {
		return time.Duration(c.FrameDelayMs) * time.Millisecond
	}
	if c.TargetFPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.TargetFPS)
}

// EffectiveFPS is the rate the interval aims for, 0 when unpaced.
func (c *Config) EffectiveFPS() float64 {
	iv := c.Interval()
	if iv <= 0 {
		return 0
	}
	return float64(time.Second) / float64(iv)
}

// Validate checks the fields shared by every mode. Pattern specific
// requirements are checked when the pattern effect is built.
func (c *Config) Validate() error {
	var errs []error
	if c.LedCount < 0 {
		errs = append(errs, fmt.Errorf("led_count %d < 0", c.LedCount))
	}
	switch c.Mode {
	case Pattern, Fire:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.FrameDelayMs < 0 {
		errs = append(errs, fmt.Errorf("frame_delay_ms %d < 0", c.FrameDelayMs))
	}
	if !c.FixedDelay() && c.TargetFPS <= 0 {
		errs = append(errs, fmt.Errorf("target_fps must be > 0, got %v", c.TargetFPS))
	}
	f := c.Fire
	if f.Cooling < 0 || f.Sparks < 0 || f.SparkHeight < 0 {
		errs = append(errs, errors.New("fire cooling, sparks and spark_height must be >= 0"))
	}
	if f.Sparking < 0 || f.Sparking > 255 {
		errs = append(errs, fmt.Errorf("fire sparking %d outside 0..255", f.Sparking))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Clone returns a deep copy, so a snapshot handed to a run cannot change under it.
func (c *Config) Clone() *Config {
	cc := *c
	cc.PatternToRepeat = append([]string(nil), c.PatternToRepeat...)
	cc.LedDefinitions = append([]LedRange(nil), c.LedDefinitions...)
	cc.Output.SPI.Buses = append([]string(nil), c.Output.SPI.Buses...)
	return &cc
}

// Load reads path on top of Default().
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	c := Default()
	// lists replace the defaults rather than merging into them
	c.PatternToRepeat = nil
	c.LedDefinitions = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
