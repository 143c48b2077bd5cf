// Package config loads the peach-lcd daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/peachcloud/hd44780"
	"github.com/peachcloud/hd44780/glyph"
	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration. Zero values mean "use the default".
type Config struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Pins           Pins     `yaml:"pins"`
	Display        Display  `yaml:"display"`
	Timing         Timing   `yaml:"timing"`
	Glyphs         []Glyph  `yaml:"glyphs"`
}

// Pins are GPIO names as known to periph's gpioreg, e.g. "GPIO484".
type Pins struct {
	RS string `yaml:"rs"`
	E  string `yaml:"e"`
	D4 string `yaml:"d4"`
	D5 string `yaml:"d5"`
	D6 string `yaml:"d6"`
	D7 string `yaml:"d7"`
}

// Names returns the pin names in bus order: RS, E, D4, D5, D6, D7.
func (p Pins) Names() [6]string {
	return [6]string{p.RS, p.E, p.D4, p.D5, p.D6, p.D7}
}

// Display is the panel geometry and the mode applied after initialization.
type Display struct {
	Rows   int  `yaml:"rows"`
	Cols   int  `yaml:"cols"`
	Cursor bool `yaml:"cursor"`
	Blink  bool `yaml:"blink"`
}

// Timing overrides the driver waits. Unset fields keep the driver defaults.
type Timing struct {
	Enable  Duration `yaml:"enable"`
	Command Duration `yaml:"command"`
	Clear   Duration `yaml:"clear"`
}

// Glyph is a custom character given as eight rows of five cells.
type Glyph struct {
	Location int      `yaml:"location"`
	Rows     []string `yaml:"rows"`
}

// Duration is a time.Duration written as a Go duration string ("100us").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration of the PeachCloud board.
func Default() *Config {
	return &Config{
		Listen:         "127.0.0.1:3030",
		AllowedOrigins: []string{"null"},
		Pins: Pins{
			RS: "GPIO484",
			E:  "GPIO477",
			D4: "GPIO483",
			D5: "GPIO482",
			D6: "GPIO480",
			D7: "GPIO485",
		},
		Display: Display{Rows: 2, Cols: 16},
	}
}

// Parse reads YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("config: listen is empty"))
	}

	seen := map[string]string{}
	for i, name := range c.Pins.Names() {
		label := pinLabels[i]
		switch other, dup := seen[name]; {
		case name == "":
			errs = append(errs, fmt.Errorf("config: pin %s is not set", label))
		case dup:
			errs = append(errs, fmt.Errorf("config: pin %s uses %s, already used by %s", label, name, other))
		default:
			seen[name] = label
		}
	}

	if c.Display.Rows < 1 || c.Display.Rows > 4 {
		errs = append(errs, fmt.Errorf("config: display rows %d not in range 1-4", c.Display.Rows))
	}
	if c.Display.Cols < 1 || c.Display.Cols > 40 {
		errs = append(errs, fmt.Errorf("config: display cols %d not in range 1-40", c.Display.Cols))
	}

	timings := []struct {
		name string
		d    Duration
	}{
		{"enable", c.Timing.Enable},
		{"command", c.Timing.Command},
		{"clear", c.Timing.Clear},
	}
	for _, t := range timings {
		if t.d < 0 {
			errs = append(errs, fmt.Errorf("config: timing %s is negative", t.name))
		}
	}

	locs := map[int]bool{}
	for _, g := range c.Glyphs {
		if err := glyph.CheckLocation(g.Location); err != nil {
			errs = append(errs, fmt.Errorf("config: %w", err))
			continue
		}
		if locs[g.Location] {
			errs = append(errs, fmt.Errorf("config: glyph location %d defined twice", g.Location))
		}
		locs[g.Location] = true
		if _, err := glyph.Parse(g.Rows); err != nil {
			errs = append(errs, fmt.Errorf("config: glyph %d: %w", g.Location, err))
		}
	}
	return errors.Join(errs...)
}

var pinLabels = [6]string{"rs", "e", "d4", "d5", "d6", "d7"}

// DriverOpts converts the display, timing and glyph sections into driver
// options.
func (c *Config) DriverOpts() (*hd44780.Opts, error) {
	timing := hd44780.DefaultTiming
	if c.Timing.Enable > 0 {
		timing.Enable = time.Duration(c.Timing.Enable)
	}
	if c.Timing.Command > 0 {
		timing.Command = time.Duration(c.Timing.Command)
	}
	if c.Timing.Clear > 0 {
		timing.Clear = time.Duration(c.Timing.Clear)
	}

	opts := &hd44780.Opts{
		Rows: c.Display.Rows,
		Cols: c.Display.Cols,
		Mode: &hd44780.Mode{
			Display: true,
			Cursor:  c.Display.Cursor,
			Blink:   c.Display.Blink,
		},
		Timing: &timing,
	}
	for _, g := range c.Glyphs {
		if err := glyph.CheckLocation(g.Location); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		parsed, err := glyph.Parse(g.Rows)
		if err != nil {
			return nil, fmt.Errorf("config: glyph %d: %w", g.Location, err)
		}
		opts.Glyphs[g.Location] = parsed
	}
	return opts, nil
}
