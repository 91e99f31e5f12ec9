package timecontrol

import (
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Field is a raw preference value as typed by a user. Empty or malformed
// numbers read as 0 so the engine never sees a rejected setting.
type Field string

// UnmarshalYAML accepts any scalar and keeps its literal text.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*f = ""
		return nil
	}
	*f = Field(node.Value)
	return nil
}

// Int returns the value as a non-negative integer, or 0.
func (f Field) Int() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Bool returns the value as a boolean; anything unparsable is false.
func (f Field) Bool() bool {
	b, err := strconv.ParseBool(strings.TrimSpace(string(f)))
	return err == nil && b
}

const (
	ModeBasic      = "basic"
	ModeTournament = "tournament"
)

// Prefs mirrors the settings screen: every option is a free-form string.
type Prefs struct {
	Mode          string `yaml:"mode"`
	Minutes       Field  `yaml:"minutes"`
	Seconds       Field  `yaml:"seconds"`
	Increment     Field  `yaml:"increment"`
	Delay         string `yaml:"delay"`
	AllowNegative Field  `yaml:"allow_negative"`

	Phase1Moves   Field `yaml:"phase1_moves"`
	Phase1Minutes Field `yaml:"phase1_minutes"`
	Phase2Minutes Field `yaml:"phase2_minutes"`
}

// Config converts preferences into an immutable Config. In tournament mode
// the starting budget is the phase-1 minutes and the phase-2 minutes become
// the one-time bonus.
func (p Prefs) Config() Config {
	cfg := Config{
		Increment:     time.Duration(p.Increment.Int()) * time.Second,
		Delay:         ParseDelayType(p.Delay),
		AllowNegative: p.AllowNegative.Bool(),
	}
	if strings.EqualFold(strings.TrimSpace(p.Mode), ModeTournament) {
		cfg.Initial = time.Duration(p.Phase1Minutes.Int()) * time.Minute
		cfg.Tournament = &Tournament{
			Phase1Moves: p.Phase1Moves.Int(),
			Phase2Bonus: time.Duration(p.Phase2Minutes.Int()) * time.Minute,
		}
		return cfg
	}
	cfg.Initial = time.Duration(p.Minutes.Int())*time.Minute + time.Duration(p.Seconds.Int())*time.Second
	return cfg
}
