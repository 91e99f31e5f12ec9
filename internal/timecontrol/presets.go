package timecontrol

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	yaml "gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetFiles embed.FS

var (
	ErrUnknownPreset = errors.New("unknown time control preset")
	ErrBadShorthand  = errors.New("malformed time control")
)

type presetFile struct {
	Presets map[string]Prefs `yaml:"presets"`
}

// Presets is a named set of time controls.
type Presets struct {
	mu    sync.RWMutex
	items map[string]Prefs
}

// LoadPresets reads the embedded presets and then overlays overrideFile, if
// given. Overrides replace presets of the same name and may add new ones.
func LoadPresets(overrideFile string) (*Presets, error) {
	p := &Presets{items: make(map[string]Prefs)}
	raw, err := fs.ReadFile(presetFiles, "presets.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded presets: %w", err)
	}
	if err := p.apply(raw); err != nil {
		return nil, fmt.Errorf("parse embedded presets: %w", err)
	}
	if path := strings.TrimSpace(overrideFile); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read presets %s: %w", path, err)
		}
		if err := p.apply(b); err != nil {
			return nil, fmt.Errorf("parse presets %s: %w", path, err)
		}
	}
	return p, nil
}

func (p *Presets) apply(b []byte) error {
	var f presetFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, prefs := range f.Presets {
		p.items[strings.ToLower(strings.TrimSpace(name))] = prefs
	}
	return nil
}

// Get returns the Config for a preset name (case-insensitive).
func (p *Presets) Get(name string) (Config, error) {
	if p == nil {
		return Config{}, ErrUnknownPreset
	}
	p.mu.RLock()
	prefs, ok := p.items[strings.ToLower(strings.TrimSpace(name))]
	p.mu.RUnlock()
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return prefs.Config(), nil
}

// Names lists the known presets in alphabetical order.
func (p *Presets) Names() []string {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.items))
	for k := range p.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParseShorthand reads "M", "M+S" or "M+Sd" (minutes, increment seconds,
// trailing d for a Bronstein delay). Minutes may be fractional, as in "0.5+0".
func ParseShorthand(s string) (Config, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return Config{}, ErrBadShorthand
	}
	cfg := Config{Delay: Fischer}
	if strings.HasSuffix(in, "d") {
		cfg.Delay = Bronstein
		in = strings.TrimSuffix(in, "d")
	}
	minPart, incPart, hasInc := strings.Cut(in, "+")
	mins, err := strconv.ParseFloat(strings.TrimSpace(minPart), 64)
	if err != nil || mins < 0 {
		return Config{}, fmt.Errorf("%w: %q", ErrBadShorthand, s)
	}
	cfg.Initial = time.Duration(mins * float64(time.Minute))
	if hasInc {
		secs, err := strconv.Atoi(strings.TrimSpace(incPart))
		if err != nil || secs < 0 {
			return Config{}, fmt.Errorf("%w: %q", ErrBadShorthand, s)
		}
		cfg.Increment = time.Duration(secs) * time.Second
	}
	return cfg, nil
}

// Resolve picks a Config from a shorthand, falling back to a preset name.
func (p *Presets) Resolve(shorthand, preset string) (Config, error) {
	if strings.TrimSpace(shorthand) != "" {
		return ParseShorthand(shorthand)
	}
	return p.Get(preset)
}
