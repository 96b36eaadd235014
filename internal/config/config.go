// Package config loads vigil.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"vigil/internal/diag"
	"vigil/internal/trace"
)

// FileName is the settings file looked up from the working directory upwards.
const FileName = "vigil.toml"

// ErrNoConfig is returned by Discover when no settings file exists.
var ErrNoConfig = errors.New("no " + FileName + " found")

// Config mirrors vigil.toml.
type Config struct {
	// Path is the file the settings came from, empty for defaults.
	Path string `toml:"-"`

	// Severity maps engine levels "1".."5" to error, warning, information,
	// hint or none.
	Severity    map[string]string `toml:"severity"`
	Diagnostics Diagnostics       `toml:"diagnostics"`
	Scan        Scan              `toml:"scan"`
	Trace       Trace             `toml:"trace"`
	Cache       Cache             `toml:"cache"`
}

type Diagnostics struct {
	Product    string   `toml:"product"`
	WidenRules []string `toml:"widen_rules"`
}

type Scan struct {
	Extensions []string `toml:"extensions"`
	Jobs       int      `toml:"jobs"`
}

type Trace struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the settings used when no file is found.
func Default() Config {
	levels := diag.DefaultLevels()
	sev := make(map[string]string, len(levels))
	for k, v := range levels {
		sev[strconv.Itoa(k)] = v
	}
	return Config{
		Severity:    sev,
		Diagnostics: Diagnostics{Product: diag.DefaultProduct},
		Scan:        Scan{Extensions: []string{".cls", ".trigger"}},
		Trace:       Trace{Level: "off", Mode: "stream", Output: "-"},
		Cache:       Cache{Enabled: true},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the nearest settings file. When there is none it
// returns Default together with ErrNoConfig.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Default(), err
	}
	if !ok {
		return Default(), ErrNoConfig
	}
	return Load(path)
}

// Load reads one settings file on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	if err := cfg.validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Default(), fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("diagnostics", "product") && strings.TrimSpace(cfg.Diagnostics.Product) == "" {
		return Default(), fmt.Errorf("%s: [diagnostics].product must not be empty", path)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for k := range c.Severity {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 || n > 5 {
			return fmt.Errorf("[severity] key %q is not a level between 1 and 5", k)
		}
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	if c.Scan.Jobs < 0 {
		return fmt.Errorf("[scan].jobs must not be negative")
	}
	return nil
}

// Levels returns the severity configuration keyed by engine level. Names that
// are not recognised resolve to warning when used.
func (c Config) Levels() diag.Levels {
	out := make(diag.Levels, len(c.Severity))
	for k, v := range c.Severity {
		if n, err := strconv.Atoi(k); err == nil {
			out[n] = v
		}
	}
	return out
}

// FactoryOptions returns the diagnostic factory settings.
func (c Config) FactoryOptions() diag.FactoryOptions {
	return diag.FactoryOptions{
		Product:    c.Diagnostics.Product,
		WidenRules: append([]string(nil), c.Diagnostics.WidenRules...),
	}
}

// Factory builds a diagnostic factory from these settings.
func (c Config) Factory() *diag.Factory {
	return diag.NewFactory(c.Levels(), c.FactoryOptions())
}

// TraceConfig converts the [trace] section.
func (c Config) TraceConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	if level == trace.LevelError {
		mode = trace.ModeRing
	}
	return trace.Config{Level: level, Mode: mode, OutputPath: c.Trace.Output}, nil
}

// HasExtension reports whether path should be scanned.
func (c Config) HasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Scan.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
