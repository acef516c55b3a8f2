package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"orarend/internal/csvimport"
	"orarend/internal/layout"
)

const holidayLayout = "2006-01-02"

// SourceConfig describes where the course offering export is read from.
type SourceConfig struct {
	// Path is the CSV file saved from the course offering spreadsheet.
	Path string `yaml:"path" json:"path"`
	// Delimiter is the single field separator character (default ";").
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// Encoding is one of utf-8, windows-1250, iso-8859-2.
	Encoding string `yaml:"encoding" json:"encoding"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the contents of the YAML config file.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone slot times are interpreted in
	// (e.g. "Europe/Budapest").
	Timezone string `yaml:"timezone" json:"timezone"`

	Source SourceConfig `yaml:"source" json:"source"`

	// RefreshCron is a cron-style schedule string (e.g. "0 */6 * * *")
	// used to re-import the export file.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Window is the visible part of a day in layouts.
	Window layout.Window `yaml:"window" json:"window"`

	// Holidays are YYYY-MM-DD dates without teaching; they are left out of
	// the ICS export.
	Holidays []string `yaml:"holidays" json:"holidays"`

	// ICSOutput, if set, is where -once writes the current semester's ICS.
	ICSOutput string `yaml:"ics_output,omitempty" json:"ics_output,omitempty"`

	// BasicAuth protects every HTTP endpoint but /health when both fields
	// are set.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig is the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		Timezone: "Europe/Budapest",
		Source: SourceConfig{
			Path:      "./kurzusok.csv",
			Delimiter: string(csvimport.DefaultDelimiter),
			Encoding:  csvimport.DefaultEncoding,
		},
		RefreshCron: "0 */6 * * *",
		Window:      layout.DefaultWindow(),
		Holidays:    []string{},
		BasicAuth:   nil,
	}
}

// Normalize replaces empty fields with their defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Source.Delimiter == "" {
		c.Source.Delimiter = def.Source.Delimiter
	}
	if c.Source.Encoding == "" {
		c.Source.Encoding = def.Source.Encoding
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	// A window that cannot be drawn falls back to the default geometry
	// as a whole rather than field by field.
	if c.Window.Validate() != nil {
		c.Window = def.Window
	}
	if c.Holidays == nil {
		c.Holidays = []string{}
	}
}

// Validate reports values that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if !csvimport.SupportedEncoding(c.Source.Encoding) {
		return fmt.Errorf("config: unsupported source encoding %q", c.Source.Encoding)
	}
	if _, err := c.HolidayDates(time.UTC); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DelimiterRune returns the configured delimiter as a single rune.
func (c *Config) DelimiterRune() (rune, error) {
	r := []rune(c.Source.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("config: delimiter must be a single character, got %q", c.Source.Delimiter)
	}
	return r[0], nil
}

// ImportOptions returns the csvimport options for Source.
func (c *Config) ImportOptions() (csvimport.Options, error) {
	delim, err := c.DelimiterRune()
	if err != nil {
		return csvimport.Options{}, err
	}
	return csvimport.Options{Delimiter: delim, Encoding: c.Source.Encoding}, nil
}

// HolidayDates parses Holidays as midnights in loc.
func (c *Config) HolidayDates(loc *time.Location) ([]time.Time, error) {
	out := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		t, err := time.ParseInLocation(holidayLayout, h, loc)
		if err != nil {
			return nil, fmt.Errorf("config: holiday %q: %w", h, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Load reads the YAML file at path and fills in defaults. On first run,
// when nothing exists at path yet, the default configuration is written
// there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errEmptyPath
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		def := DefaultConfig()
		// The defaults are usable even when they cannot be persisted.
		return def, Save(path, def)
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := new(Config)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save normalizes cfg and writes it to path as YAML, replacing any previous
// file atomically. The file ends up readable by the owner only.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errEmptyPath
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := writeFileAtomic(path, out); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Save writes c to path; see the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

var errEmptyPath = errors.New("config: empty path")

// writeFileAtomic writes data to a 0600 temp file next to path, syncs it and
// renames it over path. Missing parent directories are created with 0700.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".orarend-config-*.tmp")
	if err != nil {
		return err
	}
	name := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(name)
		}
	}()

	if err = f.Chmod(0o600); err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}
