// Package config reads the ~/.tdbrc defaults file.
//
// The file is ini-formatted:
//
//	[data]
//	root=$SKA/data/Ska.tdb
//	version=14
//	[convert]
//	source=/proj/sot/ska/ops/TDB
//	compression=zstd
//
// Values are expanded with os.ExpandEnv. Command-line flags override the
// file, and the file overrides the $SKA-derived defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ini "github.com/lars-t-hansen/ini"
	"github.com/maloquacious/tdb/internal/store"
	"github.com/maloquacious/tdb/internal/tdb"
)

// MT: Constant after initialization
var (
	p                  = ini.NewParser()
	data               = p.AddSection("data")
	DataRoot           = data.AddString("root")
	DataVersion        = data.AddString("version")
	convert            = p.AddSection("convert")
	ConvertSource      = convert.AddString("source")
	ConvertCompression = convert.AddString("compression")
)

// DefaultFile is the name of the defaults file in $HOME.
const DefaultFile = ".tdbrc"

// DefaultSource is where the raw TDB text exports live.
const DefaultSource = "/proj/sot/ska/ops/TDB"

type Config struct {
	Root        string
	Version     int
	Source      string
	Compression string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Root:        store.GetDataRoot(),
		Version:     tdb.Latest,
		Source:      DefaultSource,
		Compression: "zstd",
	}
}

// DefaultPath returns $HOME/.tdbrc, or "" when $HOME is unset.
func DefaultPath() string {
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(filepath.Clean(home), DefaultFile)
}

// Load returns the defaults overlaid with the file at path. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	input, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer input.Close()
	if err := cfg.Read(input); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Read overlays the settings present in r.
func (c *Config) Read(r io.Reader) error {
	s, err := p.Parse(r)
	if err != nil {
		return err
	}
	apply(&c.Root, DataRoot, s)
	apply(&c.Source, ConvertSource, s)
	apply(&c.Compression, ConvertCompression, s)
	var version string
	if apply(&version, DataVersion, s) {
		v, err := ParseVersion(version)
		if err != nil {
			return err
		}
		c.Version = v
	}
	return nil
}

func apply(sp *string, f *ini.Field, s *ini.Store) bool {
	if !f.Present(s) {
		return false
	}
	*sp = os.ExpandEnv(f.StringVal(s))
	return true
}

// ParseVersion accepts a version number or "latest".
func ParseVersion(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "latest") {
		return tdb.Latest, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid TDB version %q", s)
	}
	return v, nil
}
