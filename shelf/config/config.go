package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/valerio/jeebie-shelf/shelf/fileio"
)

// Filename is the config file name inside the media root.
const Filename = "config.toml"

const (
	DefaultWindowScale = 4
	DefaultTargetFPS   = 60
	DefaultVolume      = 0.7
)

// Session holds the settings read once when a session starts.
type Session struct {
	WindowScale int     `toml:"window_scale"`
	TargetFPS   int     `toml:"target_fps"`
	Fullscreen  bool    `toml:"fullscreen"`
	Volume      float64 `toml:"volume"`
}

// Default returns the built-in session settings.
func Default() Session {
	return Session{
		WindowScale: DefaultWindowScale,
		TargetFPS:   DefaultTargetFPS,
		Fullscreen:  false,
		Volume:      DefaultVolume,
	}
}

// Normalize replaces out-of-range values with their defaults and returns a
// description of every field it had to fix.
func (s Session) Normalize() (Session, []string) {
	var fixed []string
	if s.WindowScale <= 0 {
		fixed = append(fixed, fmt.Sprintf("window_scale %d is not positive, using %d", s.WindowScale, DefaultWindowScale))
		s.WindowScale = DefaultWindowScale
	}
	if s.TargetFPS <= 0 {
		fixed = append(fixed, fmt.Sprintf("target_fps %d is not positive, using %d", s.TargetFPS, DefaultTargetFPS))
		s.TargetFPS = DefaultTargetFPS
	}
	if s.Volume < 0 || s.Volume > 1 {
		fixed = append(fixed, fmt.Sprintf("volume %.2f is outside [0, 1], using %.2f", s.Volume, DefaultVolume))
		s.Volume = DefaultVolume
	}
	return s, fixed
}

// Store reads and writes a Session config file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the config file.
func (s *Store) Path() string {
	return s.path
}

// Load decodes the config file. Keys missing from the file keep their
// default values. The returned error wraps fs.ErrNotExist when the file is
// absent.
func (s *Store) Load() (Session, error) {
	cfg := Default()
	md, err := toml.DecodeFile(s.path, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("failed to load config %s: %w", s.path, err)
	}

	for _, key := range md.Undecoded() {
		slog.Warn("Unknown config key ignored", "path", s.path, "key", key.String())
	}

	cfg, fixed := cfg.Normalize()
	for _, msg := range fixed {
		slog.Warn("Config value out of range", "path", s.path, "detail", msg)
	}
	return cfg, nil
}

// LoadOrDefault is Load with every failure downgraded to a warning.
func (s *Store) LoadOrDefault() Session {
	cfg, err := s.Load()
	if err == nil {
		return cfg
	}
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Config file not found, using defaults", "path", s.path)
	} else {
		slog.Warn("Config file unreadable, using defaults", "path", s.path, "error", err)
	}
	return Default()
}

// Save writes cfg to the config file, replacing it atomically.
func (s *Store) Save(cfg Session) error {
	cfg, fixed := cfg.Normalize()
	if len(fixed) > 0 {
		return fmt.Errorf("invalid config: %s", fixed[0])
	}

	buf, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return fileio.WriteAtomic(s.path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(buf))
		return err
	})
}
