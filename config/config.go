package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

// Paths are the default locations searched for a settings file.
var Paths = []string{"~/.config/bmp24.yaml", ".bmp24.yaml"}

// Settings are flag defaults read from a YAML file. Keys are flag names.
type Settings struct {
	LogLevel  *string `mapstructure:"log-level"`
	LogFormat *string `mapstructure:"log-format"`
	Workers   *int    `mapstructure:"workers"`
	MaxPixels *int    `mapstructure:"max-pixels"`
	Format    *string `mapstructure:"format"`
	Overwrite *bool   `mapstructure:"overwrite"`
	Filter    *string `mapstructure:"filter"`
	Width     *int    `mapstructure:"width"`
	Height    *int    `mapstructure:"height"`
}

// Load reads settings. Unknown keys are an error; "4" and 4 are both
// accepted for numeric keys.
func Load(r io.Reader) (Settings, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("could not parse settings: %w", err)
	}

	var s Settings
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Settings{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	if s.Workers != nil && *s.Workers < 0 {
		return Settings{}, fmt.Errorf("invalid settings: negative workers %d", *s.Workers)
	}
	if s.MaxPixels != nil && *s.MaxPixels < 0 {
		return Settings{}, fmt.Errorf("invalid settings: negative max-pixels %d", *s.MaxPixels)
	}
	return s, nil
}

// Values returns the set keys as strings, the form kong parses flags from.
func (s Settings) Values() map[string]string {
	vals := map[string]string{}
	put := func(name string, v any) {
		vals[name] = fmt.Sprint(v)
	}
	if s.LogLevel != nil {
		put("log-level", *s.LogLevel)
	}
	if s.LogFormat != nil {
		put("log-format", *s.LogFormat)
	}
	if s.Workers != nil {
		put("workers", *s.Workers)
	}
	if s.MaxPixels != nil {
		put("max-pixels", *s.MaxPixels)
	}
	if s.Format != nil {
		put("format", *s.Format)
	}
	if s.Overwrite != nil {
		put("overwrite", *s.Overwrite)
	}
	if s.Filter != nil {
		put("filter", *s.Filter)
	}
	if s.Width != nil {
		put("width", *s.Width)
	}
	if s.Height != nil {
		put("height", *s.Height)
	}
	return vals
}

// Loader is a kong.ConfigurationLoader for settings files.
func Loader(r io.Reader) (kong.Resolver, error) {
	s, err := Load(r)
	if err != nil {
		return nil, err
	}
	vals := s.Values()
	slog.Debug("loaded settings", "keys", len(vals))

	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		v, ok := vals[flag.Name]
		if !ok {
			return nil, nil
		}
		return v, nil
	}), nil
}
