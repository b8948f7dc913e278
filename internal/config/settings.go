package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the options that may come from a settings file. Command
// line flags override whatever is loaded here.
type Settings struct {
	Width     int    `yaml:"width"`
	Color     string `yaml:"color"`
	LogLevel  string `yaml:"log_level"`
	StepLimit int    `yaml:"step_limit"`
	TraceRows int    `yaml:"trace_rows"`
	Backend   string `yaml:"backend"`
}

func Default() Settings {
	return Settings{
		Width:     DefaultWidth,
		Color:     ColorAuto,
		LogLevel:  LogLevelInfo,
		TraceRows: DefaultTraceRows,
		Backend:   "vm",
	}
}

// Load reads a YAML settings file on top of the defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML settings on top of the defaults and validates them.
// Unknown keys are rejected.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if len(data) > 0 {
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Settings{}, fmt.Errorf("parse settings: %w", err)
		}
		if len(doc.Content) > 0 {
			if err := decodeStrict(doc.Content[0], &s); err != nil {
				return Settings{}, err
			}
		}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func decodeStrict(node *yaml.Node, s *Settings) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a mapping", ErrInvalidSettings, node.Line)
	}
	known := map[string]bool{
		"width": true, "color": true, "log_level": true,
		"step_limit": true, "trace_rows": true, "backend": true,
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !known[key.Value] {
			return fmt.Errorf("%w: line %d: unknown key %q", ErrInvalidSettings, key.Line, key.Value)
		}
	}
	if err := node.Decode(s); err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}
	return nil
}

func (s Settings) Validate() error {
	if s.Width < MinWidth || s.Width > MaxWidth {
		return fmt.Errorf("%w: width %d outside %d..%d", ErrInvalidSettings, s.Width, MinWidth, MaxWidth)
	}
	switch s.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color must be auto, always or never, got %q", ErrInvalidSettings, s.Color)
	}
	switch s.LogLevel {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidSettings, s.LogLevel)
	}
	if s.StepLimit < 0 {
		return fmt.Errorf("%w: negative step limit %d", ErrInvalidSettings, s.StepLimit)
	}
	if s.TraceRows < 0 {
		return fmt.Errorf("%w: negative trace_rows %d", ErrInvalidSettings, s.TraceRows)
	}
	switch s.Backend {
	case "vm", "tree":
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidSettings, s.Backend)
	}
	return nil
}
