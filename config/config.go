// Package config implements parsekit's engine-wide configuration: the
// settings threaded explicitly into a parse driver, the node serializer,
// and the pipeline harness rather than kept as global mutable state.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dekarrin/parsekit/perror"
)

const (
	DefaultIndentWidth       = 2
	DefaultWrapThreshold     = 80
	DefaultDisposablePattern = `^[:_]`
)

// Config holds every engine-wide setting that would otherwise need to be a
// global. A zero Config is not directly usable; call FillDefaults first.
type Config struct {
	// MinSeverity is the lowest error severity appended to a root's error
	// catalog; lower-severity entries are discarded at the point of
	// attachment.
	MinSeverity perror.Severity

	// IndentWidth is the number of spaces per nesting level used by
	// Node.AsSxpr and Node.AsXML.
	IndentWidth int

	// WrapThreshold is the column at which long leaf content is word
	// wrapped by the serializers. Zero disables wrapping.
	WrapThreshold int

	// DisposableNamePattern is a regex deciding whether a symbol name is
	// disposable, in the form parser.New accepts. Nothing in parsekit
	// passes it to parser.New; it has no effect on a grammar by itself.
	DisposableNamePattern string

	// IgnoreCase is a case-sensitivity setting in the form
	// Grammar.SetIgnoreCase accepts. Nothing in parsekit applies it to a
	// grammar; it has no effect on a grammar by itself.
	IgnoreCase bool
}

// FillDefaults returns a copy of cfg with every unset field given its
// default value.
func (cfg Config) FillDefaults() Config {
	out := cfg
	if out.IndentWidth == 0 {
		out.IndentWidth = DefaultIndentWidth
	}
	if out.WrapThreshold == 0 {
		out.WrapThreshold = DefaultWrapThreshold
	}
	if out.DisposableNamePattern == "" {
		out.DisposableNamePattern = DefaultDisposablePattern
	}
	return out
}

// Validate returns an error if cfg has field values that cannot be used,
// such as a negative IndentWidth.
func (cfg Config) Validate() error {
	if cfg.IndentWidth < 0 {
		return fmt.Errorf("IndentWidth must not be negative, got %d", cfg.IndentWidth)
	}
	if cfg.WrapThreshold < 0 {
		return fmt.Errorf("WrapThreshold must not be negative, got %d", cfg.WrapThreshold)
	}
	return nil
}

// Load reads a TOML file at path into a Config, applying defaults to any
// field the file leaves unset.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file %q: %w", path, err)
	}
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnv overlays environment variables (PARSEKIT_MIN_SEVERITY,
// PARSEKIT_INDENT_WIDTH, PARSEKIT_WRAP_THRESHOLD, PARSEKIT_DISPOSABLE_PATTERN,
// PARSEKIT_IGNORE_CASE) onto cfg, for use after Load when an operator wants
// environment variables to win over file settings.
func (cfg Config) LoadEnv() Config {
	out := cfg
	if v, ok := os.LookupEnv("PARSEKIT_MIN_SEVERITY"); ok {
		if sev, err := ParseSeverity(v); err == nil {
			out.MinSeverity = sev
		}
	}
	if v, ok := os.LookupEnv("PARSEKIT_INDENT_WIDTH"); ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			out.IndentWidth = n
		}
	}
	if v, ok := os.LookupEnv("PARSEKIT_WRAP_THRESHOLD"); ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			out.WrapThreshold = n
		}
	}
	if v, ok := os.LookupEnv("PARSEKIT_DISPOSABLE_PATTERN"); ok {
		out.DisposableNamePattern = v
	}
	if v, ok := os.LookupEnv("PARSEKIT_IGNORE_CASE"); ok {
		out.IgnoreCase = strings.EqualFold(v, "true") || v == "1"
	}
	return out
}

// ParseSeverity parses a severity name ("note", "warning", "error",
// "fatal", case-insensitive) into a perror.Severity.
func ParseSeverity(s string) (perror.Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "note":
		return perror.Note, nil
	case "warning":
		return perror.Warning, nil
	case "error":
		return perror.Error, nil
	case "fatal":
		return perror.Fatal, nil
	default:
		return perror.Note, fmt.Errorf("severity not one of 'note', 'warning', 'error', 'fatal': %q", s)
	}
}
