// Package config provides configuration management for the preflight CLI.
//
// Values are layered, lowest to highest precedence: built-in defaults,
// preflight.yaml, PREFLIGHT_* environment variables, then flags that were
// explicitly set on the command line.
package config

// ConfigFileName is the project configuration file searched for upward from
// the working directory.
const ConfigFileName = "preflight.yaml"

// Default configuration values.
const (
	DefaultRulesFile  = "rules/hardware_rules.json"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat  = "text"
	DefaultDebounceMS = 200
)

// DefaultSourceDirs are scanned when neither config nor flags name any.
var DefaultSourceDirs = []string{"src", "include"}

// Config holds all CLI configuration options.
type Config struct {
	RulesFile    string      `koanf:"rules_file"`
	SourceDirs   []string    `koanf:"source_dirs"`
	Extensions   []string    `koanf:"extensions"`
	Verbose      bool        `koanf:"verbose"`
	OutputFormat string      `koanf:"output"`
	LogFormat    string      `koanf:"log_format"`
	Watch        WatchConfig `koanf:"watch"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// WatchConfig tunes `check --watch`.
type WatchConfig struct {
	DebounceMS int `koanf:"debounce_ms"`
}

// Default returns the configuration used when nothing else is set, with
// paths left relative.
func Default() *Config {
	return &Config{
		RulesFile:    DefaultRulesFile,
		SourceDirs:   append([]string(nil), DefaultSourceDirs...),
		OutputFormat: DefaultOutput,
		LogFormat:    DefaultLogFormat,
		Watch:        WatchConfig{DebounceMS: DefaultDebounceMS},
	}
}
