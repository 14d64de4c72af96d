package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/redraft-cli/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".redraft"
	fileName = "config.yaml"
)

// Profile is a named bundle of settings for one chat-completion endpoint.
type Profile struct {
	Name        string  `mapstructure:"name" yaml:"name"`
	Provider    string  `mapstructure:"provider" yaml:"provider,omitempty"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Model       string  `mapstructure:"model" yaml:"model"`
	Stream      bool    `mapstructure:"stream" yaml:"stream"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TopP        float64 `mapstructure:"top_p" yaml:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// Logging selects the slog handler.
type Logging struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Global configuration structure.
//
// Profiles are stored as a list rather than a map because viper lower-cases
// map keys, and profile names end up verbatim in version file names.
type Global struct {
	DefaultProfile string    `mapstructure:"default_profile" yaml:"default_profile"`
	Profiles       []Profile `mapstructure:"profiles" yaml:"profiles"`
	Directions     []string  `mapstructure:"directions" yaml:"directions"`
	ServeAddr      string    `mapstructure:"serve_addr" yaml:"serve_addr"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	Logging Logging `mapstructure:"logging" yaml:"logging"`
}

// ParseError reports a config file that exists but could not be parsed.
// Load returns it together with a usable default configuration.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DefaultProfiles returns the built-in profile set.
func DefaultProfiles() []Profile {
	return []Profile{{
		Name:        "NovelModel",
		Provider:    "openai",
		Endpoint:    "https://api.minimax.chat/v1/text/chatcompletion_v2",
		Model:       "minimax-text-01",
		Stream:      true,
		Temperature: 0.1,
		TopP:        0.95,
		MaxTokens:   2048,
	}}
}

// Path resolves the config file location. If cfgFile is empty it is
// ~/.redraft/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Save writes the given configuration to the cfgFile path, creating the
// directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing file yields the
// defaults. A malformed file yields the defaults and a *ParseError.
func Load(cfgFile string) (*Global, error) {
	path, err := Path(cfgFile)
	if err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return unmarshal(newViper())
		}
		c, derr := unmarshal(newViper())
		if derr != nil {
			return nil, derr
		}
		return c, &ParseError{Path: path, Err: err}
	}
	c, err := unmarshal(v)
	if err != nil {
		d, derr := unmarshal(newViper())
		if derr != nil {
			return nil, derr
		}
		return d, &ParseError{Path: path, Err: err}
	}
	return c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("REDRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("default_profile", "NovelModel")
	v.SetDefault("directions", []string{})
	v.SetDefault("serve_addr", "127.0.0.1:8765")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	return v
}

func unmarshal(v *viper.Viper) (*Global, error) {
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(c.Profiles) == 0 {
		c.Profiles = DefaultProfiles()
	}
	if c.Directions == nil {
		c.Directions = []string{}
	}
	return &c, nil
}
