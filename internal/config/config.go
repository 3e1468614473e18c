package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment override, e.g. BOOKLOOKUP_API_BASE_URL.
	// Unprefixed names such as PATH or TIMEOUT are never read.
	EnvPrefix = "BOOKLOOKUP"
	// PathEnv points at the yaml file when --config is not given.
	PathEnv     = "BOOKLOOKUP_CONFIG"
	DefaultPath = "booklookup.yaml"

	DefaultBaseURL = "https://ejditq67mwuzeuwrlp5fs3egwu0yhkjz.lambda-url.us-east-2.on.aws/api/"
)

// Color modes for ShellConfig.Color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// APIConfig describes the remote book/author service.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" split_words:"true"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit" split_words:"true"` // requests per second, 0 disables pacing
	StripHTML bool          `yaml:"strip_html" split_words:"true"`
	UserAgent string        `yaml:"user_agent" split_words:"true"`
}

// ShellConfig controls the interactive prompt and console rendering.
type ShellConfig struct {
	Prompt      string `yaml:"prompt"`
	Color       string `yaml:"color"`
	ErrorColor  string `yaml:"error_color" split_words:"true"`
	ResultColor string `yaml:"result_color" split_words:"true"`
	HistoryFile string `yaml:"history_file" split_words:"true"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"` // empty logs to stderr
	JSON  bool   `yaml:"json"`
}

// MetricsConfig enables a pushgateway flush on shutdown when PushgatewayURL is set.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" split_words:"true"`
	Job            string `yaml:"job"`
}

// Config is the root of booklookup.yaml.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Shell   ShellConfig   `yaml:"shell"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Default returns the configuration used when no file and no overrides exist.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Timeout:   10 * time.Second,
			UserAgent: "booklookup/1.0",
		},
		Shell: ShellConfig{
			Prompt:      "Search for a book? ",
			Color:       ColorAuto,
			ErrorColor:  "red",
			ResultColor: "blue",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Metrics: MetricsConfig{
			Job: "booklookup",
		},
	}
}

// Path resolves the config file location: explicit flag, then $BOOKLOOKUP_CONFIG, then the default.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// Load layers the yaml file (if it exists) and environment overrides on top of Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// optional
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(f, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return ErrInvalid(fmt.Sprintf("api.base_url: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return ErrInvalid("api.base_url must be an absolute http(s) URL")
	}
	if c.API.Timeout < 0 {
		return ErrInvalid("api.timeout must not be negative")
	}
	if c.API.RateLimit < 0 {
		return ErrInvalid("api.rate_limit must not be negative")
	}
	for _, r := range c.Shell.Prompt {
		if unicode.Is(unicode.C, r) {
			return ErrInvalid(fmt.Sprintf("shell.prompt must not contain control characters, got %q", c.Shell.Prompt))
		}
	}
	switch strings.ToLower(c.Shell.Color) {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return ErrInvalid(fmt.Sprintf("shell.color must be auto, always or never, got %q", c.Shell.Color))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return ErrInvalid(fmt.Sprintf("log.level: %v", err))
	}
	return nil
}

type invalidErr string

func (e invalidErr) Error() string { return "invalid config: " + string(e) }

func ErrInvalid(msg string) error { return invalidErr(msg) }

// IsInvalid reports whether err came from Validate.
func IsInvalid(err error) bool {
	var ie invalidErr
	return errors.As(err, &ie)
}
