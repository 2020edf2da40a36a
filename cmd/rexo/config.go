package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	defaultFetchTimeout = 10 * time.Second
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	developmentEnv      = "development"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Templates   TemplatesConfig `yaml:"templates"`
	Data        DataConfig      `yaml:"data"`
	Globals     GlobalsConfig   `yaml:"globals"`
	Log         LogConfig       `yaml:"log"`
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// TemplatesConfig says where templates are read from. In development they
// come from Path on the local disk; everywhere else from Bucket, with Path as
// the object prefix.
type TemplatesConfig struct {
	Path            string `yaml:"path"`
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
}

// DataConfig points at the data API.
type DataConfig struct {
	URL          string        `yaml:"url"`
	APIKey       string        `yaml:"api_key"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// GlobalsConfig holds the values every template can read.
type GlobalsConfig struct {
	CDN     string `yaml:"cdn"`
	Project string `yaml:"project"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ValidationError lists every problem found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// Development reports whether templates should be read from the local disk.
func (c Config) Development() bool {
	return c.Environment == developmentEnv
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         defaultPort,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		Data: DataConfig{
			FetchTimeout: defaultFetchTimeout,
		},
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// loadConfig reads the YAML file at path, if path isn't empty, over the
// defaults, then applies environment overrides read through getenv.
func loadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config file %q: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	strs := map[string]*string{
		"NODE_ENV":                  &cfg.Environment,
		"PORT":                      &cfg.Server.Port,
		"TEMPLATE_PATH":             &cfg.Templates.Path,
		"TEMPLATE_BUCKET":           &cfg.Templates.Bucket,
		"TEMPLATE_CREDENTIALS_FILE": &cfg.Templates.CredentialsFile,
		"DATA_API_URL":              &cfg.Data.URL,
		"DATA_API_KEY":              &cfg.Data.APIKey,
		"CDN_URL":                   &cfg.Globals.CDN,
		"REXO_PROJECT":              &cfg.Globals.Project,
		"LOG_LEVEL":                 &cfg.Log.Level,
		"LOG_FORMAT":                &cfg.Log.Format,
	}
	for name, dst := range strs {
		if val := strings.TrimSpace(getenv(name)); val != "" {
			*dst = val
		}
	}
	if val := strings.TrimSpace(getenv("FETCH_TIMEOUT")); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("error parsing FETCH_TIMEOUT: %w", err)
		}
		cfg.Data.FetchTimeout = timeout
	}
	return nil
}

func (c Config) validate() error {
	var problems []string
	if c.Data.URL == "" {
		problems = append(problems, "data API URL is required (DATA_API_URL)")
	}
	if c.Development() && c.Templates.Path == "" {
		problems = append(problems, "template path is required in development (TEMPLATE_PATH)")
	}
	if !c.Development() && c.Templates.Bucket == "" {
		problems = append(problems, "template bucket is required outside development (TEMPLATE_BUCKET)")
	}
	if c.Server.Port == "" {
		problems = append(problems, "port is required (PORT)")
	}
	if c.Data.FetchTimeout < 0 {
		problems = append(problems, "fetch timeout can't be negative")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
