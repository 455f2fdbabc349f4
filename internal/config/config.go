// Package config loads application settings from defaults, an optional YAML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tzidis/newsapp/pkg/httpclient"
	"github.com/tzidis/newsapp/pkg/providers"
)

const envPrefix = "NEWSAPP"

// Config is the resolved application configuration.
type Config struct {
	Guardian     GuardianConfig
	HTTP         HTTPConfig
	Log          LogConfig
	History      HistoryConfig
	Enrich       EnrichConfig
	Publishers   PublishersConfig
	Server       ServerConfig
	Connectivity ConnectivityConfig
}

type GuardianConfig struct {
	BaseURL       string
	APIKey        string
	ShowFields    []string
	ElementPolicy providers.ElementPolicy
	Headers       map[string]string
}

type HTTPConfig struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	UserAgent      string
}

type LogConfig struct {
	Level  string
	Format string
}

type HistoryConfig struct {
	Path       string
	MaxEntries int
}

type EnrichConfig struct {
	Enabled      bool
	RequestDelay time.Duration
}

type PublishersConfig struct {
	File string
}

type ServerConfig struct {
	Port string
}

type ConnectivityConfig struct {
	Skip    bool
	Timeout time.Duration
}

// Provider maps the Guardian settings onto a provider config.
func (c Config) Provider() providers.Provider {
	return providers.Provider{
		ID:             providers.ProviderTypeGuardian,
		Type:           providers.ProviderTypeGuardian,
		BaseURL:        c.Guardian.BaseURL,
		APIKey:         c.Guardian.APIKey,
		ShowFields:     c.Guardian.ShowFields,
		Headers:        c.Guardian.Headers,
		ElementPolicy:  c.Guardian.ElementPolicy,
		RequestDelayMS: int(c.Enrich.RequestDelay / time.Millisecond),
	}
}

// HTTPOptions maps the HTTP settings onto client options.
func (c Config) HTTPOptions() httpclient.Options {
	return httpclient.Options{
		ConnectTimeout: c.HTTP.ConnectTimeout,
		ReadTimeout:    c.HTTP.ReadTimeout,
		UserAgent:      c.HTTP.UserAgent,
	}
}

// LoadDotEnv loads a .env file. The path comes from ENV_PATH, else defaultPath.
// A missing file is not an error.
func LoadDotEnv(defaultPath string) error {
	path := strings.TrimSpace(os.Getenv("ENV_PATH"))
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("guardian.base_url", providers.DefaultGuardianBaseURL)
	v.SetDefault("guardian.api_key", "")
	v.SetDefault("guardian.show_fields", providers.DefaultShowFields)
	v.SetDefault("guardian.element_policy", "truncate")
	v.SetDefault("guardian.headers", map[string]string{})

	v.SetDefault("http.connect_timeout", httpclient.DefaultConnectTimeout)
	v.SetDefault("http.read_timeout", httpclient.DefaultReadTimeout)
	v.SetDefault("http.user_agent", httpclient.DefaultUserAgent)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("history.path", defaultHistoryPath())
	v.SetDefault("history.max_entries", 50)

	v.SetDefault("enrich.enabled", false)
	v.SetDefault("enrich.request_delay", 0)

	v.SetDefault("publishers.file", "")

	v.SetDefault("server.port", "8080")

	v.SetDefault("connectivity.skip", false)
	v.SetDefault("connectivity.timeout", 3*time.Second)
}

// Load resolves the configuration. configFile may be empty; a named file must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile = strings.TrimSpace(configFile); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	policy, err := providers.ParseElementPolicy(v.GetString("guardian.element_policy"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Guardian: GuardianConfig{
			BaseURL:       strings.TrimSpace(v.GetString("guardian.base_url")),
			APIKey:        strings.TrimSpace(v.GetString("guardian.api_key")),
			ShowFields:    splitList(v.GetStringSlice("guardian.show_fields")),
			ElementPolicy: policy,
			Headers:       v.GetStringMapString("guardian.headers"),
		},
		HTTP: HTTPConfig{
			ConnectTimeout: v.GetDuration("http.connect_timeout"),
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			UserAgent:      v.GetString("http.user_agent"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		History: HistoryConfig{
			Path:       v.GetString("history.path"),
			MaxEntries: v.GetInt("history.max_entries"),
		},
		Enrich: EnrichConfig{
			Enabled:      v.GetBool("enrich.enabled"),
			RequestDelay: v.GetDuration("enrich.request_delay"),
		},
		Publishers: PublishersConfig{
			File: strings.TrimSpace(v.GetString("publishers.file")),
		},
		Server: ServerConfig{
			Port: strings.TrimSpace(v.GetString("server.port")),
		},
		Connectivity: ConnectivityConfig{
			Skip:    v.GetBool("connectivity.skip"),
			Timeout: v.GetDuration("connectivity.timeout"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Guardian.BaseURL == "" {
		return errors.New("guardian.base_url is required")
	}
	if c.Guardian.APIKey == "" {
		return fmt.Errorf("guardian.api_key is required (set %s_GUARDIAN_API_KEY)", envPrefix)
	}
	if c.HTTP.ConnectTimeout <= 0 || c.HTTP.ReadTimeout <= 0 {
		return errors.New("http timeouts must be positive")
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func defaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return "newsapp-history.db"
	}
	return filepath.Join(dir, "newsapp", "history.db")
}
