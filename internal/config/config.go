package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings dbspctl reads at startup.
type Config struct {
	Server         string
	RequestTimeout time.Duration
	CompileTimeout time.Duration
	PollInterval   time.Duration
	LogLevel       string
	LogFormat      string
	LogDir         string
	KafkaBrokers   []string
	Workspace      string
}

// ServerEnv overrides the server address from the config file.
const ServerEnv = "DBSPCTL_SERVER"

const (
	defaultConfigPath     = "~/.config/dbspctl/config.toml"
	defaultServer         = "127.0.0.1:8080"
	defaultRequestTimeout = 20 * time.Second
	defaultCompileTimeout = 5 * time.Minute
	defaultPollInterval   = 2 * time.Second
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultLogDir         = "~/.local/share/dbspctl/logs"
	defaultKafkaBroker    = "localhost:9092"
	defaultWorkspace      = "~/.local/share/dbspctl/workspace.toml"
)

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		Server:         defaultServer,
		RequestTimeout: defaultRequestTimeout,
		CompileTimeout: defaultCompileTimeout,
		PollInterval:   defaultPollInterval,
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		LogDir:         mustExpand(defaultLogDir),
		KafkaBrokers:   []string{defaultKafkaBroker},
		Workspace:      mustExpand(defaultWorkspace),
	}
}

type rawConfig struct {
	Server         string   `toml:"server"`
	RequestTimeout string   `toml:"request_timeout"`
	CompileTimeout string   `toml:"compile_timeout"`
	PollInterval   string   `toml:"poll_interval"`
	LogLevel       string   `toml:"log_level"`
	LogFormat      string   `toml:"log_format"`
	LogDir         string   `toml:"log_dir"`
	KafkaBrokers   []string `toml:"kafka_brokers"`
	Workspace      string   `toml:"workspace"`
}

// Load parses the config at path, falling back to defaults when the file is
// missing. DBSPCTL_SERVER, when set, wins over the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	data, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if data != nil {
		var raw rawConfig
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.apply(raw); err != nil {
			return Config{}, err
		}
	}

	if env := strings.TrimSpace(os.Getenv(ServerEnv)); env != "" {
		cfg.Server = env
	}
	return cfg, nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return data, nil
}

func (c *Config) apply(raw rawConfig) error {
	if v := strings.TrimSpace(raw.Server); v != "" {
		c.Server = v
	}
	durations := []struct {
		key string
		in  string
		out *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &c.RequestTimeout},
		{"compile_timeout", raw.CompileTimeout, &c.CompileTimeout},
		{"poll_interval", raw.PollInterval, &c.PollInterval},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.in)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: %s: %w", d.key, err)
		}
		if parsed < 0 {
			return fmt.Errorf("parse config: %s must not be negative", d.key)
		}
		*d.out = parsed
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogFormat)); v != "" {
		c.LogFormat = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		c.LogDir = mustExpand(v)
	}
	var brokers []string
	for _, b := range raw.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) > 0 {
		c.KafkaBrokers = brokers
	}
	if v := strings.TrimSpace(raw.Workspace); v != "" {
		c.Workspace = mustExpand(v)
	}
	return nil
}

// LogPath returns the path of the dbspctl log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/dbspctl.log")
	}
	return filepath.Join(c.LogDir, "dbspctl.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
