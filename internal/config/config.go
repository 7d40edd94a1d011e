// Package config loads client configuration from defaults, an optional YAML
// file and environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Transport values accepted by Server.Transport.
const (
	TransportTCP       = "tcp"
	TransportWebsocket = "websocket"
)

// ServerConfig identifies the server to connect to.
type ServerConfig struct {
	Host         string `yaml:"host" env:"IRC_HOST"`
	Port         int    `yaml:"port" env:"IRC_PORT"`
	Transport    string `yaml:"transport" env:"IRC_TRANSPORT"`
	WebsocketURL string `yaml:"websocket_url" env:"IRC_WEBSOCKET_URL"`
}

// Addr returns the host:port dial target for the TCP transport.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IdentityConfig holds who we register as.
type IdentityConfig struct {
	Nick     string `yaml:"nick" env:"IRC_NICK"`
	Realname string `yaml:"realname" env:"IRC_REALNAME"`
}

// IRCConfig holds protocol behavior settings.
type IRCConfig struct {
	Channels        []string `yaml:"channels" env:"IRC_CHANNELS"`
	MaxLineLength   int      `yaml:"max_line_length" env:"IRC_MAX_LINE_LENGTH"`
	MaxNickAttempts int      `yaml:"max_nick_attempts" env:"IRC_MAX_NICK_ATTEMPTS"`
	QuitReason      string   `yaml:"quit_reason" env:"IRC_QUIT_REASON"`
	FloodBurst      int      `yaml:"flood_burst" env:"IRC_FLOOD_BURST"`
	FloodRate       int      `yaml:"flood_rate" env:"IRC_FLOOD_RATE"`
	QueueSize       int      `yaml:"queue_size" env:"IRC_QUEUE_SIZE"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Addr    string `yaml:"addr" env:"METRICS_ADDR"`
}

// Config holds all configuration settings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Identity IdentityConfig `yaml:"identity"`
	IRC      IRCConfig      `yaml:"irc"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 6667
	cfg.Server.Transport = TransportTCP
	cfg.Identity.Nick = "gopher"
	cfg.Identity.Realname = "IRC Client"
	cfg.IRC.Channels = []string{"#general"}
	cfg.IRC.MaxLineLength = 4096
	cfg.IRC.MaxNickAttempts = 3
	cfg.IRC.QuitReason = "Leaving"
	cfg.IRC.FloodBurst = 10
	cfg.IRC.FloodRate = 5
	cfg.IRC.QueueSize = 100
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Metrics.Enabled = false
	cfg.Metrics.Addr = ":9090"
	return cfg
}

// Load builds the configuration: defaults, then the YAML file at path if it
// exists, then environment variables on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %v", err)
			}
			// Config file doesn't exist, use defaults
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %v", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportTCP:
		if c.Server.Host == "" {
			return fmt.Errorf("server host is required")
		}
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return fmt.Errorf("server port %d out of range", c.Server.Port)
		}
	case TransportWebsocket:
		if c.Server.WebsocketURL == "" {
			return fmt.Errorf("websocket_url is required for the websocket transport")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Server.Transport)
	}

	nick := c.Identity.Nick
	if nick == "" {
		return fmt.Errorf("nick is required")
	}
	if strings.ContainsAny(nick, " ,\r\n") || strings.HasPrefix(nick, "#") || strings.HasPrefix(nick, ":") {
		return fmt.Errorf("invalid nick %q", nick)
	}
	if c.Identity.Realname == "" {
		c.Identity.Realname = nick
	}

	if c.IRC.MaxLineLength < 512 {
		return fmt.Errorf("max_line_length must be at least 512")
	}
	if c.IRC.MaxNickAttempts < 1 {
		return fmt.Errorf("max_nick_attempts must be at least 1")
	}
	if c.IRC.FloodBurst < 1 || c.IRC.FloodRate < 1 {
		return fmt.Errorf("flood_burst and flood_rate must be at least 1")
	}
	if c.IRC.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1")
	}
	return nil
}
