package config

import (
	"testing"
)

func TestValidConfigLoading(t *testing.T) {
	cfg, err := Load("testdata/valid_config.yaml")
	if err != nil {
		t.Fatalf("Failed to load valid config: %v", err)
	}

	if cfg.Server.Host != "irc.example.org" {
		t.Errorf("Expected server host 'irc.example.org', got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 6667 {
		t.Errorf("Expected server port 6667, got %d", cfg.Server.Port)
	}
	if cfg.Server.Transport != TransportTCP {
		t.Errorf("Expected transport 'tcp', got '%s'", cfg.Server.Transport)
	}
	if cfg.Identity.Nick != "testbot" {
		t.Errorf("Expected nick 'testbot', got '%s'", cfg.Identity.Nick)
	}
	if cfg.Identity.Realname != "Test Bot" {
		t.Errorf("Expected realname 'Test Bot', got '%s'", cfg.Identity.Realname)
	}
	if len(cfg.IRC.Channels) != 2 || cfg.IRC.Channels[0] != "#general" || cfg.IRC.Channels[1] != "#random" {
		t.Errorf("Expected channels [#general #random], got %v", cfg.IRC.Channels)
	}
	if cfg.IRC.MaxNickAttempts != 5 {
		t.Errorf("Expected max nick attempts 5, got %d", cfg.IRC.MaxNickAttempts)
	}
	if cfg.IRC.QuitReason != "Goodbye" {
		t.Errorf("Expected quit reason 'Goodbye', got '%s'", cfg.IRC.QuitReason)
	}
}

func TestInvalidConfigHandling(t *testing.T) {
	_, err := Load("testdata/invalid_config.yaml")
	if err == nil {
		t.Fatal("Expected error for invalid config, got nil")
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("testdata/does_not_exist.yaml")
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got error: %v", err)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got '%s'", cfg.Server.Host)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected default server host 'localhost', got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 6667 {
		t.Errorf("Expected default server port 6667, got %d", cfg.Server.Port)
	}
	if cfg.Server.Transport != TransportTCP {
		t.Errorf("Expected default transport 'tcp', got '%s'", cfg.Server.Transport)
	}
	if cfg.Identity.Nick != "gopher" {
		t.Errorf("Expected default nick 'gopher', got '%s'", cfg.Identity.Nick)
	}
	if len(cfg.IRC.Channels) != 1 || cfg.IRC.Channels[0] != "#general" {
		t.Errorf("Expected default channels [#general], got %v", cfg.IRC.Channels)
	}
	if cfg.IRC.MaxLineLength != 4096 {
		t.Errorf("Expected default max line length 4096, got %d", cfg.IRC.MaxLineLength)
	}
	if cfg.IRC.MaxNickAttempts != 3 {
		t.Errorf("Expected default max nick attempts 3, got %d", cfg.IRC.MaxNickAttempts)
	}
	if cfg.IRC.QuitReason != "Leaving" {
		t.Errorf("Expected default quit reason 'Leaving', got '%s'", cfg.IRC.QuitReason)
	}
	if cfg.IRC.FloodBurst != 10 {
		t.Errorf("Expected default flood burst 10, got %d", cfg.IRC.FloodBurst)
	}
	if cfg.IRC.FloodRate != 5 {
		t.Errorf("Expected default flood rate 5, got %d", cfg.IRC.FloodRate)
	}
	if cfg.IRC.QueueSize != 100 {
		t.Errorf("Expected default queue size 100, got %d", cfg.IRC.QueueSize)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", cfg.Log.Level)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IRC_HOST", "irc.env.example")
	t.Setenv("IRC_PORT", "6668")
	t.Setenv("IRC_NICK", "envbot")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Host != "irc.env.example" {
		t.Errorf("Expected host 'irc.env.example', got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 6668 {
		t.Errorf("Expected port 6668, got %d", cfg.Server.Port)
	}
	if cfg.Identity.Nick != "envbot" {
		t.Errorf("Expected nick 'envbot', got '%s'", cfg.Identity.Nick)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("IRC_NICK", "envwins")

	cfg, err := Load("testdata/valid_config.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Identity.Nick != "envwins" {
		t.Errorf("Expected environment to override file, got '%s'", cfg.Identity.Nick)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty host", func(c *Config) { c.Server.Host = "" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown transport", func(c *Config) { c.Server.Transport = "carrier-pigeon" }, true},
		{"websocket without url", func(c *Config) { c.Server.Transport = TransportWebsocket }, true},
		{"websocket with url", func(c *Config) {
			c.Server.Transport = TransportWebsocket
			c.Server.WebsocketURL = "ws://localhost:8067/ws"
		}, false},
		{"empty nick", func(c *Config) { c.Identity.Nick = "" }, true},
		{"nick with space", func(c *Config) { c.Identity.Nick = "bad nick" }, true},
		{"nick with channel marker", func(c *Config) { c.Identity.Nick = "#bad" }, true},
		{"line length too small", func(c *Config) { c.IRC.MaxLineLength = 100 }, true},
		{"zero nick attempts", func(c *Config) { c.IRC.MaxNickAttempts = 0 }, true},
		{"zero flood rate", func(c *Config) { c.IRC.FloodRate = 0 }, true},
		{"zero queue size", func(c *Config) { c.IRC.QueueSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestRealnameDefaultsToNick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Identity.Nick = "solo"
	cfg.Identity.Realname = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}
	if cfg.Identity.Realname != "solo" {
		t.Errorf("Expected realname to default to nick, got '%s'", cfg.Identity.Realname)
	}
}
