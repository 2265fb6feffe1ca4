package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Anthropic AnthropicConfig `toml:"anthropic"`
	Server    ServerConfig    `toml:"server"`
	MCP       MCPConfig       `toml:"mcp"`
	DB        DBConfig        `toml:"db"`
	Trace     TraceConfig     `toml:"trace"`
	Log       LogConfig       `toml:"log"`
}

type AnthropicConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// MCPConfig describes how to reach the paper-search tool provider. Command
// is the stdio subprocess to launch; an empty Command means re-exec the
// current binary with the "mcp" subcommand.
type MCPConfig struct {
	Command        []string `toml:"command"`
	StartupTimeout int      `toml:"startup_timeout_seconds"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

type TraceConfig struct {
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

type LogConfig struct {
	File string `toml:"file"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 2048,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8000"},
		},
		MCP: MCPConfig{
			StartupTimeout: 10,
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
	}

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// The key never lives in the file by default; the environment wins.
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Anthropic.APIKey = v
	}

	return cfg, nil
}

func configPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "arxplain", "config.toml")
}

func defaultDBPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "arxplain", "arxplain.db")
}
