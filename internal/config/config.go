package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	AnonymousRooms string `envconfig:"ANONYMOUS_ROOMS" default:"lobby"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	MDNSEnabled bool   `envconfig:"MDNS_ENABLED" default:"false"`
	MDNSName    string `envconfig:"MDNS_NAME"`

	Engine
}

// Engine holds canvas defaults handed to clients.
type Engine struct {
	FrameRate int     `envconfig:"FRAME_RATE" default:"60"`
	PageWidth float64 `envconfig:"PAGE_WIDTH" default:"1200"`
	PageGap   float64 `envconfig:"PAGE_GAP" default:"40"`
}

// DefaultEngine returns the engine defaults without reading the
// environment.
func DefaultEngine() Engine {
	return Engine{FrameRate: 60, PageWidth: 1200, PageGap: 40}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Engine.FrameRate <= 0 || cfg.Engine.PageWidth <= 0 || cfg.Engine.PageGap < 0 {
		return nil, fmt.Errorf("invalid engine settings %+v", cfg.Engine)
	}
	return &cfg, nil
}

// Origins returns the allowed websocket origin patterns.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// IsAnonymousRoom reports whether joins to boardID skip token checks.
func (c *Config) IsAnonymousRoom(boardID string) bool {
	return slices.Contains(splitList(c.AnonymousRooms), boardID)
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
