// Package config loads client settings (viper: optional file plus PISONET_
// environment overrides) and the host station file (yaml).
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds client configuration.
type Config struct {
	Host    HostConfig    `mapstructure:"host"`
	Kiosk   KioskConfig   `mapstructure:"kiosk"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Log     LogConfig     `mapstructure:"log"`
}

// HostConfig locates the host process.
type HostConfig struct {
	WSURL   string `mapstructure:"ws_url"`
	HTTPURL string `mapstructure:"http_url"`
	Token   string `mapstructure:"token"`
}

// KioskConfig holds deployment mode settings.
type KioskConfig struct {
	Production bool `mapstructure:"production"`
}

// GatewayConfig bounds command calls to the host. A zero timeout waits
// indefinitely.
type GatewayConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
	Backoff time.Duration `mapstructure:"backoff"`
}

// LogConfig selects log level and destination.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from path (optional; empty means defaults and
// environment only). Env var overrides use prefix PISONET_, e.g.
// PISONET_KIOSK_PRODUCTION=true.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("host.ws_url", "ws://127.0.0.1:3000/ws")
	v.SetDefault("host.http_url", "")
	v.SetDefault("host.token", "")
	v.SetDefault("kiosk.production", false)
	v.SetDefault("gateway.timeout", 15*time.Second)
	v.SetDefault("gateway.retries", 0)
	v.SetDefault("gateway.backoff", 500*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "pisonet-client.log")

	v.SetEnvPrefix("PISONET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Host.HTTPURL == "" {
		c.Host.HTTPURL = DeriveHTTPBase(c.Host.WSURL)
	}
	if c.Gateway.Retries < 0 {
		return Config{}, fmt.Errorf("gateway.retries must be >= 0, got %d", c.Gateway.Retries)
	}
	return c, nil
}

// DeriveHTTPBase converts ws://host:port/ws → http://host:port
func DeriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil || u.Host == "" {
		return "http://127.0.0.1:3000"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
