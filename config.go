package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

const (
	defaultHub    = "taxidata"
	defaultTarget = "notify"
)

// config is read once at startup and shared, read-only, by every handler.
// Environment variables provide the defaults; flags override them.
type config struct {
	Addr        string        `env:"RELAY_ADDR" envDefault:"127.0.0.1:8081" validate:"required"`
	StopTimeout time.Duration `env:"RELAY_STOP_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	KillTimeout time.Duration `env:"RELAY_KILL_TIMEOUT" envDefault:"1s" validate:"gt=0"`

	Hub    string `env:"RELAY_HUB" envDefault:"taxidata" validate:"required"`
	Target string `env:"RELAY_TARGET" envDefault:"notify" validate:"required"`

	// Base URL clients dial for the websocket client endpoint.
	PublicURL string `env:"RELAY_PUBLIC_URL" envDefault:"ws://127.0.0.1:8081" validate:"required,url"`
	Origin    string `env:"RELAY_ORIGIN"`

	// Access key required by /message. Empty means anonymous.
	AccessKey   string        `env:"RELAY_ACCESS_KEY"`
	TokenSecret string        `env:"RELAY_TOKEN_SECRET" validate:"required,min=16"`
	TokenTTL    time.Duration `env:"RELAY_TOKEN_TTL" envDefault:"1h" validate:"gt=0"`

	MaxBody      int64   `env:"RELAY_MAX_BODY" envDefault:"65536" validate:"gt=0"`
	MessageRate  float64 `env:"RELAY_MESSAGE_RATE" envDefault:"0" validate:"gte=0"`
	MessageBurst int     `env:"RELAY_MESSAGE_BURST" envDefault:"100" validate:"gte=1"`
	QueueSize    int     `env:"RELAY_QUEUE_SIZE" envDefault:"256" validate:"gte=1"`

	LogLevel    string        `env:"RELAY_LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	LogConsole  bool          `env:"RELAY_LOG_CONSOLE"`
	MetricsTick time.Duration `env:"RELAY_METRICS_TICK" envDefault:"60s" validate:"gt=0"`
}

func loadConfig(args []string) (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("taxirelay", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "http service address")
	fs.DurationVar(&cfg.StopTimeout, "stop-timeout", cfg.StopTimeout, "stop timeout")
	fs.DurationVar(&cfg.KillTimeout, "kill-timeout", cfg.KillTimeout, "kill timeout")
	fs.StringVar(&cfg.Hub, "hub", cfg.Hub, "hub that /negotiate and /message serve")
	fs.StringVar(&cfg.Target, "target", cfg.Target, "event name broadcasts are invoked as")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "base URL clients dial for websockets")
	fs.StringVar(&cfg.Origin, "origin", cfg.Origin, "websocket server checks Origin headers against this scheme://host[:port], * allows any")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "lifetime of issued access tokens")
	fs.Int64Var(&cfg.MaxBody, "max-body", cfg.MaxBody, "largest accepted broadcast body in bytes")
	fs.Float64Var(&cfg.MessageRate, "message-rate", cfg.MessageRate, "broadcasts accepted per second, 0 for unlimited")
	fs.IntVar(&cfg.MessageBurst, "message-burst", cfg.MessageBurst, "broadcast burst allowance")
	fs.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "fan-out queue length")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error")
	fs.BoolVar(&cfg.LogConsole, "log-console", cfg.LogConsole, "human readable logs")
	fs.DurationVar(&cfg.MetricsTick, "metrics.tick", cfg.MetricsTick, "metrics: duration between reports")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
