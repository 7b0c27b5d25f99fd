package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/openbeacn/linkd/internal/config"
)

type envConfig struct {
	Env               string `env:"ENV" envDefault:"production"`
	PactlBinary       string `env:"PACTL_BINARY" envDefault:"pactl"`
	PulseAudioBinary  string `env:"PULSEAUDIO_BINARY" envDefault:"pulseaudio"`
	CommandTimeoutSec int    `env:"COMMAND_TIMEOUT_SEC" envDefault:"10"`
	LinkModuleMatch   string `env:"LINK_MODULE_MATCH" envDefault:"beacn_link"`
	CleanupOnStart    bool   `env:"CLEANUP_ON_START" envDefault:"false"`
	CleanupOnExit     bool   `env:"CLEANUP_ON_EXIT" envDefault:"true"`
	RouteSource       string `env:"ROUTE_SOURCE"`
	RouteSink         string `env:"ROUTE_SINK"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:               raw.Env,
		PactlBinary:       raw.PactlBinary,
		PulseAudioBinary:  raw.PulseAudioBinary,
		CommandTimeoutSec: raw.CommandTimeoutSec,
		LinkModuleMatch:   raw.LinkModuleMatch,
		CleanupOnStart:    raw.CleanupOnStart,
		CleanupOnExit:     raw.CleanupOnExit,
		RouteSource:       raw.RouteSource,
		RouteSink:         raw.RouteSink,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
