package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env               string
	PactlBinary       string
	PulseAudioBinary  string
	CommandTimeoutSec int
	LinkModuleMatch   string
	CleanupOnStart    bool
	CleanupOnExit     bool
	RouteSource       string
	RouteSink         string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.CommandTimeoutSec <= 0 {
		return fmt.Errorf("COMMAND_TIMEOUT_SEC must be positive, got %d", c.CommandTimeoutSec)
	}
	if (c.RouteSource == "") != (c.RouteSink == "") {
		return fmt.Errorf("ROUTE_SOURCE and ROUTE_SINK must be set together")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "PACTL_BINARY", value: c.PactlBinary},
		{name: "PULSEAUDIO_BINARY", value: c.PulseAudioBinary},
		{name: "LINK_MODULE_MATCH", value: c.LinkModuleMatch},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSec) * time.Second
}
