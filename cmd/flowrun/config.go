package main

import (
	"github.com/flowmesh/runtime/config"
	"github.com/flowmesh/runtime/server"
)

// runtimeConfig is the ambient service configuration for the flowrun
// binary: service name/environment/logging plus the optional health/metrics
// HTTP surface. The flow specification itself is loaded separately, as
// positional CLI input, not through this config layer.
type runtimeConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	PluginDir string        `yaml:"plugin_dir" mapstructure:"plugin_dir"`
	Server    server.Config `yaml:"server" mapstructure:"server"`
}

// newRuntimeConfig builds the runtime config for the flowrun binary: it
// loads flowrun.yml/config.yml and a .env file from the working directory
// if present, falling back to just the field defaults when neither exists.
func newRuntimeConfig() *runtimeConfig {
	cfg := &runtimeConfig{}
	cfg.Name = "flowrun"
	_ = config.LoadConfig("flowrun", cfg)
	if cfg.Name == "" {
		cfg.Name = "flowrun"
	}
	return cfg
}

func (c *runtimeConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
}

func (c *runtimeConfig) Validate() error {
	return c.ServiceConfig.Validate()
}
