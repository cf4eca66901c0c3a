package main

import (
	"context"
	"fmt"
	"os"

	"github.com/flowmesh/runtime/component"
	"github.com/flowmesh/runtime/registry"
)

// registryComponent wraps the plugin registry in the application lifecycle:
// its one-time setup, stating the plugin directory, is deferred to Start
// rather than done at construction, and Stop destroys every live stage
// instance through the registry's own Shutdown.
type registryComponent struct {
	*component.BaseLazyComponent
	reg *registry.Registry
}

func newRegistryComponent(reg *registry.Registry, pluginDir string) *registryComponent {
	rc := &registryComponent{reg: reg}
	rc.BaseLazyComponent = component.NewBaseLazyComponent("plugin-registry", func(ctx context.Context) error {
		if pluginDir == "" {
			return nil
		}
		info, err := os.Stat(pluginDir)
		if err != nil {
			return fmt.Errorf("plugin directory %q: %w", pluginDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("plugin directory %q is not a directory", pluginDir)
		}
		return nil
	})
	return rc
}

func (rc *registryComponent) Start(ctx context.Context) error {
	return rc.Initialize(ctx)
}

func (rc *registryComponent) Stop(ctx context.Context) error {
	return rc.reg.Shutdown()
}

func (rc *registryComponent) Health(ctx context.Context) component.Health {
	if err := rc.HealthCheck(ctx); err != nil {
		return component.Health{Name: rc.Name(), Status: component.StatusDegraded, Message: err.Error()}
	}
	return component.Health{Name: rc.Name(), Status: component.StatusHealthy, Message: fmt.Sprintf("%d live stage instances", rc.reg.LiveCount())}
}
