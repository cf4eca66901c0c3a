package main

import (
	"github.com/flowmesh/runtime/plugins/filesink"
	"github.com/flowmesh/runtime/plugins/generator"
	"github.com/flowmesh/runtime/plugins/kafkastage"
	"github.com/flowmesh/runtime/plugins/redisdedup"
	"github.com/flowmesh/runtime/registry"
)

// registerSamplePlugins wires the in-tree sample stages into reg under
// their conventional plugin names, alongside whatever .so files the flow
// spec references by explicit path.
func registerSamplePlugins(reg *registry.Registry) {
	generator.Register(reg)
	filesink.Register(reg)
	kafkastage.Register(reg)
	redisdedup.Register(reg)
}
