// Package component defines the core interfaces for lifecycle-managed
// infrastructure services in the flowrun runtime.
//
// Components represent services that require startup, shutdown, and
// health monitoring — the plugin registry and the optional HTTP surface.
// They are registered with the bootstrap package for automatic lifecycle
// management via Registry.
//
// # Interfaces
//
//   - Component: core lifecycle interface (Start/Stop/Health)
//   - Describable: optional bootstrap summary description
//   - RouteProvider: optional registered-route reporting for the summary
package component
