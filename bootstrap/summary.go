package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flowmesh/runtime/component"
	"github.com/flowmesh/runtime/logger"
)

// ComponentStatus holds the tracked status of a component during bootstrap.
type ComponentStatus struct {
	Name    string
	Status  string
	Healthy bool
}

// InfrastructureInfo holds detailed infrastructure component information.
type InfrastructureInfo struct {
	Name    string
	Type    string // e.g. "database", "server", "kafka", "redis"
	Status  string
	Details string
	Port    int
	Healthy bool
}

// StageInfo represents one stage spec in the flow being run.
type StageInfo struct {
	Name        string
	Type        string
	Threads     int
	InputQueue  string
	OutputQueue string
}

// RouteInfo represents a registered HTTP route (the STREAMING-mode
// health/metrics surface; a JOB-mode flow has none).
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// QueueInfo represents one queue spec in the flow being run.
type QueueInfo struct {
	Name     string
	Type     string
	Capacity int
}

// PluginInfo represents a stage plugin reference resolved against the
// registry.
type PluginInfo struct {
	Name   string
	Ref    string
	Loaded bool
}

// Summary tracks and displays the application bootstrap process.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	components      []ComponentStatus
	infrastructure  []InfrastructureInfo
	stages          []StageInfo
	routes          []RouteInfo
	queues          []QueueInfo
	plugins         []PluginInfo
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName:    serviceName,
		version:        version,
		components:     make([]ComponentStatus, 0),
		infrastructure: make([]InfrastructureInfo, 0),
		stages:         make([]StageInfo, 0),
		routes:         make([]RouteInfo, 0),
		queues:         make([]QueueInfo, 0),
		plugins:        make([]PluginInfo, 0),
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackComponent adds a component's bootstrap status to the summary.
func (s *Summary) TrackComponent(name, status string, healthy bool) {
	s.components = append(s.components, ComponentStatus{
		Name:    name,
		Status:  status,
		Healthy: healthy,
	})
}

// TrackInfrastructure adds an infrastructure component with detailed metadata.
func (s *Summary) TrackInfrastructure(name, componentType, status, details string, port int, healthy bool) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    componentType,
		Status:  status,
		Details: details,
		Port:    port,
		Healthy: healthy,
	})
}

// TrackStage records one stage spec from the flow being run.
func (s *Summary) TrackStage(name, stageType string, threads int, inputQueue, outputQueue string) {
	s.stages = append(s.stages, StageInfo{
		Name:        name,
		Type:        stageType,
		Threads:     threads,
		InputQueue:  inputQueue,
		OutputQueue: outputQueue,
	})
}

// TrackRoute records an HTTP route (the STREAMING-mode health/metrics
// surface).
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
}

// TrackQueue records one queue spec from the flow being run.
func (s *Summary) TrackQueue(name, queueType string, capacity int) {
	s.queues = append(s.queues, QueueInfo{
		Name:     name,
		Type:     queueType,
		Capacity: capacity,
	})
}

// TrackPlugin records a stage plugin reference resolved against the
// registry, and whether it was successfully resolvable at bootstrap time.
func (s *Summary) TrackPlugin(name, ref string, loaded bool) {
	s.plugins = append(s.plugins, PluginInfo{
		Name:   name,
		Ref:    ref,
		Loaded: loaded,
	})
}

// Snapshot is a JSON-friendly copy of the flow topology tracked by Summary,
// for the optional STREAMING-mode HTTP surface's /topology endpoint.
type Snapshot struct {
	Service string      `json:"service"`
	Version string      `json:"version"`
	Stages  []StageInfo `json:"stages"`
	Queues  []QueueInfo `json:"queues"`
	Plugins []PluginInfo `json:"plugins"`
}

// Snapshot returns the current stage/queue/plugin topology. Safe to call
// after the flow has been tracked into the summary at startup; the
// returned slices are copies, so the caller may not mutate s's state.
func (s *Summary) Snapshot() Snapshot {
	stages := make([]StageInfo, len(s.stages))
	copy(stages, s.stages)
	queues := make([]QueueInfo, len(s.queues))
	copy(queues, s.queues)
	plugins := make([]PluginInfo, len(s.plugins))
	copy(plugins, s.plugins)

	return Snapshot{
		Service: s.serviceName,
		Version: s.version,
		Stages:  stages,
		Queues:  queues,
		Plugins: plugins,
	}
}

// DisplaySummary prints the bootstrap summary including live health from the registry.
func (s *Summary) DisplaySummary(registry *component.Registry, log *logger.Logger) {
	// Header
	fmt.Printf("\n")
	fmt.Printf("🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	// Infrastructure (detailed)
	if len(s.infrastructure) > 0 {
		fmt.Printf("📊 Infrastructure\n")
		for i, inf := range s.infrastructure {
			prefix := "├──"
			if i == len(s.infrastructure)-1 && len(s.components) == 0 {
				prefix = "└──"
			}
			icon := statusIcon(inf.Status, inf.Healthy)
			details := inf.Details
			if inf.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Printf("   %s %s %s: %s\n", prefix, icon, inf.Name, details)
		}
		fmt.Printf("\n")
	}

	// Components
	if len(s.components) > 0 {
		fmt.Printf("📦 Components\n")
		healthy := 0
		for i, c := range s.components {
			prefix := "├──"
			if i == len(s.components)-1 {
				prefix = "└──"
			}
			icon := statusIcon(c.Status, c.Healthy)
			fmt.Printf("   %s %s %s (%s)\n", prefix, icon, c.Name, c.Status)
			if c.Healthy {
				healthy++
			}
		}
		fmt.Printf("\n")

		total := len(s.components)
		if healthy == total {
			fmt.Printf("✅ All components healthy (%d/%d)\n", healthy, total)
		} else {
			fmt.Printf("⚠️  Some components have issues (%d/%d healthy)\n", healthy, total)
		}
	}

	if len(s.infrastructure) == 0 && len(s.components) == 0 {
		fmt.Printf("   └── No components registered\n")
	}

	// Stages
	if len(s.stages) > 0 {
		fmt.Printf("\n🔀 Stages (%d)\n", len(s.stages))
		for i, st := range s.stages {
			prefix := "├──"
			if i == len(s.stages)-1 {
				prefix = "└──"
			}
			wiring := st.InputQueue
			if wiring == "" {
				wiring = "∅"
			}
			out := st.OutputQueue
			if out == "" {
				out = "∅"
			}
			fmt.Printf("   %s ⚙️  %s [%s] x%d: %s → %s\n", prefix, st.Name, st.Type, st.Threads, wiring, out)
		}
	}

	// Queues
	if len(s.queues) > 0 {
		fmt.Printf("\n📬 Queues (%d)\n", len(s.queues))
		for i, q := range s.queues {
			prefix := "├──"
			if i == len(s.queues)-1 {
				prefix = "└──"
			}
			fmt.Printf("   %s %s [%s] capacity=%d\n", prefix, q.Name, q.Type, q.Capacity)
		}
	}

	// Routes
	if len(s.routes) > 0 {
		fmt.Printf("\n🌐 Routes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			prefix := "├──"
			if i == len(s.routes)-1 {
				prefix = "└──"
			}
			fmt.Printf("   %s %-7s %s → %s\n", prefix, r.Method, r.Path, r.Handler)
		}
	}

	// Plugins
	if len(s.plugins) > 0 {
		fmt.Printf("\n🧩 Plugins\n")
		for i, p := range s.plugins {
			prefix := "├──"
			if i == len(s.plugins)-1 {
				prefix = "└──"
			}
			icon := "✅"
			if !p.Loaded {
				icon = "❌"
			}
			fmt.Printf("   %s %s %s → %s\n", prefix, icon, p.Name, p.Ref)
		}
	}

	// Live health check
	if registry != nil {
		healthResults := registry.HealthAll(context.Background())
		if len(healthResults) > 0 {
			fmt.Printf("\n🏥 Health Check\n")
			for i, h := range healthResults {
				prefix := "├──"
				if i == len(healthResults)-1 {
					prefix = "└──"
				}
				icon := healthStatusIcon(h.Status)
				msg := ""
				if h.Message != "" {
					msg = fmt.Sprintf(" — %s", h.Message)
				}
				fmt.Printf("   %s %s %s: %s%s\n", prefix, icon, h.Name, strings.ToLower(string(h.Status)), msg)
			}
		}
	}

	fmt.Printf("\n")
}

func statusIcon(status string, healthy bool) string {
	if !healthy {
		return "❌"
	}
	switch status {
	case "active", "initialized", "connected", "healthy":
		return "✅"
	case "lazy":
		return "⚡"
	case "inactive", "disabled":
		return "⏸️"
	case "error", "failed":
		return "❌"
	default:
		return "⚠️"
	}
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
