package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowmesh/runtime/bootstrap"
	"github.com/flowmesh/runtime/component"
	"github.com/flowmesh/runtime/flowspec"
	"github.com/flowmesh/runtime/observability"
	"github.com/flowmesh/runtime/registry"
	"github.com/flowmesh/runtime/server"
	"github.com/flowmesh/runtime/topology"
)

// trackFlowTopology records every stage and queue declared by flow, and the
// plugin reference each stage resolves to, in app's bootstrap summary so
// DisplaySummary renders the flow's shape alongside its component health.
func trackFlowTopology(app *bootstrap.App, flow *flowspec.Flow) {
	for _, q := range flow.Queues {
		qType := string(q.Type)
		if qType == "" {
			qType = "memory"
		}
		app.Summary.TrackQueue(q.Name, qType, q.Capacity)
	}
	for _, s := range flow.Stages {
		threads := s.Threads
		if threads == 0 {
			threads = 1
		}
		app.Summary.TrackStage(s.Name, s.Type, threads, s.InputQueue, s.OutputQueue)

		ref := s.Plugin
		if ref == "" {
			ref = fmt.Sprintf("libstage_%s.so", s.Type)
		}
		app.Summary.TrackPlugin(s.Name, ref, true)
	}
}

// setupTelemetry initializes the tracer and meter providers for flow when
// tracing is enabled and an OTLP endpoint was configured, returning an
// Options with Metrics wired and a shutdown func to run on exit. Tracing
// stays off (and Metrics nil, which RunTask's callees treat as a no-op)
// when no endpoint is given.
func setupTelemetry(ctx context.Context, flowName string) (topology.Options, func(), error) {
	opts := topology.Options{EnableTracing: enableTracing}
	if !enableTracing || otelEndpoint == "" {
		return opts, func() {}, nil
	}

	tracerCfg := observability.DefaultTracerConfig(flowName)
	tracerCfg.Endpoint = otelEndpoint
	tp, err := observability.InitTracer(ctx, &tracerCfg)
	if err != nil {
		return opts, func() {}, err
	}

	meterCfg := observability.DefaultMeterConfig(flowName)
	meterCfg.Endpoint = otelEndpoint
	mp, err := observability.InitMeter(ctx, &meterCfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return opts, func() {}, err
	}

	metrics, err := observability.NewMetrics(observability.Meter(flowName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return opts, func() {}, err
	}
	opts.Metrics = metrics

	shutdown := func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	}
	return opts, shutdown, nil
}

var runCmd = &cobra.Command{
	Use:   "run <flow.yaml>",
	Short: "Run a flow in-process until it completes or is stopped",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := loadFlow(args[0])
		if err != nil {
			return err
		}

		cfg := newRuntimeConfig()
		if verbose {
			cfg.Logging.Level = "debug"
		}
		app, err := bootstrap.NewApp(cfg)
		if err != nil {
			return err
		}

		// A streaming flow runs indefinitely, so it's worth exposing
		// liveness/readiness/metrics for a supervisor to poll; a job flow
		// exits on its own and gains nothing from the surface.
		if flow.Execution.Mode == flowspec.ModeStreaming && cfg.Server.Enabled {
			srv := server.New(cfg.Server, app.Logger)
			srv.ApplyDefaults(cfg.Name, func(ctx context.Context) []component.Health {
				return app.Components.HealthAll(ctx)
			})
			srv.RegisterTopologyEndpoint(func() any {
				return app.Summary.Snapshot()
			})
			if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
				return err
			}
		}

		reg := registry.New(pluginDir)
		registerSamplePlugins(reg)
		if err := app.RegisterComponent(newRegistryComponent(reg, pluginDir)); err != nil {
			return err
		}
		trackFlowTopology(app, flow)

		opts, shutdownTelemetry, err := setupTelemetry(cmd.Context(), flow.Name)
		if err != nil {
			return err
		}
		defer shutdownTelemetry()

		return app.RunTask(cmd.Context(), func(ctx context.Context) error {
			return topology.Run(ctx, flow, reg, opts)
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
