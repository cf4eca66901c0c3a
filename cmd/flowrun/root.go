package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	pluginDir     string
	enableTracing bool
	otelEndpoint  string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "flowrun",
	Short: "flowrun runs declarative dataflow specs in-process",
	Long: `flowrun loads a flow specification, wires its stages against an
in-process plugin registry, and drives it to completion (or until
stopped) without delegating to a separate runtime process.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&pluginDir,
		"plugin-dir",
		os.Getenv("FLOWRUN_PLUGIN_DIR"),
		"directory dynamic stage plugins (.so) are resolved against (or set FLOWRUN_PLUGIN_DIR)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&enableTracing,
		"enable-tracing",
		envBoolDefault("FLOWRUN_ENABLE_TRACING", false),
		"attach OpenTelemetry spans to stage invocations (or set FLOWRUN_ENABLE_TRACING)",
	)
	rootCmd.PersistentFlags().StringVar(
		&otelEndpoint,
		"otel-endpoint",
		os.Getenv("FLOWRUN_OTEL_ENDPOINT"),
		"OTLP HTTP endpoint (host:port) spans and metrics are exported to when tracing is enabled (or set FLOWRUN_OTEL_ENDPOINT)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"log at debug level (run subcommand)",
	)

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
}

func envBoolDefault(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch value {
	case "1", "true", "TRUE", "True":
		return true
	case "0", "false", "FALSE", "False":
		return false
	default:
		return fallback
	}
}
