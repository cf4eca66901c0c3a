// Package bootstrap orchestrates process lifecycle for the flowrun runtime.
//
// It provides component registration, startup/shutdown hooks, health
// aggregation, and a tree-style summary of the running flow's stages,
// queues, and plugins.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.RegisterComponent(registryComponent); err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// The bootstrap package handles component initialization in registration
// order, graceful shutdown once the context passed to Run/RunTask is
// canceled, and health aggregation across every registered component. It
// installs no OS signal handlers of its own.
package bootstrap
