// Package main implements the entry point for the recap API server,
// which runs the weekly activity summary batch pipeline and the admin
// surface for operating it.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
)

// main loads configuration, wires the application and runs it until a
// shutdown signal arrives.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
