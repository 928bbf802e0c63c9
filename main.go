// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"luxsync/cmd"
	"luxsync/internal/log"
	"luxsync/pkg/build"
)

// main is the entry point for the luxsync application.
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//
// 2. Concurrent Phase (Hot Path):
//   - Capture or replay audio, extract features, run the pipeline
//   - Fan decisions out to the monitor, network and journal
//
// 3. Shutdown Phase (Cold Path):
//   - SIGINT or SIGTERM cancels the context
//   - Commands stop their stages and close outputs before returning
func main() {
	if err := build.Initialize(); err != nil {
		log.Warnf("Build info: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}
