// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dualdiff evaluates derivatives and runs the derivative-driven solvers from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/curioloop/autodiff/cmd/dualdiff/commands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version is set via ldflags during build.
var Version = "dev"

func main() {
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, Version); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

// setupLogging writes human-readable logs to stderr at the level named by LOG_LEVEL.
func setupLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
}
