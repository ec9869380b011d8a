// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/nscrawler/pkg/logging"
)

const (
	name           = "nscrawler"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitError    = 1
	exitCanceled = 2
)

// Execute runs the nscrawler command line. This is called by main.main().
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return exitCanceled
	}
	return exitError
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               version,
		EnableShellCompletion: true,
		Usage:                 "Crawl container and host features from outside the workload",
		Description: fmt.Sprintf(`nscrawler collects operational features (load, OS release, application
metrics, service state) from containers and the host it runs on. Container
features are read from inside the container's kernel namespaces, so no agent
runs in the workload.

Version: %s
Commit:  %s
Built:   %s`, version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("NSCRAWLER_LOG_LEVEL", logging.EnvLogLevel),
			},
		},
		Before: initLogger,
		Commands: []*cli.Command{
			crawlCmd(),
			pluginsCmd(),
		},
	}
}

// initLogger configures slog once flags are parsed so --log-level takes
// effect before any command executes.
func initLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := cmd.String("log-level")
	logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", level)
	return ctx, nil
}
