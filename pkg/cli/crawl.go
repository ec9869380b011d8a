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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/nscrawler/pkg/crawler"
	"github.com/NVIDIA/nscrawler/pkg/defaults"
	"github.com/NVIDIA/nscrawler/pkg/inspect"
	"github.com/NVIDIA/nscrawler/pkg/k8s/client"
	"github.com/NVIDIA/nscrawler/pkg/namespace"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
	"github.com/NVIDIA/nscrawler/pkg/serializer"
)

// errBatchStopped marks a crawl batch that ended on a fatal error.
var errBatchStopped = errors.New("crawl batch stopped")

func crawlCmd() *cli.Command {
	return &cli.Command{
		Name:                  "crawl",
		EnableShellCompletion: true,
		Usage:                 "Crawl containers or the host once and write the collected frames",
		Description: `Run every selected plugin of the chosen mode against each target and write one
frame per target.

Plugins are selected when the crawler configuration enables them by name or
when they provide one of the requested features (--feature). Without
--feature the default features are used: package, os, process, file, config.

Container targets are runtime container IDs of pods on this node. Host mode
ignores targets and crawls the host itself.

A plugin that does not apply to a target contributes nothing. A plugin that
fails is reported in the failures list and the batch continues. A namespace
switch that cannot be undone, or a missing runtime environment plugin, stops
the batch and the command exits non-zero.

# Examples

Crawl the load and OS release of two containers:
  nscrawler crawl --target 3f2a9c --target 8d41e0 -f load -f os

Crawl the host with a root filesystem mounted elsewhere:
  nscrawler crawl --mode host --mountpoint /host -f os -f load

Read configuration from a ConfigMap and pass Liberty credentials:
  nscrawler crawl -c cm://monitoring/nscrawler --option liberty.user=admin \
    --option liberty.password=secret --target 3f2a9c

Write Prometheus metrics for the node exporter textfile collector:
  nscrawler crawl --target 3f2a9c --metrics-file /var/lib/node_exporter/nscrawler.prom`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "what to crawl (container, vm, host)",
				Value:   string(plugin.AudienceContainer),
				Sources: cli.EnvVars("NSCRAWLER_MODE"),
			},
			&cli.StringSliceFlag{
				Name:  "target",
				Usage: "container ID to crawl (can be repeated)",
			},
			&cli.IntFlag{
				Name:    "parallelism",
				Aliases: []string{"p"},
				Usage:   "maximum number of concurrent crawls and namespace switches",
				Value:   defaults.CrawlParallelism,
				Sources: cli.EnvVars("NSCRAWLER_PARALLELISM"),
			},
			&cli.FloatFlag{
				Name:  "switch-rate",
				Usage: "maximum namespace switches per second (0: unlimited)",
			},
			&cli.StringFlag{
				Name:  "proc-root",
				Usage: "procfs mount used to find container processes",
				Value: "/proc",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "time limit for the whole batch",
				Value: defaults.CrawlBatchTimeout,
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write crawl metrics to this file in Prometheus text format",
			},
			outputFlag(),
			formatFlag(),
		}, pluginFlags()...),
		Action: runCrawl,
	}
}

func runCrawl(ctx context.Context, cmd *cli.Command) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	audience, err := plugin.ParseAudience(cmd.String("mode"))
	if err != nil {
		return err
	}

	svc, err := crawlServices(cmd, audience)
	if err != nil {
		return err
	}
	m, err := newManager(cmd, svc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	r := &crawler.Runner{
		Manager:     m,
		Audience:    audience,
		Features:    features(cmd),
		Parallelism: int(cmd.Int("parallelism")),
		Version:     version,
	}
	res, err := r.Run(ctx, cmd.StringSlice("target"))
	if err != nil {
		return err
	}

	if path := cmd.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
			slog.Error("failed to write metrics", "path", path, "error", err)
		}
	}

	w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	defer func() {
		if cerr := w.Close(); cerr != nil {
			slog.Warn("failed to close output", "error", cerr)
		}
	}()
	// frames collected before a timeout are still written
	if err := w.Serialize(context.WithoutCancel(ctx), res); err != nil {
		return fmt.Errorf("failed to write crawl result: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crawl batch interrupted: %w", err)
	}
	if res.Fatal != nil {
		return fmt.Errorf("%w: %w", errBatchStopped, res.Fatal)
	}
	slog.Info("crawl complete",
		"mode", audience,
		"frames", len(res.Frames),
		"records", res.Records(),
		"failures", len(res.Failures))
	return nil
}

// crawlServices builds the collaborators plugins are created with. The
// Kubernetes client is only needed to inspect containers.
func crawlServices(cmd *cli.Command, audience plugin.Audience) (*plugin.Services, error) {
	procRoot := cmd.String("proc-root")
	parallelism := int(cmd.Int("parallelism"))

	opts := []namespace.Option{
		namespace.WithParallelism(parallelism),
		namespace.WithProcRoot(procRoot),
	}
	if r := cmd.Float("switch-rate"); r > 0 {
		opts = append(opts, namespace.WithRateLimit(rate.NewLimiter(rate.Limit(r), max(parallelism, 1))))
	}
	svc := &plugin.Services{Executor: namespace.NewExecutor(opts...)}

	if audience == plugin.AudienceContainer {
		kc, err := client.ClientFor(cmd.String("kubeconfig"))
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
		}
		svc.Inspector = &inspect.KubeInspector{Client: kc, ProcRoot: procRoot}
	}
	return svc, nil
}
