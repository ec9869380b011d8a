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

package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/nscrawler/pkg/defaults"
	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
	"github.com/NVIDIA/nscrawler/pkg/feature"
	"github.com/NVIDIA/nscrawler/pkg/header"
	"github.com/NVIDIA/nscrawler/pkg/namespace"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
)

// Runner crawls targets with the plugins a Manager selects.
type Runner struct {
	// Manager provides the plugins and the runtime environment. Required.
	Manager *plugin.Manager

	// Audience selects the plugin list. Defaults to container.
	Audience plugin.Audience

	// Features requested in addition to the configured plugins. Nil uses
	// the Manager's defaults.
	Features []string

	// Parallelism bounds concurrent crawls. Defaults to defaults.CrawlParallelism.
	Parallelism int

	// Version is stamped into frame headers.
	Version string

	// Clock stamps headers and times crawls. Defaults to the real clock.
	Clock clock.PassiveClock
}

// pair is one plugin crawl of one target; its outcome lands in the slot
// reserved for it so frames keep selection order.
type pair struct {
	target  int
	sel     plugin.Selected
	entries []Entry
	failure *Failure
	// partial marks a failure caused by a partial namespace switch.
	partial bool
}

func (p *pair) fail(target string, err error) {
	p.failure = &Failure{
		Target:  target,
		Plugin:  p.sel.Name(),
		Feature: p.sel.Descriptor.Feature(),
		Error:   err.Error(),
		err:     err,
	}
}

// Run crawls every target and returns the frames. Host crawls ignore
// targets and produce a single HostTarget frame.
//
// The returned error is set when the batch could not start. A batch stopped
// midway returns a Result with Fatal set and the frames collected so far. A
// partial namespace switch sets Fatal without stopping the batch.
func (r *Runner) Run(ctx context.Context, targets []string) (*Result, error) {
	if r.Manager == nil {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, "plugin manager is required")
	}
	audience := r.Audience
	if audience == "" {
		audience = plugin.AudienceContainer
	}
	if audience == plugin.AudienceHost {
		targets = []string{HostTarget}
	}
	if len(targets) == 0 {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, "at least one target is required")
	}

	selected, err := r.Manager.Plugins(ctx, audience, r.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s plugins: %w", audience, err)
	}

	clk := r.clock()
	now := clk.Now()
	res := &Result{Frames: make([]*Frame, len(targets))}
	res.InitAt(header.KindCrawlResult, r.Version, now)
	for i, t := range targets {
		res.Frames[i] = r.newFrame(t, now)
	}

	if audience == plugin.AudienceContainer {
		if err := r.name(ctx, res); err != nil {
			crawlTotal.WithLabelValues("fatal").Inc()
			res.Fatal = err
			return res, nil
		}
	}

	slog.Debug("starting crawl batch",
		"audience", audience, "targets", len(targets), "plugins", len(selected))

	pairs := make([]*pair, 0, len(targets)*len(selected))
	for i := range targets {
		for _, sel := range selected {
			pairs = append(pairs, &pair{target: i, sel: sel})
		}
	}

	limit := r.Parallelism
	if limit <= 0 {
		limit = defaults.CrawlParallelism
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, p := range pairs {
		g.Go(func() error {
			return crawl(gctx, clk, targets[p.target], p)
		})
	}
	res.Fatal = g.Wait()

	var partial error
	for _, p := range pairs {
		frame := res.Frames[p.target]
		frame.Entries = append(frame.Entries, p.entries...)
		if p.failure == nil {
			continue
		}
		res.Failures = append(res.Failures, *p.failure)
		if p.partial && partial == nil {
			partial = fmt.Errorf("plugin %s on %s: %w", p.failure.Plugin, p.failure.Target, p.failure.Err())
		}
	}
	if res.Fatal == nil {
		res.Fatal = partial
	}
	batchRecords.Set(float64(res.Records()))

	slog.Debug("crawl batch complete",
		"records", res.Records(), "failures", len(res.Failures), "fatal", res.Fatal != nil)
	return res, nil
}

func (r *Runner) clock() clock.PassiveClock {
	if r.Clock == nil {
		return clock.RealClock{}
	}
	return r.Clock
}

func (r *Runner) newFrame(target string, now time.Time) *Frame {
	f := &Frame{
		ID:        uuid.NewString(),
		Target:    target,
		Namespace: target,
		Entries:   make([]Entry, 0),
	}
	f.InitAt(header.KindFrame, r.Version, now)
	return f
}

// name sets each frame's namespace through the runtime environment. Only a
// missing environment plugin is fatal; a target it cannot name keeps its ID.
func (r *Runner) name(ctx context.Context, res *Result) error {
	env, err := r.Manager.RuntimeEnvironment(ctx)
	if err != nil {
		return err
	}

	for _, f := range res.Frames {
		ictx, cancel := context.WithTimeout(ctx, defaults.InspectTimeout)
		ns, err := env.ContainerNamespace(ictx, f.Target, nil)
		cancel()
		if err != nil {
			slog.Warn("failed to name container, using its id",
				"container", f.Target, "environment", env.EnvironmentName(), "error", err)
			continue
		}
		f.Namespace = ns
	}
	return nil
}

// crawl runs one plugin against one target. Only errors that stop the whole
// batch are returned; everything else is recorded on the pair. A pair that
// never starts because the batch stopped is recorded as skipped.
func crawl(ctx context.Context, clk clock.PassiveClock, target string, p *pair) error {
	if ctx.Err() != nil {
		crawlTotal.WithLabelValues("skipped").Inc()
		p.fail(target, fmt.Errorf("%w: %w", ErrSkipped, context.Cause(ctx)))
		return nil
	}
	feat := p.sel.Descriptor.Feature()
	start := clk.Now()
	defer func() {
		crawlDuration.WithLabelValues(feat).Observe(clk.Since(start).Seconds())
	}()

	c := p.sel.Crawler()
	seq, err := c.Crawl(ctx, target, p.sel.Args)
	if err != nil {
		p.fail(target, err)
		switch {
		case errors.Is(err, plugin.ErrRuntimeEnvironmentNotFound):
			crawlTotal.WithLabelValues("fatal").Inc()
			slog.Error("crawl stopped the batch",
				"plugin", p.sel.Name(), "target", target, "error", err)
			return fmt.Errorf("plugin %s on %s: %w", p.sel.Name(), target, err)
		case errors.Is(err, namespace.ErrSwitch):
			crawlTotal.WithLabelValues("fatal").Inc()
			p.partial = true
			slog.Error("partial namespace switch, crawl abandoned",
				"plugin", p.sel.Name(), "target", target, "error", err)
		default:
			crawlTotal.WithLabelValues("failed").Inc()
			slog.Warn("crawl failed", "plugin", p.sel.Name(), "target", target, "error", err)
		}
		return nil
	}

	if seq == nil {
		seq = feature.Empty()
	}
	for rec := range seq {
		p.entries = append(p.entries, Entry{Plugin: p.sel.Name(), Record: rec})
	}
	if len(p.entries) == 0 {
		crawlTotal.WithLabelValues("not_applicable").Inc()
		slog.Debug("plugin not applicable", "plugin", p.sel.Name(), "target", target)
		return nil
	}
	crawlTotal.WithLabelValues("collected").Inc()
	return nil
}
