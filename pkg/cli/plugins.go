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
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/nscrawler/pkg/header"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
	"github.com/NVIDIA/nscrawler/pkg/serializer"
)

func pluginsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "plugins",
		EnableShellCompletion: true,
		Usage:                 "List the plugins a crawl would run, with their resolved arguments",
		Description: `Discover the plugins in the plugin places, apply the crawler configuration
and global options, and list the selected plugins of one audience with the
arguments each would receive.

Manifests that fail to load are logged as warnings and left out.

# Examples

List container plugins for the default features:
  nscrawler plugins

List host plugins providing the os feature, as a table:
  nscrawler plugins --audience host -f os --format table

Show the module each compiled-in plugin can be declared with:
  nscrawler plugins --modules`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "audience",
				Aliases: []string{"a"},
				Usage:   "plugin audience (container, vm, host)",
				Value:   string(plugin.AudienceContainer),
			},
			&cli.BoolFlag{
				Name:  "reload",
				Usage: "select with the reload feature defaults (os, cpu) when no feature is given",
			},
			&cli.BoolFlag{
				Name:  "modules",
				Usage: "list the compiled-in plugin modules instead",
			},
			outputFlag(),
			formatFlag(),
		}, pluginFlags()...),
		Action: runPlugins,
	}
}

func runPlugins(ctx context.Context, cmd *cli.Command) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	defer func() {
		if cerr := w.Close(); cerr != nil {
			slog.Warn("failed to close output", "error", cerr)
		}
	}()

	if cmd.Bool("modules") {
		return w.Serialize(ctx, moduleList(plugin.Modules()))
	}

	audience, err := plugin.ParseAudience(cmd.String("audience"))
	if err != nil {
		return err
	}
	m, err := newManager(cmd, &plugin.Services{})
	if err != nil {
		return err
	}

	var selected []plugin.Selected
	if cmd.Bool("reload") {
		selected, err = m.Reload(ctx, audience, features(cmd))
	} else {
		selected, err = m.Plugins(ctx, audience, features(cmd))
	}
	if err != nil {
		return fmt.Errorf("failed to list %s plugins: %w", audience, err)
	}

	return w.Serialize(ctx, newPluginList(audience, selected))
}

// PluginList is the document written by the plugins command.
type PluginList struct {
	header.Header `json:",inline" yaml:",inline"`

	Audience plugin.Audience `json:"audience" yaml:"audience"`
	Plugins  []PluginEntry   `json:"plugins" yaml:"plugins"`
}

// PluginEntry describes one selected plugin.
type PluginEntry struct {
	Name     string          `json:"name" yaml:"name"`
	Category plugin.Category `json:"category" yaml:"category"`
	Feature  string          `json:"feature" yaml:"feature"`
	Module   string          `json:"module" yaml:"module"`
	Path     string          `json:"path" yaml:"path"`
	Args     plugin.Args     `json:"args,omitempty" yaml:"args,omitempty"`
}

func newPluginList(a plugin.Audience, selected []plugin.Selected) *PluginList {
	l := &PluginList{
		Audience: a,
		Plugins:  make([]PluginEntry, 0, len(selected)),
	}
	l.Init(header.KindPluginList, version)
	for _, s := range selected {
		d := s.Descriptor
		l.Plugins = append(l.Plugins, PluginEntry{
			Name:     d.Name(),
			Category: d.Category(),
			Feature:  d.Feature(),
			Module:   d.Module(),
			Path:     d.Path(),
			Args:     s.Args,
		})
	}
	return l
}

// Table renders one row per plugin.
func (l *PluginList) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l.Plugins))
	for _, p := range l.Plugins {
		rows = append(rows, []string{p.Name, p.Feature, p.Module, formatArgs(p.Args)})
	}
	return []string{"NAME", "FEATURE", "MODULE", "ARGS"}, rows
}

func formatArgs(a plugin.Args) string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, a[k]))
	}
	return strings.Join(parts, ",")
}

type moduleList []string

func (m moduleList) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(m))
	for _, name := range m {
		rows = append(rows, []string{name})
	}
	return []string{"MODULE"}, rows
}
