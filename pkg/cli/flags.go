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
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/nscrawler/pkg/config"
	"github.com/NVIDIA/nscrawler/pkg/defaults"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
	"github.com/NVIDIA/nscrawler/pkg/serializer"
)

// Shared flags, built fresh for each command.
func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
		Value:   string(serializer.FormatYAML),
	}
}

func kubeconfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "path to the kubeconfig file (default: KUBECONFIG, ~/.kube/config, in-cluster)",
		Sources: cli.EnvVars("NSCRAWLER_KUBECONFIG"),
	}
}

func pluginPlacesFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "plugin-places",
		Usage:   "directories searched for *.plugin manifests, in order",
		Value:   defaults.PluginPlaces,
		Sources: cli.EnvVars("NSCRAWLER_PLUGIN_PLACES"),
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "crawler configuration: file path or ConfigMap URI (cm://namespace/name)",
		Value:   defaults.ConfigPath,
		Sources: cli.EnvVars("NSCRAWLER_CONFIG"),
	}
}

func environmentFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "environment",
		Usage:   "runtime environment used to name containers (cloudsight, kubernetes)",
		Value:   defaults.Environment,
		Sources: cli.EnvVars("NSCRAWLER_ENVIRONMENT"),
	}
}

func mountpointFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "mountpoint",
		Usage:   "host path where the crawled root filesystem is mounted (passed to plugins as root_dir)",
		Sources: cli.EnvVars("NSCRAWLER_MOUNTPOINT"),
	}
}

func avoidSetnsFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "avoid-setns",
		Usage:   "ask plugins to collect without switching namespaces",
		Sources: cli.EnvVars("NSCRAWLER_AVOID_SETNS"),
	}
}

func optionFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "option",
		Usage: "global plugin option as key=value, or feature.key=value for one feature (can be repeated)",
	}
}

func featureFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "feature",
		Aliases: []string{"f"},
		Usage:   "feature to crawl in addition to the configured plugins (can be repeated)",
	}
}

func pluginFlags() []cli.Flag {
	return []cli.Flag{
		pluginPlacesFlag(),
		configFlag(),
		environmentFlag(),
		mountpointFlag(),
		avoidSetnsFlag(),
		optionFlag(),
		featureFlag(),
		kubeconfigFlag(),
	}
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", f)
	}
	return f, nil
}

// features returns the requested features, or nil for the defaults.
func features(cmd *cli.Command) []string {
	f := cmd.StringSlice("feature")
	if len(f) == 0 {
		return nil
	}
	return f
}

// globalOptions builds the global plugin options from flags.
func globalOptions(cmd *cli.Command) (plugin.Args, error) {
	opts, err := parseOptions(cmd.StringSlice("option"))
	if err != nil {
		return nil, err
	}
	if mp := cmd.String("mountpoint"); mp != "" {
		opts[plugin.OptionMountpoint] = mp
	}
	if cmd.Bool("avoid-setns") {
		opts[plugin.ArgAvoidSetns] = true
	}
	return opts, nil
}

// parseOptions turns key=value pairs into options. A dotted key sets a
// feature-keyed option: liberty.user=admin becomes {liberty: {user: admin}}.
func parseOptions(pairs []string) (plugin.Args, error) {
	opts := plugin.Args{}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q: expected key=value", p)
		}

		feat, sub, nested := strings.Cut(key, ".")
		if !nested {
			opts[key] = value
			continue
		}
		if feat == "" || sub == "" {
			return nil, fmt.Errorf("invalid option %q: expected feature.key=value", p)
		}
		m, ok := opts[feat].(plugin.Args)
		if !ok {
			if _, taken := opts[feat]; taken {
				return nil, fmt.Errorf("invalid option %q: %s is already set as a global option", p, feat)
			}
			m = plugin.Args{}
			opts[feat] = m
		}
		m[sub] = value
	}
	return opts, nil
}

// configSource returns the crawler configuration source named by --config.
func configSource(cmd *cli.Command) (config.Source, error) {
	src, err := config.Parse(cmd.String("config"), defaults.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cm, ok := src.(*config.ConfigMapSource); ok {
		cm.Kubeconfig = cmd.String("kubeconfig")
	}
	return src, nil
}

// newManager builds the plugin manager from flags.
func newManager(cmd *cli.Command, svc *plugin.Services) (*plugin.Manager, error) {
	src, err := configSource(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := globalOptions(cmd)
	if err != nil {
		return nil, err
	}
	return plugin.NewManager(
		plugin.WithPlaces(cmd.StringSlice("plugin-places")...),
		plugin.WithConfigSource(src),
		plugin.WithOptions(opts),
		plugin.WithServices(svc),
		plugin.WithEnvironmentName(cmd.String("environment")),
	), nil
}
