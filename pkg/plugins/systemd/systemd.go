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

package systemd

import (
	"context"
	"iter"
	"log/slog"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/NVIDIA/nscrawler/pkg/feature"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
)

const (
	// Feature is the feature key of the systemd crawler.
	Feature = "systemd"

	Module = "systemd.host"

	// ArgUnits lists the units to report.
	ArgUnits = "units"

	// DefaultUnit is reported when no units are configured.
	DefaultUnit = "containerd.service"

	target = "host"
)

// Keys removed from unit properties for privacy or noise reduction.
var filterOutKeys = []string{
	"AllowedCPUs",
	"AllowedMemoryNodes",
	"Asserts",
	"BPFProgram",
	"BusName",
	"Id",
	"*Credential*",
}

// Conn is the part of a systemd D-Bus connection the crawler uses.
type Conn interface {
	GetAllPropertiesContext(ctx context.Context, unit string) (map[string]any, error)
	Close()
}

// DialFunc opens a connection to systemd.
type DialFunc func(ctx context.Context) (Conn, error)

func dialSystem(ctx context.Context) (Conn, error) {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func init() {
	plugin.MustRegister(Module, func(*plugin.Services) any {
		return &Crawler{Dial: dialSystem}
	})
}

// Crawler reports systemd unit properties of the host.
type Crawler struct {
	Dial DialFunc
}

// Feature returns "systemd".
func (c *Crawler) Feature() string { return Feature }

// Crawl reads the properties of every configured unit.
func (c *Crawler) Crawl(ctx context.Context, _ string, args plugin.Args) (iter.Seq[feature.Record], error) {
	units := args.Strings(ArgUnits)
	if len(units) == 0 {
		units = []string{DefaultUnit}
	}

	dial := c.Dial
	if dial == nil {
		dial = dialSystem
	}
	conn, err := dial(ctx)
	if err != nil {
		slog.Warn("systemd not reachable, skipping", "error", err)
		return plugin.NotApplicable()
	}
	defer conn.Close()

	records := make([]feature.Record, 0, len(units))
	for _, unit := range units {
		props, err := conn.GetAllPropertiesContext(ctx, unit)
		if err != nil {
			return nil, plugin.CollectionFailed(target, Feature, err)
		}

		readings := make(feature.Readings, len(props))
		for k, v := range props {
			readings[k] = feature.ToReading(v)
		}
		records = append(records, feature.Record{
			Key:        unit,
			Attributes: readings.FilterOut(filterOutKeys),
			Type:       feature.TypeSystemD,
		})
	}

	slog.Debug("collected systemd units", "count", len(records))
	return feature.Of(records...), nil
}
