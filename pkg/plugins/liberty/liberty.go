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

package liberty

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/NVIDIA/nscrawler/pkg/defaults"
	"github.com/NVIDIA/nscrawler/pkg/feature"
	"github.com/NVIDIA/nscrawler/pkg/inspect"
	"github.com/NVIDIA/nscrawler/pkg/namespace"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
)

const (
	// Feature is the feature key of the Liberty crawler.
	Feature = "liberty"

	Module = "liberty.container"

	// DefaultPort is the Liberty HTTPS port the REST connector listens on.
	DefaultPort = 9443

	ArgUser      = "user"
	ArgPassword  = "password"
	ArgVerifyTLS = "verify_tls"

	connectorPath = "/IBMJMXConnectorREST/mbeans/"
	maxBodySize   = 1 << 20
)

// MBean is a Liberty MBean collected as one record.
type MBean struct {
	Key  string
	Name string
}

// MBeans are the MBeans read on every crawl.
var MBeans = []MBean{
	{Key: "liberty.jvm", Name: "WebSphere:type=JvmStats"},
	{Key: "liberty.threadpool", Name: "WebSphere:type=ThreadPoolStats,name=Default Executor"},
}

var errNoAddress = errors.New("no non-loopback IPv4 address in container network namespace")

func init() {
	plugin.MustRegister(Module, func(s *plugin.Services) any {
		return &Crawler{
			Inspector: s.ContainerInspector(),
			Executor:  s.NamespaceExecutor(),
		}
	})
}

// Crawler collects Liberty metrics from a container.
type Crawler struct {
	Inspector inspect.Inspector
	Executor  *namespace.Executor

	// Port is the connector port; DefaultPort when zero.
	Port int
	// Scheme of the connector URL; https when empty.
	Scheme string
	// AddressOf returns the address to connect to for the container process
	// pid. Defaults to the first non-loopback IPv4 address inside the
	// container's network namespace.
	AddressOf func(ctx context.Context, pid int) (string, error)
	// Client is the HTTP client; a client built from the verify_tls argument
	// when nil.
	Client *http.Client
}

// Feature returns "liberty".
func (c *Crawler) Feature() string { return Feature }

// Crawl collects the Liberty MBeans of the container.
func (c *Crawler) Crawl(ctx context.Context, containerID string, args plugin.Args) (iter.Seq[feature.Record], error) {
	user := args.StringOr(ArgUser, "user")
	password := args.StringOr(ArgPassword, "password")
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	ct, err := c.Inspector.Inspect(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container %s: %w", containerID, err)
	}

	ports, err := declaredPorts(ct)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(ports, port) {
		slog.Debug("liberty port not declared, skipping", "container", containerID, "port", port)
		return plugin.NotApplicable()
	}

	addressOf := c.AddressOf
	if addressOf == nil {
		addressOf = c.namespaceAddress
	}
	ip, err := addressOf(ctx, ct.PID)
	if err != nil {
		if errors.Is(err, errNoAddress) {
			return nil, plugin.CollectionFailed(containerID, Feature, err)
		}
		return nil, err
	}

	client := c.Client
	if client == nil {
		client = newClient(args.Bool(ArgVerifyTLS))
	}
	scheme := c.Scheme
	if scheme == "" {
		scheme = "https"
	}
	base := url.URL{Scheme: scheme, Host: net.JoinHostPort(ip, strconv.Itoa(port))}

	records := make([]feature.Record, 0, len(MBeans))
	for _, mb := range MBeans {
		readings, err := fetch(ctx, client, base, mb.Name, user, password)
		if err != nil {
			slog.Info("liberty does not answer", "container", containerID, "port", port, "error", err)
			return nil, plugin.CollectionFailed(containerID, Feature, err)
		}
		records = append(records, feature.Record{Key: mb.Key, Attributes: readings, Type: feature.TypeApplication})
	}
	return feature.Of(records...), nil
}

// declaredPorts prefers the Kubernetes ports annotation over the inspected ports.
func declaredPorts(ct *inspect.Container) ([]int, error) {
	if raw, ok := ct.Labels[inspect.LabelPorts]; ok {
		ports, err := inspect.ParsePorts(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ports label on container %s: %w", ct.ID, err)
		}
		return ports, nil
	}
	return ct.PortNumbers(), nil
}

func (c *Crawler) namespaceAddress(ctx context.Context, pid int) (string, error) {
	return namespace.Do(ctx, c.Executor, pid, namespace.NewSet(namespace.Network), hostIPv4)
}

// hostIPv4 returns the first non-loopback IPv4 address of the calling
// thread's network namespace.
func hostIPv4() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("failed to list interface addresses: %w", err)
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipn.IP.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4.String(), nil
		}
	}
	return "", errNoAddress
}

type attribute struct {
	Name  string `json:"name"`
	Value struct {
		Value any    `json:"value"`
		Type  string `json:"type"`
	} `json:"value"`
}

func fetch(ctx context.Context, client *http.Client, base url.URL, mbean, user, password string) (feature.Readings, error) {
	u := base
	u.Path = connectorPath + mbean + "/attributes"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(user, password)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach connector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("connector returned %s for %s", resp.Status, mbean)
	}

	var attrs []attribute
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("failed to decode %s attributes: %w", mbean, err)
	}

	readings := make(feature.Readings, len(attrs))
	for _, a := range attrs {
		if a.Name == "" || a.Value.Value == nil {
			continue
		}
		readings[a.Name] = feature.ToReading(a.Value.Value)
	}
	return readings, nil
}

func newClient(verifyTLS bool) *http.Client {
	return &http.Client{
		Timeout: defaults.HTTPClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: defaults.HTTPConnectTimeout,
			}).DialContext,
			TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
			ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
			DisableKeepAlives:     true,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
				// Liberty ships a self-signed certificate by default.
				InsecureSkipVerify: !verifyTLS, //nolint:gosec
			},
		},
	}
}
