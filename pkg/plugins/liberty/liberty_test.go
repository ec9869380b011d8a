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
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/nscrawler/pkg/feature"
	"github.com/NVIDIA/nscrawler/pkg/inspect"
	"github.com/NVIDIA/nscrawler/pkg/plugin"
)

const jvmStats = `[
  {"name": "Heap", "value": {"value": 268435456, "type": "java.lang.Long"}},
  {"name": "UsedMemory", "value": {"value": 104857600, "type": "java.lang.Long"}},
  {"name": "ProcessCPU", "value": {"value": 1.5, "type": "java.lang.Double"}},
  {"name": "Missing", "value": {"value": null, "type": "java.lang.Long"}}
]`

const threadPool = `[
  {"name": "PoolName", "value": {"value": "Default Executor", "type": "java.lang.String"}},
  {"name": "ActiveThreads", "value": {"value": 3, "type": "java.lang.Integer"}}
]`

// libertyServer serves the JMX REST connector and returns the crawler and
// inspector configured to reach it.
func libertyServer(t *testing.T, handler http.HandlerFunc) (*Crawler, int) {
	t.Helper()
	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return &Crawler{
		Port:      port,
		Client:    srv.Client(),
		AddressOf: func(context.Context, int) (string, error) { return "127.0.0.1", nil },
	}, port
}

func connector(user, password string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case strings.Contains(r.URL.Path, "type=JvmStats"):
			fmt.Fprint(w, jvmStats)
		case strings.Contains(r.URL.Path, "type=ThreadPoolStats"):
			fmt.Fprint(w, threadPool)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func container(labelPorts string, ports ...int) inspect.Static {
	c := &inspect.Container{ID: "c1", State: inspect.StateRunning, PID: 1234, Labels: map[string]string{}}
	if labelPorts != "" {
		c.Labels[inspect.LabelPorts] = labelPorts
	}
	for _, p := range ports {
		c.Ports = append(c.Ports, inspect.Port{ContainerPort: p, Protocol: "TCP"})
	}
	return inspect.Static{"c1": c}
}

func TestCrawl_CollectsMBeans(t *testing.T) {
	c, port := libertyServer(t, connector("admin", "secret"))
	c.Inspector = container(fmt.Sprintf(`[{"containerPort": %d, "protocol": "TCP"}]`, port))

	seq, err := c.Crawl(context.Background(), "c1", plugin.Args{"user": "admin", "password": "secret"})
	require.NoError(t, err)

	records := feature.Collect(seq)
	require.Len(t, records, 2)

	assert.Equal(t, "liberty.jvm", records[0].Key)
	assert.Equal(t, feature.TypeApplication, records[0].Type)
	jvm, ok := records[0].Attributes.(feature.Readings)
	require.True(t, ok)
	assert.Equal(t, []string{"Heap", "ProcessCPU", "UsedMemory"}, jvm.Keys())
	assert.Equal(t, float64(268435456), jvm["Heap"].Any())

	assert.Equal(t, "liberty.threadpool", records[1].Key)
	pool := records[1].Attributes.(feature.Readings)
	assert.Equal(t, "Default Executor", pool["PoolName"].Any())
}

func TestCrawl_DefaultCredentials(t *testing.T) {
	c, port := libertyServer(t, connector("user", "password"))
	c.Inspector = container("", port)

	seq, err := c.Crawl(context.Background(), "c1", plugin.Args{})
	require.NoError(t, err)
	assert.Len(t, feature.Collect(seq), 2)
}

func TestCrawl_NotApplicable(t *testing.T) {
	called := false
	c := &Crawler{
		AddressOf: func(context.Context, int) (string, error) {
			called = true
			return "127.0.0.1", nil
		},
	}

	tests := []struct {
		name      string
		inspector inspect.Static
	}{
		{name: "no ports", inspector: container("")},
		{name: "other ports", inspector: container("", 9080, 8080)},
		{name: "label wins over inspected ports", inspector: container(`[9080]`, DefaultPort)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Inspector = tt.inspector
			seq, err := c.Crawl(context.Background(), "c1", plugin.Args{})
			require.NoError(t, err)
			assert.Empty(t, feature.Collect(seq))
		})
	}
	assert.False(t, called, "address lookup must not run for a target without the port")
}

func TestCrawl_ConnectionFailure(t *testing.T) {
	c, port := libertyServer(t, connector("admin", "secret"))
	c.Inspector = container("", port)

	t.Run("refused credentials", func(t *testing.T) {
		_, err := c.Crawl(context.Background(), "c1", plugin.Args{})
		require.Error(t, err)
		assert.ErrorIs(t, err, plugin.ErrCollectionFailed)

		var cf *plugin.CollectionFailedError
		require.ErrorAs(t, err, &cf)
		assert.Equal(t, "c1", cf.Target)
		assert.Equal(t, Feature, cf.Feature)
	})

	t.Run("nothing listening", func(t *testing.T) {
		port := freePort(t)
		down := &Crawler{
			Port:      port,
			Scheme:    "http",
			Client:    &http.Client{},
			Inspector: container("", port),
			AddressOf: func(context.Context, int) (string, error) { return "127.0.0.1", nil },
		}

		_, err := down.Crawl(context.Background(), "c1", plugin.Args{})
		require.Error(t, err)
		assert.ErrorIs(t, err, plugin.ErrCollectionFailed)
	})

	t.Run("no address", func(t *testing.T) {
		noAddr := &Crawler{
			Inspector: container("", DefaultPort),
			AddressOf: func(context.Context, int) (string, error) { return "", errNoAddress },
		}
		_, err := noAddr.Crawl(context.Background(), "c1", plugin.Args{})
		assert.ErrorIs(t, err, plugin.ErrCollectionFailed)
	})
}

func TestCrawl_InvalidPortsLabel(t *testing.T) {
	c := &Crawler{Inspector: container(`not json`)}
	_, err := c.Crawl(context.Background(), "c1", plugin.Args{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, plugin.ErrCollectionFailed)
}

func freePort(t *testing.T) int {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

func TestHostIPv4_SkipsLoopback(t *testing.T) {
	ip, err := hostIPv4()
	if err != nil {
		assert.ErrorIs(t, err, errNoAddress)
		return
	}
	assert.NotEqual(t, "127.0.0.1", ip)
}
