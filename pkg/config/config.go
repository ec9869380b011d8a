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

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
	"github.com/NVIDIA/nscrawler/pkg/k8s/client"
)

const (
	// ConfigMapURIScheme is the URI prefix selecting a ConfigMapSource.
	ConfigMapURIScheme = "cm://"

	// ConfigMapKey is the ConfigMap data key holding the configuration.
	ConfigMapKey = "crawler.yaml"
)

// Config is one read of the crawler configuration. It is not mutated after
// Load returns.
type Config struct {
	Crawlers map[string]map[string]any `yaml:"crawlers"`
}

// Enabled returns the names of the configured crawlers, sorted.
func (c *Config) Enabled() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Crawlers))
	for name := range c.Crawlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Overrides returns the argument overrides of one crawler.
func (c *Config) Overrides(name string) map[string]any {
	if c == nil {
		return nil
	}
	return c.Crawlers[name]
}

// Source returns the crawler configuration. Each call reads it afresh.
type Source interface {
	Load(ctx context.Context) (*Config, error)
}

// Decode parses a configuration document. An empty document is an empty
// configuration; a crawler listed without a mapping gets no overrides.
func Decode(r io.Reader) (*Config, error) {
	var c Config
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRequest, "failed to decode crawler configuration", err)
	}
	if c.Crawlers == nil {
		c.Crawlers = make(map[string]map[string]any)
	}
	for name, args := range c.Crawlers {
		if args == nil {
			c.Crawlers[name] = make(map[string]any)
		}
	}
	return &c, nil
}

// FileSource reads the configuration from a local YAML file.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads the file. A missing file yields an empty configuration.
func (s *FileSource) Load(_ context.Context) (*Config, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("crawler configuration not found, using empty configuration", "path", s.Path)
			return Decode(bytes.NewReader(nil))
		}
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal,
			fmt.Sprintf("failed to read crawler configuration %s", s.Path), err)
	}
	return Decode(bytes.NewReader(data))
}

// ConfigMapSource reads the configuration from a Kubernetes ConfigMap.
type ConfigMapSource struct {
	Namespace  string
	Name       string
	Kubeconfig string
	Client     client.Interface
}

// Load fetches the ConfigMap and decodes its crawler.yaml key.
func (s *ConfigMapSource) Load(ctx context.Context) (*Config, error) {
	c := s.Client
	if c == nil {
		var err error
		c, err = client.ClientFor(s.Kubeconfig)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "failed to get kubernetes client", err)
		}
	}

	cm, err := c.CoreV1().ConfigMaps(s.Namespace).Get(ctx, s.Name, metav1.GetOptions{})
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeUnavailable,
			"failed to get crawler configuration ConfigMap", err,
			map[string]any{"namespace": s.Namespace, "name": s.Name})
	}

	data, ok := cm.Data[ConfigMapKey]
	if !ok {
		return nil, cerrors.NewWithContext(cerrors.ErrCodeNotFound,
			fmt.Sprintf("ConfigMap %s/%s has no %s key", s.Namespace, s.Name, ConfigMapKey),
			map[string]any{"namespace": s.Namespace, "name": s.Name})
	}
	return Decode(strings.NewReader(data))
}

// Static is a fixed configuration.
type Static Config

// Load returns a copy of the static configuration.
func (s *Static) Load(_ context.Context) (*Config, error) {
	out := &Config{Crawlers: make(map[string]map[string]any, len(s.Crawlers))}
	for name, args := range s.Crawlers {
		cp := make(map[string]any, len(args))
		for k, v := range args {
			cp[k] = v
		}
		out.Crawlers[name] = cp
	}
	return out, nil
}

// Parse returns the Source for uri: cm://namespace/name selects a
// ConfigMapSource, anything else a FileSource. An empty uri selects the
// default file path.
func Parse(uri, defaultPath string) (Source, error) {
	if uri == "" {
		return NewFileSource(defaultPath), nil
	}
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return NewFileSource(uri), nil
	}

	path := strings.TrimPrefix(uri, ConfigMapURIScheme)
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid ConfigMap URI %q: expected cm://namespace/name", uri))
	}
	return &ConfigMapSource{Namespace: parts[0], Name: parts[1]}, nil
}
