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

package plugin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/nscrawler/pkg/version"
)

// ManifestExt is the file extension of plugin manifests.
const ManifestExt = ".plugin"

// Manifest is the on-disk declaration of a plugin.
type Manifest struct {
	Name        string   `yaml:"name"`
	Category    Category `yaml:"category"`
	Module      string   `yaml:"module"`
	Description string   `yaml:"description,omitempty"`
	Version     string   `yaml:"version,omitempty"`
}

// Validate checks the required manifest fields.
func (m *Manifest) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if m.Category == "" {
		errs = append(errs, errors.New("category is required"))
	} else if !m.Category.IsValid() {
		errs = append(errs, fmt.Errorf("unknown category %q", m.Category))
	}
	if strings.TrimSpace(m.Module) == "" {
		errs = append(errs, errors.New("module is required"))
	}
	if m.Version != "" {
		if _, err := version.Parse(m.Version); err != nil {
			errs = append(errs, fmt.Errorf("invalid version %q: %w", m.Version, err))
		}
	}
	return errors.Join(errs...)
}

// ParseManifest decodes and validates a manifest. Unknown fields are rejected.
func ParseManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty manifest")
		}
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(bytes.NewReader(data))
}
