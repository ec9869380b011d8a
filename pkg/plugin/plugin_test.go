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
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/nscrawler/pkg/feature"
)

type fakeCrawler struct {
	feature string
}

func (f *fakeCrawler) Feature() string { return f.feature }

func (f *fakeCrawler) Crawl(_ context.Context, target string, args Args) (iter.Seq[feature.Record], error) {
	return feature.Of(feature.Record{Key: target, Attributes: args, Type: feature.Type(f.feature)}), nil
}

type fakeEnvironment struct {
	name string
}

func (e *fakeEnvironment) EnvironmentName() string { return e.name }

func (e *fakeEnvironment) ContainerNamespace(_ context.Context, id string, _ Args) (string, error) {
	return e.name + "/" + id, nil
}

type notAPlugin struct{}

func init() {
	MustRegister("test.load", func(*Services) any { return &fakeCrawler{feature: "load"} })
	MustRegister("test.os", func(*Services) any { return &fakeCrawler{feature: "os"} })
	MustRegister("test.package", func(*Services) any { return &fakeCrawler{feature: "package"} })
	MustRegister("test.liberty", func(*Services) any { return &fakeCrawler{feature: "liberty"} })
	MustRegister("test.env.cloudsight", func(*Services) any { return &fakeEnvironment{name: "cloudsight"} })
	MustRegister("test.env.kubernetes", func(*Services) any { return &fakeEnvironment{name: "kubernetes"} })
	MustRegister("test.broken", func(*Services) any { return &notAPlugin{} })
}

// writeManifest writes a *.plugin manifest into dir and returns its path.
func writeManifest(t *testing.T, dir, file, name string, category Category, module string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	content := fmt.Sprintf("name: %s\ncategory: %s\nmodule: %s\nversion: \"1.0\"\n", name, category, module)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeFile(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o600))
}

func names(selected []Selected) []string {
	out := make([]string, len(selected))
	for i, s := range selected {
		out[i] = s.Name()
	}
	return out
}
