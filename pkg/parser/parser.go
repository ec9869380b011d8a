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

package parser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Option configures a Parser.
type Option func(*Parser)

// Parser reads line-oriented files.
type Parser struct {
	root            string
	delimiter       string
	maxSize         int
	skipComments    bool
	kvDelimiter     string
	valueDefault    string
	valueTrim       string
	skipEmptyValues bool
}

// WithRoot resolves every path under root.
func WithRoot(root string) Option {
	return func(p *Parser) {
		p.root = root
	}
}

// WithDelimiter sets the entry delimiter. Default is newline.
func WithDelimiter(delim string) Option {
	return func(p *Parser) {
		p.delimiter = delim
	}
}

// WithMaxSize sets the maximum file size in bytes. Default is 1MB.
func WithMaxSize(size int) Option {
	return func(p *Parser) {
		p.maxSize = size
	}
}

// WithSkipComments sets whether "#" lines are skipped. Default is true.
func WithSkipComments(skip bool) Option {
	return func(p *Parser) {
		p.skipComments = skip
	}
}

// WithKVDelimiter sets the key/value delimiter used by Map. Default is "=".
func WithKVDelimiter(delim string) Option {
	return func(p *Parser) {
		p.kvDelimiter = delim
	}
}

// WithValueDefault sets the value of a key without delimiter.
func WithValueDefault(v string) Option {
	return func(p *Parser) {
		p.valueDefault = v
	}
}

// WithValueTrim sets characters trimmed from both ends of values.
func WithValueTrim(chars string) Option {
	return func(p *Parser) {
		p.valueTrim = chars
	}
}

// WithSkipEmptyValues drops entries whose value is empty.
func WithSkipEmptyValues(skip bool) Option {
	return func(p *Parser) {
		p.skipEmptyValues = skip
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		delimiter:    "\n",
		maxSize:      1 << 20,
		skipComments: true,
		kvDelimiter:  "=",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns path resolved under the parser's root.
func (p *Parser) Path(path string) string {
	if p.root == "" {
		return path
	}
	return filepath.Join(p.root, path)
}

// Map parses the file at path into key/value pairs. A line without the
// key/value delimiter maps its key to the default value.
func (p *Parser) Map(path string) (map[string]string, error) {
	lines, err := p.Lines(path)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(lines))
	for _, line := range lines {
		key, value, found := strings.Cut(line, p.kvDelimiter)
		key = strings.TrimSpace(key)
		if !found {
			value = p.valueDefault
		} else {
			value = strings.TrimSpace(value)
			if p.valueTrim != "" {
				value = strings.Trim(value, p.valueTrim)
			}
		}

		if p.skipEmptyValues && value == "" {
			slog.Debug("skipping entry with empty value", "key", key, "path", path)
			continue
		}
		result[key] = value
	}
	return result, nil
}

// Lines reads the file at path and returns its non-empty entries.
func (p *Parser) Lines(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	full := p.Path(path)

	b, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", full, err)
	}
	if len(b) > p.maxSize {
		return nil, fmt.Errorf("file %q exceeds maximum size of %d bytes", full, p.maxSize)
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("content of file %q is not valid UTF-8", full)
	}

	parts := strings.Split(string(b), p.delimiter)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if p.skipComments && strings.HasPrefix(part, "#") {
			continue
		}
		result = append(result, part)
	}
	return result, nil
}
