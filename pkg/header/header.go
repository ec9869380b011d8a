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

package header

import (
	"time"
)

// APIVersion is the schema version of every nscrawler document.
const APIVersion = "nscrawler.nvidia.com/v1alpha1"

// Metadata keys set by Init.
const (
	MetadataTimestamp = "timestamp"
	MetadataVersion   = "version"
)

// Kind represents the type of document written by nscrawler.
type Kind string

const (
	// KindFrame is the output of one crawl of one target.
	KindFrame Kind = "Frame"
	// KindCrawlResult is the output of a crawl batch.
	KindCrawlResult Kind = "CrawlResult"
	// KindPluginList is the output of a plugin listing.
	KindPluginList Kind = "PluginList"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the Kind is one of the recognized kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindFrame, KindCrawlResult, KindPluginList:
		return true
	default:
		return false
	}
}

// Option is a functional option for configuring Header instances.
type Option func(*Header)

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(h *Header) {
		if h.Metadata == nil {
			h.Metadata = make(map[string]string)
		}
		h.Metadata[key] = value
	}
}

// WithKind sets the Kind.
func WithKind(kind Kind) Option {
	return func(h *Header) {
		h.Kind = kind
	}
}

// New creates a Header stamped with APIVersion and the current time.
func New(opts ...Option) *Header {
	h := &Header{
		APIVersion: APIVersion,
		Metadata: map[string]string{
			MetadataTimestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Header identifies the kind and schema of a document. It follows
// Kubernetes-style resource conventions.
type Header struct {
	Kind       Kind              `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Init resets the Header to kind, stamping the current time and the tool
// version when set.
func (h *Header) Init(kind Kind, version string) {
	h.InitAt(kind, version, time.Now())
}

// InitAt is Init with an explicit timestamp.
func (h *Header) InitAt(kind Kind, version string, now time.Time) {
	h.Kind = kind
	h.APIVersion = APIVersion
	h.Metadata = map[string]string{
		MetadataTimestamp: now.UTC().Format(time.RFC3339),
	}
	if version != "" {
		h.Metadata[MetadataVersion] = version
	}
}
