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

// Package feature defines the records produced by crawl plugins.
//
// A Record is the triple (key, attributes, type). Attributes are opaque to
// the crawler core; every plugin picks its own shape. Two shapes are shared:
// Load for load averages and Readings, a map of typed scalar values that
// marshals to plain JSON/YAML scalars.
//
// Plugins hand records back as a lazy iter.Seq. Ownership of a record moves
// to the consumer once yielded and plugins never touch it again.
//
//	seq := feature.Of(feature.Record{Key: "load", Attributes: feature.Load{...}, Type: feature.TypeLoad})
//	for r := range seq {
//	    fmt.Println(r.Key)
//	}
package feature
