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

//go:build !linux

package namespace

import (
	"fmt"
	"runtime"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
)

type window struct{}

func supported(Kind) bool { return false }

func enter(string, int, Set) (*window, error) {
	return &window{}, cerrors.Wrap(cerrors.ErrCodeInvalidRequest,
		fmt.Sprintf("namespaces are not available on %s", runtime.GOOS), ErrUnsupportedKind)
}

func (w *window) restore() error { return nil }

func (w *window) clean() bool { return true }
