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

package namespace

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
)

var (
	// ErrTargetNotFound is returned when the target process no longer exists.
	ErrTargetNotFound = errors.New("namespace target not found")

	// ErrAccessDenied is returned when the caller lacks privilege to join the
	// target's namespaces.
	ErrAccessDenied = errors.New("namespace access denied")

	// ErrSwitch is returned when switching failed after at least one kind had
	// been joined. The joined kinds were restored on a best-effort basis.
	ErrSwitch = errors.New("namespace switch failed")

	// ErrJoin is returned when the switch failed before any kind was joined.
	// The thread never left its own namespaces.
	ErrJoin = errors.New("cannot join target namespace")

	// ErrUnsupportedKind is returned for kinds the kernel or the Go runtime
	// cannot join.
	ErrUnsupportedKind = errors.New("unsupported namespace kind")

	// ErrInvalidRequest is returned for malformed input.
	ErrInvalidRequest = errors.New("invalid namespace request")

	// ErrRoutinePanic is returned when the routine panicked inside the switch window.
	ErrRoutinePanic = errors.New("routine panicked in target namespaces")
)

// classifyOpen maps an error from opening a target's namespace handle.
func classifyOpen(pid int, kind Kind, err error) error {
	ctx := map[string]any{"pid": pid, "kind": string(kind)}
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ESRCH):
		return cerrors.WrapWithContext(cerrors.ErrCodeNotFound,
			fmt.Sprintf("process %d not found", pid),
			fmt.Errorf("%w: %w", ErrTargetNotFound, err), ctx)
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EPERM):
		return cerrors.WrapWithContext(cerrors.ErrCodeUnauthorized,
			fmt.Sprintf("cannot access %s namespace of process %d", kind, pid),
			fmt.Errorf("%w: %w", ErrAccessDenied, err), ctx)
	default:
		return cerrors.WrapWithContext(cerrors.ErrCodeInternal,
			fmt.Sprintf("cannot open %s namespace of process %d", kind, pid),
			fmt.Errorf("%w: %w", ErrJoin, err), ctx)
	}
}

// classifyJoin maps a setns failure. switched lists the kinds already joined
// before the failure.
func classifyJoin(pid int, kind Kind, switched Set, err error) error {
	ctx := map[string]any{"pid": pid, "kind": string(kind), "switched": switched.String()}
	if len(switched) > 0 {
		return cerrors.WrapWithContext(cerrors.ErrCodeInternal,
			fmt.Sprintf("partial namespace switch into process %d", pid),
			fmt.Errorf("%w: joining %s: %w", ErrSwitch, kind, err), ctx)
	}
	if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) {
		return cerrors.WrapWithContext(cerrors.ErrCodeUnauthorized,
			fmt.Sprintf("not permitted to join %s namespace of process %d", kind, pid),
			fmt.Errorf("%w: %w", ErrAccessDenied, err), ctx)
	}
	return cerrors.WrapWithContext(cerrors.ErrCodeInternal,
		fmt.Sprintf("cannot join %s namespace of process %d", kind, pid),
		fmt.Errorf("%w: %w", ErrJoin, err), ctx)
}

func invalid(msg string, cause error) error {
	return cerrors.Wrap(cerrors.ErrCodeInvalidRequest, msg, cause)
}
