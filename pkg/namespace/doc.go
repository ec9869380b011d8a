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

// Package namespace runs collection routines inside another process's Linux
// namespaces.
//
// # Overview
//
// Namespace membership is per OS thread, not per goroutine. The Executor
// therefore runs every switch-execute-restore unit on a goroutine locked to
// its own OS thread, and bounds how many of those may be in flight with a
// semaphore sized to the crawl parallelism. The calling goroutine only waits
// for the result; its thread never changes namespaces.
//
//	exec := namespace.NewExecutor(namespace.WithParallelism(4))
//	addrs, err := namespace.Do(ctx, exec, pid, namespace.NewSet(namespace.Network), listAddrs)
//
// # Switch Sequence
//
//  1. Validate the kinds (non-empty, known, present under /proc/self/ns).
//  2. Open the worker thread's own namespace handles, then the target's.
//  3. setns(2) into each requested kind in order.
//  4. Run the routine. Panics are recovered and returned as errors.
//  5. Restore every switched kind in reverse order, on every exit path.
//
// A worker thread whose restore failed, or which had to unshare its
// filesystem attributes to join a mount namespace, is never unlocked. The Go
// runtime then terminates that thread when the worker goroutine exits, so a
// thread in a foreign namespace never returns to the scheduler.
//
// # Errors
//
// Failures are *errors.StructuredError values wrapping one of the sentinels
// below, so callers use errors.Is:
//   - ErrTargetNotFound: the target process is gone
//   - ErrAccessDenied: the caller may not join the target's namespaces
//   - ErrJoin: the switch failed before any kind was joined
//   - ErrSwitch: the switch failed after some kinds were already joined
//   - ErrUnsupportedKind / ErrInvalidRequest: bad input
//
// The user namespace cannot be joined by a multi-threaded process, which every
// Go program is, so User is rejected up front.
package namespace
