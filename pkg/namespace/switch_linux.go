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

//go:build linux

package namespace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
)

// handle pairs the worker thread's original namespace with the target's.
type handle struct {
	kind   Kind
	orig   *os.File
	target *os.File
}

// window is one open switch window on the current, locked OS thread.
type window struct {
	handles  []handle
	joined   int
	unshared bool
	broken   bool
}

func flag(k Kind) int {
	switch k {
	case Cgroup:
		return unix.CLONE_NEWCGROUP
	case IPC:
		return unix.CLONE_NEWIPC
	case Mount:
		return unix.CLONE_NEWNS
	case Network:
		return unix.CLONE_NEWNET
	case PID:
		return unix.CLONE_NEWPID
	case User:
		return unix.CLONE_NEWUSER
	case UTS:
		return unix.CLONE_NEWUTS
	default:
		return 0
	}
}

func supported(k Kind) bool {
	_, err := os.Stat(filepath.Join("/proc/self/ns", string(k)))
	return err == nil
}

// enter joins the namespaces of pid on the calling thread, which must be
// locked. On failure every kind already joined has been restored (best
// effort) and the returned window reports whether the thread is still clean.
func enter(procRoot string, pid int, kinds Set) (*window, error) {
	w := &window{handles: make([]handle, 0, len(kinds))}
	self := filepath.Join("/proc/self/task", strconv.Itoa(unix.Gettid()), "ns")
	target := filepath.Join(procRoot, strconv.Itoa(pid), "ns")

	for _, k := range kinds {
		orig, err := os.Open(filepath.Join(self, string(k)))
		if err != nil {
			w.close()
			return w, cerrors.Wrap(cerrors.ErrCodeInternal,
				fmt.Sprintf("cannot open own %s namespace", k),
				fmt.Errorf("%w: %w", ErrJoin, err))
		}
		tgt, err := os.Open(filepath.Join(target, string(k)))
		if err != nil {
			_ = orig.Close()
			w.close()
			return w, classifyOpen(pid, k, err)
		}
		w.handles = append(w.handles, handle{kind: k, orig: orig, target: tgt})
	}

	// setns(CLONE_NEWNS) is refused while the thread shares its fs
	// attributes with the rest of the process.
	if kinds.Has(Mount) {
		if err := unix.Unshare(unix.CLONE_FS); err != nil {
			w.close()
			return w, cerrors.Wrap(cerrors.ErrCodeInternal,
				"cannot unshare filesystem attributes for mount namespace switch",
				fmt.Errorf("%w: %w", ErrJoin, err))
		}
		w.unshared = true
	}

	for i, h := range w.handles {
		if err := unix.Setns(int(h.target.Fd()), flag(h.kind)); err != nil {
			switched := kinds[:i]
			if rerr := w.restore(); rerr != nil {
				restoreFailures.Inc()
				err = errors.Join(err, rerr)
			}
			return w, classifyJoin(pid, h.kind, switched, err)
		}
		w.joined = i + 1
	}

	return w, nil
}

// restore leaves every joined namespace in reverse order and releases the
// handles. It keeps going after a failure so as many kinds as possible are
// restored.
func (w *window) restore() error {
	var errs []error
	for i := w.joined - 1; i >= 0; i-- {
		h := w.handles[i]
		if err := unix.Setns(int(h.orig.Fd()), flag(h.kind)); err != nil {
			w.broken = true
			errs = append(errs, fmt.Errorf("restoring %s namespace: %w", h.kind, err))
		}
	}
	w.joined = 0
	w.close()
	return errors.Join(errs...)
}

func (w *window) close() {
	for _, h := range w.handles {
		_ = h.orig.Close()
		_ = h.target.Close()
	}
	w.handles = nil
}

// clean reports whether the thread may be handed back to the Go scheduler.
func (w *window) clean() bool {
	return !w.broken && !w.unshared
}
