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
	"fmt"

	"github.com/prometheus/procfs"
)

// Identity maps a namespace kind to the kernel's inode number for it.
type Identity map[Kind]uint32

// Identify returns the namespace identities of process pid for the given
// kinds, read from the procfs mounted at procRoot.
func Identify(procRoot string, pid int, kinds Set) (Identity, error) {
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs at %s: %w", procRoot, err)
	}
	p, err := fs.Proc(pid)
	if err != nil {
		return nil, classifyOpen(pid, "", err)
	}
	nss, err := p.Namespaces()
	if err != nil {
		return nil, classifyOpen(pid, "", err)
	}

	id := make(Identity, len(kinds))
	for _, k := range kinds {
		ns, ok := nss[string(k)]
		if !ok {
			return nil, invalid(fmt.Sprintf("namespace kind %q not reported for process %d", k, pid), ErrUnsupportedKind)
		}
		id[k] = ns.Inode
	}
	return id, nil
}
