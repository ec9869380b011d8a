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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet_Dedup(t *testing.T) {
	s := NewSet(Network, Mount, Network, UTS, Mount)
	assert.Equal(t, Set{Network, Mount, UTS}, s)
	assert.Equal(t, "net,mnt,uts", s.String())
	assert.True(t, s.Has(UTS))
	assert.False(t, s.Has(PID))
}

func TestParseSet(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Set
		wantErr bool
	}{
		{name: "single", in: "net", want: Set{Network}},
		{name: "list with spaces and dup", in: "net, mnt ,NET", want: Set{Network, Mount}},
		{name: "all alias", in: "all", want: All},
		{name: "all plus extra", in: "all,cgroup", want: append(append(Set{}, All...), Cgroup)},
		{name: "unknown", in: "net,bogus", wantErr: true},
		{name: "empty", in: " , ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSet(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAll_DistinctAndWithoutUser(t *testing.T) {
	assert.Equal(t, NewSet(All...), All)
	assert.False(t, All.Has(User))
	for _, k := range All {
		assert.True(t, k.IsValid(), "kind %s", k)
	}
}
