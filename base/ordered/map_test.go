// Copyright 2025 The VX Authors
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

package ordered_test

import (
	"testing"

	"github.com/vx-org/vx/base/ordered"
)

type entry struct {
	k string
	v int
}

func TestMap(t *testing.T) {
	tests := []struct {
		entries []entry
		want    []entry
	}{
		{
			entries: []entry{
				{k: "x", v: 1},
				{k: "y", v: 2},
				{k: "z", v: 3},
			},
			want: []entry{
				{k: "x", v: 1},
				{k: "y", v: 2},
				{k: "z", v: 3},
			},
		},
		{
			// Overwriting keeps the original position.
			entries: []entry{
				{k: "x", v: 1},
				{k: "y", v: 2},
				{k: "x", v: 3},
			},
			want: []entry{
				{k: "x", v: 3},
				{k: "y", v: 2},
			},
		},
	}
	for ti, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, e := range test.entries {
			m.Store(e.k, e.v)
		}
		m = m.Clone()
		if m.Size() != len(test.want) {
			t.Errorf("test %d: map has %d entries but want %d", ti, m.Size(), len(test.want))
			continue
		}
		i := 0
		for gotK, gotV := range m.Iter() {
			wantK, wantV := test.want[i].k, test.want[i].v
			if gotK != wantK || gotV != wantV {
				t.Errorf("test %d entry %d: got %s->%d but want %s->%d", ti, i, gotK, gotV, wantK, wantV)
			}
			i++
		}
		if !m.Has(test.want[0].k) {
			t.Errorf("test %d: key %s not found", ti, test.want[0].k)
		}
	}
}
