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

package shape

import (
	"fmt"
	"strings"
)

// DimMask is a set of dimension indices, stored as a bitmask.
// Bit d selects dimension d.
type DimMask uint16

// Dims returns the mask selecting the given dimensions.
func Dims(dims ...int) DimMask {
	var m DimMask
	for _, dim := range dims {
		m = m.With(dim)
	}
	return m
}

// With returns the mask with one more dimension selected.
// The dimension must be within [0, MaxRank).
func (m DimMask) With(dim int) DimMask {
	if dim < 0 || dim >= MaxRank {
		panic(fmt.Sprintf("shape: dimension %d out of range", dim))
	}
	return m | 1<<dim
}

// Has returns true if the mask selects a dimension.
func (m DimMask) Has(dim int) bool {
	if dim < 0 || dim >= MaxRank {
		return false
	}
	return m&(1<<dim) != 0
}

// Union returns the dimensions selected by either mask.
func (m DimMask) Union(o DimMask) DimMask { return m | o }

// Minus returns the dimensions selected by this mask but not by o.
func (m DimMask) Minus(o DimMask) DimMask { return m &^ o }

// Empty returns true if the mask selects no dimension.
func (m DimMask) Empty() bool { return m == 0 }

// Dims returns the selected dimensions in increasing order.
func (m DimMask) Dims() []int {
	var dims []int
	for dim := range MaxRank {
		if m.Has(dim) {
			dims = append(dims, dim)
		}
	}
	return dims
}

// String representation of the mask, for example {0,2}.
func (m DimMask) String() string {
	var ss []string
	for _, dim := range m.Dims() {
		ss = append(ss, fmt.Sprintf("%d", dim))
	}
	return "{" + strings.Join(ss, ",") + "}"
}
