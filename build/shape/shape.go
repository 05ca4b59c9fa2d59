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

// Package shape defines the implicit tensor shape of a value and the
// broadcast-join lattice over shapes.
//
// A shape is an ordered sequence of per-dimension extents, dimension 0
// innermost. Dimensions are conceptually infinite: every dimension past
// the last stored one has extent 1. A scalar is the shape with all
// extents equal to 1.
package shape

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// MaxRank is the maximum number of dimensions a shape or a block
// declaration may use.
const MaxRank = 10

// Shape is the implicit tensor shape of a value.
// Shapes are values: they are compared with == and the zero value is
// the scalar shape.
type Shape struct {
	// exts stores a 0 for trivial dimensions so that the
	// representation is canonical. Extent(dim) maps it back to 1.
	exts [MaxRank]int32
}

// New returns the shape with the given extents, dimension 0 first.
// Extents must be positive and len(extents) must not exceed MaxRank.
func New(extents ...int) Shape {
	if len(extents) > MaxRank {
		panic(fmt.Sprintf("shape: %d dimensions exceeds the maximum of %d", len(extents), MaxRank))
	}
	var s Shape
	for dim, ext := range extents {
		if ext < 1 {
			panic(fmt.Sprintf("shape: non-positive extent %d for dimension %d", ext, dim))
		}
		if ext > 1 {
			s.exts[dim] = int32(ext)
		}
	}
	return s
}

// Scalar returns the shape of a scalar value.
func Scalar() Shape { return Shape{} }

// Rank returns the number of dimensions up to and including the last
// non-trivial one. A scalar has rank 0.
func (s Shape) Rank() int {
	rank := 0
	for dim, ext := range s.exts {
		if ext > 1 {
			rank = dim + 1
		}
	}
	return rank
}

// Extent returns the extent of the shape along a dimension.
// Dimensions past the rank have extent 1.
func (s Shape) Extent(dim int) int {
	if dim < 0 || dim >= MaxRank || s.exts[dim] == 0 {
		return 1
	}
	return int(s.exts[dim])
}

// Extents returns the extents of the shape up to its rank.
// A scalar returns nil.
func (s Shape) Extents() []int {
	rank := s.Rank()
	if rank == 0 {
		return nil
	}
	extents := make([]int, rank)
	for dim := range extents {
		extents[dim] = s.Extent(dim)
	}
	return extents
}

// IsScalar returns true if all extents are 1.
func (s Shape) IsScalar() bool { return s == Shape{} }

// Equal returns true if both shapes have the same extent on every dimension.
func (s Shape) Equal(o Shape) bool { return s == o }

// Size returns the total number of elements of the shape.
func (s Shape) Size() int {
	size := 1
	for dim := range MaxRank {
		size *= s.Extent(dim)
	}
	return size
}

// NonTrivialDims returns the mask of dimensions with extent > 1.
func (s Shape) NonTrivialDims() DimMask {
	var dims DimMask
	for dim := range MaxRank {
		if s.exts[dim] > 1 {
			dims = dims.With(dim)
		}
	}
	return dims
}

// Collapse returns the shape with every dimension in dims set to extent 1.
// Collapsing a dimension that is already trivial is a no-op.
func (s Shape) Collapse(dims DimMask) Shape {
	for dim := range MaxRank {
		if dims.Has(dim) {
			s.exts[dim] = 0
		}
	}
	return s
}

// WithExtent returns the shape with the extent of one dimension replaced.
// The extent must be positive and the dimension below MaxRank.
func (s Shape) WithExtent(dim, ext int) Shape {
	if dim < 0 || dim >= MaxRank {
		panic(fmt.Sprintf("shape: dimension %d out of range", dim))
	}
	if ext < 1 {
		panic(fmt.Sprintf("shape: non-positive extent %d for dimension %d", ext, dim))
	}
	if ext == 1 {
		s.exts[dim] = 0
	} else {
		s.exts[dim] = int32(ext)
	}
	return s
}

// Join returns the broadcast-join of two shapes: per dimension, the
// maximum extent if at least one of the two is 1, an error otherwise.
// Join is commutative and associative, and Scalar is its identity.
func Join(a, b Shape) (Shape, error) {
	for dim := range MaxRank {
		ae, be := a.Extent(dim), b.Extent(dim)
		switch {
		case ae == 1:
			a.exts[dim] = b.exts[dim]
		case be == 1 || ae == be:
			// Keep the extent of a.
		default:
			return Shape{}, errors.Errorf("cannot join shapes %s and %s: dimension %d has extents %d and %d", a, b, dim, ae, be)
		}
	}
	return a, nil
}

// AssignableTo returns true if a value of this shape can be stored to a
// destination of shape dst: per dimension, the value extent is 1 or
// equals the destination extent. A value with a non-trivial extent on a
// dimension where the destination is trivial is an illegal narrowing.
func (s Shape) AssignableTo(dst Shape) bool {
	for dim := range MaxRank {
		ext := s.Extent(dim)
		if ext != 1 && ext != dst.Extent(dim) {
			return false
		}
	}
	return true
}

// SubShapeOf returns true if this shape is below o in the broadcast
// partial order: every non-trivial dimension of this shape is present
// in o with the same extent.
func (s Shape) SubShapeOf(o Shape) bool {
	return s.AssignableTo(o)
}

// String representation of the shape, for example (8x4).
// A scalar prints as ().
func (s Shape) String() string {
	var ss []string
	for _, ext := range s.Extents() {
		ss = append(ss, fmt.Sprintf("%d", ext))
	}
	return "(" + strings.Join(ss, "x") + ")"
}
