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

package ir

import (
	"fmt"

	"github.com/vx-org/vx/build/shape"
)

// Mask is the boolean tensor restricting which logical lanes of a
// load, store or reduction take effect. A mask is derived metadata:
// it is attached to operations by the masking pass and never appears
// as a statement of its own.
type Mask struct {
	// X computes the truth-value tensor. Nil for the trivial
	// all-true mask.
	X Expr

	// Sh is the shape of the mask, equal to the shape of the
	// operation it guards.
	Sh shape.Shape
}

// AllTrue returns the trivial mask of a shape: every lane active.
func AllTrue(sh shape.Shape) Mask {
	return Mask{Sh: sh}
}

// IsAllTrue returns true if every lane of the mask is active.
func (m Mask) IsAllTrue() bool { return m.X == nil }

// Shape of the mask.
func (m Mask) Shape() shape.Shape { return m.Sh }

// String representation of the mask.
func (m Mask) String() string {
	if m.IsAllTrue() {
		return fmt.Sprintf("alltrue%s", m.Sh)
	}
	return fmt.Sprintf("mask%s(%s)", m.Sh, m.X)
}
