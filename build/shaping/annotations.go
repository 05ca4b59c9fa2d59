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

package shaping

import (
	"github.com/vx-org/vx/build/ir"
	"github.com/vx-org/vx/build/shape"
)

// Annotations is the per-function shape cache: every expression node of
// the function maps to the one shape computed for it, and every call
// node to its resolved execution strategy. The cache is keyed by node
// identity, owned by the single analysis pass of the function, and
// discarded once lowering to the next stage completes.
type Annotations struct {
	shapes     map[ir.Expr]shape.Shape
	strategies map[*ir.CallExpr]ir.CallStrategy
}

func newAnnotations() *Annotations {
	return &Annotations{
		shapes:     make(map[ir.Expr]shape.Shape),
		strategies: make(map[*ir.CallExpr]ir.CallStrategy),
	}
}

// ShapeOf returns the shape computed for an expression.
func (ann *Annotations) ShapeOf(expr ir.Expr) (shape.Shape, bool) {
	sh, ok := ann.shapes[expr]
	return sh, ok
}

// Record the shape of an expression node. Used by downstream passes
// registering the synthetic expressions they build.
func (ann *Annotations) Record(expr ir.Expr, sh shape.Shape) {
	ann.shapes[expr] = sh
}

// StrategyOf returns the execution strategy resolved for a call.
func (ann *Annotations) StrategyOf(call *ir.CallExpr) ir.CallStrategy {
	return ann.strategies[call]
}

// NumShapes returns the number of annotated expression nodes.
func (ann *Annotations) NumShapes() int { return len(ann.shapes) }
