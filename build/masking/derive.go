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

package masking

import (
	"go/ast"
	"go/token"

	"github.com/vx-org/vx/build/fmterr"
	"github.com/vx-org/vx/build/ir"
	"github.com/vx-org/vx/build/shape"
)

func (d *deriver) shapeOf(expr ir.Expr) (shape.Shape, error) {
	sh, ok := d.ann.ShapeOf(expr)
	if !ok {
		return shape.Shape{}, d.fset.Internalf(expr.Source(), "expression %s has no inferred shape", expr)
	}
	return sh, nil
}

// attach combines the active conditions into the mask of one operation
// of shape target. Operations ending up with the trivial mask get no
// entry.
func (d *deriver) attach(conds []cond, node ir.Node, src ast.Node, target shape.Shape) error {
	mask := ir.AllTrue(target)
	for _, c := range conds {
		m, err := d.relate(c, src, target)
		if err != nil {
			return err
		}
		mask = d.and(mask, m, target)
	}
	if mask.IsAllTrue() {
		return nil
	}
	d.masks.byNode[node] = mask
	return nil
}

// relate derives the mask contributed by one condition to an operation
// of shape target.
//
// The mask expression's shape may be a sub-shape of target: the
// missing dimensions are replicated, which is the broadcast case of
// the derivation.
func (d *deriver) relate(c cond, src ast.Node, target shape.Shape) (ir.Mask, error) {
	if c.sh.SubShapeOf(target) {
		// Matching shapes, or condition replicated along the
		// operation's extra dimensions.
		return ir.Mask{X: c.x, Sh: target}, nil
	}
	if !target.SubShapeOf(c.sh) {
		return ir.Mask{}, d.fset.Errorf(src, fmterr.MaskShapeIncompatible,
			"condition of shape %s cannot guard a statement of shape %s", c.sh, target)
	}
	// The operation is more scalar than the condition: it executes
	// whenever some lane satisfies the condition. OR-reduce the
	// condition over the dimensions it does not share with the
	// operation.
	dims := c.sh.NonTrivialDims().Minus(target.NonTrivialDims())
	red := &ir.ReduceExpr{Src: exprSrc(c.x), Op: ir.ReduceOr, Dims: dims, X: c.x}
	d.ann.Record(red, c.sh.Collapse(dims))
	return ir.Mask{X: red, Sh: target}, nil
}

// and conjoins two masks at the target shape.
func (d *deriver) and(a, b ir.Mask, target shape.Shape) ir.Mask {
	if a.IsAllTrue() {
		return b
	}
	if b.IsAllTrue() {
		return a
	}
	both := &ir.BinaryExpr{Op: token.LAND, X: a.X, Y: b.X}
	d.ann.Record(both, d.maskShape(a, b, target))
	return ir.Mask{X: both, Sh: target}
}

// maskShape joins the expression shapes of two masks. Both are
// sub-shapes of target, so the join cannot fail.
func (d *deriver) maskShape(a, b ir.Mask, target shape.Shape) shape.Shape {
	aShape, aOk := d.ann.ShapeOf(a.X)
	bShape, bOk := d.ann.ShapeOf(b.X)
	if !aOk || !bOk {
		return target
	}
	joined, err := shape.Join(aShape, bShape)
	if err != nil {
		return target
	}
	return joined
}

func exprSrc(expr ir.Expr) ast.Expr {
	src, _ := expr.Source().(ast.Expr)
	return src
}
