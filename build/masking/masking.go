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

// Package masking derives the mask of every load, store and reduction
// guarded by a block-index-dependent conditional.
//
// Masking is derived metadata, not rewritten control flow: a
// conditional whose condition has a non-trivial shape does not branch.
// Its condition becomes a predicate attached to the loads, stores and
// reductions of its body. Pure arithmetic is computed unconditionally
// for all lanes and only masked at the point where it is loaded,
// stored or reduced.
//
// A condition relates to the shape of a guarded operation in one of
// three ways: equal shapes use the condition directly; a condition
// below the operation in the broadcast partial order is replicated
// along the operation's extra dimensions; a condition above the
// operation is OR-reduced over its extra dimensions, since a shared
// effect executes whenever some lane satisfies the condition. Any
// other relation is a static error.
package masking

import (
	"go/token"

	"golang.org/x/exp/maps"

	"github.com/vx-org/vx/build/fmterr"
	"github.com/vx-org/vx/build/ir"
	"github.com/vx-org/vx/build/shape"
	"github.com/vx-org/vx/build/shaping"
)

// Masks maps the loads, stores and reductions of one function to their
// derived masks. Operations with no entry carry the trivial all-true
// mask.
type Masks struct {
	byNode map[ir.Node]ir.Mask
}

// Of returns the mask derived for an operation. The second return
// value is false when the operation carries the trivial mask.
func (m *Masks) Of(node ir.Node) (ir.Mask, bool) {
	mask, ok := m.byNode[node]
	return mask, ok
}

// Size returns the number of masked operations.
func (m *Masks) Size() int { return len(m.byNode) }

// Nodes returns the masked operations, in unspecified order.
func (m *Masks) Nodes() []ir.Node { return maps.Keys(m.byNode) }

// cond is an active conditional: its truth-value expression and the
// expression's shape.
type cond struct {
	x  ir.Expr
	sh shape.Shape
}

type deriver struct {
	fset  fmterr.FileSet
	ann   *shaping.Annotations
	masks *Masks
}

// Derive computes the mask of every load, store and reduction of a
// function. Shape inference must have annotated the function first.
func Derive(fset *token.FileSet, fn *ir.FuncDecl, ann *shaping.Annotations) (*Masks, error) {
	d := &deriver{
		fset:  fmterr.FileSet{FSet: fset},
		ann:   ann,
		masks: &Masks{byNode: make(map[ir.Node]ir.Mask)},
	}
	if err := d.block(nil, fn.Body); err != nil {
		return nil, err
	}
	return d.masks, nil
}

func (d *deriver) block(conds []cond, block *ir.BlockStmt) error {
	for _, stmt := range block.List {
		if err := d.stmt(conds, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (d *deriver) stmt(conds []cond, stmt ir.Stmt) error {
	switch stmtT := stmt.(type) {
	case *ir.BlockStmt:
		return d.block(conds, stmtT)
	case *ir.AssignStmt:
		return d.expr(conds, stmtT.X)
	case *ir.StoreStmt:
		return d.store(conds, stmtT)
	case *ir.IfStmt:
		return d.ifStmt(conds, stmtT)
	case *ir.ForStmt:
		return d.forStmt(conds, stmtT)
	case *ir.ExprStmt:
		return d.expr(conds, stmtT.X)
	case *ir.ReturnStmt:
		for _, result := range stmtT.Results {
			if err := d.expr(conds, result); err != nil {
				return err
			}
		}
		return nil
	default:
		return d.fset.Internalf(stmt.Source(), "statement %T not supported by mask derivation", stmt)
	}
}

func (d *deriver) store(conds []cond, stmt *ir.StoreStmt) error {
	if err := d.expr(conds, stmt.Addr); err != nil {
		return err
	}
	if err := d.expr(conds, stmt.X); err != nil {
		return err
	}
	target, err := d.shapeOf(stmt.Addr)
	if err != nil {
		return err
	}
	return d.attach(conds, stmt, stmt.Source(), target)
}

func (d *deriver) ifStmt(conds []cond, stmt *ir.IfStmt) error {
	// Loads inside the condition itself are guarded by the outer
	// conditionals only.
	if err := d.expr(conds, stmt.Cond); err != nil {
		return err
	}
	condShape, err := d.shapeOf(stmt.Cond)
	if err != nil {
		return err
	}
	bodyConds, elseConds := conds, conds
	if !condShape.IsScalar() {
		// A scalar condition is genuine control flow and contributes
		// no mask.
		bodyConds = append(append([]cond{}, conds...), cond{x: stmt.Cond, sh: condShape})
		neg := &ir.UnaryExpr{Op: token.NOT, X: stmt.Cond}
		d.ann.Record(neg, condShape)
		elseConds = append(append([]cond{}, conds...), cond{x: neg, sh: condShape})
	}
	if err := d.block(bodyConds, stmt.Body); err != nil {
		return err
	}
	if stmt.Else != nil {
		return d.stmt(elseConds, stmt.Else)
	}
	return nil
}

func (d *deriver) forStmt(conds []cond, stmt *ir.ForStmt) error {
	for _, bound := range []ir.Expr{stmt.Lower, stmt.Upper, stmt.Step} {
		if err := d.expr(conds, bound); err != nil {
			return err
		}
	}
	return d.block(conds, stmt.Body)
}

// expr walks an expression tree and attaches the active mask to every
// load and reduction in it.
func (d *deriver) expr(conds []cond, expr ir.Expr) error {
	switch exprT := expr.(type) {
	case *ir.NumberLit, *ir.Ref, *ir.BlockIndexExpr, *ir.BlockSizeExpr, *ir.LoopIndexExpr:
		return nil
	case *ir.UnaryExpr:
		return d.expr(conds, exprT.X)
	case *ir.BinaryExpr:
		if err := d.expr(conds, exprT.X); err != nil {
			return err
		}
		return d.expr(conds, exprT.Y)
	case *ir.LoadExpr:
		if err := d.expr(conds, exprT.Addr); err != nil {
			return err
		}
		target, err := d.shapeOf(exprT)
		if err != nil {
			return err
		}
		return d.attach(conds, exprT, exprT.Source(), target)
	case *ir.ReduceExpr:
		if err := d.expr(conds, exprT.X); err != nil {
			return err
		}
		// A reduction's mask selects the participating lanes: it
		// applies at the shape of the reduced operand. The mask of
		// the collapsed result, would it be guarded further, is the
		// OR-reduction of this mask along the same dimensions.
		target, err := d.shapeOf(exprT.X)
		if err != nil {
			return err
		}
		return d.attach(conds, exprT, exprT.Source(), target)
	case *ir.SliceExpr:
		return d.expr(conds, exprT.X)
	case *ir.BroadcastExpr:
		return d.expr(conds, exprT.X)
	case *ir.ShuffleExpr:
		return d.expr(conds, exprT.X)
	case *ir.ShufflePairExpr:
		if err := d.expr(conds, exprT.X); err != nil {
			return err
		}
		return d.expr(conds, exprT.Y)
	case *ir.CallExpr:
		for _, arg := range exprT.Args {
			if err := d.expr(conds, arg); err != nil {
				return err
			}
		}
		return nil
	default:
		return d.fset.Internalf(expr.Source(), "expression %T not supported by mask derivation", expr)
	}
}
