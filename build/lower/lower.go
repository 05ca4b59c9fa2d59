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

// Package lower translates annotated sequential loops into SPMD form.
//
// An annotated loop is rewritten into a full-vector loop whose
// induction variable advances by the block extent per iteration, plus,
// unless the full variant is used, a masked epilogue covering the
// remainder of the iteration space. The epilogue is a single iteration
// guarded by a synthetic conditional on the chunk-local index; the
// masking pass treats it like any other conditional-guarded region.
//
// Lowering runs before shape inference: the loops it emits and the
// index arithmetic it substitutes are ordinary IR analyzed by the
// downstream passes.
package lower

import (
	"fmt"
	"go/token"

	"k8s.io/klog/v2"

	"github.com/vx-org/vx/build/fmterr"
	"github.com/vx-org/vx/build/ir"
)

type lowerer struct {
	fset fmterr.FileSet
}

// Lower rewrites every annotated loop nest of a function into SPMD
// form. The input function is left untouched: the result is a new
// function sharing the unrewritten nodes.
func Lower(fset *token.FileSet, fn *ir.FuncDecl) (*ir.FuncDecl, error) {
	l := &lowerer{fset: fmterr.FileSet{FSet: fset}}
	body, err := l.blockNest(fn.Body, subst{}, nil)
	if err != nil {
		return nil, err
	}
	return &ir.FuncDecl{
		Src:    fn.Src,
		FName:  fn.FName,
		Params: fn.Params,
		Blocks: fn.Blocks,
		Body:   body,
	}, nil
}

// stmt lowers one statement. rest carries the not-yet-consumed
// dimensions of an enclosing loop annotation, to be applied to nested
// loops outside-in.
func (l *lowerer) stmt(stmt ir.Stmt, sub subst, rest *nestAnnot) ([]ir.Stmt, error) {
	switch stmtT := stmt.(type) {
	case *ir.ForStmt:
		if stmtT.Annot != nil {
			return l.lowerNest(stmtT, &nestAnnot{
				block: stmtT.Annot.Block,
				dims:  stmtT.Annot.Dims,
				full:  stmtT.Annot.Full,
			}, sub)
		}
		if rest != nil {
			return l.lowerNest(stmtT, rest, sub)
		}
		body, err := l.blockNest(stmtT.Body, sub, nil)
		if err != nil {
			return nil, err
		}
		return []ir.Stmt{&ir.ForStmt{
			Src:       stmtT.Src,
			Induction: stmtT.Induction,
			Lower:     sub.expr(stmtT.Lower),
			CondOp:    stmtT.CondOp,
			Upper:     sub.expr(stmtT.Upper),
			Step:      sub.expr(stmtT.Step),
			Body:      body,
		}}, nil
	case *ir.BlockStmt:
		body, err := l.blockNest(stmtT, sub, rest)
		if err != nil {
			return nil, err
		}
		return []ir.Stmt{body}, nil
	case *ir.IfStmt:
		body, err := l.blockNest(stmtT.Body, sub, rest)
		if err != nil {
			return nil, err
		}
		ifStmt := &ir.IfStmt{Src: stmtT.Src, Cond: sub.expr(stmtT.Cond), Body: body}
		if stmtT.Else != nil {
			elseStmts, err := l.stmt(stmtT.Else, sub, rest)
			if err != nil {
				return nil, err
			}
			if len(elseStmts) != 1 {
				return nil, l.fset.Internalf(stmtT.Else.Source(), "else branch lowered to %d statements", len(elseStmts))
			}
			ifStmt.Else = elseStmts[0]
		}
		return []ir.Stmt{ifStmt}, nil
	default:
		return []ir.Stmt{sub.stmt(stmt)}, nil
	}
}

// nestAnnot tracks the dimensions of a loop annotation while walking
// into the nest.
type nestAnnot struct {
	block *ir.BlockDecl
	dims  []int
	full  bool
}

// blockNest lowers the statements of a block, passing the remaining
// annotated dimensions down to nested loops.
func (l *lowerer) blockNest(block *ir.BlockStmt, sub subst, rest *nestAnnot) (*ir.BlockStmt, error) {
	var list []ir.Stmt
	for _, stmt := range block.List {
		stmts, err := l.stmt(stmt, sub, rest)
		if err != nil {
			return nil, err
		}
		list = append(list, stmts...)
	}
	return &ir.BlockStmt{Src: block.Src, List: list}, nil
}

// lowerNest lowers one loop along the first remaining annotated
// dimension, then processes its body with the rest.
func (l *lowerer) lowerNest(loop *ir.ForStmt, annot *nestAnnot, sub subst) ([]ir.Stmt, error) {
	if err := l.checkForm(loop); err != nil {
		return nil, err
	}
	dim := annot.dims[0]
	nv, err := annot.block.Size(dim)
	if err != nil {
		return nil, l.fset.Position(loop.Source(), fmterr.IndexOutOfRange, err)
	}
	rest := &nestAnnot{block: annot.block, dims: annot.dims[1:], full: annot.full}
	if len(rest.dims) == 0 {
		rest = nil
	}
	if rest != nil && !containsFor(loop.Body) {
		return nil, l.fset.Errorf(loop.Source(), fmterr.UnsupportedLoopForm,
			"annotation lists %d dimensions but the loop body contains no nested loop", len(annot.dims))
	}
	klog.V(2).Infof("lower: chunking loop over %s along dimension %d of %s (extent %d)",
		loop.Induction.Name(), dim, annot.block, nv)

	lowerB := sub.expr(loop.Lower)
	upperB := sub.expr(loop.Upper)
	local := &ir.BlockIndexExpr{Src: exprSrc(loop.Induction.Src), Block: annot.block, Dim: dim}
	chunk := &ir.LocalVar{
		Src:   loop.Induction.Src,
		VName: fmt.Sprintf("%s.chunk", loop.Induction.Name()),
		DT:    ir.DefaultIntDType,
	}

	// Inside the chunk loop, the original induction value is the chunk
	// base plus the chunk-local index.
	chunkSub := sub.with(loop.Induction, add(ref(chunk), local))
	chunkBody, err := l.blockNest(loop.Body, chunkSub, rest)
	if err != nil {
		return nil, err
	}
	// The chunk loop covers floor((upper-lower)/nv) full vectors.
	chunkUpper := fullUpper(lowerB, upperB, nv)
	chunkLoop := &ir.ForStmt{
		Src:       loop.Src,
		Induction: chunk,
		Lower:     lowerB,
		CondOp:    token.LSS,
		Upper:     chunkUpper,
		Step:      intLit(int64(nv)),
		Body:      chunkBody,
	}
	if annot.full {
		// The full variant trusts the annotation: no epilogue, no
		// bound check. Iterations past the full-vector bound of a trip
		// count that is not an exact multiple of the block extent are
		// silently dropped; they are the user's responsibility.
		return []ir.Stmt{chunkLoop}, nil
	}
	rem := remainder(lowerB, upperB, nv)
	if lit, isConst := rem.(*ir.NumberLit); isConst && lit.Val == 0 {
		// An exact multiple leaves nothing for the epilogue.
		return []ir.Stmt{chunkLoop}, nil
	}

	// The epilogue is one masked iteration covering the remaining
	// (upper-lower) mod nv elements, starting at the full-vector bound.
	epiSub := sub.with(loop.Induction, add(chunkUpper, local))
	epiBody, err := l.blockNest(loop.Body, epiSub, rest)
	if err != nil {
		return nil, err
	}
	epilogue := &ir.IfStmt{
		Src:  loop.Src,
		Cond: &ir.BinaryExpr{Op: token.LSS, X: local, Y: rem},
		Body: epiBody,
	}
	return []ir.Stmt{chunkLoop, epilogue}, nil
}

// checkForm verifies the affine preconditions of the lowering: a
// simple lower bound, an exit test comparing the induction variable
// with < against a simple bound, and a step of exactly +1. The trip
// count must be statically partitionable into full chunks and a
// remainder without re-deriving it from an arbitrary expression.
func (l *lowerer) checkForm(loop *ir.ForStmt) error {
	if !isSimple(loop.Lower) {
		return l.fset.Errorf(loop.Source(), fmterr.UnsupportedLoopForm,
			"lower bound %s of a parallel loop must be a constant or a variable reference", loop.Lower)
	}
	if loop.CondOp != token.LSS {
		return l.fset.Errorf(loop.Source(), fmterr.UnsupportedLoopForm,
			"exit test of a parallel loop must compare with <, not %s", loop.CondOp)
	}
	if !isSimple(loop.Upper) {
		return l.fset.Errorf(loop.Source(), fmterr.UnsupportedLoopForm,
			"upper bound %s of a parallel loop must be a constant or a variable reference", loop.Upper)
	}
	if step, ok := loop.Step.(*ir.NumberLit); !ok || step.Val != 1 {
		return l.fset.Errorf(loop.Source(), fmterr.UnsupportedLoopForm,
			"step of a parallel loop must be exactly +1")
	}
	return nil
}

// containsFor returns true if a statement list contains a loop,
// possibly inside a nested block or conditional.
func containsFor(block *ir.BlockStmt) bool {
	for _, stmt := range block.List {
		switch stmtT := stmt.(type) {
		case *ir.ForStmt:
			return true
		case *ir.BlockStmt:
			if containsFor(stmtT) {
				return true
			}
		case *ir.IfStmt:
			if containsFor(stmtT.Body) {
				return true
			}
		}
	}
	return false
}

// isSimple returns true for a constant or a plain variable reference.
func isSimple(expr ir.Expr) bool {
	switch expr.(type) {
	case *ir.NumberLit, *ir.Ref, *ir.BlockSizeExpr:
		return true
	}
	return false
}

// fullUpper returns lower + floor((upper-lower)/nv)*nv, folded when
// both bounds are constants.
func fullUpper(lower, upper ir.Expr, nv int) ir.Expr {
	if lo, up, ok := constBounds(lower, upper); ok {
		trip := up - lo
		return intLit(lo + trip/int64(nv)*int64(nv))
	}
	trip := &ir.BinaryExpr{Op: token.SUB, X: upper, Y: lower}
	chunks := &ir.BinaryExpr{Op: token.QUO, X: trip, Y: intLit(int64(nv))}
	covered := &ir.BinaryExpr{Op: token.MUL, X: chunks, Y: intLit(int64(nv))}
	return add(lower, covered)
}

// remainder returns (upper-lower) mod nv, folded when both bounds are
// constants.
func remainder(lower, upper ir.Expr, nv int) ir.Expr {
	if lo, up, ok := constBounds(lower, upper); ok {
		return intLit((up - lo) % int64(nv))
	}
	trip := &ir.BinaryExpr{Op: token.SUB, X: upper, Y: lower}
	return &ir.BinaryExpr{Op: token.REM, X: trip, Y: intLit(int64(nv))}
}

func constBounds(lower, upper ir.Expr) (lo, up int64, ok bool) {
	lowerT, lowerOk := lower.(*ir.NumberLit)
	upperT, upperOk := upper.(*ir.NumberLit)
	if !lowerOk || !upperOk {
		return 0, 0, false
	}
	return lowerT.Val, upperT.Val, true
}
