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

// Package shaping assigns a shape to every expression node of a
// function.
//
// The pass is a memoized attribute computation over the immutable
// expression DAG: bottom-up over expressions, in statement order over
// the body. Literals are scalar; block index queries seed non-trivial
// shapes; operators join their operand shapes; explicit shape-modifying
// operations apply their declared transforms. Scalar-declared locals
// assigned a non-trivial value go through the scalar expansion
// resolver. The first error aborts the function.
package shaping

import (
	"go/token"

	"github.com/gx-org/backend/dtype"
	"k8s.io/klog/v2"

	"github.com/vx-org/vx/build/fmterr"
	"github.com/vx-org/vx/build/ir"
	"github.com/vx-org/vx/build/shape"
	"github.com/vx-org/vx/build/veclib"
	"github.com/vx-org/vx/internal/base/scope"
)

// binding tracks the effective shape of a named binding at the current
// point of the walk.
type binding struct {
	store ir.Storage
	sh    shape.Shape
}

type env = scope.RWScope[binding]

type engine struct {
	fset     fmterr.FileSet
	fn       *ir.FuncDecl
	resolver veclib.Resolver
	ann      *Annotations
}

// Infer computes the shape of every expression of a function.
//
// Inference is a pure function of the graph: re-running it on the same
// function yields identical annotations.
func Infer(fset *token.FileSet, fn *ir.FuncDecl, resolver veclib.Resolver) (*Annotations, error) {
	if err := fn.CheckBlocks(); err != nil {
		return nil, fmterr.FileSet{FSet: fset}.Position(fn.Source(), fmterr.Internal, err)
	}
	eng := &engine{
		fset:     fmterr.FileSet{FSet: fset},
		fn:       fn,
		resolver: resolver,
		ann:      newAnnotations(),
	}
	klog.V(2).Infof("shaping: inferring function %s", fn.Name())
	root := scope.New[binding](nil)
	for _, param := range fn.Params {
		root.Define(param.Name(), binding{store: param, sh: shape.Scalar()})
	}
	if err := eng.block(root, fn.Body); err != nil {
		return nil, err
	}
	klog.V(2).Infof("shaping: %s: %d expressions annotated", fn.Name(), eng.ann.NumShapes())
	return eng.ann, nil
}

func (eng *engine) block(parent *env, block *ir.BlockStmt) error {
	inner := scope.New(scope.Scope[binding](parent))
	for _, stmt := range block.List {
		if err := eng.stmt(inner, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (eng *engine) stmt(sc *env, stmt ir.Stmt) error {
	switch stmtT := stmt.(type) {
	case *ir.BlockStmt:
		return eng.block(sc, stmtT)
	case *ir.AssignStmt:
		return eng.assign(sc, stmtT)
	case *ir.StoreStmt:
		return eng.store(sc, stmtT)
	case *ir.IfStmt:
		return eng.ifStmt(sc, stmtT)
	case *ir.ForStmt:
		return eng.forStmt(sc, stmtT)
	case *ir.ExprStmt:
		_, err := eng.expr(sc, stmtT.X)
		return err
	case *ir.ReturnStmt:
		for _, result := range stmtT.Results {
			if _, err := eng.expr(sc, result); err != nil {
				return err
			}
		}
		return nil
	default:
		return eng.fset.Internalf(stmt.Source(), "statement %T not supported by shape inference", stmt)
	}
}

func (eng *engine) assign(sc *env, stmt *ir.AssignStmt) error {
	sh, err := eng.expr(sc, stmt.X)
	if err != nil {
		return err
	}
	if !sh.IsScalar() {
		if err := eng.checkExpansion(stmt, stmt.Store, sh); err != nil {
			return err
		}
	}
	bnd := binding{store: stmt.Store, sh: sh}
	if stmt.Define {
		sc.Define(stmt.Store.Name(), bnd)
		return nil
	}
	if _, ok := sc.Find(stmt.Store.Name()); !ok {
		// Writes to globals and members are not tracked by the scope:
		// their shape is pinned scalar and checked by checkExpansion.
		if _, isLocal := stmt.Store.(*ir.LocalVar); !isLocal {
			return nil
		}
		return eng.fset.Internalf(stmt.Source(), "assignment to %s before its definition", stmt.Store.Name())
	}
	// The assigned shape applies from this point forward.
	if err := sc.Assign(stmt.Store.Name(), bnd); err != nil {
		return eng.fset.Position(stmt.Source(), fmterr.Internal, err)
	}
	return nil
}

func (eng *engine) store(sc *env, stmt *ir.StoreStmt) error {
	addrShape, err := eng.expr(sc, stmt.Addr)
	if err != nil {
		return err
	}
	valShape, err := eng.expr(sc, stmt.X)
	if err != nil {
		return err
	}
	// A store may only write a shape that the destination's own
	// indexing already supports: a value with a non-trivial dimension
	// where the destination is trivial is an illegal narrowing.
	if !valShape.AssignableTo(addrShape) {
		return eng.fset.Errorf(stmt.Source(), fmterr.ShapeInconsistency,
			"cannot store value of shape %s to destination of shape %s", valShape, addrShape)
	}
	return nil
}

func (eng *engine) ifStmt(sc *env, stmt *ir.IfStmt) error {
	condShape, err := eng.expr(sc, stmt.Cond)
	if err != nil {
		return err
	}
	if stmt.Cond.DType() != dtype.Bool {
		return eng.fset.Internalf(stmt.Cond.Source(), "non-boolean condition in if statement")
	}
	klog.V(3).Infof("shaping: condition %s has shape %s", stmt.Cond, condShape)
	if err := eng.block(sc, stmt.Body); err != nil {
		return err
	}
	if stmt.Else != nil {
		return eng.stmt(sc, stmt.Else)
	}
	return nil
}

func (eng *engine) forStmt(sc *env, stmt *ir.ForStmt) error {
	for _, bound := range []ir.Expr{stmt.Lower, stmt.Upper, stmt.Step} {
		sh, err := eng.expr(sc, bound)
		if err != nil {
			return err
		}
		if !sh.IsScalar() {
			return eng.fset.Errorf(bound.Source(), fmterr.ShapeInconsistency,
				"loop bound %s has non-scalar shape %s", bound, sh)
		}
	}
	inner := scope.New(scope.Scope[binding](sc))
	inner.Define(stmt.Induction.Name(), binding{store: stmt.Induction, sh: shape.Scalar()})
	for _, bodyStmt := range stmt.Body.List {
		if err := eng.stmt(inner, bodyStmt); err != nil {
			return err
		}
	}
	return nil
}

func (eng *engine) expr(sc *env, expr ir.Expr) (shape.Shape, error) {
	if sh, ok := eng.ann.ShapeOf(expr); ok {
		// Shared subexpressions are computed once.
		return sh, nil
	}
	sh, err := eng.exprShape(sc, expr)
	if err != nil {
		return shape.Shape{}, err
	}
	eng.ann.Record(expr, sh)
	return sh, nil
}

func (eng *engine) exprShape(sc *env, expr ir.Expr) (shape.Shape, error) {
	switch exprT := expr.(type) {
	case *ir.NumberLit:
		return shape.Scalar(), nil
	case *ir.Ref:
		return eng.ref(sc, exprT)
	case *ir.BlockIndexExpr:
		sh, err := exprT.Block.IndexShape(exprT.Dim)
		if err != nil {
			return shape.Shape{}, eng.fset.Position(expr.Source(), fmterr.IndexOutOfRange, err)
		}
		return sh, nil
	case *ir.BlockSizeExpr:
		if _, err := exprT.Block.Size(exprT.Dim); err != nil {
			return shape.Shape{}, eng.fset.Position(expr.Source(), fmterr.IndexOutOfRange, err)
		}
		return shape.Scalar(), nil
	case *ir.UnaryExpr:
		return eng.expr(sc, exprT.X)
	case *ir.BinaryExpr:
		return eng.binary(sc, exprT)
	case *ir.LoadExpr:
		// Dereferencing does not change shape: pointer arithmetic
		// already captured the shape through the join rule.
		return eng.expr(sc, exprT.Addr)
	case *ir.ReduceExpr:
		sh, err := eng.expr(sc, exprT.X)
		if err != nil {
			return shape.Shape{}, err
		}
		return sh.Collapse(exprT.Dims), nil
	case *ir.SliceExpr:
		return eng.slice(sc, exprT)
	case *ir.BroadcastExpr:
		return eng.broadcast(sc, exprT)
	case *ir.ShuffleExpr:
		return eng.shuffle(sc, exprT)
	case *ir.ShufflePairExpr:
		return eng.shufflePair(sc, exprT)
	case *ir.CallExpr:
		return eng.call(sc, exprT)
	case *ir.LoopIndexExpr:
		// The SPMD lowering replaces every valid accessor with its
		// reconstruction arithmetic: any survivor has no chunk to
		// resolve against.
		return shape.Shape{}, eng.fset.Errorf(expr.Source(), fmterr.IndexOutsideParallelLoop,
			"parallel loop index of %s used outside a lowered parallel loop", exprT.Induction.Name())
	default:
		return shape.Shape{}, eng.fset.Internalf(expr.Source(), "expression %T not supported by shape inference", expr)
	}
}

func (eng *engine) ref(sc *env, ref *ir.Ref) (shape.Shape, error) {
	if bnd, ok := sc.Find(ref.Store.Name()); ok {
		return bnd.sh, nil
	}
	switch ref.Store.(type) {
	case *ir.GlobalVar, *ir.FieldVar:
		// Non-local state never expands: its shape is pinned scalar.
		return shape.Scalar(), nil
	}
	return shape.Shape{}, eng.fset.Internalf(ref.Source(), "use of %s before its definition", ref.Store.Name())
}

func (eng *engine) binary(sc *env, expr *ir.BinaryExpr) (shape.Shape, error) {
	xShape, err := eng.expr(sc, expr.X)
	if err != nil {
		return shape.Shape{}, err
	}
	yShape, err := eng.expr(sc, expr.Y)
	if err != nil {
		return shape.Shape{}, err
	}
	joined, err := shape.Join(xShape, yShape)
	if err != nil {
		return shape.Shape{}, eng.fset.Position(expr.Source(), fmterr.ShapeInconsistency, err)
	}
	return joined, nil
}

func (eng *engine) slice(sc *env, expr *ir.SliceExpr) (shape.Shape, error) {
	sh, err := eng.expr(sc, expr.X)
	if err != nil {
		return shape.Shape{}, err
	}
	if len(expr.Indices) != sh.Rank() {
		return shape.Shape{}, eng.fset.Errorf(expr.Source(), fmterr.ArityMismatch,
			"slice has %d indices but its operand of shape %s has %d dimensions", len(expr.Indices), sh, sh.Rank())
	}
	out := sh
	for dim, idx := range expr.Indices {
		if idx == ir.KeepDim {
			continue
		}
		if idx < 0 || idx >= sh.Extent(dim) {
			return shape.Shape{}, eng.fset.Errorf(expr.Source(), fmterr.IndexOutOfRange,
				"slice index %d out of range for dimension %d of extent %d", idx, dim, sh.Extent(dim))
		}
		out = out.WithExtent(dim, 1)
	}
	return out, nil
}

func (eng *engine) broadcast(sc *env, expr *ir.BroadcastExpr) (shape.Shape, error) {
	sh, err := eng.expr(sc, expr.X)
	if err != nil {
		return shape.Shape{}, err
	}
	out := sh
	for _, dim := range expr.Dims.Dims() {
		ext, err := expr.Block.Size(dim)
		if err != nil {
			return shape.Shape{}, eng.fset.Position(expr.Source(), fmterr.IndexOutOfRange, err)
		}
		if sh.Extent(dim) != 1 {
			return shape.Shape{}, eng.fset.Errorf(expr.Source(), fmterr.AlreadyNonTrivial,
				"cannot broadcast dimension %d of shape %s: extent %d is not trivial", dim, sh, sh.Extent(dim))
		}
		out = out.WithExtent(dim, ext)
	}
	return out, nil
}

// checkIndexFn resolves a shuffle index function for every destination
// index and checks the selected sources stay in [0, bound).
func (eng *engine) checkIndexFn(expr ir.Expr, fn ir.IndexFn, total, bound int) error {
	if fn == nil {
		return eng.fset.Errorf(expr.Source(), fmterr.NonStaticShuffleIndex,
			"shuffle index function is not resolvable at analysis time")
	}
	for dst := range total {
		src := fn(dst, total)
		if src < 0 || src >= bound {
			return eng.fset.Errorf(expr.Source(), fmterr.ShuffleIndexOutOfRange,
				"shuffle selects source %d for destination %d: out of range [0, %d)", src, dst, bound)
		}
	}
	return nil
}

func (eng *engine) shuffle(sc *env, expr *ir.ShuffleExpr) (shape.Shape, error) {
	sh, err := eng.expr(sc, expr.X)
	if err != nil {
		return shape.Shape{}, err
	}
	// Shuffles address the flattened total-element-count view but
	// preserve the externally visible shape.
	total := sh.Size()
	if err := eng.checkIndexFn(expr, expr.Index, total, total); err != nil {
		return shape.Shape{}, err
	}
	return sh, nil
}

func (eng *engine) shufflePair(sc *env, expr *ir.ShufflePairExpr) (shape.Shape, error) {
	xShape, err := eng.expr(sc, expr.X)
	if err != nil {
		return shape.Shape{}, err
	}
	yShape, err := eng.expr(sc, expr.Y)
	if err != nil {
		return shape.Shape{}, err
	}
	if !xShape.Equal(yShape) {
		return shape.Shape{}, eng.fset.Errorf(expr.Source(), fmterr.ShapeInconsistency,
			"shuffle pair operands have distinct shapes %s and %s", xShape, yShape)
	}
	// Sources select from the concatenation of both operands.
	total := xShape.Size()
	if err := eng.checkIndexFn(expr, expr.Index, total, 2*total); err != nil {
		return shape.Shape{}, err
	}
	return xShape, nil
}

func (eng *engine) call(sc *env, expr *ir.CallExpr) (shape.Shape, error) {
	argShapes := make([]shape.Shape, len(expr.Args))
	joined := shape.Scalar()
	for i, arg := range expr.Args {
		argShape, err := eng.expr(sc, arg)
		if err != nil {
			return shape.Shape{}, err
		}
		argShapes[i] = argShape
		if joined, err = shape.Join(joined, argShape); err != nil {
			return shape.Shape{}, eng.fset.Position(expr.Source(), fmterr.ShapeInconsistency, err)
		}
	}
	if joined.IsScalar() {
		eng.ann.strategies[expr] = ir.StrategyScalar
		return joined, nil
	}
	resolution, err := eng.resolve(expr, argShapes)
	if err != nil {
		return shape.Shape{}, err
	}
	switch res := resolution.(type) {
	case veclib.Elementwise:
		eng.ann.strategies[expr] = ir.StrategyElementwise
		return joined, nil
	case veclib.ExplicitSignature:
		// The resolver is an external collaborator: do not trust its
		// declared signature to match the call.
		if len(res.Args) != len(expr.Args) {
			return shape.Shape{}, eng.fset.Errorf(expr.Source(), fmterr.ArityMismatch,
				"vector implementation of %s declares %d arguments but the call has %d",
				expr.Func, len(res.Args), len(expr.Args))
		}
		for i, declared := range res.Args {
			if !argShapes[i].AssignableTo(declared) {
				return shape.Shape{}, eng.fset.Errorf(expr.Source(), fmterr.ShapeInconsistency,
					"argument %d of %s has shape %s but the vector implementation declares %s", i, expr.Func, argShapes[i], declared)
			}
		}
		eng.ann.strategies[expr] = ir.StrategyExplicit
		return res.Result, nil
	case veclib.Sequentialize:
		eng.ann.strategies[expr] = ir.StrategySequential
		return joined, nil
	default:
		return shape.Shape{}, eng.fset.Internalf(expr.Source(), "vector resolution %T not supported", resolution)
	}
}

func (eng *engine) resolve(expr *ir.CallExpr, argShapes []shape.Shape) (veclib.Resolution, error) {
	if eng.resolver == nil {
		return veclib.Sequentialize{}, nil
	}
	resolution, err := eng.resolver.Resolve(expr.Func, argShapes)
	if err != nil {
		return nil, eng.fset.Position(expr.Source(), fmterr.Internal, err)
	}
	klog.V(2).Infof("shaping: call %s resolved to %s", expr.Func, resolution)
	return resolution, nil
}
