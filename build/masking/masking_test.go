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

package masking_test

import (
	"go/token"
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/stretchr/testify/require"
	"github.com/vx-org/vx/build/fmterr"
	"github.com/vx-org/vx/build/ir"
	irh "github.com/vx-org/vx/build/ir/irhelper"
	"github.com/vx-org/vx/build/masking"
	"github.com/vx-org/vx/build/shape"
	"github.com/vx-org/vx/build/shaping"
)

func derive(t *testing.T, fn *ir.FuncDecl) (*shaping.Annotations, *masking.Masks) {
	t.Helper()
	ann, err := shaping.Infer(nil, fn, nil)
	require.NoError(t, err)
	masks, err := masking.Derive(nil, fn, ann)
	require.NoError(t, err)
	return ann, masks
}

func TestMatchingShapesUseConditionDirectly(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	p := irh.Local("p", dtype.Float32)
	i0 := irh.Index(block, 0)
	cond := irh.Less(i0, irh.IntLit(4))
	store := irh.Store(irh.Add(irh.Ref(p), i0), irh.FloatLit(1))
	fn := irh.Func("f", irh.Body(irh.If(cond, store)), block)
	fn.Params = []*ir.LocalVar{p}

	_, masks := derive(t, fn)
	mask, ok := masks.Of(store)
	require.True(t, ok, "guarded store carries no mask")
	require.Same(t, ir.Expr(cond), mask.X)
	require.True(t, mask.Sh.Equal(shape.New(8)), "mask shape = %s", mask.Sh)
}

func TestConditionBroadcastsToWiderOperation(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8, 4)
	p := irh.Local("p", dtype.Float32)
	i0 := irh.Index(block, 0)
	i1 := irh.Index(block, 1)
	cond := irh.Less(i0, irh.IntLit(4))
	store := irh.Store(irh.Add(irh.Add(irh.Ref(p), i0), i1), irh.FloatLit(1))
	fn := irh.Func("f", irh.Body(irh.If(cond, store)), block)
	fn.Params = []*ir.LocalVar{p}

	_, masks := derive(t, fn)
	mask, ok := masks.Of(store)
	require.True(t, ok)
	// The (8) condition is replicated along dimension 1: the mask keeps
	// the condition expression and takes the operation's shape.
	require.Same(t, ir.Expr(cond), mask.X)
	require.True(t, mask.Sh.Equal(shape.New(8, 4)), "mask shape = %s", mask.Sh)
}

func TestConditionOrReducesToNarrowerOperation(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8, 4)
	p := irh.Local("p", dtype.Float32)
	i0 := irh.Index(block, 0)
	i1 := irh.Index(block, 1)
	cond := irh.Less(irh.Add(i0, i1), irh.IntLit(4))
	store := irh.Store(irh.Add(irh.Ref(p), i0), irh.FloatLit(1))
	fn := irh.Func("f", irh.Body(irh.If(cond, store)), block)
	fn.Params = []*ir.LocalVar{p}

	ann, masks := derive(t, fn)
	mask, ok := masks.Of(store)
	require.True(t, ok)
	red, isReduce := mask.X.(*ir.ReduceExpr)
	require.True(t, isReduce, "mask of a narrower operation is %T, want an OR-reduction", mask.X)
	require.Equal(t, ir.ReduceOr, red.Op)
	require.Equal(t, shape.Dims(1), red.Dims)
	require.Same(t, ir.Expr(cond), red.X)
	redShape, ok := ann.ShapeOf(red)
	require.True(t, ok, "the synthetic reduction is not annotated")
	require.True(t, redShape.Equal(shape.New(8)), "reduction shape = %s", redShape)
}

func TestIncompatibleConditionShapeFails(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8, 4)
	p := irh.Local("p", dtype.Float32)
	cond := irh.Less(irh.Index(block, 0), irh.IntLit(4))
	store := irh.Store(irh.Add(irh.Ref(p), irh.Index(block, 1)), irh.FloatLit(1))
	fn := irh.Func("f", irh.Body(irh.If(cond, store)), block)
	fn.Params = []*ir.LocalVar{p}

	ann, err := shaping.Infer(nil, fn, nil)
	require.NoError(t, err)
	_, err = masking.Derive(nil, fn, ann)
	require.Error(t, err)
	code, ok := fmterr.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, fmterr.MaskShapeIncompatible, code)
}

func TestNestedConditionsConjoin(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8, 4)
	p := irh.Local("p", dtype.Float32)
	i0 := irh.Index(block, 0)
	i1 := irh.Index(block, 1)
	outer := irh.Less(i0, irh.IntLit(4))
	innerCond := irh.Less(irh.Add(i0, i1), irh.IntLit(6))
	store := irh.Store(irh.Add(irh.Add(irh.Ref(p), i0), i1), irh.FloatLit(1))
	fn := irh.Func("f", irh.Body(
		irh.If(outer, irh.If(innerCond, store)),
	), block)
	fn.Params = []*ir.LocalVar{p}

	_, masks := derive(t, fn)
	mask, ok := masks.Of(store)
	require.True(t, ok)
	both, isAnd := mask.X.(*ir.BinaryExpr)
	require.True(t, isAnd, "mask under nested conditions is %T, want a conjunction", mask.X)
	require.Equal(t, token.LAND, both.Op)
	require.Same(t, ir.Expr(outer), both.X)
	require.Same(t, ir.Expr(innerCond), both.Y)
	require.True(t, mask.Sh.Equal(shape.New(8, 4)), "mask shape = %s", mask.Sh)
}

func TestScalarConditionContributesNoMask(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	p := irh.Local("p", dtype.Float32)
	n := irh.Local("n", ir.DefaultIntDType)
	store := irh.Store(irh.Add(irh.Ref(p), irh.Index(block, 0)), irh.FloatLit(1))
	fn := irh.Func("f", irh.Body(
		irh.If(irh.Less(irh.Ref(n), irh.IntLit(4)), store),
	), block)
	fn.Params = []*ir.LocalVar{p, n}

	_, masks := derive(t, fn)
	require.Equal(t, 0, masks.Size(), "a scalar condition is control flow, not a mask")
}

func TestElseBranchNegatesCondition(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	p := irh.Local("p", dtype.Float32)
	i0 := irh.Index(block, 0)
	cond := irh.Less(i0, irh.IntLit(4))
	thenStore := irh.Store(irh.Add(irh.Ref(p), i0), irh.FloatLit(1))
	elseStore := irh.Store(irh.Add(irh.Ref(p), i0), irh.FloatLit(2))
	fn := irh.Func("f", irh.Body(&ir.IfStmt{
		Cond: cond,
		Body: irh.Body(thenStore),
		Else: irh.Body(elseStore),
	}), block)
	fn.Params = []*ir.LocalVar{p}

	_, masks := derive(t, fn)
	thenMask, ok := masks.Of(thenStore)
	require.True(t, ok)
	require.Same(t, ir.Expr(cond), thenMask.X)
	elseMask, ok := masks.Of(elseStore)
	require.True(t, ok)
	neg, isNot := elseMask.X.(*ir.UnaryExpr)
	require.True(t, isNot, "else mask is %T, want a negation", elseMask.X)
	require.Equal(t, token.NOT, neg.Op)
	require.Same(t, ir.Expr(cond), neg.X)
}

func TestLoadAndReductionMasked(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	p := irh.Local("p", dtype.Float32)
	x := irh.Local("x", dtype.Float32)
	i0 := irh.Index(block, 0)
	cond := irh.Less(i0, irh.IntLit(4))
	load := irh.Load(irh.Add(irh.Ref(p), i0), dtype.Float32)
	red := &ir.ReduceExpr{Op: ir.ReduceAdd, Dims: shape.Dims(0), X: load}
	fn := irh.Func("f", irh.Body(
		irh.If(cond, irh.Define(x, red)),
	), block)
	fn.Params = []*ir.LocalVar{p}

	_, masks := derive(t, fn)
	loadMask, ok := masks.Of(load)
	require.True(t, ok, "guarded load carries no mask")
	require.True(t, loadMask.Sh.Equal(shape.New(8)))
	// The reduction's mask selects participating lanes: it applies at
	// the shape of the reduced operand, not of the collapsed result.
	redMask, ok := masks.Of(red)
	require.True(t, ok, "guarded reduction carries no mask")
	require.True(t, redMask.Sh.Equal(shape.New(8)), "reduction mask shape = %s", redMask.Sh)
	require.Len(t, masks.Nodes(), 2)
}

func TestUnguardedOperationsCarryNoMask(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	p := irh.Local("p", dtype.Float32)
	i0 := irh.Index(block, 0)
	store := irh.Store(irh.Add(irh.Ref(p), i0), irh.FloatLit(1))
	fn := irh.Func("f", irh.Body(store), block)
	fn.Params = []*ir.LocalVar{p}

	_, masks := derive(t, fn)
	require.Equal(t, 0, masks.Size())
	_, ok := masks.Of(store)
	require.False(t, ok)
}
