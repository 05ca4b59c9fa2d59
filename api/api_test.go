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

package api_test

import (
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"go.uber.org/multierr"

	"github.com/vx-org/vx/api"
	"github.com/vx-org/vx/build/ir"
	irh "github.com/vx-org/vx/build/ir/irhelper"
	"github.com/vx-org/vx/build/shape"
	"github.com/vx-org/vx/build/veclib"
)

// scale returns a function multiplying n elements of q by 2 into p,
// with the loop annotated for SPMD lowering over the block.
func scale(block *ir.BlockDecl, upper int64) *ir.FuncDecl {
	p := irh.Local("p", dtype.Float32)
	q := irh.Local("q", dtype.Float32)
	i := irh.Local("i", ir.DefaultIntDType)
	idx := &ir.LoopIndexExpr{Induction: i}
	loop := irh.For(i, irh.IntLit(0), irh.IntLit(upper),
		irh.Store(irh.Add(irh.Ref(p), idx),
			irh.Binary(token.MUL, irh.Load(irh.Add(irh.Ref(q), idx), dtype.Float32), irh.FloatLit(2))),
	)
	loop.Annot = &ir.ParallelAnnot{Block: block, Dims: []int{0}}
	fn := irh.Func("scale", irh.Body(loop), block)
	fn.Params = []*ir.LocalVar{p, q}
	return fn
}

func TestAnalyzeFunc(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	result, err := api.AnalyzeFunc(nil, scale(block, 19), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Fn.Body.List) != 2 {
		t.Fatalf("lowered body has %d statements but want chunk loop and epilogue", len(result.Fn.Body.List))
	}

	chunk, ok := result.Fn.Body.List[0].(*ir.ForStmt)
	if !ok {
		t.Fatalf("first statement is %T but want the chunk loop", result.Fn.Body.List[0])
	}
	chunkStore := chunk.Body.List[0].(*ir.StoreStmt)
	if sh, ok := result.ShapeOf(chunkStore.Addr); !ok || !sh.Equal(shape.New(8)) {
		t.Errorf("chunk store address shape = %s, %v but want (8)", sh, ok)
	}
	if _, masked := result.MaskOf(chunkStore); masked {
		t.Errorf("full-vector chunk store carries a mask")
	}

	epilogue, ok := result.Fn.Body.List[1].(*ir.IfStmt)
	if !ok {
		t.Fatalf("second statement is %T but want the epilogue guard", result.Fn.Body.List[1])
	}
	epiStore := epilogue.Body.List[0].(*ir.StoreStmt)
	mask, masked := result.MaskOf(epiStore)
	if !masked {
		t.Fatalf("epilogue store carries no mask")
	}
	if !mask.Sh.Equal(shape.New(8)) {
		t.Errorf("epilogue store mask shape = %s but want (8)", mask.Sh)
	}
	if mask.X != epilogue.Cond {
		t.Errorf("epilogue store mask is %s but want the guard condition", mask.X)
	}
}

func TestConcreteShapeExport(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	result, err := api.AnalyzeFunc(nil, scale(block, 19), nil)
	if err != nil {
		t.Fatal(err)
	}
	chunk := result.Fn.Body.List[0].(*ir.ForStmt)
	store := chunk.Body.List[0].(*ir.StoreStmt)
	concrete, ok := result.Concrete(store.Addr)
	if !ok {
		t.Fatalf("store address has no concrete shape")
	}
	if diff := cmp.Diff([]int{8}, concrete.AxisLengths); diff != "" {
		t.Errorf("axis lengths mismatch (-want +got):\n%s", diff)
	}
	if concrete.DType != dtype.Float32 {
		t.Errorf("concrete dtype = %v but want float32", concrete.DType)
	}
}

func TestStrategyOf(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	reg := veclib.NewRegistry()
	if err := reg.Register("exp", veclib.Elementwise{Pure: true}); err != nil {
		t.Fatal(err)
	}
	x := irh.Local("x", dtype.Float32)
	call := irh.Call("exp", dtype.Float32, irh.Index(block, 0))
	fn := irh.Func("f", irh.Body(irh.Define(x, call)), block)
	result, err := api.AnalyzeFunc(nil, fn, reg)
	if err != nil {
		t.Fatal(err)
	}
	if got := result.StrategyOf(call); got != ir.StrategyElementwise {
		t.Errorf("strategy = %s but want elementwise", got)
	}
}

func TestAnalyzeAllFailsPerFunction(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	good := scale(block, 19)

	bad := scale(irh.Block(ir.DefaultEngine, 8), 19)
	badLoop := bad.Body.List[0].(*ir.ForStmt)
	badLoop.Step = irh.IntLit(2)
	bad.FName = "badscale"

	results, err := api.AnalyzeAll(nil, []*ir.FuncDecl{good, bad}, nil)
	if len(results) != 1 {
		t.Errorf("AnalyzeAll returned %d results but want 1", len(results))
	}
	if errs := multierr.Errors(err); len(errs) != 1 {
		t.Errorf("AnalyzeAll reported %d errors but want 1: %v", len(errs), err)
	}
}
