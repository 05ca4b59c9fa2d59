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

package ir_test

import (
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/vx-org/vx/build/ir"
	irh "github.com/vx-org/vx/build/ir/irhelper"
	"github.com/vx-org/vx/build/shape"
)

func TestNewBlockDecl(t *testing.T) {
	tests := []struct {
		desc    string
		extents []int
		wantErr bool
	}{
		{desc: "one dimension", extents: []int{8}},
		{desc: "two dimensions", extents: []int{8, 4}},
		{desc: "no dimension", extents: nil, wantErr: true},
		{desc: "zero extent", extents: []int{8, 0}, wantErr: true},
		{desc: "negative extent", extents: []int{-1}, wantErr: true},
		{desc: "too many dimensions", extents: []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, wantErr: true},
	}
	for _, test := range tests {
		block, err := ir.NewBlockDecl(nil, ir.DefaultEngine, test.extents)
		if test.wantErr {
			if err == nil {
				t.Errorf("%s: NewBlockDecl(%v) did not fail", test.desc, test.extents)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: NewBlockDecl(%v): %v", test.desc, test.extents, err)
			continue
		}
		if block.Rank() != len(test.extents) {
			t.Errorf("%s: rank = %d but want %d", test.desc, block.Rank(), len(test.extents))
		}
	}
}

func TestBlockIndexShape(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8, 4)
	sh, err := block.IndexShape(0)
	if err != nil {
		t.Fatalf("IndexShape(0): %v", err)
	}
	if !sh.Equal(shape.New(8)) {
		t.Errorf("IndexShape(0) = %s but want (8)", sh)
	}
	sh, err = block.IndexShape(1)
	if err != nil {
		t.Fatalf("IndexShape(1): %v", err)
	}
	if !sh.Equal(shape.New(1, 4)) {
		t.Errorf("IndexShape(1) = %s but want (1x4)", sh)
	}
	if _, err := block.IndexShape(2); err == nil {
		t.Errorf("IndexShape(2) did not fail on a rank-2 block")
	}
	if _, err := block.Size(-1); err == nil {
		t.Errorf("Size(-1) did not fail")
	}
}

func TestCheckBlocks(t *testing.T) {
	pe := irh.Block(ir.DefaultEngine, 8)
	aux := irh.Block("aux", 4)
	fn := irh.Func("f", irh.Body(), pe, aux)
	if err := fn.CheckBlocks(); err != nil {
		t.Errorf("CheckBlocks with distinct tags: %v", err)
	}
	dup := irh.Func("g", irh.Body(), pe, irh.Block(ir.DefaultEngine, 16))
	if err := dup.CheckBlocks(); err == nil {
		t.Errorf("CheckBlocks did not reject two blocks for the same engine tag")
	}
	if got, ok := fn.Block("aux"); !ok || got != aux {
		t.Errorf("Block(aux) = %v, %v but want the declared block", got, ok)
	}
	if _, ok := fn.Block("gpu"); ok {
		t.Errorf("Block(gpu) found a block for an undeclared tag")
	}
}

func TestMask(t *testing.T) {
	trivial := ir.AllTrue(shape.New(8))
	if !trivial.IsAllTrue() {
		t.Errorf("AllTrue mask is not all-true")
	}
	guarded := ir.Mask{X: irh.IntLit(1), Sh: shape.New(8)}
	if guarded.IsAllTrue() {
		t.Errorf("mask with an expression reports all-true")
	}
	if !guarded.Shape().Equal(shape.New(8)) {
		t.Errorf("mask shape = %s but want (8)", guarded.Shape())
	}
}

func TestBinaryExprPredicate(t *testing.T) {
	block := irh.Block(ir.DefaultEngine, 8)
	cmp := irh.Less(irh.Index(block, 0), irh.IntLit(4))
	if cmp.DType() != dtype.Bool {
		t.Errorf("comparison dtype = %v but want bool", cmp.DType())
	}
	sum := irh.Add(irh.Index(block, 0), irh.IntLit(4))
	if sum.DType() == dtype.Bool {
		t.Errorf("sum dtype is bool")
	}
}
