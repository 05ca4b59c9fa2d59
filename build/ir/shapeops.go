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
	"go/ast"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/vx-org/vx/build/shape"
)

// ReduceOp is the combining operator of a reduction.
type ReduceOp int

const (
	// ReduceAdd sums the reduced lanes.
	ReduceAdd ReduceOp = iota
	// ReduceMul multiplies the reduced lanes.
	ReduceMul
	// ReduceMin takes the smallest lane, ignoring NaN.
	ReduceMin
	// ReduceMax takes the largest lane, ignoring NaN.
	ReduceMax
	// ReduceMinimum takes the smallest lane, propagating NaN.
	// Not fully associative: the lane order is unspecified.
	ReduceMinimum
	// ReduceMaximum takes the largest lane, propagating NaN.
	// Not fully associative: the lane order is unspecified.
	ReduceMaximum
	// ReduceAnd is the logical conjunction of boolean lanes.
	ReduceAnd
	// ReduceOr is the logical disjunction of boolean lanes.
	ReduceOr
)

var reduceOpNames = map[ReduceOp]string{
	ReduceAdd:     "add",
	ReduceMul:     "mul",
	ReduceMin:     "min",
	ReduceMax:     "max",
	ReduceMinimum: "minimum",
	ReduceMaximum: "maximum",
	ReduceAnd:     "and",
	ReduceOr:      "or",
}

// String representation of the operator.
func (op ReduceOp) String() string {
	name, ok := reduceOpNames[op]
	if !ok {
		return "invalid"
	}
	return name
}

// ReduceExpr collapses the dimensions in Dims of its operand to
// extent 1, combining lanes with Op.
type ReduceExpr struct {
	Src  ast.Expr
	Op   ReduceOp
	Dims shape.DimMask
	X    Expr
}

var _ Expr = (*ReduceExpr)(nil)

func (*ReduceExpr) node() {}
func (*ReduceExpr) expr() {}

// Source returns the node in the host AST.
func (e *ReduceExpr) Source() ast.Node {
	if e.Src != nil {
		return e.Src
	}
	return e.X.Source()
}

// DType of the reduced value.
func (e *ReduceExpr) DType() dtype.DataType {
	if e.Op == ReduceAnd || e.Op == ReduceOr {
		return dtype.Bool
	}
	return e.X.DType()
}

// String representation of the reduction.
func (e *ReduceExpr) String() string {
	return fmt.Sprintf("reduce[%s,%s](%s)", e.Op, e.Dims, e.X)
}

// KeepDim is the slice index keeping a dimension at its input extent.
const KeepDim = -1

// SliceExpr selects a static offset along some dimensions of its
// operand. Indices has one entry per input dimension: KeepDim keeps
// the dimension, any other value selects that offset and makes the
// dimension trivial.
type SliceExpr struct {
	Src     ast.Expr
	Indices []int
	X       Expr
}

var _ Expr = (*SliceExpr)(nil)

func (*SliceExpr) node() {}
func (*SliceExpr) expr() {}

// Source returns the node in the host AST.
func (e *SliceExpr) Source() ast.Node {
	if e.Src != nil {
		return e.Src
	}
	return e.X.Source()
}

// DType of the sliced value.
func (e *SliceExpr) DType() dtype.DataType { return e.X.DType() }

// String representation of the slice.
func (e *SliceExpr) String() string {
	var ss []string
	for _, idx := range e.Indices {
		if idx == KeepDim {
			ss = append(ss, "-")
		} else {
			ss = append(ss, fmt.Sprintf("%d", idx))
		}
	}
	return fmt.Sprintf("slice[%s](%s)", strings.Join(ss, ","), e.X)
}

// BroadcastExpr expands the trivial dimensions in Dims of its operand
// to the block's extent on those dimensions.
type BroadcastExpr struct {
	Src   ast.Expr
	Dims  shape.DimMask
	Block *BlockDecl
	X     Expr
}

var _ Expr = (*BroadcastExpr)(nil)

func (*BroadcastExpr) node() {}
func (*BroadcastExpr) expr() {}

// Source returns the node in the host AST.
func (e *BroadcastExpr) Source() ast.Node {
	if e.Src != nil {
		return e.Src
	}
	return e.X.Source()
}

// DType of the broadcast value.
func (e *BroadcastExpr) DType() dtype.DataType { return e.X.DType() }

// String representation of the broadcast.
func (e *BroadcastExpr) String() string {
	return fmt.Sprintf("broadcast[%s](%s)", e.Dims, e.X)
}

// IndexFn maps a destination flat index to a source flat index, given
// the total element count. It must be a pure function of its arguments:
// shuffles are resolved entirely at analysis time.
type IndexFn func(dst, total int) int

// ShuffleExpr permutes the lanes of its operand through a static index
// function over the flattened total-element-count view. The externally
// visible shape is unchanged.
type ShuffleExpr struct {
	Src   ast.Expr
	X     Expr
	Index IndexFn
}

var _ Expr = (*ShuffleExpr)(nil)

func (*ShuffleExpr) node() {}
func (*ShuffleExpr) expr() {}

// Source returns the node in the host AST.
func (e *ShuffleExpr) Source() ast.Node {
	if e.Src != nil {
		return e.Src
	}
	return e.X.Source()
}

// DType of the shuffled value.
func (e *ShuffleExpr) DType() dtype.DataType { return e.X.DType() }

// String representation of the shuffle.
func (e *ShuffleExpr) String() string {
	return fmt.Sprintf("shuffle(%s)", e.X)
}

// ShufflePairExpr selects lanes from the concatenation of two operands
// of equal shape through a static index function. Source indices range
// over twice the total element count; the result keeps the operands'
// shape.
type ShufflePairExpr struct {
	Src   ast.Expr
	X, Y  Expr
	Index IndexFn
}

var _ Expr = (*ShufflePairExpr)(nil)

func (*ShufflePairExpr) node() {}
func (*ShufflePairExpr) expr() {}

// Source returns the node in the host AST.
func (e *ShufflePairExpr) Source() ast.Node {
	if e.Src != nil {
		return e.Src
	}
	return e.X.Source()
}

// DType of the shuffled value.
func (e *ShufflePairExpr) DType() dtype.DataType { return e.X.DType() }

// String representation of the shuffle.
func (e *ShufflePairExpr) String() string {
	return fmt.Sprintf("shufflepair(%s, %s)", e.X, e.Y)
}
