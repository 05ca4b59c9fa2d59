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
	"github.com/pkg/errors"
	"github.com/vx-org/vx/build/shape"
)

// EngineTag identifies a family of processing elements.
// Tags are opaque and only compared for equality. A single kind of
// engine exists today; the tag keeps the model open to heterogeneous
// engines without affecting shape or masking logic.
type EngineTag string

// DefaultEngine is the tag of the only engine kind currently supported.
const DefaultEngine EngineTag = "pe"

// BlockDecl declares a grid of processing elements for one engine tag.
// A block is declared at most once per tag per function and is
// immutable after creation. It is owned by the function and referenced,
// not owned, by every expression that depends on it.
type BlockDecl struct {
	Src ast.Node

	// Tag of the engine family the block runs on.
	Tag EngineTag

	// Extents of the grid, dimension 0 innermost.
	Extents []int
}

var _ SourceNode = (*BlockDecl)(nil)

// NewBlockDecl validates and returns a block declaration.
func NewBlockDecl(src ast.Node, tag EngineTag, extents []int) (*BlockDecl, error) {
	if len(extents) == 0 {
		return nil, errors.Errorf("block shape must have at least one dimension")
	}
	if len(extents) > shape.MaxRank {
		return nil, errors.Errorf("block shape has %d dimensions but at most %d are supported", len(extents), shape.MaxRank)
	}
	for dim, ext := range extents {
		if ext < 1 {
			return nil, errors.Errorf("block shape has non-positive extent %d for dimension %d", ext, dim)
		}
	}
	return &BlockDecl{Src: src, Tag: tag, Extents: append([]int{}, extents...)}, nil
}

func (*BlockDecl) node() {}

// Source returns the node in the host AST declaring the block.
func (b *BlockDecl) Source() ast.Node { return b.Src }

// Rank returns the number of dimensions of the grid.
func (b *BlockDecl) Rank() int { return len(b.Extents) }

// Shape returns the shape of the full grid.
func (b *BlockDecl) Shape() shape.Shape { return shape.New(b.Extents...) }

// Size returns the number of processing elements along a dimension.
func (b *BlockDecl) Size(dim int) (int, error) {
	if dim < 0 || dim >= len(b.Extents) {
		return 0, errors.Errorf("dimension %d out of range for block of rank %d", dim, len(b.Extents))
	}
	return b.Extents[dim], nil
}

// IndexShape returns the shape of the index value along a dimension:
// one-dimensional at dim with the block's extent there, trivial
// everywhere else. Index values are the unique shape-seeding primitive.
func (b *BlockDecl) IndexShape(dim int) (shape.Shape, error) {
	ext, err := b.Size(dim)
	if err != nil {
		return shape.Shape{}, err
	}
	return shape.Scalar().WithExtent(dim, ext), nil
}

// String representation of the block declaration.
func (b *BlockDecl) String() string {
	var ss []string
	for _, ext := range b.Extents {
		ss = append(ss, fmt.Sprintf("%d", ext))
	}
	return fmt.Sprintf("block[%s](%s)", b.Tag, strings.Join(ss, ","))
}

// BlockIndexExpr queries the index of a processing element along one
// dimension of a block. Its shape is the block's index shape.
type BlockIndexExpr struct {
	Src   ast.Expr
	Block *BlockDecl
	Dim   int
}

var _ Expr = (*BlockIndexExpr)(nil)

func (*BlockIndexExpr) node() {}
func (*BlockIndexExpr) expr() {}

// Source returns the node in the host AST.
func (e *BlockIndexExpr) Source() ast.Node { return e.Src }

// DType of the index value.
func (e *BlockIndexExpr) DType() dtype.DataType { return DefaultIntDType }

// String representation of the expression.
func (e *BlockIndexExpr) String() string {
	return fmt.Sprintf("index[%s](%d)", e.Block.Tag, e.Dim)
}

// BlockSizeExpr queries the extent of a block along one dimension.
// Block extents are static: the value is a scalar constant.
type BlockSizeExpr struct {
	Src   ast.Expr
	Block *BlockDecl
	Dim   int
}

var _ Expr = (*BlockSizeExpr)(nil)

func (*BlockSizeExpr) node() {}
func (*BlockSizeExpr) expr() {}

// Source returns the node in the host AST.
func (e *BlockSizeExpr) Source() ast.Node { return e.Src }

// DType of the size value.
func (e *BlockSizeExpr) DType() dtype.DataType { return DefaultIntDType }

// String representation of the expression.
func (e *BlockSizeExpr) String() string {
	return fmt.Sprintf("size[%s](%d)", e.Block.Tag, e.Dim)
}
