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

// Package ir is the block-SPMD Intermediate Representation (IR) tree.
//
// The tree is produced by a host language front end from scalar source
// code annotated with block declarations and per-dimension index
// queries. The analysis passes (lowering, shape inference, masking)
// consume and rewrite this tree; they never evaluate it.
//
// The structure and semantic is modeled after the go/ast package:
// nodes carry their source node for diagnostics and implement String.
package ir

import (
	"go/ast"

	"github.com/gx-org/backend/dtype"
)

type (
	// Node in the tree.
	Node interface {
		// node marks a structure as a node structure.
		// It prevents external implementations of the interface.
		node()

		// String representation of the node.
		String() string
	}

	// SourceNode is a node with a position in host source code.
	SourceNode interface {
		Node
		Source() ast.Node
	}

	// Expr is a node computing a value.
	Expr interface {
		SourceNode
		expr()

		// DType returns the element data type of the value.
		DType() dtype.DataType
	}

	// Stmt is a statement node.
	Stmt interface {
		SourceNode
		stmt()
	}

	// Storage is a binding that an assignment can write to.
	Storage interface {
		SourceNode
		storage()

		// Name of the binding.
		Name() string

		// DType returns the declared element data type of the binding.
		DType() dtype.DataType
	}
)

// DefaultIntDType is the element type of index values.
const DefaultIntDType = dtype.Int64
