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
	"go/token"
	"strings"

	"github.com/gx-org/backend/dtype"
)

// NumberLit is a literal constant. Its shape is scalar.
type NumberLit struct {
	Src ast.Expr
	Val int64
	DT  dtype.DataType
}

var _ Expr = (*NumberLit)(nil)

func (*NumberLit) node() {}
func (*NumberLit) expr() {}

// Source returns the node in the host AST.
func (e *NumberLit) Source() ast.Node { return e.Src }

// DType of the literal.
func (e *NumberLit) DType() dtype.DataType { return e.DT }

// String representation of the literal.
func (e *NumberLit) String() string { return fmt.Sprintf("%d", e.Val) }

// LocalVar is a binding declared in the body of a function.
type LocalVar struct {
	Src *ast.Ident
	// VName is the name of the binding.
	VName string
	DT    dtype.DataType

	// AddrTaken is set by the front end when the binding's address
	// escapes into pointer arithmetic.
	AddrTaken bool

	// Aggregate is set when the declared type is a non-trivial
	// aggregate (struct, array of structs).
	Aggregate bool
}

var _ Storage = (*LocalVar)(nil)

func (*LocalVar) node()    {}
func (*LocalVar) storage() {}

// Source returns the node in the host AST.
func (s *LocalVar) Source() ast.Node { return s.Src }

// Name of the binding.
func (s *LocalVar) Name() string { return s.VName }

// DType declared for the binding.
func (s *LocalVar) DType() dtype.DataType { return s.DT }

// String representation of the binding.
func (s *LocalVar) String() string { return s.VName }

// GlobalVar is a binding declared outside any function.
type GlobalVar struct {
	Src   *ast.Ident
	VName string
	DT    dtype.DataType
}

var _ Storage = (*GlobalVar)(nil)

func (*GlobalVar) node()    {}
func (*GlobalVar) storage() {}

// Source returns the node in the host AST.
func (s *GlobalVar) Source() ast.Node { return s.Src }

// Name of the binding.
func (s *GlobalVar) Name() string { return s.VName }

// DType declared for the binding.
func (s *GlobalVar) DType() dtype.DataType { return s.DT }

// String representation of the binding.
func (s *GlobalVar) String() string { return s.VName }

// FieldVar is an object or class member binding.
type FieldVar struct {
	Src   *ast.Ident
	VName string
	DT    dtype.DataType
}

var _ Storage = (*FieldVar)(nil)

func (*FieldVar) node()    {}
func (*FieldVar) storage() {}

// Source returns the node in the host AST.
func (s *FieldVar) Source() ast.Node { return s.Src }

// Name of the binding.
func (s *FieldVar) Name() string { return s.VName }

// DType declared for the binding.
func (s *FieldVar) DType() dtype.DataType { return s.DT }

// String representation of the binding.
func (s *FieldVar) String() string { return "." + s.VName }

// Ref is the use of a binding as a value.
type Ref struct {
	Src   ast.Expr
	Store Storage
}

var _ Expr = (*Ref)(nil)

func (*Ref) node() {}
func (*Ref) expr() {}

// Source returns the node in the host AST.
func (e *Ref) Source() ast.Node { return e.Src }

// DType of the referenced binding.
func (e *Ref) DType() dtype.DataType { return e.Store.DType() }

// String representation of the reference.
func (e *Ref) String() string { return e.Store.Name() }

// UnaryExpr applies a unary operator to a value.
type UnaryExpr struct {
	Src *ast.UnaryExpr
	Op  token.Token
	X   Expr
}

var _ Expr = (*UnaryExpr)(nil)

func (*UnaryExpr) node() {}
func (*UnaryExpr) expr() {}

// Source returns the node in the host AST.
func (e *UnaryExpr) Source() ast.Node {
	if e.Src != nil {
		return e.Src
	}
	return e.X.Source()
}

// DType of the result.
func (e *UnaryExpr) DType() dtype.DataType { return e.X.DType() }

// String representation of the expression.
func (e *UnaryExpr) String() string {
	return fmt.Sprintf("%s%s", e.Op, e.X)
}

// BinaryExpr applies a binary operator, including pointer arithmetic,
// to two values. Its shape is the join of the operand shapes.
type BinaryExpr struct {
	Src  *ast.BinaryExpr
	Op   token.Token
	X, Y Expr
}

var _ Expr = (*BinaryExpr)(nil)

func (*BinaryExpr) node() {}
func (*BinaryExpr) expr() {}

// Source returns the node in the host AST.
func (e *BinaryExpr) Source() ast.Node {
	if e.Src != nil {
		return e.Src
	}
	return e.X.Source()
}

// IsPredicate returns true if the operator produces a boolean.
func (e *BinaryExpr) IsPredicate() bool {
	switch e.Op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ, token.LAND, token.LOR:
		return true
	}
	return false
}

// DType of the result.
func (e *BinaryExpr) DType() dtype.DataType {
	if e.IsPredicate() {
		return dtype.Bool
	}
	return e.X.DType()
}

// String representation of the expression.
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.X, e.Op, e.Y)
}

// LoadExpr reads memory through an address. Dereferencing does not
// change shape: the load's shape is its address's shape.
type LoadExpr struct {
	Src  ast.Expr
	Addr Expr
	// DT is the element type read from memory.
	DT dtype.DataType
}

var _ Expr = (*LoadExpr)(nil)

func (*LoadExpr) node() {}
func (*LoadExpr) expr() {}

// Source returns the node in the host AST.
func (e *LoadExpr) Source() ast.Node {
	if e.Src != nil {
		return e.Src
	}
	return e.Addr.Source()
}

// DType of the loaded element.
func (e *LoadExpr) DType() dtype.DataType { return e.DT }

// String representation of the load.
func (e *LoadExpr) String() string { return fmt.Sprintf("load(%s)", e.Addr) }

// CallExpr calls an external scalar operation by name. When an argument
// has a non-trivial shape, the call is resolved through the vector
// library resolver; the chosen strategy is recorded by the analysis.
type CallExpr struct {
	Src  *ast.CallExpr
	Func string
	Args []Expr
	// DT is the declared scalar return type of the operation.
	DT dtype.DataType
}

var _ Expr = (*CallExpr)(nil)

func (*CallExpr) node() {}
func (*CallExpr) expr() {}

// Source returns the node in the host AST.
func (e *CallExpr) Source() ast.Node { return e.Src }

// DType of the call result.
func (e *CallExpr) DType() dtype.DataType { return e.DT }

// String representation of the call.
func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", e.Func, strings.Join(args, ", "))
}

// CallStrategy is the execution strategy chosen for a vector-shaped
// call, consumed by the downstream code generator.
type CallStrategy int

const (
	// StrategyScalar is a call with all-scalar arguments: no
	// resolution is needed.
	StrategyScalar CallStrategy = iota
	// StrategyElementwise calls an elementwise vector implementation.
	StrategyElementwise
	// StrategyExplicit calls a vector implementation with explicitly
	// declared argument and return shapes.
	StrategyExplicit
	// StrategySequential re-invokes the scalar operation once per lane.
	StrategySequential
)

var strategyNames = map[CallStrategy]string{
	StrategyScalar:      "scalar",
	StrategyElementwise: "elementwise",
	StrategyExplicit:    "explicit",
	StrategySequential:  "sequential",
}

// String representation of the strategy.
func (s CallStrategy) String() string {
	name, ok := strategyNames[s]
	if !ok {
		return "invalid"
	}
	return name
}

// LoopIndexExpr reconstructs the original induction value of a loop
// lowered to SPMD form: lower + chunk*size + local. It is only valid
// inside a loop actually lowered by the SPMD lowering; the lowering
// replaces it with the reconstruction arithmetic.
type LoopIndexExpr struct {
	Src ast.Expr
	// Induction is the induction variable of the annotated loop the
	// accessor resolves against.
	Induction *LocalVar
}

var _ Expr = (*LoopIndexExpr)(nil)

func (*LoopIndexExpr) node() {}
func (*LoopIndexExpr) expr() {}

// Source returns the node in the host AST.
func (e *LoopIndexExpr) Source() ast.Node { return e.Src }

// DType of the index value.
func (e *LoopIndexExpr) DType() dtype.DataType { return DefaultIntDType }

// String representation of the accessor.
func (e *LoopIndexExpr) String() string {
	return fmt.Sprintf("loopindex(%s)", e.Induction.Name())
}
