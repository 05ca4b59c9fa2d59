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

// Package irhelper provides helpers to build IR trees concisely,
// mostly for tests.
package irhelper

import (
	"go/ast"
	"go/token"

	"github.com/gx-org/backend/dtype"
	"github.com/vx-org/vx/build/ir"
)

// Ident returns an AST identifier with the given name.
func Ident(name string) *ast.Ident {
	return &ast.Ident{Name: name}
}

// Block returns a block declaration, panicking on invalid extents.
func Block(tag ir.EngineTag, extents ...int) *ir.BlockDecl {
	b, err := ir.NewBlockDecl(nil, tag, extents)
	if err != nil {
		panic(err)
	}
	return b
}

// IntLit returns an integer literal.
func IntLit(val int64) *ir.NumberLit {
	return &ir.NumberLit{Val: val, DT: ir.DefaultIntDType}
}

// FloatLit returns a float literal.
func FloatLit(val int64) *ir.NumberLit {
	return &ir.NumberLit{Val: val, DT: dtype.Float32}
}

// Local returns a local scalar binding.
func Local(name string, dt dtype.DataType) *ir.LocalVar {
	return &ir.LocalVar{Src: Ident(name), VName: name, DT: dt}
}

// Global returns a global binding.
func Global(name string, dt dtype.DataType) *ir.GlobalVar {
	return &ir.GlobalVar{Src: Ident(name), VName: name, DT: dt}
}

// Field returns an object member binding.
func Field(name string, dt dtype.DataType) *ir.FieldVar {
	return &ir.FieldVar{Src: Ident(name), VName: name, DT: dt}
}

// Ref returns the use of a binding as a value.
func Ref(store ir.Storage) *ir.Ref {
	return &ir.Ref{Store: store}
}

// Index returns the index query of a block dimension.
func Index(block *ir.BlockDecl, dim int) *ir.BlockIndexExpr {
	return &ir.BlockIndexExpr{Block: block, Dim: dim}
}

// Size returns the size query of a block dimension.
func Size(block *ir.BlockDecl, dim int) *ir.BlockSizeExpr {
	return &ir.BlockSizeExpr{Block: block, Dim: dim}
}

// Binary returns a binary expression.
func Binary(op token.Token, x, y ir.Expr) *ir.BinaryExpr {
	return &ir.BinaryExpr{Op: op, X: x, Y: y}
}

// Add returns the sum of two expressions.
func Add(x, y ir.Expr) *ir.BinaryExpr {
	return Binary(token.ADD, x, y)
}

// Less returns the comparison x < y.
func Less(x, y ir.Expr) *ir.BinaryExpr {
	return Binary(token.LSS, x, y)
}

// Load returns a memory read through an address.
func Load(addr ir.Expr, dt dtype.DataType) *ir.LoadExpr {
	return &ir.LoadExpr{Addr: addr, DT: dt}
}

// Call returns a call to an external operation.
func Call(name string, dt dtype.DataType, args ...ir.Expr) *ir.CallExpr {
	return &ir.CallExpr{Func: name, Args: args, DT: dt}
}

// Body returns a block statement from a list of statements.
func Body(stmts ...ir.Stmt) *ir.BlockStmt {
	return &ir.BlockStmt{List: stmts}
}

// Define returns a declaring assignment to a binding.
func Define(store ir.Storage, x ir.Expr) *ir.AssignStmt {
	return &ir.AssignStmt{Store: store, X: x, Define: true}
}

// Assign returns a non-declaring assignment to a binding.
func Assign(store ir.Storage, x ir.Expr) *ir.AssignStmt {
	return &ir.AssignStmt{Store: store, X: x}
}

// Store returns a memory write through an address.
func Store(addr, x ir.Expr) *ir.StoreStmt {
	return &ir.StoreStmt{Addr: addr, X: x}
}

// If returns a conditional with no else branch.
func If(cond ir.Expr, stmts ...ir.Stmt) *ir.IfStmt {
	return &ir.IfStmt{Cond: cond, Body: Body(stmts...)}
}

// For returns a counted loop with step 1 and a < exit test.
func For(induction *ir.LocalVar, lower, upper ir.Expr, stmts ...ir.Stmt) *ir.ForStmt {
	return &ir.ForStmt{
		Induction: induction,
		Lower:     lower,
		CondOp:    token.LSS,
		Upper:     upper,
		Step:      IntLit(1),
		Body:      Body(stmts...),
	}
}

// Func returns a function declaration.
func Func(name string, body *ir.BlockStmt, blocks ...*ir.BlockDecl) *ir.FuncDecl {
	return &ir.FuncDecl{
		Src:    &ast.FuncDecl{Name: Ident(name)},
		FName:  name,
		Blocks: blocks,
		Body:   body,
	}
}
