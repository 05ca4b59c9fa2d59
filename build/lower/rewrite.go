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

package lower

import (
	"go/ast"
	"go/token"

	"github.com/vx-org/vx/build/ir"
)

// subst maps induction variables of lowered loops to the expressions
// reconstructing their value: chunk base plus chunk-local index.
// Both direct references and parallel loop index accessors are
// substituted; an accessor left unsubstituted has no enclosing lowered
// loop and is rejected by shape inference.
type subst map[*ir.LocalVar]ir.Expr

// with returns a copy of the substitution with one more mapping.
func (sub subst) with(induction *ir.LocalVar, repl ir.Expr) subst {
	next := make(subst, len(sub)+1)
	for k, v := range sub {
		next[k] = v
	}
	next[induction] = repl
	return next
}

// expr rewrites an expression, sharing subtrees the substitution does
// not reach.
func (sub subst) expr(expr ir.Expr) ir.Expr {
	if len(sub) == 0 {
		return expr
	}
	switch exprT := expr.(type) {
	case *ir.NumberLit, *ir.BlockIndexExpr, *ir.BlockSizeExpr:
		return expr
	case *ir.Ref:
		local, isLocal := exprT.Store.(*ir.LocalVar)
		if !isLocal {
			return expr
		}
		if repl, ok := sub[local]; ok {
			return repl
		}
		return expr
	case *ir.LoopIndexExpr:
		if repl, ok := sub[exprT.Induction]; ok {
			return repl
		}
		return expr
	case *ir.UnaryExpr:
		return &ir.UnaryExpr{Src: exprT.Src, Op: exprT.Op, X: sub.expr(exprT.X)}
	case *ir.BinaryExpr:
		return &ir.BinaryExpr{Src: exprT.Src, Op: exprT.Op, X: sub.expr(exprT.X), Y: sub.expr(exprT.Y)}
	case *ir.LoadExpr:
		return &ir.LoadExpr{Src: exprT.Src, Addr: sub.expr(exprT.Addr), DT: exprT.DT}
	case *ir.CallExpr:
		args := make([]ir.Expr, len(exprT.Args))
		for i, arg := range exprT.Args {
			args[i] = sub.expr(arg)
		}
		return &ir.CallExpr{Src: exprT.Src, Func: exprT.Func, Args: args, DT: exprT.DT}
	case *ir.ReduceExpr:
		return &ir.ReduceExpr{Src: exprT.Src, Op: exprT.Op, Dims: exprT.Dims, X: sub.expr(exprT.X)}
	case *ir.SliceExpr:
		return &ir.SliceExpr{Src: exprT.Src, Indices: exprT.Indices, X: sub.expr(exprT.X)}
	case *ir.BroadcastExpr:
		return &ir.BroadcastExpr{Src: exprT.Src, Dims: exprT.Dims, Block: exprT.Block, X: sub.expr(exprT.X)}
	case *ir.ShuffleExpr:
		return &ir.ShuffleExpr{Src: exprT.Src, X: sub.expr(exprT.X), Index: exprT.Index}
	case *ir.ShufflePairExpr:
		return &ir.ShufflePairExpr{Src: exprT.Src, X: sub.expr(exprT.X), Y: sub.expr(exprT.Y), Index: exprT.Index}
	default:
		return expr
	}
}

// stmt rewrites the expressions of a statement that contains no loop
// to lower.
func (sub subst) stmt(stmt ir.Stmt) ir.Stmt {
	if len(sub) == 0 {
		return stmt
	}
	switch stmtT := stmt.(type) {
	case *ir.AssignStmt:
		return &ir.AssignStmt{Src: stmtT.Src, Store: stmtT.Store, X: sub.expr(stmtT.X), Define: stmtT.Define}
	case *ir.StoreStmt:
		return &ir.StoreStmt{Src: stmtT.Src, Addr: sub.expr(stmtT.Addr), X: sub.expr(stmtT.X)}
	case *ir.ExprStmt:
		return &ir.ExprStmt{Src: stmtT.Src, X: sub.expr(stmtT.X)}
	case *ir.ReturnStmt:
		results := make([]ir.Expr, len(stmtT.Results))
		for i, result := range stmtT.Results {
			results[i] = sub.expr(result)
		}
		return &ir.ReturnStmt{Src: stmtT.Src, Results: results}
	default:
		return stmt
	}
}

func intLit(val int64) *ir.NumberLit {
	return &ir.NumberLit{Val: val, DT: ir.DefaultIntDType}
}

func ref(store ir.Storage) *ir.Ref {
	return &ir.Ref{Store: store}
}

func add(x, y ir.Expr) *ir.BinaryExpr {
	return &ir.BinaryExpr{Op: token.ADD, X: x, Y: y}
}

func exprSrc(src *ast.Ident) ast.Expr {
	if src == nil {
		return nil
	}
	return src
}
