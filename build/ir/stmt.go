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

	"github.com/pkg/errors"
)

// BlockStmt is a brace-delimited list of statements opening a lexical scope.
type BlockStmt struct {
	Src  ast.Node
	List []Stmt
}

var _ Stmt = (*BlockStmt)(nil)

func (*BlockStmt) node() {}
func (*BlockStmt) stmt() {}

// Source returns the node in the host AST.
func (s *BlockStmt) Source() ast.Node { return s.Src }

// String representation of the block.
func (s *BlockStmt) String() string {
	var ss []string
	for _, stmt := range s.List {
		ss = append(ss, stmt.String())
	}
	return "{\n" + strings.Join(ss, "\n") + "\n}"
}

// AssignStmt assigns a value to a binding. Define is set when the
// statement also declares the binding.
type AssignStmt struct {
	Src    ast.Node
	Store  Storage
	X      Expr
	Define bool
}

var _ Stmt = (*AssignStmt)(nil)

func (*AssignStmt) node() {}
func (*AssignStmt) stmt() {}

// Source returns the node in the host AST.
func (s *AssignStmt) Source() ast.Node { return s.Src }

// String representation of the assignment.
func (s *AssignStmt) String() string {
	op := "="
	if s.Define {
		op = ":="
	}
	return fmt.Sprintf("%s %s %s", s.Store.Name(), op, s.X)
}

// StoreStmt writes a value to memory through an address.
type StoreStmt struct {
	Src  ast.Node
	Addr Expr
	X    Expr
}

var _ Stmt = (*StoreStmt)(nil)

func (*StoreStmt) node() {}
func (*StoreStmt) stmt() {}

// Source returns the node in the host AST.
func (s *StoreStmt) Source() ast.Node { return s.Src }

// String representation of the store.
func (s *StoreStmt) String() string {
	return fmt.Sprintf("store(%s) = %s", s.Addr, s.X)
}

// IfStmt guards statements with a condition. A condition whose shape is
// non-trivial does not branch: it contributes a mask to the loads,
// stores and reductions of its body.
type IfStmt struct {
	Src  ast.Node
	Cond Expr
	Body *BlockStmt
	Else Stmt
}

var _ Stmt = (*IfStmt)(nil)

func (*IfStmt) node() {}
func (*IfStmt) stmt() {}

// Source returns the node in the host AST.
func (s *IfStmt) Source() ast.Node { return s.Src }

// String representation of the conditional.
func (s *IfStmt) String() string {
	str := fmt.Sprintf("if %s %s", s.Cond, s.Body)
	if s.Else != nil {
		str += " else " + s.Else.String()
	}
	return str
}

// ExprStmt evaluates an expression for its effect.
type ExprStmt struct {
	Src ast.Node
	X   Expr
}

var _ Stmt = (*ExprStmt)(nil)

func (*ExprStmt) node() {}
func (*ExprStmt) stmt() {}

// Source returns the node in the host AST.
func (s *ExprStmt) Source() ast.Node { return s.Src }

// String representation of the statement.
func (s *ExprStmt) String() string { return s.X.String() }

// ReturnStmt returns values from the function.
type ReturnStmt struct {
	Src     ast.Node
	Results []Expr
}

var _ Stmt = (*ReturnStmt)(nil)

func (*ReturnStmt) node() {}
func (*ReturnStmt) stmt() {}

// Source returns the node in the host AST.
func (s *ReturnStmt) Source() ast.Node { return s.Src }

// String representation of the statement.
func (s *ReturnStmt) String() string {
	var ss []string
	for _, r := range s.Results {
		ss = append(ss, r.String())
	}
	return "return " + strings.Join(ss, ", ")
}

// ParallelAnnot annotates a loop nest for SPMD lowering. Dims lists the
// block dimensions outside-in: the annotated loop is chunked along
// Dims[0] and each immediately nested loop along the next dimension.
type ParallelAnnot struct {
	Src   ast.Node
	Block *BlockDecl
	Dims  []int

	// Full asserts that every trip count is an exact multiple of its
	// block extent: no epilogue is emitted and no bound is checked.
	Full bool
}

// ForStmt is a sequential counted loop. The front end normalizes loops
// to an induction variable, a lower bound, an exit comparison against
// an upper bound, and a step expression added each iteration.
type ForStmt struct {
	Src       ast.Node
	Induction *LocalVar
	Lower     Expr
	// CondOp compares the induction variable against Upper.
	CondOp token.Token
	Upper  Expr
	Step   Expr
	Body   *BlockStmt

	// Annot requests SPMD lowering of this loop nest. Nil on loops
	// left sequential and on loops produced by the lowering itself.
	Annot *ParallelAnnot
}

var _ Stmt = (*ForStmt)(nil)

func (*ForStmt) node() {}
func (*ForStmt) stmt() {}

// Source returns the node in the host AST.
func (s *ForStmt) Source() ast.Node { return s.Src }

// String representation of the loop.
func (s *ForStmt) String() string {
	annot := ""
	if s.Annot != nil {
		annot = fmt.Sprintf("parallel[%v] ", s.Annot.Dims)
	}
	return fmt.Sprintf("%sfor %s := %s; %s %s %s; %s += %s %s",
		annot, s.Induction.Name(), s.Lower, s.Induction.Name(), s.CondOp, s.Upper, s.Induction.Name(), s.Step, s.Body)
}

// FuncDecl is a function body handed over by the front end, with its
// block declarations already identified.
type FuncDecl struct {
	Src    *ast.FuncDecl
	FName  string
	Params []*LocalVar
	Blocks []*BlockDecl
	Body   *BlockStmt
}

var _ SourceNode = (*FuncDecl)(nil)

func (*FuncDecl) node() {}

// Source returns the node in the host AST.
func (f *FuncDecl) Source() ast.Node { return f.Src }

// Name of the function.
func (f *FuncDecl) Name() string { return f.FName }

// Block returns the block declared for an engine tag.
func (f *FuncDecl) Block(tag EngineTag) (*BlockDecl, bool) {
	for _, b := range f.Blocks {
		if b.Tag == tag {
			return b, true
		}
	}
	return nil, false
}

// CheckBlocks verifies that at most one block is declared per engine
// tag. Redeclaring a block shape for the same tag within a function is
// rejected.
func (f *FuncDecl) CheckBlocks() error {
	seen := map[EngineTag]*BlockDecl{}
	for _, b := range f.Blocks {
		if prev, ok := seen[b.Tag]; ok {
			return errors.Errorf("block shape for engine %s declared twice: %s then %s", b.Tag, prev, b)
		}
		seen[b.Tag] = b
	}
	return nil
}

// String representation of the function.
func (f *FuncDecl) String() string {
	var params []string
	for _, p := range f.Params {
		params = append(params, p.Name())
	}
	return fmt.Sprintf("func %s(%s) %s", f.FName, strings.Join(params, ", "), f.Body)
}
