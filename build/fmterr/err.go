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

package fmterr

import (
	stderrors "errors"
	"fmt"
	"go/ast"
	"go/token"

	"github.com/pkg/errors"
)

type (
	// ErrorWithPos is an error attached to a position in source code
	// and tagged with a diagnostic code.
	ErrorWithPos interface {
		error
		Code() Code
		FSet() *token.FileSet
		Src() ast.Node
		Err() error
	}

	errorWithPos struct {
		fset *token.FileSet
		src  ast.Node
		code Code
		err  error
	}
)

var _ ErrorWithPos = (*errorWithPos)(nil)

// Code of the error.
func (e *errorWithPos) Code() Code { return e.code }

// FSet owning the position of the error.
func (e *errorWithPos) FSet() *token.FileSet { return e.fset }

// Src is the node in the tree to which the error is attached.
func (e *errorWithPos) Src() ast.Node { return e.src }

// Err returns the underlying error.
func (e *errorWithPos) Err() error { return e.err }

func (e *errorWithPos) Unwrap() error { return e.err }

func (e *errorWithPos) Error() string {
	var pos token.Pos
	if e.src != nil {
		pos = e.src.Pos()
	}
	return fmt.Sprintf("%s%s: %v", PosString(e.fset, pos), e.code, e.err)
}

// FileSet wraps a token fileset to build errors attached to positions.
type FileSet struct {
	// FSet is the fileset of the function being analyzed. May be nil.
	FSet *token.FileSet
}

// Errorf returns a new error tagged with a code and attached to a node.
func (f FileSet) Errorf(src ast.Node, code Code, format string, a ...any) error {
	return &errorWithPos{
		fset: f.FSet,
		src:  src,
		code: code,
		err:  errors.Errorf(format, a...),
	}
}

// Position attaches an existing error to a node, tagged with a code.
func (f FileSet) Position(src ast.Node, code Code, err error) error {
	if err == nil {
		return nil
	}
	return &errorWithPos{fset: f.FSet, src: src, code: code, err: err}
}

// Internalf returns an internal error attached to a node.
func (f FileSet) Internalf(src ast.Node, format string, a ...any) error {
	return f.Errorf(src, Internal, format, a...)
}

// CodeOf returns the diagnostic code of an error.
// Returns Internal,false if the error carries no code.
func CodeOf(err error) (Code, bool) {
	var ewp ErrorWithPos
	if stderrors.As(err, &ewp) {
		return ewp.Code(), true
	}
	return Internal, false
}
