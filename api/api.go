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

// Package api runs the block-SPMD analysis pipeline over function
// bodies handed over by a host front end.
//
// For one function, the pipeline lowers annotated loops to SPMD form,
// infers a shape for every expression, and derives a mask for every
// load, store and reduction. The result is an operation graph where
// every such operation carries a finalized shape and mask, and every
// vector-shaped call a resolved execution strategy; everything
// downstream (instruction selection, registers, ABI) belongs to the
// code generator.
package api

import (
	"go/token"

	"go.uber.org/multierr"
	"k8s.io/klog/v2"

	"github.com/gx-org/backend/dtype"
	bshape "github.com/gx-org/backend/shape"
	"github.com/vx-org/vx/build/ir"
	"github.com/vx-org/vx/build/lower"
	"github.com/vx-org/vx/build/masking"
	"github.com/vx-org/vx/build/shape"
	"github.com/vx-org/vx/build/shaping"
	"github.com/vx-org/vx/build/veclib"
)

// Result is the analyzed form of one function.
type Result struct {
	// Fn is the function after SPMD lowering. Its loops are chunk
	// loops; annotated loops of the input function do not survive.
	Fn *ir.FuncDecl

	ann   *shaping.Annotations
	masks *masking.Masks
}

// ShapeOf returns the shape inferred for an expression of the lowered
// function.
func (r *Result) ShapeOf(expr ir.Expr) (shape.Shape, bool) {
	return r.ann.ShapeOf(expr)
}

// MaskOf returns the mask derived for a load, store or reduction of
// the lowered function. Operations with no derived mask carry the
// trivial all-true mask.
func (r *Result) MaskOf(node ir.Node) (ir.Mask, bool) {
	return r.masks.Of(node)
}

// StrategyOf returns the execution strategy resolved for a call.
func (r *Result) StrategyOf(call *ir.CallExpr) ir.CallStrategy {
	return r.ann.StrategyOf(call)
}

// Concrete exports the shape of an expression as a backend shape for
// the code generator.
func (r *Result) Concrete(expr ir.Expr) (*bshape.Shape, bool) {
	sh, ok := r.ann.ShapeOf(expr)
	if !ok {
		return nil, false
	}
	dt := expr.DType()
	if dt == dtype.Invalid {
		dt = ir.DefaultIntDType
	}
	return &bshape.Shape{DType: dt, AxisLengths: sh.Extents()}, true
}

// AnalyzeFunc runs the analysis pipeline over one function.
//
// Analysis is self-contained per function: it reads no mutable global
// state, and the first error aborts it.
func AnalyzeFunc(fset *token.FileSet, fn *ir.FuncDecl, resolver veclib.Resolver) (*Result, error) {
	lowered, err := lower.Lower(fset, fn)
	if err != nil {
		return nil, err
	}
	ann, err := shaping.Infer(fset, lowered, resolver)
	if err != nil {
		return nil, err
	}
	masks, err := masking.Derive(fset, lowered, ann)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("api: analyzed %s: %d masked operations", fn.Name(), masks.Size())
	return &Result{Fn: lowered, ann: ann, masks: masks}, nil
}

// AnalyzeAll analyzes the functions of a compilation unit. Functions
// fail independently: an error in one does not stop the others, and
// all errors are reported together.
func AnalyzeAll(fset *token.FileSet, fns []*ir.FuncDecl, resolver veclib.Resolver) ([]*Result, error) {
	var errs error
	var results []*Result
	for _, fn := range fns {
		result, err := AnalyzeFunc(fset, fn, resolver)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		results = append(results, result)
	}
	return results, errs
}
