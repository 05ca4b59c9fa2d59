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

// Code identifies a class of static analysis error.
// Every code is fatal to the analysis of the enclosing function.
type Code int

const (
	// Internal is an error in the analysis itself, not in the analyzed code.
	Internal Code = iota
	// ShapeInconsistency is a failed shape join or an illegal narrowing store.
	ShapeInconsistency
	// ArityMismatch is a slice index count not matching the operand
	// dimensionality, or a resolved vector signature not matching its
	// call's argument count.
	ArityMismatch
	// IndexOutOfRange is a static index exceeding a declared extent or
	// a dimension exceeding a declared block dimensionality.
	IndexOutOfRange
	// AlreadyNonTrivial is a broadcast requested on a non-trivial dimension.
	AlreadyNonTrivial
	// NonStaticShuffleIndex is a shuffle index function not resolvable at analysis time.
	NonStaticShuffleIndex
	// ShuffleIndexOutOfRange is a shuffle index function resolving out of bounds.
	ShuffleIndexOutOfRange
	// MaskShapeIncompatible is a conditional shape unrelated to its guarded
	// statement shape under the broadcast/OR-reduce partial order.
	MaskShapeIncompatible
	// UnsupportedLoopForm is an annotated loop violating the affine bound
	// and step constraints.
	UnsupportedLoopForm
	// IndexOutsideParallelLoop is a chunk index accessor with no enclosing
	// lowered loop to resolve it against.
	IndexOutsideParallelLoop
	// IllegalScalarExpansion is a scalar expansion requested on a global,
	// member, or aggregate binding.
	IllegalScalarExpansion
)

var codeNames = map[Code]string{
	Internal:                 "Internal",
	ShapeInconsistency:       "ShapeInconsistency",
	ArityMismatch:            "ArityMismatch",
	IndexOutOfRange:          "IndexOutOfRange",
	AlreadyNonTrivial:        "AlreadyNonTrivial",
	NonStaticShuffleIndex:    "NonStaticShuffleIndex",
	ShuffleIndexOutOfRange:   "ShuffleIndexOutOfRange",
	MaskShapeIncompatible:    "MaskShapeIncompatible",
	UnsupportedLoopForm:      "UnsupportedLoopForm",
	IndexOutsideParallelLoop: "IndexOutsideParallelLoop",
	IllegalScalarExpansion:   "IllegalScalarExpansion",
}

// String representation of the code.
func (c Code) String() string {
	name, ok := codeNames[c]
	if !ok {
		return "Invalid"
	}
	return name
}
