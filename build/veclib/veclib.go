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

// Package veclib is the boundary to the external vector library
// resolution mechanism.
//
// When a call to an external scalar operation receives an argument of
// non-trivial shape, the analysis queries a Resolver for the vector
// rendition of the operation. How resolutions are found (bitcode
// libraries, naming conventions) is the collaborator's concern; this
// package only defines the query and its possible answers.
package veclib

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/vx-org/vx/base/ordered"
	"github.com/vx-org/vx/build/shape"
)

type (
	// Resolution is the answer to a resolver query.
	Resolution interface {
		resolution()

		// String representation of the resolution.
		String() string
	}

	// Elementwise resolves the call to a vector implementation applied
	// lane by lane. The call's shape is the join of its argument shapes.
	Elementwise struct {
		// Pure is true if the implementation has no side effect.
		Pure bool
		// SupportsMask is true if the implementation accepts a
		// lane predicate.
		SupportsMask bool
	}

	// ExplicitSignature resolves the call to a vector implementation
	// with declared per-argument shapes and return shape.
	ExplicitSignature struct {
		Args   []shape.Shape
		Result shape.Shape
	}

	// Sequentialize resolves the call to per-lane re-invocation of the
	// scalar operation. The call's shape is the join of its argument
	// shapes; the execution strategy is carried on the call node for
	// the code generator.
	Sequentialize struct{}
)

func (Elementwise) resolution()       {}
func (ExplicitSignature) resolution() {}
func (Sequentialize) resolution()     {}

// String representation of the resolution.
func (r Elementwise) String() string {
	return fmt.Sprintf("elementwise(pure=%v,masked=%v)", r.Pure, r.SupportsMask)
}

// String representation of the resolution.
func (r ExplicitSignature) String() string {
	var args []string
	for _, arg := range r.Args {
		args = append(args, arg.String())
	}
	return fmt.Sprintf("explicit(%s)->%s", strings.Join(args, ","), r.Result)
}

// String representation of the resolution.
func (Sequentialize) String() string { return "sequentialize" }

// Resolver answers vector resolution queries for named operations.
type Resolver interface {
	// Resolve returns the resolution of an operation called with
	// arguments of the given shapes.
	Resolve(name string, args []shape.Shape) (Resolution, error)
}

// Registry is a resolver backed by explicit registrations. Operations
// not registered resolve to Sequentialize, the tolerant default.
type Registry struct {
	ops *ordered.Map[string, Resolution]
}

var _ Resolver = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: ordered.NewMap[string, Resolution]()}
}

// Register the resolution of an operation name.
// Registering a name twice is an error.
func (reg *Registry) Register(name string, res Resolution) error {
	if reg.ops.Has(name) {
		return errors.Errorf("operation %s already registered", name)
	}
	reg.ops.Store(name, res)
	return nil
}

// Resolve returns the registered resolution of an operation, or
// Sequentialize when the operation is unknown.
func (reg *Registry) Resolve(name string, args []shape.Shape) (Resolution, error) {
	res, ok := reg.ops.Load(name)
	if !ok {
		return Sequentialize{}, nil
	}
	if sig, isSig := res.(ExplicitSignature); isSig && len(sig.Args) != len(args) {
		return nil, errors.Errorf("operation %s declares %d arguments but is called with %d", name, len(sig.Args), len(args))
	}
	return res, nil
}

// Names returns the registered operation names in registration order.
func (reg *Registry) Names() []string {
	var names []string
	for name := range reg.ops.Keys() {
		names = append(names, name)
	}
	return names
}
