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

package veclib_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vx-org/vx/build/shape"
	"github.com/vx-org/vx/build/veclib"
)

func TestUnknownOperationSequentializes(t *testing.T) {
	reg := veclib.NewRegistry()
	res, err := reg.Resolve("exp", []shape.Shape{shape.New(8)})
	if err != nil {
		t.Fatalf("Resolve(exp): %v", err)
	}
	if _, ok := res.(veclib.Sequentialize); !ok {
		t.Errorf("Resolve(exp) = %s but want sequentialize for an unregistered operation", res)
	}
}

func TestRegisterAndResolve(t *testing.T) {
	reg := veclib.NewRegistry()
	want := veclib.Elementwise{Pure: true, SupportsMask: true}
	if err := reg.Register("exp", want); err != nil {
		t.Fatalf("Register(exp): %v", err)
	}
	res, err := reg.Resolve("exp", []shape.Shape{shape.New(8)})
	if err != nil {
		t.Fatalf("Resolve(exp): %v", err)
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("Resolve(exp) mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := veclib.NewRegistry()
	if err := reg.Register("exp", veclib.Sequentialize{}); err != nil {
		t.Fatalf("Register(exp): %v", err)
	}
	if err := reg.Register("exp", veclib.Elementwise{}); err == nil {
		t.Errorf("registering exp a second time did not fail")
	}
}

func TestExplicitSignatureArity(t *testing.T) {
	reg := veclib.NewRegistry()
	sig := veclib.ExplicitSignature{
		Args:   []shape.Shape{shape.New(8), shape.Scalar()},
		Result: shape.New(8),
	}
	if err := reg.Register("axpy", sig); err != nil {
		t.Fatalf("Register(axpy): %v", err)
	}
	if _, err := reg.Resolve("axpy", []shape.Shape{shape.New(8)}); err == nil {
		t.Errorf("resolving axpy with 1 argument against a 2-argument signature did not fail")
	}
	res, err := reg.Resolve("axpy", []shape.Shape{shape.New(8), shape.Scalar()})
	if err != nil {
		t.Fatalf("Resolve(axpy): %v", err)
	}
	if diff := cmp.Diff(sig, res); diff != "" {
		t.Errorf("Resolve(axpy) mismatch (-want +got):\n%s", diff)
	}
}

func TestNamesKeepRegistrationOrder(t *testing.T) {
	reg := veclib.NewRegistry()
	for _, name := range []string{"exp", "log", "axpy"} {
		if err := reg.Register(name, veclib.Sequentialize{}); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}
	if diff := cmp.Diff([]string{"exp", "log", "axpy"}, reg.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}
