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

package fmterr_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/vx-org/vx/build/fmterr"
)

func TestCodeOf(t *testing.T) {
	fset := fmterr.FileSet{}
	err := fset.Errorf(nil, fmterr.ShapeInconsistency, "cannot join %s and %s", "(8)", "(3)")
	code, ok := fmterr.CodeOf(err)
	if !ok {
		t.Fatalf("error %v carries no code", err)
	}
	if code != fmterr.ShapeInconsistency {
		t.Errorf("code = %s but want ShapeInconsistency", code)
	}
	if _, ok := fmterr.CodeOf(errors.New("plain")); ok {
		t.Errorf("a plain error reports a code")
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	fset := fmterr.FileSet{}
	err := fset.Errorf(nil, fmterr.UnsupportedLoopForm, "step is not +1")
	wrapped := fmt.Errorf("analyzing f: %w", err)
	code, ok := fmterr.CodeOf(wrapped)
	if !ok || code != fmterr.UnsupportedLoopForm {
		t.Errorf("CodeOf(wrapped) = %s, %v but want UnsupportedLoopForm, true", code, ok)
	}
}

func TestPositionNilError(t *testing.T) {
	fset := fmterr.FileSet{}
	if err := fset.Position(nil, fmterr.Internal, nil); err != nil {
		t.Errorf("Position(nil error) = %v but want nil", err)
	}
}

func TestErrorMessageCarriesCode(t *testing.T) {
	fset := fmterr.FileSet{}
	err := fset.Errorf(nil, fmterr.IndexOutOfRange, "dimension %d out of range", 3)
	msg := err.Error()
	if !strings.Contains(msg, "IndexOutOfRange") {
		t.Errorf("error message %q does not name its code", msg)
	}
	if !strings.Contains(msg, "dimension 3 out of range") {
		t.Errorf("error message %q does not carry its detail", msg)
	}
}

func TestCodeString(t *testing.T) {
	if got := fmterr.MaskShapeIncompatible.String(); got != "MaskShapeIncompatible" {
		t.Errorf("String() = %q", got)
	}
	if got := fmterr.Code(999).String(); got != "Invalid" {
		t.Errorf("String() of an unknown code = %q", got)
	}
}
