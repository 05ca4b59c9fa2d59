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

package shaping

import (
	"k8s.io/klog/v2"

	"github.com/vx-org/vx/build/fmterr"
	"github.com/vx-org/vx/build/ir"
	"github.com/vx-org/vx/build/shape"
)

// checkExpansion validates the automatic promotion of a scalar-declared
// binding to the shape of the value assigned to it.
//
// Expansion is a convenience for dataflow-only temporaries: it is
// restricted to locally declared bindings whose address never escapes.
// Globals, object members, and aggregates are rejected. The resolver is
// deliberately not aliasing-aware: a store through the address of an
// expanded binding falls under the general narrowing-store rule of the
// inference engine, not under a rule here.
func (eng *engine) checkExpansion(stmt *ir.AssignStmt, store ir.Storage, sh shape.Shape) error {
	switch storeT := store.(type) {
	case *ir.LocalVar:
		if storeT.Aggregate {
			return eng.fset.Errorf(stmt.Source(), fmterr.IllegalScalarExpansion,
				"cannot expand aggregate binding %s to shape %s", store.Name(), sh)
		}
		if storeT.AddrTaken {
			return eng.fset.Errorf(stmt.Source(), fmterr.IllegalScalarExpansion,
				"cannot expand binding %s to shape %s: its address is taken", store.Name(), sh)
		}
		klog.V(2).Infof("shaping: %s expands to shape %s", store.Name(), sh)
		return nil
	case *ir.GlobalVar:
		return eng.fset.Errorf(stmt.Source(), fmterr.IllegalScalarExpansion,
			"cannot expand global binding %s to shape %s", store.Name(), sh)
	case *ir.FieldVar:
		return eng.fset.Errorf(stmt.Source(), fmterr.IllegalScalarExpansion,
			"cannot expand member binding %s to shape %s", store.Name(), sh)
	default:
		return eng.fset.Internalf(stmt.Source(), "storage %T not supported by scalar expansion", store)
	}
}
