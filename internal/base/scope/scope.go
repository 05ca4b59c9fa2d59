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

// Package scope provides lexical scopes mapping names to values.
package scope

import (
	"fmt"
	"iter"
	"strings"

	"github.com/pkg/errors"
	"github.com/vx-org/vx/base/ordered"
)

// Scope is a read interface over a stack of namespaces.
type Scope[V any] interface {
	// Find returns the value associated with a name, searching the
	// innermost namespace first, then its parents.
	Find(string) (V, bool)

	// Items returns all visible name,value pairs, parents first.
	Items() *ordered.Map[string, V]
}

// RWScope stores name,value pairs defined within one lexical scope,
// delegating to a parent scope for names not defined locally.
type RWScope[V any] struct {
	parent Scope[V]
	local  *ordered.Map[string, V]
}

var _ Scope[any] = (*RWScope[any])(nil)

// New returns a new scope given a parent, which can be nil.
func New[V any](parent Scope[V]) *RWScope[V] {
	return &RWScope[V]{parent: parent, local: ordered.NewMap[string, V]()}
}

// Define maps a name to a value in this scope, shadowing any
// definition of the same name in a parent.
func (s *RWScope[V]) Define(name string, v V) {
	s.local.Store(name, v)
}

// Assign rebinds an existing name to a new value. The assignment starts
// at the innermost namespace and cascades upwards through parents.
func (s *RWScope[V]) Assign(name string, v V) error {
	if s.local.Has(name) {
		s.local.Store(name, v)
		return nil
	}
	if s.parent == nil {
		return errors.Errorf("cannot assign %s: not defined in scope", name)
	}
	parent, ok := s.parent.(*RWScope[V])
	if !ok {
		return errors.Errorf("cannot assign %s: scope parent of type %T does not support assignment", name, s.parent)
	}
	return parent.Assign(name, v)
}

// Find returns the value associated with a name, if any.
func (s *RWScope[V]) Find(name string) (v V, ok bool) {
	if v, ok = s.local.Load(name); ok {
		return
	}
	if s.parent == nil {
		return
	}
	return s.parent.Find(name)
}

// IsLocal returns true if the name is defined in this scope,
// not counting parents.
func (s *RWScope[V]) IsLocal(name string) bool {
	return s.local.Has(name)
}

// LocalKeys returns the names defined in this scope, not counting parents.
func (s *RWScope[V]) LocalKeys() iter.Seq[string] {
	return s.local.Keys()
}

// Items returns all visible name,value pairs. Shadowed values are lost.
func (s *RWScope[V]) Items() *ordered.Map[string, V] {
	all := ordered.NewMap[string, V]()
	if s.parent != nil {
		for k, v := range s.parent.Items().Iter() {
			all.Store(k, v)
		}
	}
	for k, v := range s.local.Iter() {
		all.Store(k, v)
	}
	return all
}

// String representation of the scope.
func (s *RWScope[V]) String() string {
	var kvs []string
	for k, v := range s.local.Iter() {
		kvs = append(kvs, fmt.Sprintf("%s: %T:%v", k, v, v))
	}
	local := strings.Join(kvs, "\n")
	if s.parent == nil {
		return local
	}
	return fmt.Sprintf("%v\n--\n%s", s.parent, local)
}
