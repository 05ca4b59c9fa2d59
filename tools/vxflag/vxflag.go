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

// Package vxflag provides the flag types of the analysis pipeline's
// configuration surface: the switch enabling the analysis on a
// compilation unit and the search paths for vector library resolution.
// The host pipeline consumes both; the analysis core does not read
// flags.
package vxflag

import (
	"flag"
	"strings"
)

type pathList struct {
	list *[]string
}

func (pl *pathList) String() string {
	if pl.list == nil {
		return ""
	}
	return strings.Join(*pl.list, ",")
}

func (pl *pathList) Set(values string) error {
	for _, value := range strings.Split(values, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		*pl.list = append(*pl.list, value)
	}
	return nil
}

// PathList returns a flag to pass a comma-separated list of vector
// library search paths from the command line.
func PathList(name, doc string) *[]string {
	var list []string
	pList := pathList{&list}
	flag.Var(&pList, name, doc)
	return pList.list
}

// Enable returns the boolean flag switching the SPMD analysis pipeline
// on for a compilation unit.
func Enable(name, doc string) *bool {
	return flag.Bool(name, false, doc)
}
