// Copyright 2024 The mbuild Authors.
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

// Package graph linearizes a build target's dependency graph into a
// predecessors-before-successors order, detecting cycles along the way.
package graph

import (
	"fmt"
	"strings"

	"github.com/tinytarget/mbuild/internal/target"
)

// CycleError reports a dependency cycle discovered during Sort. Chain is
// the cycle itself: the part of the recursion stack from the repeated
// target's first occurrence to the top of the stack, with the repeated
// target appended again last.
type CycleError struct {
	Chain []target.Target
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.Chain))
	for i, t := range e.Chain {
		ids[i] = fmt.Sprintf("%p", t)
	}
	return "cyclic dependency: " + strings.Join(ids, " -> ")
}

// Sort performs a depth-first walk of root's predecessor graph and
// returns it in an order where every target appears after all of its
// predecessors (a valid build order). As each target is first touched,
// its Outdated flag is cleared; this is the one point in the engine
// where a prior build's leftover staleness is wiped before a fresh
// prepare phase runs.
//
// Sort returns a *CycleError if root's graph is not a DAG.
func Sort(root target.Target) ([]target.Target, error) {
	visited := make(map[target.Target]bool)
	onStack := make(map[target.Target]int) // target -> position in stack
	stack := make([]target.Target, 0, 16)
	order := make([]target.Target, 0, 16)

	var visit func(t target.Target) error
	visit = func(t target.Target) error {
		if pos, onS := onStack[t]; onS {
			chain := append([]target.Target{}, stack[pos:]...)
			chain = append(chain, t)
			return &CycleError{Chain: chain}
		}
		if visited[t] {
			return nil
		}

		onStack[t] = len(stack)
		stack = append(stack, t)
		target.ResetOutdated(t)

		for _, pred := range t.Predecessors() {
			if err := visit(pred); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, t)
		visited[t] = true
		order = append(order, t)
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}
