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

// Package schedule implements the two build phases that run over a
// topologically sorted target list: a parallel prepare pass that decides
// staleness, and a bounded worker pool that executes the outdated
// subset in dependency order.
package schedule

import (
	"sync"

	"github.com/tinytarget/mbuild/internal/target"
)

// Prepare fans order out across up to maxThreads workers, each calling
// Prepare on one target at a time and marking it outdated when that
// returns true. It joins before doing anything else so that every
// target's own staleness decision happens-before the transitive-
// promotion sweep below.
//
// After the join, Prepare walks order once more, in topological order,
// promoting a target to outdated if any direct predecessor already is.
// Because the walk is single-threaded and topological, one pass is
// enough: a predecessor's promotion is visible before its successors are
// examined.
//
// Prepare returns the outdated subset of order, still in topological
// order, or nil if nothing needs to run.
func Prepare(order []target.Target, maxThreads int) []target.Target {
	if len(order) == 0 {
		return nil
	}
	workers := maxThreads
	if workers < 1 {
		workers = 1
	}
	if workers > len(order) {
		workers = len(order)
	}

	work := make(chan target.Target)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for t := range work {
				if t.Prepare() {
					t.SetOutdated()
				}
			}
		}()
	}
	for _, t := range order {
		work <- t
	}
	close(work)
	wg.Wait()

	for _, t := range order {
		if t.Outdated() {
			continue
		}
		for _, p := range t.Predecessors() {
			if p.Outdated() {
				t.SetOutdated()
				break
			}
		}
	}

	var outdated []target.Target
	for _, t := range order {
		if t.Outdated() {
			outdated = append(outdated, t)
		}
	}
	return outdated
}
