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

// Package target defines the build target lifecycle that the scheduler
// drives. Concrete targets (compiling a source file, linking an image,
// running a flash tool) live outside this module; they only need to
// satisfy Target.
package target

import "sync/atomic"

// Target is one node in the build graph. Implementations are supplied by
// the caller; the engine never constructs one directly.
//
// Prepare, Execute and Executed run on scheduler-owned goroutines and must
// not block on anything other than the work they represent. Predecessors
// must return the same slice contents for the lifetime of a single
// Execute call; the engine reads it from multiple goroutines during the
// prepare phase.
type Target interface {
	// Prepare inspects the target's own inputs (source mtime, recorded
	// header mtimes, whatever else the concrete target cares about) and
	// reports whether the target itself is stale, independent of its
	// predecessors. It must not block on other targets.
	Prepare() bool

	// Execute performs the actual build step and reports success. It is
	// only called for targets the prepare phase (plus transitive
	// promotion) determined to be outdated.
	Execute() bool

	// Executed is invoked exactly once for each call of Execute, after
	// Execute returns, on the single scheduler thread. A target that is
	// never executed (for example because a predecessor failed) gets no
	// Executed call. Implementations may print or otherwise touch shared state
	// without locking.
	Executed()

	// Predecessors returns the targets this one depends on directly.
	// A nil or empty return means the target is a leaf.
	Predecessors() []Target

	// Outdated reports the target's current staleness flag.
	Outdated() bool

	// SetOutdated is a one-way switch: once a caller sets it, nothing
	// but the engine itself may clear it again. Concrete targets use it
	// during Prepare to mark a dependent as stale ahead of the
	// transitive-promotion sweep.
	SetOutdated()
}

// resettable is implemented by Base and deliberately unexported: only the
// engine packages in this module (graph, schedule) are meant to clear a
// target's Outdated flag, via the ResetOutdated helper below. A target
// that does not embed Base is simply never reset: it keeps reporting
// whatever its own Outdated returns, including a flag left set by an
// earlier build.
type resettable interface {
	resetOutdated()
}

// ResetOutdated clears t's Outdated flag if t supports it. It is called by
// the graph sorter (once, at the start of the topological walk) and by
// the execute phase (on a target's successful completion); concrete
// targets should not call it themselves.
func ResetOutdated(t Target) {
	if r, ok := t.(resettable); ok {
		r.resetOutdated()
	}
}

// Base supplies the bookkeeping every concrete target needs and the
// lifecycle defaults spec.md describes: Prepare reports clean unless
// overridden, Execute reports success unless overridden, Executed is a
// no-op. Concrete targets embed Base and override whichever hooks their
// build step actually needs.
type Base struct {
	preds    []Target
	outdated atomic.Bool
}

// NewBase returns a Base with the given direct predecessors. preds may be
// nil for a leaf target.
func NewBase(preds ...Target) Base {
	return Base{preds: preds}
}

func (b *Base) Predecessors() []Target { return b.preds }

func (b *Base) Outdated() bool { return b.outdated.Load() }

func (b *Base) SetOutdated() { b.outdated.Store(true) }

func (b *Base) resetOutdated() { b.outdated.Store(false) }

// Prepare is the default: the target itself reports nothing new, relying
// entirely on transitive promotion from an outdated predecessor.
func (b *Base) Prepare() bool { return false }

// Execute is the default: a target with nothing to build trivially
// succeeds.
func (b *Base) Execute() bool { return true }

// Executed is the default no-op.
func (b *Base) Executed() {}
