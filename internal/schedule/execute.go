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

package schedule

import "github.com/tinytarget/mbuild/internal/target"

// Result is the outcome of one Execute call: how many of the outdated
// targets it was given actually finished before the run stopped.
type Result struct {
	Total     int
	Completed int
}

// Observer is notified as the execute phase schedules and finishes
// targets. It exists purely for status/progress reporting; nothing it
// does may influence scheduling or the returned Result. Both methods are
// called from the single scheduler thread, so an Observer never needs
// its own locking.
type Observer interface {
	Scheduled(t target.Target)
	Finished(t target.Target, ok bool)
}

type nopObserver struct{}

func (nopObserver) Scheduled(target.Target)      {}
func (nopObserver) Finished(target.Target, bool) {}

// Execute runs outdated's targets on a pool of up to maxThreads workers,
// never starting a target before all of its direct predecessors have
// completed successfully. The moment a target's Execute reports failure,
// no further targets are scheduled; targets already running are allowed
// to finish, and their outcomes are folded into the returned Result, but
// none of them unblock anything else.
//
// Execute calls Executed on every target it runs, successes first (as
// they complete, interleaved with still-running work) and any failures
// last, once the whole run has quiesced.
func Execute(outdated []target.Target, maxThreads int, obs Observer) Result {
	total := len(outdated)
	if total == 0 {
		return Result{}
	}
	if obs == nil {
		obs = nopObserver{}
	}
	workers := maxThreads
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	// inputs holds every target at most once, so offering never blocks
	// while the workers are waiting to hand back a completion.
	inputs := make(chan target.Target, total)
	outputs := make(chan target.Target)

	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for t := range inputs {
				ok := t.Execute()
				if ok {
					target.ResetOutdated(t)
				} else {
					t.SetOutdated()
				}
				outputs <- t
			}
			done <- struct{}{}
		}()
	}

	notOffered := append([]target.Target(nil), outdated...)
	inFlight := 0
	running := make(map[target.Target]bool)
	completed := 0
	aborted := false
	var failures []target.Target

	offerReady := func() {
		if aborted {
			return
		}
		var keep []target.Target
		for _, t := range notOffered {
			ready := true
			for _, p := range t.Predecessors() {
				if p.Outdated() || running[p] {
					ready = false
					break
				}
			}
			if !ready {
				keep = append(keep, t)
				continue
			}
			obs.Scheduled(t)
			running[t] = true
			inFlight++
			inputs <- t
		}
		notOffered = keep
	}

	for inFlight > 0 || (!aborted && len(notOffered) > 0) {
		offerReady()
		if inFlight == 0 {
			break
		}
		t := <-outputs
		delete(running, t)
		inFlight--
		if t.Outdated() {
			aborted = true
			failures = append(failures, t)
			continue
		}
		completed++
		t.Executed()
		obs.Finished(t, true)
	}

	close(inputs)
	for i := 0; i < workers; i++ {
		<-done
	}

	for _, t := range failures {
		t.Executed()
		obs.Finished(t, false)
	}

	return Result{Total: total, Completed: completed}
}
