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

package status

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleStatusNonTerminalOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	cs := NewConsoleStatus(&buf) // a *bytes.Buffer is never "smart"
	cs.Started(2, "run-1")
	cs.TargetStarted("a")
	cs.TargetFinished("a", true)
	cs.TargetFinished("b", false)
	cs.Finished(2, 1, "run-1")

	out := buf.String()
	if !strings.Contains(out, "run-1 [0/2] a") {
		t.Errorf("missing start line for a: %q", out)
	}
	if !strings.Contains(out, "run-1 [1/2] a") {
		t.Errorf("missing finish line for a: %q", out)
	}
	if !strings.Contains(out, "run-1 FAILED: b") {
		t.Errorf("missing failure line for b: %q", out)
	}
	if !strings.Contains(out, "run-1 1 of 2 jobs completed, build failed") {
		t.Errorf("missing summary line: %q", out)
	}
}

func TestNoStatusDiscardsEverything(t *testing.T) {
	var ns NoStatus
	ns.Started(5, "run-1")
	ns.TargetStarted("x")
	ns.TargetFinished("x", false)
	ns.Finished(5, 3, "run-1")
}
