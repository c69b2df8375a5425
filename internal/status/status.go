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

// Package status prints human-facing build progress. It is a side
// channel: nothing in here ever feeds back into a scheduling decision.
package status

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Status is notified of build progress by the facade, always from the
// single scheduler thread that also invokes Target.Executed, so an
// implementation never needs its own locking. Started and Finished carry
// the run ID the facade minted for this Execute call, so that output from
// two overlapping or back-to-back builds can be told apart; runID is
// empty if the caller never set one.
type Status interface {
	Started(total int, runID string)
	TargetStarted(name string)
	TargetFinished(name string, ok bool)
	Finished(total, completed int, runID string)
}

// NoStatus discards everything; it is the default for callers that don't
// want progress output, and the baseline a build's Result is checked
// against in tests that assert Status never influences the outcome.
type NoStatus struct{}

func (NoStatus) Started(int, string)         {}
func (NoStatus) TargetStarted(string)        {}
func (NoStatus) TargetFinished(string, bool) {}
func (NoStatus) Finished(int, int, string)   {}

// ConsoleStatus prints progress the way an interactive build tool does:
// a single progress line rewritten in place on a real terminal, one line
// per event when stdout is redirected (a file, a CI log, a pipe).
type ConsoleStatus struct {
	Out   io.Writer
	smart bool

	total, finished int
	runPrefix       string
	failColor       *color.Color
}

// NewConsoleStatus wraps out, detecting terminal support if out is an
// *os.File (a plain io.Writer is always treated as non-interactive).
func NewConsoleStatus(out io.Writer) *ConsoleStatus {
	smart := false
	if f, ok := out.(*os.File); ok {
		smart = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &ConsoleStatus{
		Out:       out,
		smart:     smart,
		failColor: color.New(color.FgRed, color.Bold),
	}
}

func (c *ConsoleStatus) Started(total int, runID string) {
	c.total = total
	c.finished = 0
	c.runPrefix = ""
	if runID != "" {
		c.runPrefix = runID + " "
	}
}

func (c *ConsoleStatus) TargetStarted(name string) {
	c.printProgress(name)
}

func (c *ConsoleStatus) TargetFinished(name string, ok bool) {
	c.finished++
	if !ok {
		line := c.runPrefix + "FAILED: " + name
		if c.smart {
			line = c.runPrefix + c.failColor.Sprint("FAILED: ") + name
		}
		fmt.Fprintln(c.Out, line)
		return
	}
	c.printProgress(name)
}

func (c *ConsoleStatus) printProgress(name string) {
	line := fmt.Sprintf("%s[%d/%d] %s", c.runPrefix, c.finished, c.total, name)
	if c.smart {
		fmt.Fprintf(c.Out, "\r\x1b[K%s", line)
		return
	}
	fmt.Fprintln(c.Out, line)
}

func (c *ConsoleStatus) Finished(total, completed int, runID string) {
	prefix := ""
	if runID != "" {
		prefix = runID + " "
	}
	if c.smart {
		fmt.Fprintln(c.Out)
	}
	if completed == total {
		fmt.Fprintf(c.Out, "%s%d of %d jobs completed\n", prefix, completed, total)
		return
	}
	fmt.Fprintf(c.Out, "%s%d of %d jobs completed, build failed\n", prefix, completed, total)
}
