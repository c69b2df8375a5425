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

package mbuild

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/tinytarget/mbuild/internal/config"
	"github.com/tinytarget/mbuild/internal/depdb"
	"github.com/tinytarget/mbuild/internal/graph"
	"github.com/tinytarget/mbuild/internal/schedule"
	"github.com/tinytarget/mbuild/internal/status"
	"github.com/tinytarget/mbuild/internal/target"
)

// Target is the lifecycle interface a caller's build steps implement.
// See the target package for the full contract.
type Target = target.Target

// Base supplies the bookkeeping and lifecycle defaults a concrete Target
// needs; embed it in your own target types.
type Base = target.Base

// NewBase returns a Base with the given direct predecessors.
func NewBase(preds ...Target) Base { return target.NewBase(preds...) }

// DB is the header-dependency database. See the depdb package.
type DB = depdb.DB

// NewDB loads dbPath (if it exists) into a fresh dependency database.
// headerExts defaults to {".h", ".hh", ".hpp"} when empty.
func NewDB(dbPath string, headerExts ...string) *DB {
	return depdb.New(dbPath, headerExts...)
}

// NewDBWithLogger is NewDB, additionally logging a warning whenever a
// corrupt on-disk database is discarded rather than trusted.
func NewDBWithLogger(dbPath string, log logr.Logger, headerExts ...string) *DB {
	return depdb.NewWithLogger(dbPath, log, headerExts...)
}

// Status is the human-facing progress-reporting interface. See the
// status package.
type Status = status.Status

// NewConsoleStatus wraps out as a terminal-aware Status.
func NewConsoleStatus(out *os.File) *ConsoleStatus { return status.NewConsoleStatus(out) }

// ConsoleStatus is exported for callers that want to hold a concrete
// reference (e.g. to swap Out mid-build for tests).
type ConsoleStatus = status.ConsoleStatus

// Config is the optional TOML-backed engine configuration. See the
// config package.
type Config = config.Config

// LoadConfig reads and decodes path. A missing file is not an error: it
// returns the zero Config. A malformed file is returned as an error.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// ApplyTo copies any set fields from cfg onto f, respecting the same
// MaxThreads clamp SetMaxThreads already applies.
func (cfg Config) ApplyTo(f *Facade) {
	if cfg.Engine.MaxThreads > 0 {
		f.SetMaxThreads(cfg.Engine.MaxThreads)
	}
	if cfg.Engine.DBPath != "" {
		f.dbPath = cfg.Engine.DBPath
	}
	if len(cfg.Engine.HeaderExtensions) > 0 {
		f.headerExts = cfg.Engine.HeaderExtensions
	}
}

// Result is the outcome of one Facade.Execute call. Success holds
// exactly when every target the prepare phase found outdated actually
// finished executing.
type Result struct {
	TotalJobs     int
	CompletedJobs int
}

// Success reports whether every outdated target completed.
func (r Result) Success() bool { return r.TotalJobs == r.CompletedJobs }

// ErrCyclicDependency is returned by Execute when root's graph is not a
// DAG. It is the one fatal error this engine raises on its own; every
// other failure mode is reported as data on the returned Result.
var ErrCyclicDependency = errors.New("mbuild: cyclic dependency")

// Facade ties the dependency database, graph sorter, and the two build
// phases together behind a single Execute call.
type Facade struct {
	// MaxThreads bounds both the prepare and execute worker pools. Zero
	// or negative means "use all available cores"; New sets this to
	// runtime.NumCPU().
	MaxThreads int

	// Logger receives structured diagnostics from Execute: cycle
	// detection and debug-level build progress, independent of
	// StatusOut. Save I/O errors and corrupt-database downgrades are
	// logged by the DB through the logger given to NewDBWithLogger, not
	// through this one. The zero value is a no-op logger; logging must
	// never change what Execute returns.
	Logger logr.Logger

	// StatusOut receives human-facing progress. Defaults to NoStatus.
	StatusOut Status

	dbPath     string
	headerExts []string
}

// New returns a Facade configured with engine defaults: all available
// cores, a no-op logger, and no status output.
func New() *Facade {
	return &Facade{
		MaxThreads: runtime.NumCPU(),
		Logger:     logr.Discard(),
		StatusOut:  status.NoStatus{},
	}
}

// SetMaxThreads clamps n to [1, runtime.NumCPU()] and stores it.
func (f *Facade) SetMaxThreads(n int) {
	cores := runtime.NumCPU()
	switch {
	case n < 1:
		n = 1
	case n > cores:
		n = cores
	}
	f.MaxThreads = n
}

// DBPath returns the dependency-database path a prior Config.ApplyTo
// set, or "" if none was applied.
func (f *Facade) DBPath() string { return f.dbPath }

// HeaderExtensions returns the header extensions a prior Config.ApplyTo
// set, or nil if none was applied (meaning depdb's own defaults apply).
func (f *Facade) HeaderExtensions() []string { return f.headerExts }

func (f *Facade) threads() int {
	if f.MaxThreads < 1 {
		return runtime.NumCPU()
	}
	return f.MaxThreads
}

// Execute runs one full prepare/execute cycle over root's graph: it
// topologically sorts the graph (clearing any leftover Outdated flags
// along the way), runs the parallel prepare phase plus transitive
// promotion, and, if anything came out outdated, executes it on a
// bounded worker pool in dependency order.
//
// A nil root is a no-op. A cycle anywhere in root's graph aborts before
// any target runs and is reported as ErrCyclicDependency; every other
// outcome — including a target failing mid-build — is reported through
// Result, never as an error.
func (f *Facade) Execute(root Target) (Result, error) {
	if root == nil {
		return Result{}, nil
	}

	runID := uuid.NewString()
	log := f.Logger.WithValues("run", runID)

	order, err := graph.Sort(root)
	if err != nil {
		log.Error(err, "cyclic dependency detected")
		return Result{}, fmt.Errorf("%w: %v", ErrCyclicDependency, err)
	}

	outdated := schedule.Prepare(order, f.threads())
	if len(outdated) == 0 {
		log.V(1).Info("nothing to do", "targets", len(order))
		return Result{}, nil
	}

	statusOut := f.StatusOut
	if statusOut == nil {
		statusOut = status.NoStatus{}
	}
	statusOut.Started(len(outdated), runID)

	obs := &facadeObserver{status: statusOut, log: log}
	res := schedule.Execute(outdated, f.threads(), obs)

	statusOut.Finished(res.Total, res.Completed, runID)
	log.V(1).Info("build finished", "total", res.Total, "completed", res.Completed)

	return Result{TotalJobs: res.Total, CompletedJobs: res.Completed}, nil
}

// facadeObserver adapts the schedule package's Observer to the public
// Status and Logger surfaces, naming targets by their concrete type when
// it can and falling back to a pointer identity otherwise.
type facadeObserver struct {
	status Status
	log    logr.Logger
}

type named interface{ Name() string }

func targetName(t Target) string {
	if n, ok := t.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%p", t)
}

func (o *facadeObserver) Scheduled(t Target) {
	name := targetName(t)
	o.status.TargetStarted(name)
	o.log.V(2).Info("target scheduled", "target", name)
}

func (o *facadeObserver) Finished(t Target, ok bool) {
	name := targetName(t)
	o.status.TargetFinished(name, ok)
	o.log.V(2).Info("target finished", "target", name, "ok", ok)
}
