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

// Package depdb tracks header files a source pulls in, across builds,
// so that a header-only change can mark its dependents stale even though
// the source file itself did not change.
package depdb

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/renameio"
)

// MissingTick is the sentinel mtime recorded for a header that was
// referenced by a dependency fragment but is absent from disk at
// observation time.
const MissingTick int64 = -1

// DefaultHeaderExtensions is used when New is given none.
var DefaultHeaderExtensions = []string{".h", ".hh", ".hpp"}

// Entry is one row of the on-disk JSON database: a header path and the
// mtime tick it carried the last time a build observed it.
type Entry struct {
	FPath string `json:"fpath"`
	TS    int64  `json:"ts"`
}

// DB holds two tables: a read-only snapshot (R) loaded once from disk at
// New, and an append-only observed table (O) built up over the course of
// one build via UpdateDepends / AreDependsOutdated. Save persists O,
// becoming next build's R.
//
// A DB is safe for concurrent use by multiple targets' Prepare calls.
type DB struct {
	exts map[string]struct{}
	log  logr.Logger

	ref map[string]int64 // R, immutable after New

	mu  sync.Mutex
	obs map[string]int64 // O
}

// New loads dbPath into the reference table and returns a DB ready to
// track a new build. A missing file, a file that is not valid JSON, or
// one containing a malformed or duplicate entry all leave the reference
// table empty rather than partially populated: a half-trusted dependency
// database is worse than an empty one, since it would suppress rebuilds
// this engine cannot tell are necessary.
//
// headerExts defaults to DefaultHeaderExtensions when empty.
func New(dbPath string, headerExts ...string) *DB {
	return NewWithLogger(dbPath, logr.Discard(), headerExts...)
}

// NewWithLogger is New but logs a warning when the reference table is
// discarded due to a corrupt on-disk database.
func NewWithLogger(dbPath string, log logr.Logger, headerExts ...string) *DB {
	if len(headerExts) == 0 {
		headerExts = DefaultHeaderExtensions
	}
	exts := make(map[string]struct{}, len(headerExts))
	for _, e := range headerExts {
		exts[e] = struct{}{}
	}
	db := &DB{
		exts: exts,
		log:  log,
		ref:  map[string]int64{},
		obs:  map[string]int64{},
	}
	db.load(dbPath)
	return db
}

func (d *DB) load(dbPath string) {
	data, err := os.ReadFile(dbPath)
	if err != nil {
		return
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		d.log.V(0).Info("dependency database is not valid JSON, starting fresh", "path", dbPath, "error", err.Error())
		return
	}
	ref := make(map[string]int64, len(entries))
	for _, e := range entries {
		if e.FPath == "" || e.TS == 0 {
			d.log.V(0).Info("dependency database has a malformed entry, starting fresh", "path", dbPath)
			return
		}
		if _, dup := ref[e.FPath]; dup {
			d.log.V(0).Info("dependency database has a duplicate entry, starting fresh", "path", dbPath, "fpath", e.FPath)
			return
		}
		ref[e.FPath] = e.TS
	}
	d.ref = ref
}

// UpdateDepends parses depFilePath and records any header it mentions
// into the observed table, if not already present there. A missing or
// unreadable dependency file means no headers were discovered for this
// source in this build; that is not an error.
func (d *DB) UpdateDepends(depFilePath string) {
	d.observe(depFilePath)
}

// AreDependsOutdated parses depFilePath, records its headers the same
// way UpdateDepends does, and reports whether any of them changed mtime
// (by exact inequality, in either direction) relative to the reference
// table, or is altogether new to it.
//
// The comparison is a strict !=, not a staleness-style "newer than": a
// header whose mtime moved backwards (a clock change, a restored
// snapshot, a checked-out older commit) is treated as changed, since
// this engine has no way to tell that case apart from a real edit and
// silently trusting a backwards-moved mtime risks serving a stale build
// artifact.
func (d *DB) AreDependsOutdated(depFilePath string) bool {
	headers := d.observe(depFilePath)
	if len(headers) == 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range headers {
		refTS, ok := d.ref[h]
		if !ok || refTS != d.obs[h] {
			return true
		}
	}
	return false
}

// observe parses depFilePath, inserts any newly-seen header into the
// observed table with its current on-disk mtime, and returns the full
// set of headers the fragment mentions (whether or not they were new).
func (d *DB) observe(depFilePath string) []string {
	content, err := os.ReadFile(depFilePath)
	if err != nil {
		return nil
	}
	headers := parseDepFile(content, d.exts)
	if len(headers) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range headers {
		if _, ok := d.obs[h]; ok {
			continue
		}
		d.obs[h] = statTick(h)
	}
	return headers
}

func statTick(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return MissingTick
	}
	return fi.ModTime().UnixNano()
}

// Save writes the observed table to dbPath as indented JSON, sorted by
// path for a stable diff across builds. If the existing file's bytes
// already match, Save leaves it untouched; otherwise it writes the new
// contents atomically via a temp-file-plus-rename so a crash mid-write
// never leaves a truncated database behind.
func (d *DB) Save(dbPath string) error {
	d.mu.Lock()
	entries := make([]Entry, 0, len(d.obs))
	for k, v := range d.obs {
		entries = append(entries, Entry{FPath: k, TS: v})
	}
	d.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].FPath < entries[j].FPath })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		d.log.Error(err, "failed to marshal dependency database", "path", dbPath)
		return err
	}
	data = append(data, '\n')

	if existing, err := os.ReadFile(dbPath); err == nil && bytes.Equal(existing, data) {
		return nil
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			d.log.Error(err, "failed to create dependency database directory", "path", dir)
			return err
		}
	}
	if err := renameio.WriteFile(dbPath, data, 0o644); err != nil {
		d.log.Error(err, "failed to write dependency database", "path", dbPath)
		return err
	}
	return nil
}
