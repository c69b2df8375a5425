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

package depdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes(%s): %v", path, err)
	}
}

func TestDBMissingDatabaseFileIsEmptyRef(t *testing.T) {
	dir := t.TempDir()
	db := New(filepath.Join(dir, "nonexistent.json"))
	if len(db.ref) != 0 {
		t.Errorf("ref table should be empty for a missing database file, got %v", db.ref)
	}
}

func TestDBMalformedDatabaseFileIsEmptyRef(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "depdb.json")
	if err := os.WriteFile(dbPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	db := New(dbPath)
	if len(db.ref) != 0 {
		t.Errorf("ref table should be empty for a malformed database file, got %v", db.ref)
	}
}

func TestDBDuplicateEntryIsEmptyRef(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "depdb.json")
	body := `[{"fpath":"a.h","ts":1},{"fpath":"a.h","ts":2}]`
	if err := os.WriteFile(dbPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	db := New(dbPath)
	if len(db.ref) != 0 {
		t.Errorf("ref table should be empty when the database has a duplicate key, got %v", db.ref)
	}
}

func TestUnchangedHeaderNotOutdated(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "a.h")
	depFile := filepath.Join(dir, "a.d")
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, header, "", ts)
	writeFile(t, depFile, "a.o: "+header+"\n", ts)

	db1 := New(filepath.Join(dir, "depdb.json"))
	if !db1.AreDependsOutdated(depFile) {
		t.Errorf("a header never seen before should be outdated")
	}
	if err := db1.Save(filepath.Join(dir, "depdb.json")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	db2 := New(filepath.Join(dir, "depdb.json"))
	if db2.AreDependsOutdated(depFile) {
		t.Errorf("a header with an unchanged mtime should not be outdated")
	}
}

func TestChangedHeaderIsOutdated(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "a.h")
	depFile := filepath.Join(dir, "a.d")
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, header, "", ts)
	writeFile(t, depFile, "a.o: "+header+"\n", ts)

	dbPath := filepath.Join(dir, "depdb.json")
	db1 := New(dbPath)
	db1.AreDependsOutdated(depFile)
	if err := db1.Save(dbPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Move the header's mtime backwards. A strict inequality must still
	// flag it, since this engine cannot distinguish a clock rollback
	// from a real edit.
	writeFile(t, header, "", ts.Add(-time.Hour))

	db2 := New(dbPath)
	if !db2.AreDependsOutdated(depFile) {
		t.Errorf("a header whose mtime moved backwards should be outdated")
	}
}

func TestMissingDepFileIsNotOutdated(t *testing.T) {
	dir := t.TempDir()
	db := New(filepath.Join(dir, "depdb.json"))
	if db.AreDependsOutdated(filepath.Join(dir, "missing.d")) {
		t.Errorf("a missing dependency fragment should not report outdated")
	}
}

func TestSaveIsNoopWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "a.h")
	depFile := filepath.Join(dir, "a.d")
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, header, "", ts)
	writeFile(t, depFile, "a.o: "+header+"\n", ts)

	dbPath := filepath.Join(dir, "depdb.json")
	db := New(dbPath)
	db.AreDependsOutdated(depFile)
	if err := db.Save(dbPath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fi1, err := os.Stat(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Save(dbPath); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	fi2, err := os.Stat(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if fi1.ModTime() != fi2.ModTime() {
		t.Errorf("Save rewrote an unchanged database file")
	}
}
