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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func headerExtSet() map[string]struct{} {
	return map[string]struct{}{".h": {}}
}

func TestParseDepFileBasic(t *testing.T) {
	content := []byte("out.o: a.c \\\n  /usr/inc/b.h c.h d.txt\n")
	got := parseDepFile(content, headerExtSet())
	want := []string{"/usr/inc/b.h", "c.h"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseDepFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDepFileEscapedSpace(t *testing.T) {
	content := []byte(`out.o: inc/with\ space.h`)
	got := parseDepFile(content, headerExtSet())
	want := []string{"inc/with space.h"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseDepFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDepFileBackslashOther(t *testing.T) {
	// A backslash not followed by a space is passed through verbatim,
	// along with whatever follows it.
	content := []byte(`out.o: weird\#name.h`)
	got := parseDepFile(content, headerExtSet())
	want := []string{`weird\#name.h`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseDepFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDepFileEmpty(t *testing.T) {
	if got := parseDepFile(nil, headerExtSet()); got != nil {
		t.Errorf("parseDepFile(nil) = %v, want nil", got)
	}
	if got := parseDepFile([]byte("   \\\n  \t "), headerExtSet()); got != nil {
		t.Errorf("parseDepFile(all separators) = %v, want nil", got)
	}
}

func TestParseDepFileNoMatchingExtension(t *testing.T) {
	content := []byte("out.o: a.c b.cpp")
	if got := parseDepFile(content, headerExtSet()); got != nil {
		t.Errorf("parseDepFile() = %v, want nil", got)
	}
}
