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

import "path/filepath"

// parseDepFile extracts header paths from the contents of a GNU
// Make-style dependency fragment (the output of `-MMD` / `-MF`), keeping
// only tokens whose extension is in exts.
//
// The scan is character-wise and does not understand Make syntax beyond
// what dependency fragments actually contain: a target, a colon, and a
// whitespace- and backslash-continuation-separated list of prerequisite
// paths. Runs of whitespace and bare backslashes between tokens are
// treated as separators and skipped; line-continuation backslashes fall
// out of this for free since a trailing "\\\n" is just a backslash
// followed by a newline, both of which are separator characters.
//
// Within a token, a backslash followed by a space yields a literal
// space (Make's escape for a path containing a space); a backslash
// followed by anything else yields both characters verbatim, since the
// dependency-fragment generators this engine targets only ever escape
// spaces.
func parseDepFile(content []byte, exts map[string]struct{}) []string {
	var out []string
	i, n := 0, len(content)
	for i < n {
		for i < n && isSeparator(content[i]) {
			i++
		}
		if i >= n {
			break
		}

		var tok []byte
		for i < n && !isSpace(content[i]) {
			c := content[i]
			if c == '\\' && i+1 < n {
				next := content[i+1]
				if next == ' ' {
					tok = append(tok, ' ')
				} else {
					tok = append(tok, c, next)
				}
				i += 2
				continue
			}
			tok = append(tok, c)
			i++
		}

		if len(tok) == 0 {
			continue
		}
		if _, ok := exts[filepath.Ext(string(tok))]; ok {
			out = append(out, string(tok))
		}
	}
	return out
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isSeparator(c byte) bool {
	return isSpace(c) || c == '\\'
}
