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

// Package mbuild is an incremental build engine for caller-supplied
// dependency graphs. It decides which targets are stale, in what order
// they must run, and executes the outdated subset on a bounded worker
// pool, while tracking header dependencies across invocations so a
// header-only edit can invalidate every source that includes it.
//
// mbuild never discovers files, spawns compilers, or parses a build
// description: the caller builds the graph out of its own Target
// implementations and hands the root to a Facade.
package mbuild
