/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compose

import (
	"strings"

	"github.com/google/uuid"

	"logostyler/internal/planner"
)

// Selector identifies a leaf path by element id or by the start of its
// path data. ID wins when both are set.
type Selector struct {
	ID     string
	Prefix string
}

// Match reports whether p is selected.
func (s Selector) Match(p TemplatePath) bool {
	if s.ID != "" {
		return p.ID == s.ID
	}
	return s.Prefix != "" && strings.HasPrefix(strings.TrimSpace(p.D), s.Prefix)
}

// Selectors maps each leaf role to its selector.
type Selectors map[planner.Role]Selector

// DefaultSelectors match the leaves of the embedded template.
func DefaultSelectors() Selectors {
	return Selectors{
		planner.Left:  {Prefix: "m92.66,263.59c"},
		planner.Top:   {Prefix: "m284.59,97c"},
		planner.Right: {Prefix: "m465.83,320.23c"},
	}
}

// claimedSet records template paths already assigned to a leaf during one
// composition, so two roles can never style the same path.
type claimedSet map[int]struct{}

func (c claimedSet) has(i int) bool { _, ok := c[i]; return ok }
func (c claimedSet) claim(i int)    { c[i] = struct{}{} }

// find returns the index of the first unclaimed path matching sel.
func (t *Template) find(sel Selector, claimed claimedSet) (int, bool) {
	for _, p := range t.Paths {
		if claimed.has(p.Index) {
			continue
		}
		if sel.Match(p) {
			return p.Index, true
		}
	}
	return -1, false
}

// IDSource produces the random hex suffixes that keep definition ids unique
// across logos pasted into one document.
type IDSource interface {
	Hex(n int) string
}

// UUIDSource draws suffixes from random UUIDs.
type UUIDSource struct{}

func (UUIDSource) Hex(n int) string {
	h := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}
