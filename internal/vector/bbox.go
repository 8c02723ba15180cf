/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// ComputeBoundingBox returns the box enclosing every vertex visited by path
// data d, curve control points included. Width and height are at least 1.
// Data without any vertex yields UnitRect.
func ComputeBoundingBox(d string) Rect {
	p := TracePath(d)
	r, ok := p.Bounds()
	if !ok {
		return UnitRect
	}
	r.W = math.Max(1, r.W)
	r.H = math.Max(1, r.H)
	return r
}
