/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gradient

import (
	"fmt"
	"strings"
)

// Direction is the axis a linear gradient runs along.
type Direction string

const (
	Horizontal Direction = "horizontal" // left to right
	Vertical   Direction = "vertical"   // top to bottom
)

// ParseDirection accepts "horizontal"/"vertical" (case-insensitive) and
// defaults to Horizontal for an empty string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Horizontal:
		return Horizontal, nil
	case Vertical:
		return Vertical, nil
	default:
		return "", fmt.Errorf("unknown gradient direction %q", s)
	}
}

// Vector returns the x1, y1, x2, y2 attributes of the gradient axis.
func (d Direction) Vector() (x1, y1, x2, y2 string) {
	if d == Vertical {
		return "0%", "0%", "0%", "100%"
	}
	return "0%", "0%", "100%", "0%"
}
