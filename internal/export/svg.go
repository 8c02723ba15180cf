/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"logostyler/internal/compose"
)

// WriteSVG writes the composed document to path, creating parent directories.
func WriteSVG(logo *compose.Logo, path string) error {
	if logo == nil || len(logo.SVG) == 0 {
		return fmt.Errorf("logo has no svg content")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(path, logo.SVG, 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}
