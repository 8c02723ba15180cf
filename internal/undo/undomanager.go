/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"

	"logostyler/internal/planner"
)

// Snapshot is a leaf's settings at one point in time.
type Snapshot struct {
	Role   planner.Role
	Config planner.LeafFillConfig
	TS     time.Time
}

// Config controls depth caps and coalescing behavior.
type Config struct {
	// MaxTotal caps snapshots across all leaves; the oldest are pruned first.
	MaxTotal int
	// MaxPerRole limits the undo depth of a single leaf (0 means unlimited).
	MaxPerRole int
	// MinInterval coalesces pushes for the same leaf that arrive within the
	// interval, so a slider drag becomes one undo step.
	MinInterval time.Duration
}

// Manager keeps an undo/redo history per leaf. Pushed snapshots hold the
// settings as they were before a change. It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[planner.Role][]Snapshot
	redo map[planner.Role][]Snapshot
	// time of the last push per role, for coalescing
	last map[planner.Role]time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxTotal <= 0 {
		cfg.MaxTotal = 300
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{
		cfg:  cfg,
		undo: make(map[planner.Role][]Snapshot),
		redo: make(map[planner.Role][]Snapshot),
		last: make(map[planner.Role]time.Time),
	}
}

// Push records the settings a leaf had before a change and clears its redo
// stack. A push within MinInterval of the previous one for the same leaf is
// dropped, keeping the state from before the burst started.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo[s.Role] = nil
	if last, ok := m.last[s.Role]; ok && len(m.undo[s.Role]) > 0 && s.TS.Sub(last) < m.cfg.MinInterval {
		m.last[s.Role] = s.TS
		return
	}
	m.last[s.Role] = s.TS
	m.undo[s.Role] = append(m.undo[s.Role], s)
	m.enforceCapsLocked(s.Role)
}

// Undo returns the previous settings for role and remembers current for Redo.
func (m *Manager) Undo(role planner.Role, current planner.LeafFillConfig) (planner.LeafFillConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[role]
	if len(stack) == 0 {
		return current, false
	}
	s := stack[len(stack)-1]
	m.undo[role] = stack[:len(stack)-1]
	m.redo[role] = append(m.redo[role], Snapshot{Role: role, Config: current, TS: time.Now()})
	delete(m.last, role)
	return s.Config, true
}

// Redo reapplies the most recently undone settings for role.
func (m *Manager) Redo(role planner.Role, current planner.LeafFillConfig) (planner.LeafFillConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[role]
	if len(r) == 0 {
		return current, false
	}
	s := r[len(r)-1]
	m.redo[role] = r[:len(r)-1]
	m.undo[role] = append(m.undo[role], Snapshot{Role: role, Config: current, TS: time.Now()})
	delete(m.last, role)
	m.enforceCapsLocked(role)
	return s.Config, true
}

// CanUndo and CanRedo drive button state in the UI.
func (m *Manager) CanUndo(role planner.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[role]) > 0
}

func (m *Manager) CanRedo(role planner.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[role]) > 0
}

// Clear drops the history of one leaf.
func (m *Manager) Clear(role planner.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.undo, role)
	delete(m.redo, role)
	delete(m.last, role)
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (roles int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.undo {
		if len(v) > 0 {
			roles++
		}
		totalSnapshots += len(v)
	}
	return roles, totalSnapshots
}

func (m *Manager) enforceCapsLocked(role planner.Role) {
	if m.cfg.MaxPerRole > 0 {
		stack := m.undo[role]
		if len(stack) > m.cfg.MaxPerRole {
			m.undo[role] = append([]Snapshot{}, stack[len(stack)-m.cfg.MaxPerRole:]...)
		}
	}
	// global cap: prune the oldest snapshot across all leaves
	for {
		total := 0
		var oldest planner.Role
		var oldestTS time.Time
		found := false
		for r, stack := range m.undo {
			total += len(stack)
			if len(stack) > 0 && (!found || stack[0].TS.Before(oldestTS)) {
				oldest, oldestTS, found = r, stack[0].TS, true
			}
		}
		if !found || total <= m.cfg.MaxTotal {
			return
		}
		m.undo[oldest] = m.undo[oldest][1:]
		if len(m.undo[oldest]) == 0 {
			delete(m.undo, oldest)
		}
	}
}
