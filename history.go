/*
Copyright 2024 Proofdesk Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package proofdesk

import "github.com/proofdesk/proofdesk/model"

// UndoDepth is the number of snapshots the history retains. A push beyond
// capacity silently discards the oldest entry.
const UndoDepth = 5

// History is a bounded most-recent-first stack of result-set snapshots.
// A snapshot is pushed immediately before any mutating operation so the
// operation can be reversed exactly.
type History struct {
	snapshots []model.UndoSnapshot
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// Push records a snapshot. The result set is deep-copied so later edits
// cannot leak into history.
func (h *History) Push(snap model.UndoSnapshot) {
	snap.Results = snap.Results.Copy()
	h.snapshots = append([]model.UndoSnapshot{snap}, h.snapshots...)
	if len(h.snapshots) > UndoDepth {
		h.snapshots = h.snapshots[:UndoDepth]
	}
}

// Pop removes and returns the most recent snapshot. The second return is
// false when the history is empty; an empty pop is a reported no-op, not an
// error.
func (h *History) Pop() (model.UndoSnapshot, bool) {
	if len(h.snapshots) == 0 {
		return model.UndoSnapshot{}, false
	}
	top := h.snapshots[0]
	h.snapshots = h.snapshots[1:]
	return top, true
}

// Len reports how many snapshots are held.
func (h *History) Len() int {
	return len(h.snapshots)
}

// Clear drops all snapshots, e.g. after a session restore.
func (h *History) Clear() {
	h.snapshots = nil
}
