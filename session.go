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

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/proofdesk/proofdesk/internal/apierror"
	"github.com/proofdesk/proofdesk/model"
)

const (
	sessionCacheKey = "proofdesk:session"
	sessionCacheTTL = 24 * time.Hour
	sessionFileName = "session.json"
)

// SaveSession snapshots the whole workspace and stores it local-first: the
// data directory always, the cache when one is configured. The undo history
// is not part of a snapshot and does not survive a restart.
//
// Parameters:
// - ctx context.Context: Context for the cache write.
//
// Returns:
// - *model.SessionSnapshot: The snapshot that was stored.
// - error: Only when neither store accepted the snapshot.
func (s *Proofdesk) SaveSession(ctx context.Context) (*model.SessionSnapshot, error) {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	fileErr := writeSessionFile(snap)
	if fileErr != nil {
		logrus.WithError(fileErr).Error("failed to write session snapshot file")
	}

	var cacheErr error
	if s.cache != nil {
		cacheErr = s.cache.Set(ctx, sessionCacheKey, snap, sessionCacheTTL)
		if cacheErr != nil {
			logrus.WithError(cacheErr).Error("failed to cache session snapshot")
		}
	}

	if fileErr != nil && (s.cache == nil || cacheErr != nil) {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer,
			"Could not store session snapshot", fileErr.Error())
	}
	return snap, nil
}

// RestoreSession loads the most recent snapshot, preferring the local file
// over the cache, and replaces the workspace state with it. The undo
// history is cleared.
//
// Parameters:
// - ctx context.Context: Context for the cache read.
//
// Returns:
// - bool: True when a snapshot was found and applied.
// - error: Only for a snapshot that exists but cannot be decoded.
func (s *Proofdesk) RestoreSession(ctx context.Context) (bool, error) {
	snap, err := readSessionFile()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer,
			"Could not read session snapshot", err.Error())
	}

	if snap == nil && s.cache != nil {
		var cached model.SessionSnapshot
		if err := s.cache.Get(ctx, sessionCacheKey, &cached); err != nil {
			logrus.WithError(err).Error("failed to read cached session snapshot")
		} else if !cached.SavedAt.IsZero() {
			snap = &cached
		}
	}

	if snap == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applySnapshotLocked(snap)
	return true, nil
}

// snapshotLocked assembles a deep-enough copy of the workspace for
// serialization. Callers hold s.mu.
func (s *Proofdesk) snapshotLocked() *model.SessionSnapshot {
	snap := &model.SessionSnapshot{
		SavedAt:        time.Now(),
		PrevBatches:    append([]*model.Batch{}, s.prevBatches...),
		CurrBatches:    append([]*model.Batch{}, s.currBatches...),
		Results:        s.results.Copy(),
		Summary:        s.summary,
		Proofs:         s.proofsCopyLocked(),
		SheetBalances:  make(map[string]float64, len(s.sheetBalances)),
		Header:         s.header,
		PrevProofTotal: s.prevProofTotal,
		CurrProofTotal: s.currProofTotal,
	}
	for _, r := range s.knockedOff {
		snap.KnockedOff = append(snap.KnockedOff, r.Copy())
	}
	for sheet, bal := range s.sheetBalances {
		snap.SheetBalances[sheet] = bal
	}
	return snap
}

// applySnapshotLocked replaces the workspace state with a snapshot's.
// Callers hold s.mu.
func (s *Proofdesk) applySnapshotLocked(snap *model.SessionSnapshot) {
	s.prevBatches = snap.PrevBatches
	s.currBatches = snap.CurrBatches
	s.knockedOff = snap.KnockedOff
	s.results = snap.Results
	s.summary = snap.Summary
	s.header = snap.Header
	s.prevProofTotal = snap.PrevProofTotal
	s.currProofTotal = snap.CurrProofTotal

	s.proofs = make(map[string]*model.ProofRecord)
	for sheet, record := range snap.Proofs {
		copied := *record
		s.proofs[sheet] = &copied
	}
	s.sheetBalances = make(map[string]float64)
	for sheet, bal := range snap.SheetBalances {
		s.sheetBalances[sheet] = bal
	}

	s.history.Clear()
	s.pendingImports = make(map[string]*PendingImportContext)
}

func writeSessionFile(snap *model.SessionSnapshot) error {
	dir, err := fallbackDir()
	if err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, sessionFileName), data, 0o644)
}

// readSessionFile returns nil without error when no snapshot file exists.
func readSessionFile() (*model.SessionSnapshot, error) {
	dir, err := fallbackDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, sessionFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap model.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
