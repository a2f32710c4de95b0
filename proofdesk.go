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
	"sync"

	"github.com/proofdesk/proofdesk/cache"
	"github.com/proofdesk/proofdesk/config"
	"github.com/proofdesk/proofdesk/database"
	"github.com/proofdesk/proofdesk/model"
)

// Proofdesk is the reconciliation engine. It holds one operator session's
// working state (uploaded batches, result set, proof ledger, undo history)
// plus the external collaborators: the datasource for audit persistence and
// the cache for session snapshots.
//
// Operator actions are applied strictly sequentially; the mutex enforces
// that when the engine sits behind a concurrent surface such as HTTP.
type Proofdesk struct {
	datasource database.IDataSource
	cache      cache.Cache

	mu sync.Mutex

	prevBatches []*model.Batch
	currBatches []*model.Batch
	knockedOff  []*model.TransactionRow

	results model.ResultSet
	summary model.Summary

	proofs        map[string]*model.ProofRecord
	sheetBalances map[string]float64
	header        model.BatchMeta

	prevProofTotal float64
	currProofTotal float64

	history *History

	pendingImports map[string]*PendingImportContext
}

// NewProofdesk initializes a new engine instance with the provided
// datasource. The cache is built from configuration; a nil cache degrades
// session snapshots to the local file fallback only.
//
// Parameters:
// - db database.IDataSource: The datasource for audit persistence.
//
// Returns:
// - *Proofdesk: A pointer to the newly created engine.
// - error: An error if configuration cannot be fetched.
func NewProofdesk(db database.IDataSource) (*Proofdesk, error) {
	_, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	ca, err := cache.NewCache()
	if err != nil {
		// Session snapshots fall back to the local file store. Persistence
		// is never fatal to the in-memory reconciliation state.
		ca = nil
	}

	return newEngine(db, ca), nil
}

func newEngine(db database.IDataSource, ca cache.Cache) *Proofdesk {
	return &Proofdesk{
		datasource:     db,
		cache:          ca,
		proofs:         make(map[string]*model.ProofRecord),
		sheetBalances:  make(map[string]float64),
		history:        NewHistory(),
		pendingImports: make(map[string]*PendingImportContext),
	}
}

// Results returns a copy of the current result set. Callers never receive
// the live rows; every mutation goes through an engine operation.
func (s *Proofdesk) Results() model.ResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results.Copy()
}

// Summary returns the current aggregate counts.
func (s *Proofdesk) Summary() model.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}
