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
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/proofdesk/proofdesk/internal/apierror"
	"github.com/proofdesk/proofdesk/model"
)

// ReconciliationOutcome is what a reconciliation run reports back to the
// caller: the aggregate counts plus the per-sheet proof records refreshed by
// the run.
type ReconciliationOutcome struct {
	Summary model.Summary                 `json:"summary"`
	Proofs  map[string]*model.ProofRecord `json:"proofs"`
}

// RunReconciliation matches the loaded debit-side batches against the
// credit-side batches and rebuilds the result set. Previously uploaded
// "previous" batches supply the debit side and "current" batches the credit
// side; when only current batches exist, their rows are split by sign
// instead, reconciling the two legs of a single statement.
//
// The matcher runs twice, the second pass fed the first pass's leftovers.
// The rebuilt result set lists matched pairs first (debit then credit leg),
// then knocked-off rows, then pending debits and pending credits. Proof
// records are refreshed per sheet and the denormalized rows are persisted
// best-effort; persistence failure never disturbs the in-memory result.
//
// Parameters:
// - ctx context.Context: Context for persistence and tracing.
// - userID string: Opaque operator identifier, attached to persisted rows.
//
// Returns:
// - ReconciliationOutcome: Aggregate counts and refreshed proof records.
// - error: ErrBadRequest when no rows are loaded.
func (s *Proofdesk) RunReconciliation(ctx context.Context, userID string) (ReconciliationOutcome, error) {
	ctx, span := otel.Tracer("proofdesk.reconciliation").Start(ctx, "Running reconciliation")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	debits, credits := s.sidesLocked()
	if len(debits) == 0 && len(credits) == 0 {
		return ReconciliationOutcome{}, apierror.NewAPIError(apierror.ErrBadRequest,
			"No statement rows loaded", "upload at least one statement before reconciling")
	}

	s.pushSnapshotLocked()

	matched := matchTwoPass(debits, credits)

	results := make(model.ResultSet, 0, len(debits)+len(credits)+len(s.knockedOff))
	for _, p := range matched.MatchedPairs {
		p.Debit.Status = model.StatusMatched
		p.Credit.Status = model.StatusMatched
		results = append(results, p.Debit, p.Credit)
	}
	for _, r := range s.knockedOff {
		results = append(results, r.Copy())
	}
	for _, r := range matched.PendingDebits {
		r.Status = model.StatusPending
		results = append(results, r)
	}
	for _, r := range matched.PendingCredits {
		r.Status = model.StatusPending
		results = append(results, r)
	}

	s.results = results
	s.summary = summarize(results)
	s.refreshProofTotalsLocked()

	sheetCounts := make(map[string]int)
	for _, r := range results {
		sheetCounts[r.SheetName]++
	}
	for sheet, count := range sheetCounts {
		s.recordProofLocked(sheet, matched.MatchedPairs, count)
	}

	s.persistResultsLocked(ctx, userID)

	return ReconciliationOutcome{Summary: s.summary, Proofs: s.proofsCopyLocked()}, nil
}

// sidesLocked assembles the debit and credit row lists for a run. Rows are
// copied out of the stored batches so matching never touches batch rows.
func (s *Proofdesk) sidesLocked() (debits, credits []*model.TransactionRow) {
	if len(s.prevBatches) == 0 {
		for _, b := range s.currBatches {
			for _, r := range b.Rows {
				c := r.Copy()
				if c.SignedAmount < 0 {
					c.Side = model.SideDebit
					debits = append(debits, c)
				} else {
					c.Side = model.SideCredit
					credits = append(credits, c)
				}
			}
		}
		return debits, credits
	}

	for _, b := range s.prevBatches {
		for _, r := range b.Rows {
			c := r.Copy()
			c.Side = model.SideDebit
			debits = append(debits, c)
		}
	}
	for _, b := range s.currBatches {
		for _, r := range b.Rows {
			c := r.Copy()
			c.Side = model.SideCredit
			credits = append(credits, c)
		}
	}
	return debits, credits
}

// ManualMatch resolves one debit and one credit row chosen by amount
// equality and a case-insensitive narration fragment. The first pending
// candidate on each side wins, in result-set order. An empty candidate list
// on either side reports failure and leaves the result set and the undo
// history untouched.
//
// Parameters:
// - ctx context.Context: Context for tracing.
// - amount float64: The absolute amount both rows must carry.
// - narration string: Fragment both narrations must contain. Case-insensitive.
//
// Returns:
// - *model.MatchPair: Copies of the two rows now marked matched.
// - error: ErrNotFound when either side has no candidate.
func (s *Proofdesk) ManualMatch(ctx context.Context, amount float64, narration string) (*model.MatchPair, error) {
	_, span := otel.Tracer("proofdesk.reconciliation").Start(ctx, "Applying manual match")
	defer span.End()

	fragment := strings.ToUpper(strings.TrimSpace(narration))

	s.mu.Lock()
	defer s.mu.Unlock()

	debitID := s.firstManualCandidateLocked(amount, fragment, true)
	creditID := s.firstManualCandidateLocked(amount, fragment, false)
	if debitID == "" || creditID == "" {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "No matching rows",
			fmt.Sprintf("amount %v narration %q", amount, narration))
	}

	di, ok := s.results.IndexOf(debitID)
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Result set is inconsistent",
			fmt.Sprintf("row %s selected but not present", debitID))
	}
	ci, ok := s.results.IndexOf(creditID)
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Result set is inconsistent",
			fmt.Sprintf("row %s selected but not present", creditID))
	}

	s.pushSnapshotLocked()

	debit := s.results[di]
	credit := s.results[ci]
	debit.Status = model.StatusMatched
	debit.Side = model.SideDebit
	credit.Status = model.StatusMatched
	credit.Side = model.SideCredit
	s.summary = summarize(s.results)
	s.persistPairLocked(ctx, debit, credit)

	return &model.MatchPair{Debit: debit.Copy(), Credit: credit.Copy()}, nil
}

// firstManualCandidateLocked returns the id of the first pending row on the
// requested side whose absolute amount and narration qualify, or "".
func (s *Proofdesk) firstManualCandidateLocked(amount float64, fragment string, debit bool) string {
	for _, r := range s.results {
		if r.Status != model.StatusPending || r.AmountAbs != amount {
			continue
		}
		if debit && r.SignedAmount >= 0 {
			continue
		}
		if !debit && r.SignedAmount <= 0 {
			continue
		}
		if fragment != "" && !strings.Contains(strings.ToUpper(r.Narration), fragment) {
			continue
		}
		return r.RowID
	}
	return ""
}

// ResetMatches reverts every cross-batch or manually matched row back to
// pending and zeroes the running proof totals until the next run recomputes
// them. Knocked-off rows stay resolved; intra-batch deduplication is a
// property of the batch, not of a matching run.
//
// Returns:
// - model.Summary: The aggregate counts after the reset.
func (s *Proofdesk) ResetMatches(ctx context.Context) model.Summary {
	_, span := otel.Tracer("proofdesk.reconciliation").Start(ctx, "Resetting matches")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushSnapshotLocked()
	for _, r := range s.results {
		if r.Status == model.StatusMatched {
			r.Status = model.StatusPending
		}
	}
	s.summary = summarize(s.results)
	s.prevProofTotal = 0
	s.currProofTotal = 0
	return s.summary
}

// Undo restores the most recent snapshot, reversing the last mutating
// operation. With an empty history it reports false and changes nothing; an
// empty undo is a no-op, not an error.
//
// Returns:
// - bool: True when a snapshot was restored.
func (s *Proofdesk) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.history.Pop()
	if !ok {
		return false
	}

	s.results = snap.Results
	s.summary = snap.Summary
	s.prevProofTotal = snap.PrevProofTotal
	s.currProofTotal = snap.CurrProofTotal
	return true
}

// pushSnapshotLocked records the current state onto the undo stack. Callers
// hold s.mu.
func (s *Proofdesk) pushSnapshotLocked() {
	s.history.Push(model.UndoSnapshot{
		Results:        s.results,
		Summary:        s.summary,
		PrevProofTotal: s.prevProofTotal,
		CurrProofTotal: s.currProofTotal,
	})
}

// refreshProofTotalsLocked recomputes the running proof totals from the
// stored batches. Callers hold s.mu.
func (s *Proofdesk) refreshProofTotalsLocked() {
	s.prevProofTotal = 0
	for _, b := range s.prevBatches {
		s.prevProofTotal += b.ProofTotal
	}
	s.currProofTotal = 0
	for _, b := range s.currBatches {
		s.currProofTotal += b.ProofTotal
	}
}

// proofsCopyLocked copies the proof map for callers. Callers hold s.mu.
func (s *Proofdesk) proofsCopyLocked() map[string]*model.ProofRecord {
	out := make(map[string]*model.ProofRecord, len(s.proofs))
	for sheet, record := range s.proofs {
		copied := *record
		out[sheet] = &copied
	}
	return out
}

// summarize derives the aggregate counts from a result set. MatchedCount
// counts resolved rows, not pairs: every matched or knocked-off pair
// contributes two. MatchedSummary reports the same row count alongside the
// halved amount; divide either by two for the pair count.
func summarize(rs model.ResultSet) model.Summary {
	var sum model.Summary
	for _, r := range rs {
		switch {
		case r.Status == model.StatusMatched || r.Status == model.StatusAuto:
			sum.MatchedCount++
		case r.SignedAmount < 0:
			sum.PendingDebitCount++
		default:
			sum.PendingCreditCount++
		}
	}
	return sum
}

// persistResultsLocked denormalizes the result rows with their batch header
// metadata and hands them to the datasource. Failure is logged and the rows
// are diverted to the local fallback store; persistence never fails a run.
// Callers hold s.mu.
func (s *Proofdesk) persistResultsLocked(ctx context.Context, userID string) {
	if len(s.results) == 0 {
		return
	}

	rows := s.auditRowsLocked(userID)
	if s.datasource == nil {
		s.storeFallback(rows)
		return
	}
	if err := s.datasource.RecordResultRows(ctx, rows); err != nil {
		logrus.WithError(err).Error("failed to persist reconciliation results, using local fallback")
		s.storeFallback(rows)
		return
	}

	for _, record := range s.proofs {
		if err := s.datasource.RecordProof(ctx, record); err != nil {
			logrus.WithError(err).Error("failed to persist proof record")
		}
	}
}

// persistPairLocked upserts the two rows of a fresh manual match so the
// audit trail reflects it without waiting for the next full run. Failure is
// logged; the in-memory match stands either way. Callers hold s.mu.
func (s *Proofdesk) persistPairLocked(ctx context.Context, debit, credit *model.TransactionRow) {
	if s.datasource == nil {
		return
	}
	rows := s.auditRowsForLocked(model.ResultSet{debit, credit}, "")
	if err := s.datasource.RecordResultRows(ctx, rows); err != nil {
		logrus.WithError(err).Error("failed to persist manual match")
	}
}

// ResultHistory returns audit rows persisted by earlier runs, newest last,
// optionally scoped to one sheet.
//
// Parameters:
// - ctx context.Context: Context for the datasource read.
// - sheet string: Sheet to scope to. Empty means all sheets.
// - limit int: Page size. Non-positive falls back to 100.
// - offset int: Rows to skip.
//
// Returns:
// - []*model.AuditRow: The persisted rows.
// - error: ErrNotFound without a datasource, ErrInternalServer on read failure.
func (s *Proofdesk) ResultHistory(ctx context.Context, sheet string, limit, offset int) ([]*model.AuditRow, error) {
	if s.datasource == nil {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "No persisted results",
			"no datasource is configured")
	}
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.datasource.GetResultRows(ctx, sheet, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to load persisted results", err.Error())
	}
	return rows, nil
}

// auditRowsLocked builds the denormalized audit rows for the current result
// set. Callers hold s.mu.
func (s *Proofdesk) auditRowsLocked(userID string) []*model.AuditRow {
	return s.auditRowsForLocked(s.results, userID)
}

// auditRowsForLocked denormalizes the given rows with their batch header
// metadata. Batch metadata wins over the merged header; the header fills
// gaps. Callers hold s.mu.
func (s *Proofdesk) auditRowsForLocked(results model.ResultSet, userID string) []*model.AuditRow {
	metaBySheet := make(map[string]model.BatchMeta)
	totalBySheet := make(map[string]float64)
	for _, b := range append(append([]*model.Batch{}, s.prevBatches...), s.currBatches...) {
		meta := b.Meta
		meta.Merge(s.header)
		metaBySheet[b.SheetName] = meta
		totalBySheet[b.SheetName] += b.ProofTotal
	}

	rows := make([]*model.AuditRow, 0, len(results))
	for _, r := range results {
		meta := metaBySheet[r.SheetName]
		row := &model.AuditRow{
			TransactionRow: *r,
			BranchCode:     meta.BranchCode,
			BranchName:     meta.BranchName,
			AccountName:    meta.AccountName,
			AccountNo:      meta.AccountNo,
			Currency:       meta.Currency,
			Maker:          meta.Maker,
			Checker:        meta.Checker,
			Rico:           meta.Rico,
			Clco:           meta.Clco,
			ProofTotal:     totalBySheet[r.SheetName],
			UserID:         userID,
		}
		if bal, ok := s.systemBalanceLocked(r.SheetName); ok {
			row.SystemBalance = &bal
		}
		rows = append(rows, row)
	}
	return rows
}
