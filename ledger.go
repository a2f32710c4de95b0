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
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"

	"github.com/proofdesk/proofdesk/internal/apierror"
	"github.com/proofdesk/proofdesk/model"
)

// recordProofLocked refreshes the proof record for one sheet after a
// reconciliation run. MatchedSum is the sum of absolute amounts over the
// debit leg of the sheet's matched pairs; counting one leg avoids doubling
// the pair value. Callers hold s.mu.
func (s *Proofdesk) recordProofLocked(sheet string, pairs []model.MatchPair, itemCount int) {
	sum := decimal.Zero
	for _, p := range pairs {
		if p.Debit != nil && p.Debit.SheetName == sheet {
			sum = sum.Add(decimal.NewFromFloat(p.Debit.AmountAbs))
		}
	}

	matchedSum, _ := sum.Float64()
	s.proofs[sheet] = &model.ProofRecord{
		SheetName:  sheet,
		MatchedSum: matchedSum,
		ItemCount:  itemCount,
		Status:     model.SubmissionPending,
	}
}

// PendingSum returns the sum of absolute amounts over unresolved rows,
// scoped to one sheet or, with an empty sheet name, to the whole workspace.
//
// Parameters:
// - sheet: The sheet to scope to. Empty means all sheets.
//
// Returns:
// - float64: The sum of AmountAbs over rows still pending.
func (s *Proofdesk) PendingSum(sheet string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingSumLocked(sheet)
}

func (s *Proofdesk) pendingSumLocked(sheet string) float64 {
	sum := decimal.Zero
	for _, r := range s.results {
		if r.Status != model.StatusPending {
			continue
		}
		if sheet != "" && r.SheetName != sheet {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(r.AmountAbs))
	}
	f, _ := sum.Float64()
	return f
}

// MatchedSummary returns the count of resolved rows and their halved amount
// total. Matched and auto rows both appear twice in the result set (one row
// per leg), so the raw sum counts every pair twice; halving restores the
// per-pair value.
//
// Parameters:
// - sheet: The sheet to scope to. Empty means all sheets.
//
// Returns:
// - model.MatchedSummary: Resolved row count and halved amount sum.
func (s *Proofdesk) MatchedSummary(sheet string) model.MatchedSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	sum := decimal.Zero
	for _, r := range s.results {
		if r.Status != model.StatusMatched && r.Status != model.StatusAuto {
			continue
		}
		if sheet != "" && r.SheetName != sheet {
			continue
		}
		count++
		sum = sum.Add(decimal.NewFromFloat(r.AmountAbs))
	}

	amount, _ := sum.Div(decimal.NewFromInt(2)).Float64()
	return model.MatchedSummary{Count: count, Amount: amount}
}

// SystemBalance returns the balance in force for the given scope. A balance
// locked for the sheet itself wins; otherwise a balance carried by the
// statement header applies. The second return is false when neither exists.
func (s *Proofdesk) SystemBalance(sheet string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemBalanceLocked(sheet)
}

func (s *Proofdesk) systemBalanceLocked(sheet string) (float64, bool) {
	if bal, ok := s.sheetBalances[sheet]; ok {
		return bal, true
	}
	if s.header.SystemBalance != nil {
		return *s.header.SystemBalance, true
	}
	if sheet == "" && len(s.sheetBalances) > 0 {
		sum := decimal.Zero
		for _, bal := range s.sheetBalances {
			sum = sum.Add(decimal.NewFromFloat(bal))
		}
		f, _ := sum.Float64()
		return f, true
	}
	return 0, false
}

// Diff returns pendingSum minus the system balance for the given scope.
// Without a system balance the diff is undefined and the second return is
// false; callers must render that distinctly from a zero diff. A zero diff
// means the scope is balanced.
//
// Parameters:
// - sheet: The sheet to scope to. Empty means all sheets.
//
// Returns:
// - float64: The difference, meaningful only when ok is true.
// - bool: False when no system balance is in force for the scope.
func (s *Proofdesk) Diff(sheet string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.systemBalanceLocked(sheet)
	if !ok {
		return 0, false
	}

	pending := decimal.NewFromFloat(s.pendingSumLocked(sheet))
	diff, _ := pending.Sub(decimal.NewFromFloat(balance)).Float64()
	return diff, true
}

// LockSystemBalance records the operator-entered system balance for a scope
// and freezes it. A locked balance can never be changed or overwritten, by
// the operator or by later imports; re-locking requires a full reset.
//
// Parameters:
// - sheet: The sheet the balance belongs to. Empty means workspace-wide.
// - input: The balance as typed. Tolerant parsing applies.
//
// Returns:
// - float64: The parsed balance now in force.
// - error: ErrInvalidInput for non-numeric input, ErrConflict when already locked.
func (s *Proofdesk) LockSystemBalance(sheet string, input string) (float64, error) {
	if err := validation.Validate(input, validation.Required); err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInvalidInput, "System balance is required", err.Error())
	}

	parsed := model.ParseAmount(input)
	if parsed.Value == 0 {
		return 0, apierror.NewAPIError(apierror.ErrInvalidInput, "System balance must be a number",
			fmt.Sprintf("could not parse %q as an amount", input))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sheetBalances[sheet]; ok {
		return 0, apierror.NewAPIError(apierror.ErrConflict, "System balance is already locked",
			fmt.Sprintf("sheet %q", sheet))
	}

	s.sheetBalances[sheet] = parsed.Value
	return parsed.Value, nil
}

// SubmitProof hands over a sheet's proof. The transition from pending to
// submitted is one-way; redoing a submitted sheet requires an explicit
// reset outside this operation.
//
// Parameters:
// - sheet: The sheet whose proof is being submitted.
// - submittedBy: Identifier of the submitting operator. Required.
//
// Returns:
// - *model.ProofRecord: A copy of the submitted record.
// - error: ErrInvalidInput, ErrNotFound or ErrConflict.
func (s *Proofdesk) SubmitProof(sheet string, submittedBy string) (*model.ProofRecord, error) {
	if err := validation.Validate(submittedBy, validation.Required); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Submitting operator id is required", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.proofs[sheet]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "No proof recorded for sheet",
			fmt.Sprintf("sheet %q", sheet))
	}
	if record.Status == model.SubmissionSubmitted {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "Proof has already been submitted",
			fmt.Sprintf("sheet %q submitted by %s", sheet, record.SubmittedBy))
	}

	record.Status = model.SubmissionSubmitted
	record.SubmittedBy = submittedBy
	record.SubmittedAt = ptr.Time(time.Now())

	copied := *record
	return &copied, nil
}

// Proof returns a copy of the proof record for one sheet. A sheet absent
// from the live workspace falls back to the record persisted by an earlier
// run, so submitted proofs stay readable across restarts.
func (s *Proofdesk) Proof(ctx context.Context, sheet string) (*model.ProofRecord, error) {
	s.mu.Lock()
	record, ok := s.proofs[sheet]
	if ok {
		copied := *record
		s.mu.Unlock()
		return &copied, nil
	}
	ds := s.datasource
	s.mu.Unlock()

	if ds != nil {
		stored, err := ds.GetProof(ctx, sheet)
		if err == nil && stored != nil {
			return stored, nil
		}
	}
	return nil, apierror.NewAPIError(apierror.ErrNotFound, "No proof recorded for sheet",
		fmt.Sprintf("sheet %q", sheet))
}

// Proofs returns copies of every proof record, keyed by sheet. Records
// persisted by earlier runs are included; a live record for the same sheet
// wins over the stored one. A datasource failure degrades to the live
// records only.
func (s *Proofdesk) Proofs(ctx context.Context) map[string]*model.ProofRecord {
	s.mu.Lock()
	out := s.proofsCopyLocked()
	ds := s.datasource
	s.mu.Unlock()

	if ds == nil {
		return out
	}
	stored, err := ds.GetProofs(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to load persisted proof records")
		return out
	}
	for _, record := range stored {
		if _, ok := out[record.SheetName]; !ok {
			out[record.SheetName] = record
		}
	}
	return out
}
