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

// KnockOffResult separates a batch into the rows that survive intra-batch
// deduplication and the pairs it resolved.
type KnockOffResult struct {
	Remaining  []*model.TransactionRow
	KnockedOff []*model.TransactionRow
}

// AutoKnockOff scans a single freshly normalized batch and removes pairs of
// opposite-sign, equal-absolute-amount, fingerprint-overlapping rows before
// the batch ever participates in cross-batch matching. It clears same-file
// reversal/correction pairs, e.g. a teller's own debit and credit of the
// same transaction.
//
// The scan is greedy: for each unconsumed row the first qualifying later
// partner wins, both rows are consumed and tagged StatusAuto, and later
// potential partners are ignored. Zero amounts never qualify. The input is
// not mutated; knocked-off rows are copies.
//
// Parameters:
// - rows: The row list of one batch, in original order.
//
// Returns:
// - KnockOffResult: Surviving rows (original order) and resolved pairs.
func AutoKnockOff(rows []*model.TransactionRow) KnockOffResult {
	used := make(map[int]bool)
	var knockedOff []*model.TransactionRow

	for i := 0; i < len(rows); i++ {
		if used[i] {
			continue
		}
		a := rows[i]
		for j := i + 1; j < len(rows); j++ {
			if used[j] {
				continue
			}
			b := rows[j]
			if a.AmountAbs != b.AmountAbs {
				continue
			}
			// Strictly opposite signs; zero amounts never match.
			if a.SignedAmount*b.SignedAmount >= 0 {
				continue
			}
			if !fingerprintsOverlap(a, b) {
				continue
			}

			used[i] = true
			used[j] = true
			aCopy := a.Copy()
			bCopy := b.Copy()
			aCopy.Status = model.StatusAuto
			bCopy.Status = model.StatusAuto
			knockedOff = append(knockedOff, aCopy, bCopy)
			break
		}
	}

	remaining := make([]*model.TransactionRow, 0, len(rows))
	for i, r := range rows {
		if !used[i] {
			remaining = append(remaining, r)
		}
	}

	return KnockOffResult{Remaining: remaining, KnockedOff: knockedOff}
}

// fingerprintsOverlap reports whether any of the four prefix/suffix key
// cross-combinations of two rows are equal. Narration truncation differs
// between source systems, so either end may be the reliable one.
func fingerprintsOverlap(a, b *model.TransactionRow) bool {
	return a.PrefixKey == b.PrefixKey ||
		a.PrefixKey == b.SuffixKey ||
		a.SuffixKey == b.PrefixKey ||
		a.SuffixKey == b.SuffixKey
}
