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
package model

import "time"

// BatchMeta is header metadata shared by every row of a batch. It attaches
// to the batch, not the row, and is denormalized onto exported rows for
// audit.
type BatchMeta struct {
	BranchCode  string `json:"branch_code,omitempty"`
	BranchName  string `json:"branch_name,omitempty"`
	AccountName string `json:"account_name,omitempty"`
	AccountNo   string `json:"account_no,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Maker       string `json:"maker,omitempty"`
	Checker     string `json:"checker,omitempty"`
	Rico        string `json:"rico,omitempty"`
	Clco        string `json:"clco,omitempty"`

	// SystemBalance and ProofTotal are present only when the statement
	// header carried them.
	SystemBalance *float64 `json:"system_balance,omitempty"`
	ProofTotal    *float64 `json:"proof_total,omitempty"`
}

// Merge fills empty fields of m from other without overwriting anything
// already set.
func (m *BatchMeta) Merge(other BatchMeta) {
	if m.BranchCode == "" {
		m.BranchCode = other.BranchCode
	}
	if m.BranchName == "" {
		m.BranchName = other.BranchName
	}
	if m.AccountName == "" {
		m.AccountName = other.AccountName
	}
	if m.AccountNo == "" {
		m.AccountNo = other.AccountNo
	}
	if m.Currency == "" {
		m.Currency = other.Currency
	}
	if m.Maker == "" {
		m.Maker = other.Maker
	}
	if m.Checker == "" {
		m.Checker = other.Checker
	}
	if m.Rico == "" {
		m.Rico = other.Rico
	}
	if m.Clco == "" {
		m.Clco = other.Clco
	}
}

// Batch is one uploaded or extracted set of rows sharing a source sheet.
// The row list is immutable once stored; matching operates on copies placed
// into the result set.
type Batch struct {
	BatchID    string            `json:"batch_id"`
	SheetName  string            `json:"sheet_name"`
	FileName   string            `json:"file_name,omitempty"`
	Side       Side              `json:"side"`
	Rows       []*TransactionRow `json:"rows"`
	ProofTotal float64           `json:"proof_total"`
	Meta       BatchMeta         `json:"meta"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ResultSet is the mutable working state produced by a reconciliation run
// and subsequently edited by manual matching, reset and undo.
type ResultSet []*TransactionRow

// Copy deep-copies the result set so snapshots stay independent of later
// edits.
func (rs ResultSet) Copy() ResultSet {
	out := make(ResultSet, len(rs))
	for i, r := range rs {
		out[i] = r.Copy()
	}
	return out
}

// IndexOf locates a row by its id. Positions are only valid until the next
// mutation, which is why ids, not indices, travel across operations.
func (rs ResultSet) IndexOf(rowID string) (int, bool) {
	for i, r := range rs {
		if r.RowID == rowID {
			return i, true
		}
	}
	return 0, false
}

// PendingDebits lists unresolved debit rows in original order.
func (rs ResultSet) PendingDebits() []*TransactionRow {
	var out []*TransactionRow
	for _, r := range rs {
		if r.Status == StatusPending && r.SignedAmount < 0 {
			out = append(out, r)
		}
	}
	return out
}

// PendingCredits lists unresolved credit rows in original order.
func (rs ResultSet) PendingCredits() []*TransactionRow {
	var out []*TransactionRow
	for _, r := range rs {
		if r.Status == StatusPending && r.SignedAmount > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Summary carries the aggregate counts shown beside a result set.
type Summary struct {
	MatchedCount       int `json:"matched_count"`
	PendingDebitCount  int `json:"pending_debit_count"`
	PendingCreditCount int `json:"pending_credit_count"`
}

// MatchPair is one debit row and one credit row judged to represent the
// same transaction.
type MatchPair struct {
	Debit  *TransactionRow `json:"debit"`
	Credit *TransactionRow `json:"credit"`
}

// MatchResult is the outcome of a single cross-batch matching pass.
type MatchResult struct {
	MatchedPairs   []MatchPair       `json:"matched_pairs"`
	PendingDebits  []*TransactionRow `json:"pending_debits"`
	PendingCredits []*TransactionRow `json:"pending_credits"`
}

// SubmissionStatus tracks whether a sheet's proof has been handed over.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted"
)

// ProofRecord is per-sheet proof bookkeeping. MatchedSum equals the sum of
// absolute amounts over one side of the sheet's matched pairs.
type ProofRecord struct {
	SheetName   string           `json:"sheet_name"`
	MatchedSum  float64          `json:"matched_sum"`
	ItemCount   int              `json:"item_count"`
	Status      SubmissionStatus `json:"status"`
	SubmittedBy string           `json:"submitted_by,omitempty"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
}

// MatchedSummary is the matched count/amount pair rendered for a sheet or
// for the whole workspace.
type MatchedSummary struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// UndoSnapshot is one entry in the bounded undo stack: the result set plus
// the aggregates that must travel with it.
type UndoSnapshot struct {
	Results        ResultSet `json:"results"`
	Summary        Summary   `json:"summary"`
	PrevProofTotal float64   `json:"prev_proof_total"`
	CurrProofTotal float64   `json:"curr_proof_total"`
}

// AuditRow is a result row denormalized with its batch header metadata,
// the shape persisted and exported for audit.
type AuditRow struct {
	TransactionRow
	BranchCode    string   `json:"branch_code,omitempty"`
	BranchName    string   `json:"branch_name,omitempty"`
	AccountName   string   `json:"account_name,omitempty"`
	AccountNo     string   `json:"account_no,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Maker         string   `json:"maker,omitempty"`
	Checker       string   `json:"checker,omitempty"`
	Rico          string   `json:"rico,omitempty"`
	Clco          string   `json:"clco,omitempty"`
	ProofTotal    float64  `json:"proof_total"`
	SystemBalance *float64 `json:"system_balance,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
}

// SessionSnapshot is the restorable state of one operator session: all
// batches, the result set, ledger state and header metadata. The undo stack
// is deliberately excluded; history does not survive a restart.
type SessionSnapshot struct {
	SavedAt        time.Time               `json:"saved_at"`
	PrevBatches    []*Batch                `json:"prev_batches"`
	CurrBatches    []*Batch                `json:"curr_batches"`
	KnockedOff     []*TransactionRow       `json:"knocked_off"`
	Results        ResultSet               `json:"results"`
	Summary        Summary                 `json:"summary"`
	Proofs         map[string]*ProofRecord `json:"proofs"`
	SheetBalances  map[string]float64      `json:"sheet_balances"`
	Header         BatchMeta               `json:"header"`
	PrevProofTotal float64                 `json:"prev_proof_total"`
	CurrProofTotal float64                 `json:"curr_proof_total"`
}

// Suggestion is a read-only manual-match candidate ranked by narration
// proximity.
type Suggestion struct {
	Row      *TransactionRow `json:"row"`
	Distance int             `json:"distance"`
}
