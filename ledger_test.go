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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/proofdesk/proofdesk/database/mocks"
	"github.com/proofdesk/proofdesk/internal/apierror"
	"github.com/proofdesk/proofdesk/model"
)

func TestPendingSum_ScopedAndGlobal(t *testing.T) {
	engine := newEngine(nil, nil)
	engine.results = model.ResultSet{
		row(t, "SheetA", "PENDING ONE", -1000),
		row(t, "SheetA", "PENDING TWO", 500),
		row(t, "SheetB", "PENDING THREE", 250),
	}
	matchedRow := row(t, "SheetA", "ALREADY MATCHED", -300)
	matchedRow.Status = model.StatusMatched
	engine.results = append(engine.results, matchedRow)

	assert.Equal(t, 1500.0, engine.PendingSum("SheetA"))
	assert.Equal(t, 250.0, engine.PendingSum("SheetB"))
	assert.Equal(t, 1750.0, engine.PendingSum(""))
}

func TestMatchedSummary_HalvesPairValue(t *testing.T) {
	engine := newEngine(nil, nil)
	debit := row(t, "SheetA", "PAIR LEG", -800)
	debit.Status = model.StatusMatched
	credit := row(t, "SheetA", "PAIR LEG", 800)
	credit.Status = model.StatusMatched
	auto1 := row(t, "SheetA", "KNOCKED", -200)
	auto1.Status = model.StatusAuto
	auto2 := row(t, "SheetA", "KNOCKED", 200)
	auto2.Status = model.StatusAuto
	engine.results = model.ResultSet{debit, credit, auto1, auto2, row(t, "SheetA", "STILL PENDING", 50)}

	summary := engine.MatchedSummary("SheetA")
	assert.Equal(t, 4, summary.Count)
	// Both legs of each pair sit in the result set; the amount is halved.
	assert.Equal(t, 1000.0, summary.Amount)
}

func TestDiff_BalancedSheet(t *testing.T) {
	engine := newEngine(nil, nil)
	engine.results = model.ResultSet{
		row(t, "SheetA", "PENDING ONE", -3000),
		row(t, "SheetA", "PENDING TWO", 2000),
	}

	locked, err := engine.LockSystemBalance("SheetA", "5,000.00")
	assert.NoError(t, err)
	assert.Equal(t, 5000.0, locked)

	diff, ok := engine.Diff("SheetA")
	assert.True(t, ok)
	assert.Equal(t, 0.0, diff)
}

func TestDiff_UndefinedWithoutBalance(t *testing.T) {
	engine := newEngine(nil, nil)
	engine.results = model.ResultSet{row(t, "SheetA", "PENDING", 100)}

	_, ok := engine.Diff("SheetA")
	assert.False(t, ok, "diff must be undefined, not zero, without a balance")
}

func TestLockSystemBalance_Immutable(t *testing.T) {
	engine := newEngine(nil, nil)

	_, err := engine.LockSystemBalance("SheetA", "5000")
	assert.NoError(t, err)

	_, err = engine.LockSystemBalance("SheetA", "9000")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)

	bal, ok := engine.SystemBalance("SheetA")
	assert.True(t, ok)
	assert.Equal(t, 5000.0, bal)
}

func TestLockSystemBalance_RejectsNonNumeric(t *testing.T) {
	engine := newEngine(nil, nil)

	for _, input := range []string{"", "not a number", "--"} {
		_, err := engine.LockSystemBalance("SheetA", input)
		assert.Error(t, err, "input %q", input)
	}

	_, ok := engine.SystemBalance("SheetA")
	assert.False(t, ok, "no balance may be stored after a rejected lock")
}

func TestLockSystemBalance_TolerantParsing(t *testing.T) {
	engine := newEngine(nil, nil)

	locked, err := engine.LockSystemBalance("SheetA", "₦(2,500.75)")
	assert.NoError(t, err)
	assert.Equal(t, -2500.75, locked)
}

func TestSubmitProof(t *testing.T) {
	engine := newEngine(nil, nil)
	engine.proofs["SheetA"] = &model.ProofRecord{
		SheetName:  "SheetA",
		MatchedSum: 1200,
		ItemCount:  6,
		Status:     model.SubmissionPending,
	}

	record, err := engine.SubmitProof("SheetA", "op_42")
	assert.NoError(t, err)
	assert.Equal(t, model.SubmissionSubmitted, record.Status)
	assert.Equal(t, "op_42", record.SubmittedBy)
	assert.NotNil(t, record.SubmittedAt)

	// Submission is one-way.
	_, err = engine.SubmitProof("SheetA", "op_43")
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestSubmitProof_RequiresOperator(t *testing.T) {
	engine := newEngine(nil, nil)
	engine.proofs["SheetA"] = &model.ProofRecord{SheetName: "SheetA", Status: model.SubmissionPending}

	_, err := engine.SubmitProof("SheetA", "")
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)

	// No partial state change.
	assert.Equal(t, model.SubmissionPending, engine.proofs["SheetA"].Status)
}

func TestSubmitProof_UnknownSheet(t *testing.T) {
	engine := newEngine(nil, nil)

	_, err := engine.SubmitProof("Nope", "op_1")
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestProof_LiveRecordWins(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := newEngine(mockDS, nil)
	engine.proofs["SheetA"] = &model.ProofRecord{SheetName: "SheetA", MatchedSum: 1200}

	record, err := engine.Proof(context.Background(), "SheetA")
	assert.NoError(t, err)
	assert.Equal(t, 1200.0, record.MatchedSum)
	mockDS.AssertNotCalled(t, "GetProof", mock.Anything, mock.Anything)
}

func TestProof_FallsBackToStore(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := newEngine(mockDS, nil)
	stored := &model.ProofRecord{SheetName: "SheetA", MatchedSum: 900, Status: model.SubmissionSubmitted}
	mockDS.On("GetProof", mock.Anything, "SheetA").Return(stored, nil)

	record, err := engine.Proof(context.Background(), "SheetA")
	assert.NoError(t, err)
	assert.Equal(t, stored, record)
	mockDS.AssertExpectations(t)
}

func TestProof_UnknownEverywhere(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := newEngine(mockDS, nil)
	mockDS.On("GetProof", mock.Anything, "Nope").Return(nil, errors.New("not found"))

	_, err := engine.Proof(context.Background(), "Nope")
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestProofs_MergePersistedRecords(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := newEngine(mockDS, nil)
	engine.proofs["SheetA"] = &model.ProofRecord{SheetName: "SheetA", MatchedSum: 1200}
	mockDS.On("GetProofs", mock.Anything).Return([]*model.ProofRecord{
		{SheetName: "SheetA", MatchedSum: 100},
		{SheetName: "SheetB", MatchedSum: 400},
	}, nil)

	proofs := engine.Proofs(context.Background())
	assert.Len(t, proofs, 2)
	assert.Equal(t, 1200.0, proofs["SheetA"].MatchedSum, "live record wins over the stored one")
	assert.Equal(t, 400.0, proofs["SheetB"].MatchedSum)
}

func TestProofs_StoreFailureDegradesToLive(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := newEngine(mockDS, nil)
	engine.proofs["SheetA"] = &model.ProofRecord{SheetName: "SheetA"}
	mockDS.On("GetProofs", mock.Anything).Return(nil, errors.New("db down"))

	proofs := engine.Proofs(context.Background())
	assert.Len(t, proofs, 1)
}

func TestRecordProofLocked_MatchedSumDebitSideOnly(t *testing.T) {
	engine := newEngine(nil, nil)
	debit := row(t, "SheetA", "PAIR", -750)
	credit := row(t, "SheetB", "PAIR", 750)
	pairs := []model.MatchPair{{Debit: debit, Credit: credit}}

	engine.recordProofLocked("SheetA", pairs, 2)

	record := engine.proofs["SheetA"]
	assert.Equal(t, 750.0, record.MatchedSum)
	assert.Equal(t, 2, record.ItemCount)
	assert.Equal(t, model.SubmissionPending, record.Status)

	// The credit leg belongs to SheetB; SheetA's sum ignores it.
	engine.recordProofLocked("SheetB", pairs, 2)
	assert.Equal(t, 0.0, engine.proofs["SheetB"].MatchedSum)
}
