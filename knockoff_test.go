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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/proofdesk/proofdesk/model"
)

func TestAutoKnockOff_ReversalPair(t *testing.T) {
	rows := []*model.TransactionRow{
		row(t, "curr", "X", -500),
		row(t, "curr", "X", 500),
	}

	result := AutoKnockOff(rows)

	assert.Empty(t, result.Remaining)
	assert.Len(t, result.KnockedOff, 2)
	for _, r := range result.KnockedOff {
		assert.Equal(t, model.StatusAuto, r.Status)
	}
	// Input rows stay untouched; knocked-off rows are copies.
	for _, r := range rows {
		assert.Equal(t, model.StatusPending, r.Status)
	}
}

func TestAutoKnockOff_SameSignNeverPairs(t *testing.T) {
	rows := []*model.TransactionRow{
		row(t, "curr", "TELLER POSTING", 500),
		row(t, "curr", "TELLER POSTING", 500),
	}

	result := AutoKnockOff(rows)
	assert.Len(t, result.Remaining, 2)
	assert.Empty(t, result.KnockedOff)
}

func TestAutoKnockOff_ZeroAmountsNeverPair(t *testing.T) {
	a := row(t, "curr", "BROKEN AMOUNT", 1)
	a.SignedAmount = 0
	a.AmountAbs = 0
	b := row(t, "curr", "BROKEN AMOUNT", 1)
	b.SignedAmount = 0
	b.AmountAbs = 0

	result := AutoKnockOff([]*model.TransactionRow{a, b})
	assert.Len(t, result.Remaining, 2)
	assert.Empty(t, result.KnockedOff)
}

func TestAutoKnockOff_FirstQualifyingPartnerWins(t *testing.T) {
	first := row(t, "curr", "REVERSAL TEST", -100)
	second := row(t, "curr", "REVERSAL TEST", 100)
	third := row(t, "curr", "REVERSAL TEST", 100)

	result := AutoKnockOff([]*model.TransactionRow{first, second, third})

	assert.Len(t, result.KnockedOff, 2)
	assert.Equal(t, first.RowID, result.KnockedOff[0].RowID)
	assert.Equal(t, second.RowID, result.KnockedOff[1].RowID)
	assert.Len(t, result.Remaining, 1)
	assert.Equal(t, third.RowID, result.Remaining[0].RowID)
}

func TestAutoKnockOff_RequiresFingerprintOverlap(t *testing.T) {
	rows := []*model.TransactionRow{
		row(t, "curr", "COMPLETELY DIFFERENT NARRATION ONE", -250),
		row(t, "curr", "ANOTHER UNRELATED STORY ENTIRELY", 250),
	}

	result := AutoKnockOff(rows)
	assert.Len(t, result.Remaining, 2)
	assert.Empty(t, result.KnockedOff)
}
