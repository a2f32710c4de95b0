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

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"github.com/proofdesk/proofdesk/model"
)

func auditRow(i int) *model.AuditRow {
	return &model.AuditRow{
		TransactionRow: model.TransactionRow{
			RowID:        fmt.Sprintf("row_%d", i),
			SheetName:    "Sheet1",
			Narration:    gofakeit.Sentence(4),
			SignedAmount: -1000,
			AmountAbs:    1000,
			AmountType:   model.SideDebit,
			Side:         model.SideDebit,
			Status:       model.StatusMatched,
		},
		BranchCode: "001",
		ProofTotal: 1000,
		UserID:     "teller_9",
	}
}

func TestRecordResultRows_SingleChunk(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	rows := []*model.AuditRow{auditRow(1), auditRow(2)}
	mock.ExpectExec("INSERT INTO reconciliation_results").
		WillReturnResult(sqlmock.NewResult(1, 2))

	err = ds.RecordResultRows(context.TODO(), rows)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordResultRows_ChunksOfTwoHundred(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	rows := make([]*model.AuditRow, 401)
	for i := range rows {
		rows[i] = auditRow(i)
	}

	// 401 rows split into chunks of 200, 200 and 1.
	mock.ExpectExec("INSERT INTO reconciliation_results").
		WillReturnResult(sqlmock.NewResult(1, 200))
	mock.ExpectExec("INSERT INTO reconciliation_results").
		WillReturnResult(sqlmock.NewResult(1, 200))
	mock.ExpectExec("INSERT INTO reconciliation_results").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = ds.RecordResultRows(context.TODO(), rows)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordResultRows_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	err = ds.RecordResultRows(context.TODO(), nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordResultRows_Fail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO reconciliation_results").
		WillReturnError(fmt.Errorf("insert failed"))

	err = ds.RecordResultRows(context.TODO(), []*model.AuditRow{auditRow(1)})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
}

func TestGetResultRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	columns := []string{
		"row_id", "sheet_name", "date", "narration", "original_amount",
		"signed_amount", "amount_abs", "amount_type", "age",
		"prefix_key", "suffix_key", "side", "status",
		"branch_code", "branch_name", "account_name", "account_no", "currency",
		"maker", "checker", "rico", "clco",
		"proof_total", "system_balance", "user_id",
	}
	mock.ExpectQuery("SELECT (.+) FROM reconciliation_results").
		WithArgs("Sheet1", 10, 0).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"row_1", "Sheet1", "01-Mar-2024", "JOHN DOE TRANSFER", "-1,000.00",
			-1000.0, 1000.0, "debit", "",
			"JOHN DOE TRANSF_1000", "N DOE TRANSFER_1000", "debit", "matched",
			"001", "", "", "", "NGN",
			"", "", "", "",
			1000.0, 5000.0, "teller_9",
		))

	rows, err := ds.GetResultRows(context.TODO(), "Sheet1", 10, 0)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "row_1", rows[0].RowID)
	assert.Equal(t, model.StatusMatched, rows[0].Status)
	assert.NotNil(t, rows[0].SystemBalance)
	assert.Equal(t, 5000.0, *rows[0].SystemBalance)
}

func TestRecordProof(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	submittedAt := time.Now()
	record := &model.ProofRecord{
		SheetName:   "Sheet1",
		MatchedSum:  1500,
		ItemCount:   12,
		Status:      model.SubmissionSubmitted,
		SubmittedBy: "op_1",
		SubmittedAt: &submittedAt,
	}

	mock.ExpectExec("INSERT INTO proof_records").
		WithArgs(record.SheetName, record.MatchedSum, record.ItemCount,
			record.Status, record.SubmittedBy, record.SubmittedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = ds.RecordProof(context.TODO(), record)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProof_NotSubmitted(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT (.+) FROM proof_records").
		WithArgs("Sheet1").
		WillReturnRows(sqlmock.NewRows([]string{
			"sheet_name", "matched_sum", "item_count", "status", "submitted_by", "submitted_at",
		}).AddRow("Sheet1", 1500.0, 12, "pending", nil, nil))

	record, err := ds.GetProof(context.TODO(), "Sheet1")
	assert.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, record.Status)
	assert.Empty(t, record.SubmittedBy)
	assert.Nil(t, record.SubmittedAt)
}
