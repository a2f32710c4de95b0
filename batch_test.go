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
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/proofdesk/proofdesk/internal/apierror"
	"github.com/proofdesk/proofdesk/model"
)

const statementCSV = `Branch Code,001,,
Account Name,Suspense GL,,
System Balance,"5,000.00",,
Tran Date,Narration,Amount,Age
2024-03-01,JOHN DOE TRANSFER,"-1,000.00",3
2024-03-02,SALARY PAYMENT MARCH,250.00,1
,,,
2024-03-03,BROKEN AMOUNT,abc,2
`

func TestImportStatement_CSV(t *testing.T) {
	engine, _ := newTestEngine(t)

	pending, err := engine.ImportStatement(context.Background(),
		strings.NewReader(statementCSV), "previous_day.csv", TargetPrevious)
	require.NoError(t, err)
	require.Len(t, pending.Sheets, 1)
	assert.Equal(t, "previous_day", pending.Sheets[0].Name)
	assert.Equal(t, 3, pending.Sheets[0].RowCount, "blank row dropped at extraction")

	batches, err := engine.ConfirmSheets(context.Background(), pending.ImportID, []string{"previous_day"})
	require.NoError(t, err)
	require.Len(t, batches, 1)

	batch := batches[0]
	assert.Equal(t, model.SideDebit, batch.Side)
	require.Len(t, batch.Rows, 3)
	assert.Equal(t, -1000.0, batch.Rows[0].SignedAmount)
	assert.Equal(t, "01-Mar-2024", batch.Rows[0].Date)

	// The unparseable amount row is retained for audit but excluded from
	// matching.
	broken := batch.Rows[2]
	assert.Equal(t, "abc", broken.OriginalAmount)
	assert.Equal(t, 0.0, broken.SignedAmount)
	assert.False(t, broken.Matchable())

	// Metadata scan filled the header.
	assert.Equal(t, "001", engine.header.BranchCode)
	assert.Equal(t, "Suspense GL", engine.header.AccountName)
	require.NotNil(t, engine.header.SystemBalance)
	assert.Equal(t, 5000.0, *engine.header.SystemBalance)

	// Import id is consumed.
	_, err = engine.ConfirmSheets(context.Background(), pending.ImportID, []string{"previous_day"})
	assert.Error(t, err)
}

func multiSheetWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	book := excelize.NewFile()
	first := book.GetSheetName(0)

	require.NoError(t, book.SetCellValue(first, "A1", "Tran Date"))
	require.NoError(t, book.SetCellValue(first, "B1", "Narration"))
	require.NoError(t, book.SetCellValue(first, "C1", "Amount"))
	require.NoError(t, book.SetCellValue(first, "A2", "2024-03-01"))
	require.NoError(t, book.SetCellValue(first, "B2", "X"))
	require.NoError(t, book.SetCellValue(first, "C2", "-500"))
	require.NoError(t, book.SetCellValue(first, "A3", "2024-03-01"))
	require.NoError(t, book.SetCellValue(first, "B3", "X"))
	require.NoError(t, book.SetCellValue(first, "C3", "500"))
	require.NoError(t, book.SetCellValue(first, "A4", "2024-03-02"))
	require.NoError(t, book.SetCellValue(first, "B4", "LODGEMENT GAMMA"))
	require.NoError(t, book.SetCellValue(first, "C4", "120"))

	_, err := book.NewSheet("Branch B")
	require.NoError(t, err)
	require.NoError(t, book.SetCellValue("Branch B", "A1", "Tran Date"))
	require.NoError(t, book.SetCellValue("Branch B", "B1", "Narration"))
	require.NoError(t, book.SetCellValue("Branch B", "C1", "Amount"))
	require.NoError(t, book.SetCellValue("Branch B", "A2", "2024-03-02"))
	require.NoError(t, book.SetCellValue("Branch B", "B2", "OTHER BRANCH ROW"))
	require.NoError(t, book.SetCellValue("Branch B", "C2", "75"))

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportStatement_MultiSheetSelection(t *testing.T) {
	engine, _ := newTestEngine(t)

	pending, err := engine.ImportStatement(context.Background(),
		multiSheetWorkbook(t), "current_day.xlsx", TargetCurrent)
	require.NoError(t, err)
	require.Len(t, pending.Sheets, 2)

	// Confirm only the first sheet; the second stays out of the workspace.
	batches, err := engine.ConfirmSheets(context.Background(), pending.ImportID, []string{pending.Sheets[0].Name})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Len(t, engine.Batches(TargetCurrent), 1)
}

func TestConfirmSheets_CurrentSideRunsKnockOff(t *testing.T) {
	engine, _ := newTestEngine(t)

	pending, err := engine.ImportStatement(context.Background(),
		multiSheetWorkbook(t), "current_day.xlsx", TargetCurrent)
	require.NoError(t, err)

	batches, err := engine.ConfirmSheets(context.Background(), pending.ImportID, []string{pending.Sheets[0].Name})
	require.NoError(t, err)

	// The -500/+500 "X" reversal pair knocked off; only the lodgement stays.
	require.Len(t, batches[0].Rows, 1)
	assert.Equal(t, "LODGEMENT GAMMA", batches[0].Rows[0].Narration)

	knocked := engine.KnockedOff()
	require.Len(t, knocked, 2)
	for _, r := range knocked {
		assert.Equal(t, model.StatusAuto, r.Status)
		assert.Equal(t, batches[0].SheetName, r.SheetName, "knock-off never crosses sheets")
	}
}

func TestConfirmSheets_PreviousSideSkipsKnockOff(t *testing.T) {
	engine, _ := newTestEngine(t)

	pending, err := engine.ImportStatement(context.Background(),
		multiSheetWorkbook(t), "previous_day.xlsx", TargetPrevious)
	require.NoError(t, err)

	batches, err := engine.ConfirmSheets(context.Background(), pending.ImportID, []string{pending.Sheets[0].Name})
	require.NoError(t, err)
	assert.Len(t, batches[0].Rows, 3)
	assert.Empty(t, engine.KnockedOff())
}

func TestConfirmSheets_Validation(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ConfirmSheets(context.Background(), "import_missing", []string{"Sheet1"})
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)

	pending, err := engine.ImportStatement(context.Background(),
		multiSheetWorkbook(t), "current_day.xlsx", TargetCurrent)
	require.NoError(t, err)

	_, err = engine.ConfirmSheets(context.Background(), pending.ImportID, nil)
	apiErr, ok = err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.ErrBadRequest, apiErr.Code)

	_, err = engine.ConfirmSheets(context.Background(), pending.ImportID, []string{"No Such Sheet"})
	apiErr, ok = err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestImportStatement_UnknownTarget(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ImportStatement(context.Background(),
		strings.NewReader(statementCSV), "x.csv", ImportTarget("sideways"))
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.ErrBadRequest, apiErr.Code)
}

func TestImportNeverOverwritesLockedBalance(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.LockSystemBalance("", "9,999")
	require.NoError(t, err)

	pending, err := engine.ImportStatement(context.Background(),
		strings.NewReader(statementCSV), "previous_day.csv", TargetPrevious)
	require.NoError(t, err)
	_, err = engine.ConfirmSheets(context.Background(), pending.ImportID, []string{"previous_day"})
	require.NoError(t, err)

	assert.Nil(t, engine.header.SystemBalance, "statement balance must not shadow a locked one")
	bal, ok := engine.SystemBalance("")
	require.True(t, ok)
	assert.Equal(t, 9999.0, bal)
}

func TestClearWorkspace(t *testing.T) {
	engine, _ := newTestEngine(t)
	loadBatch(engine, TargetCurrent, "curr", row(t, "curr", "ANY ROW", 10))
	engine.results = model.ResultSet{row(t, "curr", "ANY ROW", 10)}
	_, err := engine.LockSystemBalance("curr", "100")
	require.NoError(t, err)

	engine.ClearWorkspace()

	assert.Empty(t, engine.Batches(TargetCurrent))
	assert.Empty(t, engine.Results())
	_, ok := engine.SystemBalance("curr")
	assert.False(t, ok)
}
