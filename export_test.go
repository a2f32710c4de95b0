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
	"github.com/stretchr/testify/require"

	"github.com/proofdesk/proofdesk/internal/apierror"
	"github.com/proofdesk/proofdesk/model"
)

func TestExportResults(t *testing.T) {
	engine, _ := newTestEngine(t)
	loadBatch(engine, TargetPrevious, "prev", row(t, "prev", "JOHN DOE TRANSFER", -1000))
	engine.results = model.ResultSet{
		row(t, "prev", "JOHN DOE TRANSFER", -1000),
		row(t, "prev", "SALARY PAYMENT MARCH", 250),
	}

	book, err := engine.ExportResults(ExportFilter{}, "op_1")
	require.NoError(t, err)
	defer book.Close()

	sheet := book.GetSheetName(0)
	header, err := book.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	narration, err := book.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "JOHN DOE TRANSFER", narration)

	user, err := book.GetCellValue(sheet, "U3")
	require.NoError(t, err)
	assert.Equal(t, "op_1", user)
}

func TestExportResults_StatusFilter(t *testing.T) {
	engine, _ := newTestEngine(t)
	matched := row(t, "prev", "MATCHED ROW", -100)
	matched.Status = model.StatusMatched
	engine.results = model.ResultSet{matched, row(t, "prev", "PENDING ROW", 50)}

	book, err := engine.ExportResults(ExportFilter{Status: model.StatusMatched}, "op_1")
	require.NoError(t, err)
	defer book.Close()

	sheet := book.GetSheetName(0)
	narration, err := book.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "MATCHED ROW", narration)

	// Only the header and the matched row exist.
	empty, err := book.GetCellValue(sheet, "B3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestExportResults_EmptySelection(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ExportResults(ExportFilter{Sheet: "Nope"}, "op_1")
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}
