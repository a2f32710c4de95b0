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
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/proofdesk/proofdesk/internal/apierror"
	"github.com/proofdesk/proofdesk/model"
)

// ExportFilter narrows which result rows an export includes. Zero values
// mean no filtering on that dimension.
type ExportFilter struct {
	Sheet  string       `json:"sheet,omitempty"`
	Status model.Status `json:"status,omitempty"`
}

// exportHeader is the column order of an exported workbook.
var exportHeader = []string{
	"Date", "Narration", "Original Amount", "Signed Amount", "Amount Type",
	"Age", "Sheet", "Side", "Status",
	"Branch Code", "Branch Name", "Account Name", "Account No", "Currency",
	"Maker", "Checker", "Rico", "Clco",
	"Proof Total", "System Balance", "User ID",
}

// ExportResults renders the result set, optionally filtered, as a workbook
// with the denormalized audit columns. The caller owns writing the file to
// its destination and closing it.
//
// Parameters:
// - filter ExportFilter: Optional sheet/status narrowing.
// - userID string: Opaque operator identifier stamped on every row.
//
// Returns:
// - *excelize.File: The rendered workbook.
// - error: ErrNotFound when the filter leaves nothing to export.
func (s *Proofdesk) ExportResults(filter ExportFilter, userID string) (*excelize.File, error) {
	s.mu.Lock()
	rows := s.auditRowsLocked(userID)
	s.mu.Unlock()

	filtered := make([]*model.AuditRow, 0, len(rows))
	for _, row := range rows {
		if filter.Sheet != "" && row.SheetName != filter.Sheet {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		filtered = append(filtered, row)
	}
	if len(filtered) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "No result rows to export",
			fmt.Sprintf("sheet %q status %q", filter.Sheet, filter.Status))
	}

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := book.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for i, row := range filtered {
		values := []interface{}{
			row.Date, row.Narration, row.OriginalAmount, row.SignedAmount, string(row.AmountType),
			row.Age, row.SheetName, string(row.Side), string(row.Status),
			row.BranchCode, row.BranchName, row.AccountName, row.AccountNo, row.Currency,
			row.Maker, row.Checker, row.Rico, row.Clco,
			row.ProofTotal, optionalFloat(row.SystemBalance), row.UserID,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := book.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return book, nil
}

// optionalFloat renders a nullable float as a cell value, empty when unset.
func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
