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

package files

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/proofdesk/proofdesk/model"
)

// Sheet is one raw cell grid extracted from an uploaded statement, before
// any interpretation.
type Sheet struct {
	Name  string
	Cells [][]string
}

// ParsedSheet is the result of interpreting one sheet: the transaction
// records below the header row plus any header-zone metadata found above it.
type ParsedSheet struct {
	Name    string
	Records []model.RawRecord
	Meta    model.BatchMeta
}

// ExtractSheets reads an uploaded statement into raw cell grids, one per
// sheet. Workbooks yield every sheet; CSV streams yield a single sheet named
// after the file.
//
// Parameters:
// - reader: An io.Reader for the uploaded data.
// - filename: The name of the file being uploaded, used for type detection.
//
// Returns:
// - []Sheet: The extracted cell grids in workbook order.
// - error: If the data cannot be read or the format is unsupported.
func ExtractSheets(reader io.Reader, filename string) ([]Sheet, error) {
	data, err := io.ReadAll(bufio.NewReader(reader))
	if err != nil {
		return nil, errors.Wrap(err, "error reading upload data")
	}

	fileType := DetectFileType(data, filename)
	switch fileType {
	case "xlsx":
		return extractWorkbook(data)
	case "csv":
		return extractCSV(data, filename)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
}

// DetectFileType attempts to detect the file type based on its extension
// first and its content second.
func DetectFileType(data []byte, filename string) string {
	if t := DetectByExtension(filename); t != "" {
		return t
	}
	return DetectByContent(data)
}

// DetectByExtension classifies the upload by file extension alone.
func DetectByExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".csv", ".txt":
		return "csv"
	default:
		return ""
	}
}

// DetectByContent classifies the upload by inspecting its leading bytes.
// Workbooks are zip containers; anything that looks like delimited text is
// treated as CSV.
func DetectByContent(data []byte) string {
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return "xlsx"
	}
	if looksLikeCSV(data) {
		return "csv"
	}
	return ""
}

// looksLikeCSV checks whether the data has a consistent comma-separated
// shape across its first lines.
func looksLikeCSV(data []byte) bool {
	lines := bytes.Split(data, []byte("\n"))
	if len(lines) < 2 {
		return false
	}

	fields := bytes.Count(lines[0], []byte(",")) + 1
	for _, line := range lines[1:] {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if bytes.Count(line, []byte(","))+1 != fields {
			return false
		}
	}
	return fields > 1
}

// extractWorkbook opens an xlsx container and reads every sheet's cells.
func extractWorkbook(data []byte) ([]Sheet, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "error opening workbook")
	}
	defer book.Close()

	var sheets []Sheet
	for _, name := range book.GetSheetList() {
		rows, err := book.GetRows(name)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading sheet %q", name)
		}
		sheets = append(sheets, Sheet{Name: name, Cells: rows})
	}
	return sheets, nil
}

// extractCSV reads a comma-separated stream into a single sheet named after
// the file. Ragged rows are tolerated.
func extractCSV(data []byte, filename string) ([]Sheet, error) {
	csvReader := csv.NewReader(bytes.NewReader(data))
	csvReader.FieldsPerRecord = -1

	var cells [][]string
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "error reading CSV row")
		}
		cells = append(cells, record)
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if name == "" {
		name = "Sheet1"
	}
	return []Sheet{{Name: name, Cells: cells}}, nil
}

// Normalized header-zone labels mapped onto BatchMeta fields.
const (
	labelBranchCode    = "branchcode"
	labelBranchName    = "branchname"
	labelAccountName   = "accountname"
	labelAccountNo     = "accountno"
	labelAccountNumber = "accountnumber"
	labelCurrency      = "currency"
	labelMaker         = "maker"
	labelChecker       = "checker"
	labelRico          = "rico"
	labelClco          = "clco"
	labelSystemBalance = "systembalance"
	labelProofTotal    = "prooftotal"
)

// ParseSheet interprets one raw cell grid. Rows above the header row form
// the metadata zone and are scanned for labeled values; rows below it become
// raw transaction records. When no header row is found the first four
// columns are read positionally as date, narration, amount and age.
//
// Parameters:
// - sheet: The raw cell grid to interpret.
//
// Returns:
//   - ParsedSheet: Records plus any metadata found, never an error; an
//     uninterpretable grid simply yields no records.
func ParseSheet(sheet Sheet) ParsedSheet {
	parsed := ParsedSheet{Name: sheet.Name}

	headerIdx, columns := findHeaderRow(sheet.Cells)
	metaZone := sheet.Cells
	dataStart := 0
	if headerIdx >= 0 {
		metaZone = sheet.Cells[:headerIdx]
		dataStart = headerIdx + 1
	} else {
		columns = map[string]int{"date": 0, "narration": 1, "amount": 2, "age": 3}
	}

	parsed.Meta = scanMetadata(metaZone)

	for _, row := range sheet.Cells[dataStart:] {
		record := model.RawRecord{
			Date:      cellAt(row, columns["date"]),
			Narration: cellAt(row, columns["narration"]),
			Amount:    cellAt(row, columns["amount"]),
		}
		if idx, ok := columns["age"]; ok {
			record.Age = cellAt(row, idx)
		}
		if idx, ok := columns["account"]; ok {
			record.Account = cellAt(row, idx)
		}
		if idx, ok := columns["branch"]; ok {
			record.Branch = cellAt(row, idx)
		}
		if idx, ok := columns["currency"]; ok {
			record.Currency = cellAt(row, idx)
		}
		if idx, ok := columns["user"]; ok {
			record.UserID = cellAt(row, idx)
		}
		if record.Date == "" && record.Narration == "" && record.Amount == "" {
			continue
		}
		parsed.Records = append(parsed.Records, record)
	}

	return parsed
}

// findHeaderRow locates the column header row by keyword and returns the
// column mapping it defines. Returns -1 when no row qualifies.
func findHeaderRow(cells [][]string) (int, map[string]int) {
	for i, row := range cells {
		hits := 0
		columns := make(map[string]int)
		for col, cell := range row {
			label := strings.ToLower(strings.TrimSpace(cell))
			switch {
			case label == "tran date" || label == "date" || label == "transaction date" || label == "value date":
				columns["date"] = col
				hits++
			case label == "narration" || label == "description" || label == "details" || label == "remarks":
				columns["narration"] = col
				hits++
			case label == "amount" || label == "lcy amount" || label == "transaction amount":
				columns["amount"] = col
				hits++
			case label == "age" || label == "age (days)":
				columns["age"] = col
				hits++
			case label == "account" || label == "account no" || label == "account number":
				columns["account"] = col
			case label == "branch":
				columns["branch"] = col
			case label == "currency" || label == "ccy":
				columns["currency"] = col
			case label == "teller" || label == "teller id" || label == "user id" || label == "maker id":
				columns["user"] = col
			}
		}
		_, hasDate := columns["date"]
		_, hasNarration := columns["narration"]
		_, hasAmount := columns["amount"]
		if hits >= 2 && hasAmount && (hasDate || hasNarration) {
			return i, columns
		}
	}
	return -1, nil
}

// scanMetadata reads the header zone for labeled values. A label's value is
// the next non-empty cell to its right.
func scanMetadata(zone [][]string) model.BatchMeta {
	var meta model.BatchMeta
	for _, row := range zone {
		for col, cell := range row {
			label := normalizeLabel(cell)
			if label == "" {
				continue
			}
			value := nextNonEmpty(row, col+1)
			if value == "" {
				continue
			}
			switch label {
			case labelBranchCode:
				meta.BranchCode = value
			case labelBranchName:
				meta.BranchName = value
			case labelAccountName:
				meta.AccountName = value
			case labelAccountNo, labelAccountNumber:
				meta.AccountNo = value
			case labelCurrency:
				meta.Currency = value
			case labelMaker:
				meta.Maker = value
			case labelChecker:
				meta.Checker = value
			case labelRico:
				meta.Rico = value
			case labelClco:
				meta.Clco = value
			case labelSystemBalance:
				if parsed := model.ParseAmount(value); parsed.Value != 0 {
					meta.SystemBalance = &parsed.Value
				}
			case labelProofTotal:
				if parsed := model.ParseAmount(value); parsed.Value != 0 {
					meta.ProofTotal = &parsed.Value
				}
			}
		}
	}
	return meta
}

// normalizeLabel lowercases a cell and strips everything that is not a
// letter or digit, so "System Balance:" and "SYSTEM_BALANCE" both match.
func normalizeLabel(cell string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(cell) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// nextNonEmpty returns the first non-empty cell at or after index start.
func nextNonEmpty(row []string, start int) string {
	for i := start; i < len(row); i++ {
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}

// cellAt returns the trimmed cell at the given index, or "" when the row is
// too short.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
