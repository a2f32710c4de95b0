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
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/proofdesk/proofdesk/internal/apierror"
	"github.com/proofdesk/proofdesk/internal/files"
	"github.com/proofdesk/proofdesk/model"
)

// ImportTarget names the side an uploaded statement feeds.
type ImportTarget string

const (
	// TargetPrevious loads the statement as the debit side of the next run.
	TargetPrevious ImportTarget = "previous"
	// TargetCurrent loads the statement as the credit side. Current-side
	// batches run intra-batch knock-off at confirmation time.
	TargetCurrent ImportTarget = "current"
)

// SheetPreview is what the operator sees when choosing which sheets of a
// workbook to load.
type SheetPreview struct {
	Name     string            `json:"name"`
	RowCount int               `json:"row_count"`
	Preview  []model.RawRecord `json:"preview,omitempty"`
}

// PendingImportContext holds an extracted upload between extraction and
// sheet confirmation. It is an explicit value keyed by ImportID, handed back
// to ConfirmSheets, never ambient engine state.
type PendingImportContext struct {
	ImportID  string         `json:"import_id"`
	FileName  string         `json:"file_name"`
	Target    ImportTarget   `json:"target"`
	Sheets    []SheetPreview `json:"sheets"`
	CreatedAt time.Time      `json:"created_at"`

	parsed []files.ParsedSheet
}

// previewRows is how many leading records a sheet preview carries.
const previewRows = 5

// ImportStatement extracts an uploaded statement into per-sheet previews and
// parks them under a new import id. Nothing is loaded into the workspace
// until ConfirmSheets names the sheets to keep; a single-sheet upload still
// goes through confirmation so the caller controls the target side
// explicitly.
//
// Parameters:
// - ctx context.Context: Context for tracing.
// - reader io.Reader: The uploaded statement data.
// - filename string: The original file name, used for format detection.
// - target ImportTarget: Which side the statement feeds.
//
// Returns:
// - *PendingImportContext: The parked extraction with sheet previews.
// - error: ErrBadRequest for an unreadable or empty statement.
func (s *Proofdesk) ImportStatement(ctx context.Context, reader io.Reader, filename string, target ImportTarget) (*PendingImportContext, error) {
	_, span := otel.Tracer("proofdesk.import").Start(ctx, "Extracting statement")
	defer span.End()

	if target != TargetPrevious && target != TargetCurrent {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Unknown import target",
			fmt.Sprintf("target %q", target))
	}

	sheets, err := files.ExtractSheets(reader, filename)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Could not read statement", err.Error())
	}
	if len(sheets) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Statement contains no sheets", filename)
	}

	pending := &PendingImportContext{
		ImportID:  model.GenerateUUIDWithSuffix("import"),
		FileName:  filename,
		Target:    target,
		CreatedAt: time.Now(),
	}
	for _, sheet := range sheets {
		parsed := files.ParseSheet(sheet)
		pending.parsed = append(pending.parsed, parsed)

		preview := SheetPreview{Name: parsed.Name, RowCount: len(parsed.Records)}
		for _, record := range parsed.Records {
			if len(preview.Preview) == previewRows {
				break
			}
			preview.Preview = append(preview.Preview, record)
		}
		pending.Sheets = append(pending.Sheets, preview)
	}

	s.mu.Lock()
	s.pendingImports[pending.ImportID] = pending
	s.mu.Unlock()

	return pending, nil
}

// ConfirmSheets loads the named sheets of a parked import into the
// workspace as batches. Rows are normalized, blank rows dropped, and
// current-side batches are deduplicated by auto knock-off before storage.
// Sheet metadata merges into the workspace header without overwriting
// anything already set; a locked system balance is never touched by an
// import. The import id is consumed on success.
//
// Parameters:
// - ctx context.Context: Context for tracing.
// - importID string: The id returned by ImportStatement.
// - sheetNames []string: The sheets to load. Must be non-empty.
//
// Returns:
// - []*model.Batch: The stored batches, one per confirmed sheet.
// - error: ErrNotFound for an unknown import or sheet, ErrBadRequest for an empty selection.
func (s *Proofdesk) ConfirmSheets(ctx context.Context, importID string, sheetNames []string) ([]*model.Batch, error) {
	_, span := otel.Tracer("proofdesk.import").Start(ctx, "Confirming sheets")
	defer span.End()

	if len(sheetNames) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "No sheets selected", importID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pendingImports[importID]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "Unknown import",
			fmt.Sprintf("import %q", importID))
	}

	parsedByName := make(map[string]files.ParsedSheet, len(pending.parsed))
	for _, parsed := range pending.parsed {
		parsedByName[parsed.Name] = parsed
	}

	var batches []*model.Batch
	for _, name := range sheetNames {
		parsed, ok := parsedByName[name]
		if !ok {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Sheet not present in import",
				fmt.Sprintf("sheet %q in import %q", name, importID))
		}
		batches = append(batches, s.buildBatchLocked(parsed, pending))
	}

	if pending.Target == TargetPrevious {
		s.prevBatches = append(s.prevBatches, batches...)
	} else {
		s.currBatches = append(s.currBatches, batches...)
	}
	s.refreshProofTotalsLocked()
	delete(s.pendingImports, importID)

	return batches, nil
}

// buildBatchLocked normalizes one parsed sheet into a stored batch and
// folds its metadata into the workspace header. Callers hold s.mu.
func (s *Proofdesk) buildBatchLocked(parsed files.ParsedSheet, pending *PendingImportContext) *model.Batch {
	var rows []*model.TransactionRow
	total := decimal.Zero
	for _, record := range parsed.Records {
		row, ok := model.NormalizeRow(record, parsed.Name)
		if !ok {
			continue
		}
		rows = append(rows, row)
		total = total.Add(decimal.NewFromFloat(row.SignedAmount))
	}

	side := model.SideDebit
	if pending.Target == TargetCurrent {
		side = model.SideCredit
		result := AutoKnockOff(rows)
		rows = result.Remaining
		s.knockedOff = append(s.knockedOff, result.KnockedOff...)
	}

	s.mergeHeaderLocked(parsed.Meta)

	proofTotal, _ := total.Float64()
	return &model.Batch{
		BatchID:    model.GenerateUUIDWithSuffix("batch"),
		SheetName:  parsed.Name,
		FileName:   pending.FileName,
		Side:       side,
		Rows:       rows,
		ProofTotal: proofTotal,
		Meta:       parsed.Meta,
		CreatedAt:  time.Now(),
	}
}

// mergeHeaderLocked folds sheet metadata into the workspace header. Fields
// already set keep their value, and a locked system balance is immutable
// against imports. Callers hold s.mu.
func (s *Proofdesk) mergeHeaderLocked(meta model.BatchMeta) {
	s.header.Merge(meta)
	if meta.SystemBalance != nil && s.header.SystemBalance == nil {
		if _, locked := s.sheetBalances[""]; !locked {
			bal := *meta.SystemBalance
			s.header.SystemBalance = &bal
		}
	}
	if meta.ProofTotal != nil && s.header.ProofTotal == nil {
		pt := *meta.ProofTotal
		s.header.ProofTotal = &pt
	}
}

// Batches returns the loaded batches for one side, most recently confirmed
// last.
func (s *Proofdesk) Batches(target ImportTarget) []*model.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.currBatches
	if target == TargetPrevious {
		src = s.prevBatches
	}
	out := make([]*model.Batch, len(src))
	copy(out, src)
	return out
}

// KnockedOff returns copies of every row resolved by intra-batch knock-off.
func (s *Proofdesk) KnockedOff() []*model.TransactionRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.TransactionRow, len(s.knockedOff))
	for i, r := range s.knockedOff {
		out[i] = r.Copy()
	}
	return out
}

// ClearWorkspace drops every batch, result, proof and pending import,
// returning the engine to its initial state. Locked balances are cleared
// too; this is the explicit full reset submitting a proof points to.
func (s *Proofdesk) ClearWorkspace() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prevBatches = nil
	s.currBatches = nil
	s.knockedOff = nil
	s.results = nil
	s.summary = model.Summary{}
	s.proofs = make(map[string]*model.ProofRecord)
	s.sheetBalances = make(map[string]float64)
	s.header = model.BatchMeta{}
	s.prevProofTotal = 0
	s.currProofTotal = 0
	s.history.Clear()
	s.pendingImports = make(map[string]*PendingImportContext)
}
