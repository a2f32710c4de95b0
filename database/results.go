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
	"database/sql"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/proofdesk/proofdesk/model"
)

// ResultChunkSize bounds the number of rows per insert statement.
const ResultChunkSize = 200

// resultColumns are the insert columns for reconciliation_results, in
// placeholder order.
var resultColumns = []string{
	"row_id", "sheet_name", "date", "narration", "original_amount",
	"signed_amount", "amount_abs", "amount_type", "age",
	"prefix_key", "suffix_key", "side", "status",
	"branch_code", "branch_name", "account_name", "account_no", "currency",
	"maker", "checker", "rico", "clco",
	"proof_total", "system_balance", "user_id",
}

// RecordResultRows inserts denormalized result rows, chunked so no single
// statement exceeds ResultChunkSize rows. A row id seen before has its
// status and side refreshed instead of conflicting.
//
// Parameters:
// - ctx context.Context: Context for controlling execution.
// - rows []*model.AuditRow: The rows to persist.
//
// Returns:
// - error: The first insert error, if any chunk fails.
func (d Datasource) RecordResultRows(ctx context.Context, rows []*model.AuditRow) error {
	ctx, span := otel.Tracer("Results").Start(ctx, "Saving result rows to db")
	defer span.End()

	for start := 0; start < len(rows); start += ResultChunkSize {
		end := start + ResultChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := d.insertResultChunk(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (d Datasource) insertResultChunk(ctx context.Context, chunk []*model.AuditRow) error {
	placeholders := make([]string, 0, len(chunk))
	args := make([]interface{}, 0, len(chunk)*len(resultColumns))

	for i, row := range chunk {
		marks := make([]string, len(resultColumns))
		for j := range resultColumns {
			marks[j] = fmt.Sprintf("$%d", i*len(resultColumns)+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")

		var balance sql.NullFloat64
		if row.SystemBalance != nil {
			balance = sql.NullFloat64{Float64: *row.SystemBalance, Valid: true}
		}
		args = append(args,
			row.RowID, row.SheetName, row.Date, row.Narration, row.OriginalAmount,
			row.SignedAmount, row.AmountAbs, row.AmountType, row.Age,
			row.PrefixKey, row.SuffixKey, row.Side, row.Status,
			row.BranchCode, row.BranchName, row.AccountName, row.AccountNo, row.Currency,
			row.Maker, row.Checker, row.Rico, row.Clco,
			row.ProofTotal, balance, row.UserID,
		)
	}

	query := fmt.Sprintf(`INSERT INTO reconciliation_results(%s) VALUES %s
		ON CONFLICT (row_id) DO UPDATE SET status = EXCLUDED.status, side = EXCLUDED.side`,
		strings.Join(resultColumns, ", "), strings.Join(placeholders, ", "))

	_, err := d.Conn.ExecContext(ctx, query, args...)
	return err
}

// GetResultRows retrieves persisted result rows, optionally scoped to one
// sheet, ordered by insertion.
//
// Parameters:
// - ctx context.Context: Context for controlling execution.
// - sheet string: Sheet to scope to. Empty means all sheets.
// - limit int: Maximum rows to return.
// - offset int: Rows to skip.
//
// Returns:
// - []*model.AuditRow: The retrieved rows.
// - error: If the query fails.
func (d Datasource) GetResultRows(ctx context.Context, sheet string, limit, offset int) ([]*model.AuditRow, error) {
	ctx, span := otel.Tracer("Results").Start(ctx, "Fetching result rows from db")
	defer span.End()

	query := fmt.Sprintf(`
		SELECT %s FROM reconciliation_results
		WHERE ($1 = '' OR sheet_name = $1)
		ORDER BY id ASC LIMIT $2 OFFSET $3
	`, strings.Join(resultColumns, ", "))

	rows, err := d.Conn.QueryContext(ctx, query, sheet, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AuditRow
	for rows.Next() {
		var row model.AuditRow
		var balance sql.NullFloat64
		err = rows.Scan(
			&row.RowID, &row.SheetName, &row.Date, &row.Narration, &row.OriginalAmount,
			&row.SignedAmount, &row.AmountAbs, &row.AmountType, &row.Age,
			&row.PrefixKey, &row.SuffixKey, &row.Side, &row.Status,
			&row.BranchCode, &row.BranchName, &row.AccountName, &row.AccountNo, &row.Currency,
			&row.Maker, &row.Checker, &row.Rico, &row.Clco,
			&row.ProofTotal, &balance, &row.UserID,
		)
		if err != nil {
			return nil, err
		}
		if balance.Valid {
			row.SystemBalance = &balance.Float64
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

// RecordProof upserts a per-sheet proof record.
func (d Datasource) RecordProof(ctx context.Context, record *model.ProofRecord) error {
	ctx, span := otel.Tracer("Results").Start(ctx, "Saving proof record to db")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO proof_records(sheet_name, matched_sum, item_count, status, submitted_by, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sheet_name) DO UPDATE SET
			matched_sum = EXCLUDED.matched_sum,
			item_count = EXCLUDED.item_count,
			status = EXCLUDED.status,
			submitted_by = EXCLUDED.submitted_by,
			submitted_at = EXCLUDED.submitted_at
	`, record.SheetName, record.MatchedSum, record.ItemCount, record.Status,
		record.SubmittedBy, record.SubmittedAt)

	return err
}

// GetProof retrieves the proof record for one sheet.
func (d Datasource) GetProof(ctx context.Context, sheet string) (*model.ProofRecord, error) {
	ctx, span := otel.Tracer("Results").Start(ctx, "Fetching proof record from db")
	defer span.End()

	record := &model.ProofRecord{}
	var submittedBy sql.NullString
	var submittedAt sql.NullTime
	err := d.Conn.QueryRowContext(ctx, `
		SELECT sheet_name, matched_sum, item_count, status, submitted_by, submitted_at
		FROM proof_records WHERE sheet_name = $1
	`, sheet).Scan(&record.SheetName, &record.MatchedSum, &record.ItemCount,
		&record.Status, &submittedBy, &submittedAt)
	if err != nil {
		return nil, err
	}
	record.SubmittedBy = submittedBy.String
	if submittedAt.Valid {
		record.SubmittedAt = &submittedAt.Time
	}
	return record, nil
}

// GetProofs retrieves every proof record.
func (d Datasource) GetProofs(ctx context.Context) ([]*model.ProofRecord, error) {
	ctx, span := otel.Tracer("Results").Start(ctx, "Fetching proof records from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT sheet_name, matched_sum, item_count, status, submitted_by, submitted_at
		FROM proof_records ORDER BY sheet_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ProofRecord
	for rows.Next() {
		record := &model.ProofRecord{}
		var submittedBy sql.NullString
		var submittedAt sql.NullTime
		err = rows.Scan(&record.SheetName, &record.MatchedSum, &record.ItemCount,
			&record.Status, &submittedBy, &submittedAt)
		if err != nil {
			return nil, err
		}
		record.SubmittedBy = submittedBy.String
		if submittedAt.Valid {
			record.SubmittedAt = &submittedAt.Time
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
