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

import (
	"strconv"
	"strings"
	"time"
)

// Side identifies which leg of a reconciliation a row belongs to.
type Side string

// Status is the resolution state of a row within a result set.
type Status string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"

	StatusPending Status = "pending"
	StatusMatched Status = "matched"
	// StatusAuto marks rows resolved by intra-batch knock-off, before any
	// cross-batch matching ran.
	StatusAuto Status = "auto"
)

// FingerprintLength is the number of leading/trailing narration characters
// folded into a match key. Source systems truncate narrations differently,
// so both ends are keyed.
const FingerprintLength = 15

// RawRecord is one row as delivered by the extraction layer, before
// normalization. All fields are raw cell text; the normalizer owns every
// interpretation decision.
type RawRecord struct {
	Date      string `json:"date"`
	Narration string `json:"narration"`
	Amount    string `json:"amount"`
	Age       string `json:"age,omitempty"`
	Account   string `json:"account,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Currency  string `json:"currency,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// TransactionRow is one canonical ledger entry. RowID never changes once
// assigned; all matching bookkeeping is keyed on it rather than on slice
// positions, which filtering and pagination invalidate.
type TransactionRow struct {
	RowID          string  `json:"row_id"`
	Date           string  `json:"date"`
	Narration      string  `json:"narration"`
	OriginalAmount string  `json:"original_amount"`
	SignedAmount   float64 `json:"signed_amount"`
	IsNegative     bool    `json:"is_negative"`
	AmountAbs      float64 `json:"amount_abs"`
	AmountType     Side    `json:"amount_type"`
	Age            string  `json:"age,omitempty"`
	First15        string  `json:"first15"`
	Last15         string  `json:"last15"`
	PrefixKey      string  `json:"prefix_key"`
	SuffixKey      string  `json:"suffix_key"`
	SheetName      string  `json:"sheet_name,omitempty"`
	Side           Side    `json:"side,omitempty"`
	Status         Status  `json:"status,omitempty"`
}

// Copy returns an independent copy of the row.
func (r *TransactionRow) Copy() *TransactionRow {
	c := *r
	return &c
}

// Matchable reports whether the row can participate in amount-based
// matching. Rows whose amount failed to parse carry a zero signed amount
// and are excluded rather than rejected.
func (r *TransactionRow) Matchable() bool {
	return r.SignedAmount != 0
}

// ParsedAmount is the result of tolerant amount parsing. Original preserves
// the as-typed text for audit and export.
type ParsedAmount struct {
	Value    float64
	Negative bool
	Original string
}

// ParseAmount parses free-form amount text into a signed value. It accepts
// plain numbers, comma grouping, parenthesized negatives and stray currency
// symbols. Unparseable text degrades to a zero value instead of failing;
// callers exclude zero-amount rows from matching.
//
// Parameters:
// - input: The raw amount text, e.g. "(1,234.50)" or "₦2,000".
//
// Returns:
// - ParsedAmount: The parsed value, sign flag and original text.
func ParseAmount(input string) ParsedAmount {
	original := strings.TrimSpace(input)
	if original == "" {
		return ParsedAmount{Original: ""}
	}

	var b strings.Builder
	for _, ch := range original {
		switch {
		case ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '-' || ch == '+' || ch == '(' || ch == ')' || ch == ',' || ch == '.':
			b.WriteRune(ch)
		}
	}
	s := strings.TrimSpace(b.String())

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = "-" + s[1:len(s)-1]
	}

	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" || s == "-." || s == "+" {
		return ParsedAmount{Original: original}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ParsedAmount{Negative: negative, Original: original}
	}
	if negative && value > 0 {
		value = -value
	}

	return ParsedAmount{Value: value, Negative: negative || value < 0, Original: original}
}

// FormatAmountKey renders an absolute amount the way fingerprint keys embed
// it: shortest exact decimal form, no grouping.
func FormatAmountKey(abs float64) string {
	return strconv.FormatFloat(abs, 'f', -1, 64)
}

// dateLayouts are the input forms the display normalizer understands, tried
// in order. Anything else passes through as-is.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02-Jan-2006",
	"2-Jan-06",
	"02 Jan 2006",
}

// NormalizeDate converts raw date text into the display form DD-Mon-YYYY.
// Unrecognized input is returned trimmed rather than rejected; the date is
// display-only and never participates in matching.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02-Jan-2006")
		}
	}
	return s
}

// collapseWhitespace folds all runs of whitespace, tabs and newlines into
// single spaces and trims the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeRow converts one raw record into a canonical TransactionRow,
// deriving the signed amount, polarity and both fingerprint keys. It returns
// false for blank rows (date, narration and amount all empty), which are
// dropped rather than emitted.
//
// Parameters:
// - raw: The raw record as delivered by the extraction layer.
// - sheet: Identifier of the batch the row belongs to.
//
// Returns:
// - *TransactionRow: The canonical row, or nil for a blank record.
// - bool: False when the record was blank and no row was produced.
func NormalizeRow(raw RawRecord, sheet string) (*TransactionRow, bool) {
	dateEmpty := strings.TrimSpace(raw.Date) == ""
	narrEmpty := strings.TrimSpace(raw.Narration) == ""
	amtEmpty := strings.TrimSpace(raw.Amount) == ""
	if dateEmpty && narrEmpty && amtEmpty {
		return nil, false
	}

	parsed := ParseAmount(raw.Amount)
	if parsed.Value == 0 && narrEmpty && dateEmpty {
		return nil, false
	}

	narration := collapseWhitespace(raw.Narration)
	first15 := narrationPrefix(narration)
	last15 := narrationSuffix(narration)
	abs := parsed.Value
	if abs < 0 {
		abs = -abs
	}
	amountKey := FormatAmountKey(abs)

	amountType := SideCredit
	if parsed.Value < 0 {
		amountType = SideDebit
	}

	return &TransactionRow{
		RowID:          GenerateUUIDWithSuffix("row"),
		Date:           NormalizeDate(raw.Date),
		Narration:      narration,
		OriginalAmount: parsed.Original,
		SignedAmount:   parsed.Value,
		IsNegative:     parsed.Negative,
		AmountAbs:      abs,
		AmountType:     amountType,
		Age:            strings.TrimSpace(raw.Age),
		First15:        first15,
		Last15:         last15,
		PrefixKey:      first15 + "_" + amountKey,
		SuffixKey:      last15 + "_" + amountKey,
		SheetName:      sheet,
		Status:         StatusPending,
	}, true
}

func narrationPrefix(narration string) string {
	runes := []rune(narration)
	if len(runes) > FingerprintLength {
		runes = runes[:FingerprintLength]
	}
	return strings.TrimSpace(strings.ToUpper(string(runes)))
}

func narrationSuffix(narration string) string {
	runes := []rune(narration)
	if len(runes) > FingerprintLength {
		runes = runes[len(runes)-FingerprintLength:]
	}
	return strings.TrimSpace(strings.ToUpper(string(runes)))
}
