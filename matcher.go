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
	"sort"
	"strings"

	"github.com/proofdesk/proofdesk/model"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// MatchPairs pairs debit rows against credit rows by fingerprint lookup.
//
// Credit rows are indexed under both their prefix and suffix keys, so a row
// is reachable by either fingerprint. Each debit tries its prefix key then
// its suffix key and takes the first still-unconsumed credit found; a credit
// consumed once is never matched again. Debits with no available credit and
// credits never consumed fall through as pending.
//
// This is a single greedy first-fit pass with no cost optimization: match
// quality depends entirely on fingerprint specificity and row ordering.
// Rows with a zero amount never match.
//
// Parameters:
// - debits: The debit-side rows, in original batch order.
// - credits: The credit-side rows, in original batch order.
//
// Returns:
// - model.MatchResult: Matched pairs plus leftover pending rows.
func MatchPairs(debits, credits []*model.TransactionRow) model.MatchResult {
	creditIndex := make(map[string][]int)
	for idx, c := range credits {
		if !c.Matchable() {
			continue
		}
		creditIndex[c.PrefixKey] = append(creditIndex[c.PrefixKey], idx)
		if c.SuffixKey != c.PrefixKey {
			creditIndex[c.SuffixKey] = append(creditIndex[c.SuffixKey], idx)
		}
	}

	var result model.MatchResult
	usedCredit := make(map[int]bool)

	for _, d := range debits {
		foundIdx := -1
		if d.Matchable() {
			for _, key := range []string{d.PrefixKey, d.SuffixKey} {
				for _, idx := range creditIndex[key] {
					if !usedCredit[idx] {
						foundIdx = idx
						break
					}
				}
				if foundIdx >= 0 {
					break
				}
			}
		}
		if foundIdx >= 0 {
			usedCredit[foundIdx] = true
			result.MatchedPairs = append(result.MatchedPairs, model.MatchPair{Debit: d, Credit: credits[foundIdx]})
		} else {
			result.PendingDebits = append(result.PendingDebits, d)
		}
	}

	for idx, c := range credits {
		if !usedCredit[idx] {
			result.PendingCredits = append(result.PendingCredits, c)
		}
	}

	return result
}

// matchTwoPass runs MatchPairs on the full lists and then once more on the
// first pass's leftovers, concatenating the pairs. The algorithm is
// deterministic, so the second pass receives only what the first already
// failed to pair and is expected to add nothing; it is retained for
// behavioral parity with the established reconciliation procedure.
func matchTwoPass(debits, credits []*model.TransactionRow) model.MatchResult {
	first := MatchPairs(debits, credits)
	second := MatchPairs(first.PendingDebits, first.PendingCredits)

	return model.MatchResult{
		MatchedPairs:   append(first.MatchedPairs, second.MatchedPairs...),
		PendingDebits:  second.PendingDebits,
		PendingCredits: second.PendingCredits,
	}
}

// SuggestMatches ranks pending rows of both sides whose absolute amount
// equals the given amount by Levenshtein distance between their narration
// and the operator's fragment. It is a read-only aid for the manual match
// assistant and never mutates the result set.
//
// Parameters:
// - amount: The absolute amount candidates must carry.
// - narration: The operator's narration fragment; matching is case-insensitive.
// - limit: Maximum number of suggestions returned. Non-positive means 10.
//
// Returns:
// - []model.Suggestion: Candidates ordered nearest first.
func (s *Proofdesk) SuggestMatches(amount float64, narration string, limit int) []model.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	fragment := strings.ToUpper(strings.TrimSpace(narration))

	var out []model.Suggestion
	for _, r := range s.results {
		if r.Status != model.StatusPending || r.AmountAbs != amount {
			continue
		}
		candidate := strings.ToUpper(r.Narration)
		distance := 0
		if fragment != "" && !strings.Contains(candidate, fragment) {
			distance = levenshtein.DistanceForStrings([]rune(fragment), []rune(candidate), levenshtein.DefaultOptions)
		}
		out = append(out, model.Suggestion{Row: r.Copy(), Distance: distance})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
