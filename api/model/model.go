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
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type ConfirmSheetsRequest struct {
	SheetNames []string `json:"sheet_names"`
}

func (r *ConfirmSheetsRequest) ValidateConfirmSheets() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SheetNames, validation.Required),
	)
}

type RunReconciliationRequest struct {
	UserID string `json:"user_id"`
}

type ManualMatchRequest struct {
	Amount    float64 `json:"amount"`
	Narration string  `json:"narration"`
	UserID    string  `json:"user_id"`
}

func (r *ManualMatchRequest) ValidateManualMatch() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required),
	)
}

type LockBalanceRequest struct {
	Sheet   string `json:"sheet"`
	Balance string `json:"balance"`
}

func (r *LockBalanceRequest) ValidateLockBalance() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Balance, validation.Required),
	)
}

type SubmitProofRequest struct {
	SubmittedBy string `json:"submitted_by"`
}

func (r *SubmitProofRequest) ValidateSubmitProof() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SubmittedBy, validation.Required),
	)
}
