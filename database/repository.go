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

	"github.com/proofdesk/proofdesk/model"
)

// IDataSource defines the interface for data source operations, grouping
// related functionalities.
type IDataSource interface {
	resultRows
	proofRecords
}

type resultRows interface {
	RecordResultRows(ctx context.Context, rows []*model.AuditRow) error
	GetResultRows(ctx context.Context, sheet string, limit, offset int) ([]*model.AuditRow, error)
}

type proofRecords interface {
	RecordProof(ctx context.Context, record *model.ProofRecord) error
	GetProof(ctx context.Context, sheet string) (*model.ProofRecord, error)
	GetProofs(ctx context.Context) ([]*model.ProofRecord, error)
}
