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
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/proofdesk/proofdesk/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Result row methods

func (m *MockDataSource) RecordResultRows(ctx context.Context, rows []*model.AuditRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockDataSource) GetResultRows(ctx context.Context, sheet string, limit, offset int) ([]*model.AuditRow, error) {
	args := m.Called(ctx, sheet, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AuditRow), args.Error(1)
}

// Proof record methods

func (m *MockDataSource) RecordProof(ctx context.Context, record *model.ProofRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDataSource) GetProof(ctx context.Context, sheet string) (*model.ProofRecord, error) {
	args := m.Called(ctx, sheet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProofRecord), args.Error(1)
}

func (m *MockDataSource) GetProofs(ctx context.Context) ([]*model.ProofRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ProofRecord), args.Error(1)
}
