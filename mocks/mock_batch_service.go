package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docparse/internal/domain"
	"docparse/internal/service"
)

// MockBatchService is a mock implementation of service.BatchService.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) ProcessAll(ctx context.Context, locations []string, opts service.BatchOptions) []domain.BatchResult {
	args := m.Called(ctx, locations, opts)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.BatchResult)
}

func (m *MockBatchService) ProcessDocuments(ctx context.Context, docs []domain.Document, opts service.BatchOptions) []domain.BatchResult {
	args := m.Called(ctx, docs, opts)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.BatchResult)
}
