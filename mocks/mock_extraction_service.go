package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docparse/internal/domain"
	"docparse/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Parse(ctx context.Context, doc *domain.Document, opts service.ParseOptions) (*domain.ExtractedRecord, error) {
	args := m.Called(ctx, doc, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractedRecord), args.Error(1)
}

func (m *MockExtractionService) ParseText(ctx context.Context, text string, opts service.ParseOptions) (*domain.ExtractedRecord, error) {
	args := m.Called(ctx, text, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractedRecord), args.Error(1)
}

func (m *MockExtractionService) ParseImage(ctx context.Context, image []byte, mimeType string, opts service.ParseOptions) (*domain.ExtractedRecord, error) {
	args := m.Called(ctx, image, mimeType, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractedRecord), args.Error(1)
}

func (m *MockExtractionService) Classify(ctx context.Context, doc *domain.Document) (domain.Classification, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(domain.Classification), args.Error(1)
}
