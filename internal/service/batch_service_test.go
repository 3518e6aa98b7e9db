package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docparse/internal/config"
	"docparse/internal/domain"
	"docparse/internal/metrics"
	"docparse/internal/parser"
	"docparse/internal/port"
	"docparse/internal/service"
	"docparse/mocks"
)

func newBatchService(loader port.DocumentLoader, gw port.Gateway, m *metrics.Recorder) service.BatchService {
	return service.NewBatchService(loader, gw, parser.NewStrategySelector(), fixedNormalizer(),
		config.BatchConfig{Concurrency: 4, Extract: true}, nil, m)
}

// invoiceGateway classifies every document as STANDARD and extracts fullRecord.
func invoiceGateway() *scriptedGateway {
	return &scriptedGateway{respond: func(req port.CompletionRequest) (*port.Completion, error) {
		if isClassification(req) {
			return completion(`{"type":"STANDARD","confidence":0.9}`), nil
		}
		return completion(fullRecord), nil
	}}
}

func TestBatchService_ProcessAll_ValidAndMissing(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	loader.On("Load", mock.Anything, "invoices/a.txt").
		Return(&domain.Document{ID: "invoices/a.txt", Text: "INVOICE INV-100"}, nil)
	loader.On("Load", mock.Anything, "invoices/missing.txt").
		Return(nil, fmt.Errorf("%w: invoices/missing.txt", domain.ErrDocumentNotFound))

	gw := invoiceGateway()
	svc := newBatchService(loader, gw, nil)
	results := svc.ProcessAll(context.Background(), []string{"invoices/a.txt", "invoices/missing.txt"},
		service.BatchOptions{Extract: true})

	require.Len(t, results, 2)

	ok := results[0]
	assert.Equal(t, "invoices/a.txt", ok.ID)
	assert.Equal(t, domain.StateDone, ok.State)
	assert.True(t, ok.Succeeded())
	assert.Empty(t, ok.Error)
	require.NotNil(t, ok.Classification)
	assert.Equal(t, domain.DocumentTypeStandard, ok.Classification.Type)
	require.NotNil(t, ok.Record)
	assert.Equal(t, "INV-100", ok.Record.InvoiceNumber)

	failed := results[1]
	assert.Equal(t, "invoices/missing.txt", failed.ID)
	assert.Equal(t, domain.StateFailed, failed.State)
	assert.Equal(t, domain.StatePending, failed.FailedStage)
	assert.Contains(t, failed.Error, "document not found")
	assert.Nil(t, failed.Classification)
	assert.Nil(t, failed.Record)

	classify, extract := gw.counts()
	assert.Equal(t, 1, classify)
	assert.Equal(t, 1, extract)
}

func TestBatchService_NoContentFailsOnlyThatDocument(t *testing.T) {
	gw := &scriptedGateway{respond: func(req port.CompletionRequest) (*port.Completion, error) {
		if isClassification(req) {
			return completion(`{"type":"RECEIPT","confidence":0.8}`), nil
		}
		if req.Text == "blank reply" {
			return completion(""), nil
		}
		return completion(fullRecord), nil
	}}

	svc := newBatchService(nil, gw, nil)
	results := svc.ProcessDocuments(context.Background(), []domain.Document{
		{ID: "one", Text: "fine"},
		{ID: "two", Text: "blank reply"},
		{ID: "three", Text: "also fine"},
	}, service.BatchOptions{Extract: true})

	require.Len(t, results, 3)
	assert.Equal(t, domain.StateDone, results[0].State)
	assert.Equal(t, domain.StateDone, results[2].State)

	assert.Equal(t, "two", results[1].ID)
	assert.Equal(t, domain.StateFailed, results[1].State)
	assert.Equal(t, domain.StateExtracting, results[1].FailedStage)
	assert.Equal(t, domain.ErrNoContent.Error(), results[1].Error)
	assert.Nil(t, results[1].Classification)
	assert.Nil(t, results[1].Record)
}

func TestBatchService_LogisticsSkipsExtraction(t *testing.T) {
	gw := &scriptedGateway{respond: func(req port.CompletionRequest) (*port.Completion, error) {
		if isClassification(req) {
			return completion(`{"type":"BILL_OF_LADING","confidence":0.97,"possibleTypes":["DELIVERY_RECEIPT"]}`), nil
		}
		return completion(fullRecord), nil
	}}

	svc := newBatchService(nil, gw, nil)
	results := svc.ProcessDocuments(context.Background(), []domain.Document{
		{ID: "bol", Text: "BILL OF LADING"},
	}, service.BatchOptions{Extract: true})

	require.Len(t, results, 1)
	assert.Equal(t, domain.StateDone, results[0].State)
	require.NotNil(t, results[0].Classification)
	assert.Equal(t, domain.DocumentTypeBillOfLading, results[0].Classification.Type)
	assert.Equal(t, []domain.DocumentType{domain.DocumentTypeDeliveryReceipt}, results[0].Classification.PossibleTypes)
	assert.Nil(t, results[0].Record)

	_, extract := gw.counts()
	assert.Equal(t, 0, extract)
}

func TestBatchService_ExtractDisabled(t *testing.T) {
	gw := invoiceGateway()

	svc := newBatchService(nil, gw, nil)
	results := svc.ProcessDocuments(context.Background(), []domain.Document{
		{ID: "a", Text: "invoice a"},
		{ID: "b", Text: "invoice b"},
	}, service.BatchOptions{Extract: false})

	for _, r := range results {
		assert.Equal(t, domain.StateDone, r.State)
		assert.NotNil(t, r.Classification)
		assert.Nil(t, r.Record)
	}
	classify, extract := gw.counts()
	assert.Equal(t, 2, classify)
	assert.Equal(t, 0, extract)
}

func TestBatchService_ClassificationFailureDoesNotFailDocument(t *testing.T) {
	gw := &scriptedGateway{respond: func(req port.CompletionRequest) (*port.Completion, error) {
		if isClassification(req) {
			return nil, parser.NewBackendError("openai", 500, errors.New("boom"))
		}
		return completion(fullRecord), nil
	}}

	svc := newBatchService(nil, gw, nil)
	results := svc.ProcessDocuments(context.Background(), []domain.Document{{ID: "a", Text: "invoice"}},
		service.BatchOptions{Extract: true})

	assert.Equal(t, domain.StateDone, results[0].State)
	assert.Equal(t, domain.DocumentTypeUnknown, results[0].Classification.Type)
	require.NotNil(t, results[0].Record)
}

func TestBatchService_PanicIsIsolated(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	loader.On("Load", mock.Anything, "bad").Run(func(mock.Arguments) {
		panic("decoder exploded")
	})
	loader.On("Load", mock.Anything, "good").
		Return(&domain.Document{ID: "good", Text: "invoice"}, nil)

	svc := newBatchService(loader, invoiceGateway(), nil)
	results := svc.ProcessAll(context.Background(), []string{"bad", "good"}, service.BatchOptions{Extract: true})

	require.Len(t, results, 2)
	assert.Equal(t, domain.StateFailed, results[0].State)
	assert.Equal(t, domain.StatePending, results[0].FailedStage)
	assert.Contains(t, results[0].Error, "decoder exploded")
	assert.Equal(t, domain.StateDone, results[1].State)
}

func TestBatchService_InvalidDocuments(t *testing.T) {
	gw := invoiceGateway()

	svc := newBatchService(nil, gw, nil)
	results := svc.ProcessDocuments(context.Background(), []domain.Document{
		{},
		{ID: "pdf", Image: []byte("%PDF"), MimeType: "application/pdf"},
	}, service.BatchOptions{Extract: true})

	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].ID)
	assert.Equal(t, domain.StateFailed, results[0].State)
	assert.Contains(t, results[0].Error, domain.ErrInvalidInput.Error())
	assert.Equal(t, domain.StateFailed, results[1].State)
	assert.Contains(t, results[1].Error, domain.ErrUnsupportedFileType.Error())

	classify, _ := gw.counts()
	assert.Equal(t, 0, classify)
}

func TestBatchService_OrderAndConcurrencyLimit(t *testing.T) {
	gw := &scriptedGateway{
		delay: 5 * time.Millisecond,
		respond: func(req port.CompletionRequest) (*port.Completion, error) {
			if isClassification(req) {
				return completion(`{"type":"STANDARD","confidence":0.9}`), nil
			}
			return completion(fmt.Sprintf(`{"invoiceNumber":%q,"vendorName":"V"}`, req.Text)), nil
		},
	}

	docs := make([]domain.Document, 12)
	for i := range docs {
		docs[i] = domain.Document{ID: fmt.Sprintf("doc-%02d", i), Text: fmt.Sprintf("INV-%02d", i)}
	}

	svc := newBatchService(nil, gw, nil)
	results := svc.ProcessDocuments(context.Background(), docs, service.BatchOptions{Concurrency: 3, Extract: true})

	require.Len(t, results, len(docs))
	for i, r := range results {
		assert.Equal(t, docs[i].ID, r.ID)
		require.NotNil(t, r.Record)
		assert.Equal(t, docs[i].Text, r.Record.InvoiceNumber)
	}
	assert.LessOrEqual(t, gw.maxInFlight, int32(3))
}

func TestBatchService_EmptyBatch(t *testing.T) {
	svc := newBatchService(nil, invoiceGateway(), nil)

	results := svc.ProcessAll(context.Background(), nil, service.BatchOptions{Extract: true})

	assert.Empty(t, results)
}

func TestBatchService_Metrics(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	loader.On("Load", mock.Anything, "a").Return(&domain.Document{ID: "a", Text: "x"}, nil)
	loader.On("Load", mock.Anything, "b").Return(nil, domain.ErrDocumentNotFound)

	rec := metrics.New()
	svc := newBatchService(loader, invoiceGateway(), rec)
	svc.ProcessAll(context.Background(), []string{"a", "b"}, service.BatchOptions{Extract: true})

	count, err := testutil.GatherAndCount(rec.Registry(), "docparse_batch_documents_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `docparse_batch_documents_total{failed_stage="PENDING",state="FAILED"} 1`)
	assert.Contains(t, w.Body.String(), "docparse_batch_documents_in_flight 0")
}

func TestDefaultBatchOptions(t *testing.T) {
	opts := service.DefaultBatchOptions(config.BatchConfig{Concurrency: 8, Extract: true})

	assert.Equal(t, 8, opts.Concurrency)
	assert.True(t, opts.Extract)
}
