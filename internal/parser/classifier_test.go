package parser_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docparse/internal/domain"
	"docparse/internal/metrics"
	"docparse/internal/parser"
	"docparse/internal/port"
	"docparse/mocks"
)

func reply(content string) *port.Completion {
	return &port.Completion{Content: content, Model: "test-model"}
}

func textDoc(text string) *domain.Document {
	return &domain.Document{ID: "doc-1", Text: text}
}

func TestClassifier_ClassifyInvoice(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantType domain.DocumentType
		wantConf float64
		wantPoss []domain.DocumentType
	}{
		{
			name:     "valid reply is kept",
			content:  `{"type":"PURCHASE_ORDER","confidence":0.82,"possibleTypes":["PROFORMA"]}`,
			wantType: domain.DocumentTypePurchaseOrder,
			wantConf: 0.82,
			wantPoss: []domain.DocumentType{domain.DocumentTypeProforma},
		},
		{
			name:     "label is matched case-insensitively",
			content:  `{"type":" standard ","confidence":0.95}`,
			wantType: domain.DocumentTypeStandard,
			wantConf: 0.95,
		},
		{
			name:     "out-of-taxonomy type becomes UNKNOWN with zero confidence",
			content:  `{"type":"bogus","confidence":2}`,
			wantType: domain.DocumentTypeUnknown,
			wantConf: 0,
		},
		{
			name:     "logistics label is outside the invoice taxonomy",
			content:  `{"type":"BILL_OF_LADING","confidence":0.99}`,
			wantType: domain.DocumentTypeUnknown,
			wantConf: 0,
		},
		{
			name:     "confidence above one is zeroed",
			content:  `{"type":"RECEIPT","confidence":1.5}`,
			wantType: domain.DocumentTypeReceipt,
			wantConf: 0,
		},
		{
			name:     "negative confidence is zeroed",
			content:  `{"type":"RECEIPT","confidence":-0.1}`,
			wantType: domain.DocumentTypeReceipt,
			wantConf: 0,
		},
		{
			name:     "string confidence is zeroed",
			content:  `{"type":"CREDIT_NOTE","confidence":"0.9"}`,
			wantType: domain.DocumentTypeCreditNote,
			wantConf: 0,
		},
		{
			name:     "missing confidence is zeroed",
			content:  `{"type":"PROFORMA"}`,
			wantType: domain.DocumentTypeProforma,
			wantConf: 0,
		},
		{
			name:     "possible types are filtered and deduplicated",
			content:  `{"type":"STANDARD","confidence":0.6,"possibleTypes":["receipt","STANDARD","nonsense","RECEIPT",7,"PROFORMA"]}`,
			wantType: domain.DocumentTypeStandard,
			wantConf: 0.6,
			wantPoss: []domain.DocumentType{domain.DocumentTypeReceipt, domain.DocumentTypeProforma},
		},
		{
			name:     "reply that is not an object degrades",
			content:  `not json`,
			wantType: domain.DocumentTypeUnknown,
			wantConf: 0,
		},
		{
			name:     "empty reply degrades",
			content:  "  ",
			wantType: domain.DocumentTypeUnknown,
			wantConf: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(mocks.MockGateway)
			gw.On("Complete", mock.Anything, mock.Anything).Return(reply(tt.content), nil)

			c := parser.NewClassifier(gw, nil, nil)
			got := c.ClassifyInvoice(context.Background(), textDoc("INVOICE 123"))

			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantConf, got.Confidence)
			assert.Equal(t, tt.wantPoss, got.PossibleTypes)
			gw.AssertExpectations(t)
		})
	}
}

func TestClassifier_RequestShape(t *testing.T) {
	gw := new(mocks.MockGateway)
	gw.On("Complete", mock.Anything, mock.MatchedBy(func(req port.CompletionRequest) bool {
		return req.JSONOutput &&
			req.Deterministic &&
			req.Text == "BILL OF LADING No. 7" &&
			strings.Contains(req.Instructions, "BILL_OF_LADING, DELIVERY_RECEIPT, UNKNOWN") &&
			!strings.Contains(req.Instructions, "PURCHASE_ORDER")
	})).Return(reply(`{"type":"BILL_OF_LADING","confidence":0.9}`), nil)

	c := parser.NewClassifier(gw, nil, nil)
	got := c.Classify(context.Background(), domain.ShippingTaxonomy, textDoc("BILL OF LADING No. 7"))

	assert.Equal(t, domain.DocumentTypeBillOfLading, got.Type)
	assert.Equal(t, 0.9, got.Confidence)
	gw.AssertExpectations(t)
}

func TestClassifier_GatewayErrorDegrades(t *testing.T) {
	gw := new(mocks.MockGateway)
	gw.On("Complete", mock.Anything, mock.Anything).
		Return(nil, parser.NewBackendError("openai", 500, errors.New("boom")))

	rec := metrics.New()
	c := parser.NewClassifier(gw, nil, rec)
	got := c.ClassifyInvoice(context.Background(), textDoc("INVOICE"))

	assert.Equal(t, domain.UnknownClassification(), got)
	assert.True(t, got.IsUncertain())
	expected := `
# HELP docparse_pipeline_classifications_total Classifications by taxonomy, decided type and outcome.
# TYPE docparse_pipeline_classifications_total counter
docparse_pipeline_classifications_total{outcome="degraded",taxonomy="invoice",type="UNKNOWN"} 1
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "docparse_pipeline_classifications_total"))
}

func TestClassifier_EmptyDocumentSkipsGateway(t *testing.T) {
	gw := new(mocks.MockGateway)

	c := parser.NewClassifier(gw, nil, nil)
	got := c.ClassifyInvoice(context.Background(), &domain.Document{ID: "empty"})

	assert.Equal(t, domain.DocumentTypeUnknown, got.Type)
	gw.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestClassifier_NilDocumentDegrades(t *testing.T) {
	gw := new(mocks.MockGateway)

	c := parser.NewClassifier(gw, nil, nil)
	got := c.ClassifyInvoice(context.Background(), nil)

	assert.Equal(t, domain.UnknownClassification(), got)
	gw.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestClassifier_MetadataKeepsStrings(t *testing.T) {
	gw := new(mocks.MockGateway)
	gw.On("Complete", mock.Anything, mock.Anything).
		Return(reply(`{"type":"RECEIPT","confidence":0.8,"metadata":{"store":"ACME","lines":3}}`), nil)

	c := parser.NewClassifier(gw, nil, nil)
	got := c.ClassifyInvoice(context.Background(), textDoc("receipt"))

	require.NotNil(t, got.Metadata)
	assert.Equal(t, map[string]string{"store": "ACME"}, got.Metadata)
}

func TestClassifier_ImageDocumentForwardsPayload(t *testing.T) {
	img := []byte{0xff, 0xd8, 0xff}
	gw := new(mocks.MockGateway)
	gw.On("Complete", mock.Anything, mock.MatchedBy(func(req port.CompletionRequest) bool {
		return string(req.Image) == string(img) && req.MimeType == "image/jpeg" && req.Text == ""
	})).Return(reply(`{"type":"RECEIPT","confidence":0.75}`), nil)

	c := parser.NewClassifier(gw, nil, nil)
	got := c.ClassifyInvoice(context.Background(), &domain.Document{ID: "img", Image: img, MimeType: "image/jpeg"})

	assert.Equal(t, domain.DocumentTypeReceipt, got.Type)
	gw.AssertExpectations(t)
}
