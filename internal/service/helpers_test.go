package service_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"docparse/internal/parser"
	"docparse/internal/port"
)

func isClassification(req port.CompletionRequest) bool {
	return strings.Contains(req.Instructions, "document classification assistant")
}

func isExtraction(req port.CompletionRequest) bool {
	return strings.Contains(req.Instructions, "document data extraction assistant")
}

func completion(content string) *port.Completion {
	return &port.Completion{Content: content, Model: "test-model"}
}

func fixedNormalizer() *parser.Normalizer {
	return parser.NewNormalizerWithClock(func() time.Time {
		return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	})
}

const fullRecord = `{
	"invoiceNumber": "INV-100",
	"invoiceDate": "2024-06-01",
	"vendorName": "Acme Supplies",
	"items": [{"description": "Widget", "quantity": 1, "unitPrice": 10, "amount": 10}],
	"totalAmount": 10,
	"currency": "USD"
}`

// scriptedGateway answers by calling respond. It records concurrency and
// per-kind call counts.
type scriptedGateway struct {
	respond func(req port.CompletionRequest) (*port.Completion, error)
	delay   time.Duration

	mu              sync.Mutex
	classifyCalls   int
	extractionCalls int

	inFlight    int32
	maxInFlight int32
}

func (g *scriptedGateway) Complete(ctx context.Context, req port.CompletionRequest) (*port.Completion, error) {
	n := atomic.AddInt32(&g.inFlight, 1)
	defer atomic.AddInt32(&g.inFlight, -1)
	for {
		cur := atomic.LoadInt32(&g.maxInFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&g.maxInFlight, cur, n) {
			break
		}
	}

	g.mu.Lock()
	if isClassification(req) {
		g.classifyCalls++
	} else {
		g.extractionCalls++
	}
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	return g.respond(req)
}

func (g *scriptedGateway) counts() (classify, extract int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.classifyCalls, g.extractionCalls
}
