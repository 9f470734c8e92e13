package order

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/carttalk/carttalk-server/internal/domain"
	"github.com/carttalk/carttalk-server/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func sessionWithCart(cart []any, fields map[string]any) *domain.CallSession {
	s := domain.NewCallSession("call-1")
	s.Fields["cart"] = cart
	for k, v := range fields {
		s.Fields[k] = v
	}
	s.History = []string{"User: rice", "Model: added"}
	return s
}

func TestCommit_AllLinesFulfilled(t *testing.T) {
	// Arrange
	products := &mocks.MockProductRepository{}
	products.SetStock(1, 50)
	products.SetStock(5, 10)
	orders := &mocks.MockOrderRepository{}
	mq := mocks.NewMockMessageQueue()
	svc := NewService(products, orders, mq, newTestLogger())

	session := sessionWithCart([]any{
		map[string]any{"id": float64(1), "qty": float64(2), "price": float64(80)},
		map[string]any{"id": float64(5), "qty": 1.5, "price": float64(35)},
	}, map[string]any{"name": "Ravi", "phone": "9999", "address": "Kochi"})

	// Act
	result, err := svc.Commit(context.Background(), session, "ml")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.CommittedLines) != 2 || len(result.SkippedLines) != 0 {
		t.Fatalf("expected 2 committed 0 skipped, got %d/%d",
			len(result.CommittedLines), len(result.SkippedLines))
	}
	if result.Total != 2*80+1.5*35 {
		t.Errorf("unexpected total: %v", result.Total)
	}
	if result.Status != domain.OrderStatusConfirmed {
		t.Errorf("unexpected status: %v", result.Status)
	}
	if products.StockOf(1) != 48 || products.StockOf(5) != 8.5 {
		t.Errorf("stock not deducted: %v %v", products.StockOf(1), products.StockOf(5))
	}

	// The persisted order carries the session's customer fields.
	if len(orders.Created) != 1 {
		t.Fatalf("expected 1 persisted order, got %d", len(orders.Created))
	}
	saved := orders.Created[0]
	if saved.CustomerName != "Ravi" || saved.CustomerPhone != "9999" || saved.Language != "ml" {
		t.Errorf("unexpected order fields: %+v", saved)
	}
	if len(saved.Lines) != 2 {
		t.Errorf("expected 2 order lines, got %d", len(saved.Lines))
	}
}

func TestCommit_InsufficientStockSkipsLine(t *testing.T) {
	// Arrange
	products := &mocks.MockProductRepository{}
	products.SetStock(1, 1) // only one left
	products.SetStock(5, 10)
	orders := &mocks.MockOrderRepository{}
	svc := NewService(products, orders, mocks.NewMockMessageQueue(), newTestLogger())

	session := sessionWithCart([]any{
		map[string]any{"id": float64(1), "qty": float64(2), "price": float64(80)},
		map[string]any{"id": float64(5), "qty": float64(1), "price": float64(35)},
	}, nil)

	// Act
	result, err := svc.Commit(context.Background(), session, "en")

	// Assert: the short line is skipped, the rest commits, no error.
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.CommittedLines) != 1 || len(result.SkippedLines) != 1 {
		t.Fatalf("expected 1 committed 1 skipped, got %d/%d",
			len(result.CommittedLines), len(result.SkippedLines))
	}
	if result.SkippedLines[0].ProductID != 1 {
		t.Errorf("expected product 1 skipped, got %+v", result.SkippedLines[0])
	}
	if products.StockOf(1) != 1 {
		t.Errorf("skipped line must not touch stock, got %v", products.StockOf(1))
	}
	if len(orders.Created) != 1 || len(orders.Created[0].Lines) != 1 {
		t.Error("expected order persisted with only the fulfilled line")
	}
}

func TestCommit_UnknownProductSkipped(t *testing.T) {
	// Arrange
	products := &mocks.MockProductRepository{}
	products.SetStock(1, 50)
	svc := NewService(products, &mocks.MockOrderRepository{}, mocks.NewMockMessageQueue(), newTestLogger())

	session := sessionWithCart([]any{
		map[string]any{"id": float64(999), "qty": float64(1), "price": float64(10)},
		map[string]any{"id": float64(1), "qty": float64(1), "price": float64(80)},
	}, nil)

	// Act
	result, err := svc.Commit(context.Background(), session, "en")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.SkippedLines) != 1 || result.SkippedLines[0].ProductID != 999 {
		t.Errorf("expected unknown product skipped, got %+v", result.SkippedLines)
	}
	if len(result.CommittedLines) != 1 {
		t.Errorf("expected known product committed, got %+v", result.CommittedLines)
	}
}

func TestCommit_StoreErrorAborts(t *testing.T) {
	// Arrange
	products := &mocks.MockProductRepository{
		DeductStockFunc: func(ctx context.Context, id int, qty float64) (bool, error) {
			return false, errors.New("connection refused")
		},
	}
	orders := &mocks.MockOrderRepository{}
	svc := NewService(products, orders, mocks.NewMockMessageQueue(), newTestLogger())

	session := sessionWithCart([]any{
		map[string]any{"id": float64(1), "qty": float64(1), "price": float64(80)},
	}, nil)

	// Act
	_, err := svc.Commit(context.Background(), session, "en")

	// Assert: infrastructure failure is fatal, nothing persisted.
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(orders.Created) != 0 {
		t.Error("expected no order persisted on store error")
	}
}

func TestCommit_ConcurrentCommitsNeverOversell(t *testing.T) {
	// Arrange: stock of exactly one, two simultaneous commits for it.
	products := &mocks.MockProductRepository{}
	products.SetStock(1, 1)
	orders := &mocks.MockOrderRepository{}
	svc := NewService(products, orders, mocks.NewMockMessageQueue(), newTestLogger())

	makeSession := func(id string) *domain.CallSession {
		s := domain.NewCallSession(id)
		s.Fields["cart"] = []any{
			map[string]any{"id": float64(1), "qty": float64(1), "price": float64(80)},
		}
		return s
	}

	// Act
	var wg sync.WaitGroup
	results := make([]*domain.CommitResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.Commit(context.Background(), makeSession("call-"+string(rune('a'+i))), "en")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	// Assert: exactly one commit wins the unit of stock.
	committed := 0
	for _, r := range results {
		if r == nil {
			t.Fatal("missing result")
		}
		committed += len(r.CommittedLines)
	}
	if committed != 1 {
		t.Errorf("expected exactly 1 committed line across both commits, got %d", committed)
	}
	if products.StockOf(1) != 0 {
		t.Errorf("expected stock drained to 0, got %v", products.StockOf(1))
	}
}

func TestCommit_TolerantCartKeys(t *testing.T) {
	// Arrange: the model drifts between key spellings and stringy numbers.
	products := &mocks.MockProductRepository{}
	products.SetStock(3, 5)
	svc := NewService(products, &mocks.MockOrderRepository{}, mocks.NewMockMessageQueue(), newTestLogger())

	session := sessionWithCart([]any{
		map[string]any{"product_id": float64(3), "quantity": "2", "unit_price": float64(30)},
	}, nil)

	// Act
	result, err := svc.Commit(context.Background(), session, "en")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.CommittedLines) != 1 {
		t.Fatalf("expected line committed, got %+v", result)
	}
	line := result.CommittedLines[0]
	if line.ProductID != 3 || line.Quantity != 2 || line.UnitPrice != 30 {
		t.Errorf("unexpected coerced line: %+v", line)
	}
}

func TestCommit_PublishesConfirmedEvent(t *testing.T) {
	// Arrange
	products := &mocks.MockProductRepository{}
	products.SetStock(1, 50)
	mq := mocks.NewMockMessageQueue()
	svc := NewService(products, &mocks.MockOrderRepository{}, mq, newTestLogger())

	session := sessionWithCart([]any{
		map[string]any{"id": float64(1), "qty": float64(2), "price": float64(80)},
	}, map[string]any{"name": "Ravi"})

	// Act
	_, err := svc.Commit(context.Background(), session, "en")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	msgs := mq.GetPublishedMessages(SubjectOrderConfirmed)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(msgs))
	}
	var event map[string]any
	if err := json.Unmarshal(msgs[0], &event); err != nil {
		t.Fatalf("event is not valid JSON: %v", err)
	}
	if event["customer_name"] != "Ravi" {
		t.Errorf("unexpected event payload: %v", event)
	}
}

func TestCommit_EmptyCart(t *testing.T) {
	// Arrange: confirming with no cart still records the order envelope.
	products := &mocks.MockProductRepository{}
	orders := &mocks.MockOrderRepository{}
	svc := NewService(products, orders, mocks.NewMockMessageQueue(), newTestLogger())

	session := domain.NewCallSession("call-1")

	// Act
	result, err := svc.Commit(context.Background(), session, "en")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.CommittedLines) != 0 || len(result.SkippedLines) != 0 {
		t.Errorf("expected empty line sets, got %+v", result)
	}
	if result.Total != 0 {
		t.Errorf("expected zero total, got %v", result.Total)
	}
	if len(orders.Created) != 1 {
		t.Error("expected order envelope persisted")
	}
}
