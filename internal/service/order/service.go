package order

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carttalk/carttalk-server/internal/adapter/queue"
	"github.com/carttalk/carttalk-server/internal/domain"
	"github.com/carttalk/carttalk-server/internal/observability/telemetry"
	"github.com/carttalk/carttalk-server/internal/ports"
)

const SubjectOrderConfirmed = "orders.confirmed"

// Service commits finalized carts against inventory. Stock deduction is one
// conditional write per line, evaluated atomically by the store; a line that
// cannot be fulfilled is skipped and reported, never fatal. Only store
// connectivity errors abort a commit.
type Service struct {
	products ports.ProductRepository
	orders   ports.OrderRepository
	mq       queue.MessageQueue
	log      *zap.Logger
}

func NewService(products ports.ProductRepository, orders ports.OrderRepository, mq queue.MessageQueue, log *zap.Logger) ports.OrderService {
	return &Service{
		products: products,
		orders:   orders,
		mq:       mq,
		log:      log,
	}
}

func (s *Service) Commit(ctx context.Context, session *domain.CallSession, language string) (*domain.CommitResult, error) {
	cart := cartLines(session.Fields)

	// Total reflects the cart as the model accumulated it, not the lines
	// that survive stock checks; the mismatch under partial fulfillment is
	// logged in CommitCart.
	var total float64
	for _, line := range cart {
		total += line.Quantity * line.UnitPrice
	}

	order := &domain.Order{
		CustomerPhone:   stringField(session.Fields, "phone", "VoiceUser"),
		CustomerName:    stringField(session.Fields, "name", "Unknown"),
		CustomerAddress: stringField(session.Fields, "address", "Unknown"),
		Total:           total,
		Status:          domain.OrderStatusConfirmed,
		Language:        language,
		Transcript:      strings.Join(session.History, "\n"),
	}

	return s.CommitCart(ctx, order, cart)
}

func (s *Service) CommitCart(ctx context.Context, order *domain.Order, cart []domain.CartLine) (*domain.CommitResult, error) {
	committed := make([]domain.CartLine, 0, len(cart))
	skipped := make([]domain.CartLine, 0)

	for _, line := range cart {
		ok, err := s.products.DeductStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Warn("Cart line skipped: insufficient stock or unknown product",
				zap.Int("product_id", line.ProductID),
				zap.Float64("quantity", line.Quantity),
			)
			telemetry.OrderLinesSkippedTotal.Inc()
			skipped = append(skipped, line)
			continue
		}
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		})
		committed = append(committed, line)
	}

	if order.Status == "" {
		order.Status = domain.OrderStatusConfirmed
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if len(skipped) > 0 {
		var committedTotal float64
		for _, line := range committed {
			committedTotal += line.Quantity * line.UnitPrice
		}
		s.log.Warn("Order total differs from committed lines after skips",
			zap.Int("order_id", order.ID),
			zap.Float64("order_total", order.Total),
			zap.Float64("committed_total", committedTotal),
		)
	}

	telemetry.OrdersTotal.Inc()
	s.publishConfirmed(order, len(committed), len(skipped))

	return &domain.CommitResult{
		OrderID:        order.ID,
		Total:          order.Total,
		Status:         order.Status,
		CommittedLines: committed,
		SkippedLines:   skipped,
	}, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.FindAll(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) error {
	return s.orders.UpdateStatus(ctx, id, status)
}

func (s *Service) publishConfirmed(order *domain.Order, committed, skipped int) {
	if s.mq == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"order_id":       order.ID,
		"customer_name":  order.CustomerName,
		"total":          order.Total,
		"status":         order.Status,
		"language":       order.Language,
		"committed":      committed,
		"skipped":        skipped,
	})
	if err != nil {
		return
	}
	if err := s.mq.Publish(SubjectOrderConfirmed, payload); err != nil {
		s.log.Error("Failed to publish order confirmed event",
			zap.Int("order_id", order.ID),
			zap.Error(err),
		)
	}
}
