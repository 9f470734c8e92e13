package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/carttalk/carttalk-server/internal/ports"
)

// Service turns orders.confirmed events into shop-owner email alerts. It
// runs off the message queue so a slow email provider never delays a call.
type Service struct {
	provider ports.EmailProvider
	to       string
	log      *zap.Logger
}

func NewService(provider ports.EmailProvider, to string, log *zap.Logger) *Service {
	return &Service{
		provider: provider,
		to:       to,
		log:      log,
	}
}

type orderConfirmedEvent struct {
	OrderID      int     `json:"order_id"`
	CustomerName string  `json:"customer_name"`
	Total        float64 `json:"total"`
	Status       string  `json:"status"`
	Language     string  `json:"language"`
	Committed    int     `json:"committed"`
	Skipped      int     `json:"skipped"`
}

// HandleOrderConfirmed is the queue subscriber callback.
func (s *Service) HandleOrderConfirmed(data []byte) error {
	if s.provider == nil || s.to == "" {
		return nil
	}

	var event orderConfirmedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode order confirmed event: %w", err)
	}

	subject := fmt.Sprintf("New CartTalk order #%d", event.OrderID)
	body := fmt.Sprintf(
		"Order #%d from %s\nTotal: ₹%.2f\nLines committed: %d, skipped: %d\nStatus: %s\n",
		event.OrderID, event.CustomerName, event.Total, event.Committed, event.Skipped, event.Status,
	)

	if err := s.provider.Send(context.Background(), s.to, subject, body, false); err != nil {
		s.log.Error("Failed to send order notification email",
			zap.Int("order_id", event.OrderID),
			zap.Error(err),
		)
		return err
	}

	s.log.Info("Order notification sent", zap.Int("order_id", event.OrderID))
	return nil
}
