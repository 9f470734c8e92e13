package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/carttalk/carttalk-server/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestHandleOrderConfirmed_SendsEmail(t *testing.T) {
	// Arrange
	var gotTo, gotBody string
	provider := &mocks.MockEmailProvider{
		SendFunc: func(ctx context.Context, to, subject, body string, isHTML bool) error {
			gotTo = to
			gotBody = body
			return nil
		},
	}
	svc := NewService(provider, "owner@shop.example", newTestLogger())

	event := []byte(`{"order_id": 7, "customer_name": "Ravi", "total": 195.5, "status": "confirmed", "committed": 2, "skipped": 1}`)

	// Act
	err := svc.HandleOrderConfirmed(event)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(provider.Sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(provider.Sent))
	}
	if provider.Sent[0] != "New CartTalk order #7" {
		t.Errorf("unexpected subject: %q", provider.Sent[0])
	}
	if gotTo != "owner@shop.example" {
		t.Errorf("unexpected recipient: %q", gotTo)
	}
	if !strings.Contains(gotBody, "Ravi") || !strings.Contains(gotBody, "195.50") {
		t.Errorf("unexpected body: %q", gotBody)
	}
	if !strings.Contains(gotBody, "committed: 2, skipped: 1") {
		t.Errorf("expected line counts in body: %q", gotBody)
	}
}

func TestHandleOrderConfirmed_MalformedEvent(t *testing.T) {
	// Arrange
	provider := &mocks.MockEmailProvider{}
	svc := NewService(provider, "owner@shop.example", newTestLogger())

	// Act
	err := svc.HandleOrderConfirmed([]byte("{not json"))

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(provider.Sent) != 0 {
		t.Error("expected no email for malformed event")
	}
}

func TestHandleOrderConfirmed_NoRecipientConfigured(t *testing.T) {
	// Arrange
	provider := &mocks.MockEmailProvider{}
	svc := NewService(provider, "", newTestLogger())

	// Act
	err := svc.HandleOrderConfirmed([]byte(`{"order_id": 1}`))

	// Assert: silently a no-op.
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(provider.Sent) != 0 {
		t.Error("expected no email without a recipient")
	}
}

func TestHandleOrderConfirmed_ProviderErrorPropagates(t *testing.T) {
	// Arrange
	provider := &mocks.MockEmailProvider{
		SendFunc: func(ctx context.Context, to, subject, body string, isHTML bool) error {
			return errors.New("sendgrid 500")
		},
	}
	svc := NewService(provider, "owner@shop.example", newTestLogger())

	// Act
	err := svc.HandleOrderConfirmed([]byte(`{"order_id": 1}`))

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
