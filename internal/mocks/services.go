package mocks

import (
	"context"

	"github.com/carttalk/carttalk-server/internal/domain"
)

// MockInventoryService is a mock implementation of InventoryService interface
type MockInventoryService struct {
	ListProductsFunc func(ctx context.Context) ([]domain.Product, error)
	ContextFunc      func(ctx context.Context) (string, error)
	RestockFunc      func(ctx context.Context, id int, stock float64) (*domain.Product, error)
	SeedFunc         func(ctx context.Context) error
}

func (m *MockInventoryService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx)
	}
	return []domain.Product{}, nil
}

func (m *MockInventoryService) Context(ctx context.Context) (string, error) {
	if m.ContextFunc != nil {
		return m.ContextFunc(ctx)
	}
	return "", nil
}

func (m *MockInventoryService) Restock(ctx context.Context, id int, stock float64) (*domain.Product, error) {
	if m.RestockFunc != nil {
		return m.RestockFunc(ctx, id, stock)
	}
	return nil, nil
}

func (m *MockInventoryService) Seed(ctx context.Context) error {
	if m.SeedFunc != nil {
		return m.SeedFunc(ctx)
	}
	return nil
}

// MockOrderService is a mock implementation of OrderService interface
type MockOrderService struct {
	CommitFunc       func(ctx context.Context, session *domain.CallSession, language string) (*domain.CommitResult, error)
	CommitCartFunc   func(ctx context.Context, order *domain.Order, cart []domain.CartLine) (*domain.CommitResult, error)
	ListOrdersFunc   func(ctx context.Context) ([]domain.Order, error)
	UpdateStatusFunc func(ctx context.Context, id int, status domain.OrderStatus) error
}

func (m *MockOrderService) Commit(ctx context.Context, session *domain.CallSession, language string) (*domain.CommitResult, error) {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx, session, language)
	}
	return &domain.CommitResult{}, nil
}

func (m *MockOrderService) CommitCart(ctx context.Context, order *domain.Order, cart []domain.CartLine) (*domain.CommitResult, error) {
	if m.CommitCartFunc != nil {
		return m.CommitCartFunc(ctx, order, cart)
	}
	return &domain.CommitResult{}, nil
}

func (m *MockOrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx)
	}
	return []domain.Order{}, nil
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

// MockModelClient is a mock implementation of ModelClient interface
type MockModelClient struct {
	GenerateTurnFunc func(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error)

	// Prompts records every prompt handed to GenerateTurn.
	Prompts []string
}

func (m *MockModelClient) GenerateTurn(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateTurnFunc != nil {
		return m.GenerateTurnFunc(ctx, prompt, audio, mimeType)
	}
	return "", nil
}

// MockEmailProvider is a mock implementation of EmailProvider interface
type MockEmailProvider struct {
	SendFunc func(ctx context.Context, to, subject, body string, isHTML bool) error

	Sent []string
}

func (m *MockEmailProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	m.Sent = append(m.Sent, subject)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, body, isHTML)
	}
	return nil
}
