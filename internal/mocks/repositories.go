package mocks

import (
	"context"
	"sync"

	"github.com/carttalk/carttalk-server/internal/domain"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	SaveFunc        func(ctx context.Context, user *domain.User) error
	FindByIDFunc    func(ctx context.Context, id string) (*domain.User, error)
	FindByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
}

func (m *MockUserRepository) Save(ctx context.Context, user *domain.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, nil
}

// MockProductRepository is a mock implementation of ProductRepository. When
// Stock is seeded via SetStock the default DeductStock applies the same
// conditional-deduction rule as the real store, under a mutex, so commit
// tests can exercise concurrent carts.
type MockProductRepository struct {
	SaveFunc        func(ctx context.Context, product *domain.Product) error
	FindByIDFunc    func(ctx context.Context, id int) (*domain.Product, error)
	FindAllFunc     func(ctx context.Context) ([]domain.Product, error)
	UpdateStockFunc func(ctx context.Context, id int, stock float64) error
	DeductStockFunc func(ctx context.Context, id int, qty float64) (bool, error)
	CountFunc       func(ctx context.Context) (int64, error)

	mu    sync.Mutex
	stock map[int]float64
}

// SetStock seeds the in-memory stock table used by the default DeductStock.
func (m *MockProductRepository) SetStock(id int, qty float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stock == nil {
		m.stock = make(map[int]float64)
	}
	m.stock[id] = qty
}

// StockOf reads back the in-memory stock for assertions.
func (m *MockProductRepository) StockOf(id int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[id]
}

func (m *MockProductRepository) Save(ctx context.Context, product *domain.Product) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, product)
	}
	return nil
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int) (*domain.Product, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return []domain.Product{}, nil
}

func (m *MockProductRepository) UpdateStock(ctx context.Context, id int, stock float64) error {
	if m.UpdateStockFunc != nil {
		return m.UpdateStockFunc(ctx, id, stock)
	}
	m.SetStock(id, stock)
	return nil
}

func (m *MockProductRepository) DeductStock(ctx context.Context, id int, qty float64) (bool, error) {
	if m.DeductStockFunc != nil {
		return m.DeductStockFunc(ctx, id, qty)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.stock[id]
	if !ok || current < qty {
		return false, nil
	}
	m.stock[id] = current - qty
	return true, nil
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	CreateFunc       func(ctx context.Context, order *domain.Order) error
	FindByIDFunc     func(ctx context.Context, id int) (*domain.Order, error)
	FindAllFunc      func(ctx context.Context) ([]domain.Order, error)
	UpdateStatusFunc func(ctx context.Context, id int, status domain.OrderStatus) error

	mu      sync.Mutex
	nextID  int
	Created []*domain.Order
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	m.Created = append(m.Created, order)
	return nil
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id int) (*domain.Order, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return []domain.Order{}, nil
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}
