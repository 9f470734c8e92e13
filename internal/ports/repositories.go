package ports

import (
	"context"

	"github.com/carttalk/carttalk-server/internal/domain"
)

type ProductRepository interface {
	Save(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id int) (*domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	UpdateStock(ctx context.Context, id int, stock float64) error
	// DeductStock decrements stock by qty only if current stock >= qty, as a
	// single conditional write. Returns false when zero rows were affected
	// (insufficient stock or unknown product id).
	DeductStock(ctx context.Context, id int, qty float64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type OrderRepository interface {
	// Create persists the order together with its lines and fills the
	// generated order id.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int) (*domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) error
}

type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
