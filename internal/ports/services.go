package ports

import (
	"context"
	"time"

	"github.com/carttalk/carttalk-server/internal/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, user *domain.User) error
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
}

type InventoryService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// Context renders the newline-delimited inventory listing handed to the
	// model, one product per line:
	//   [ID: <id>] <name_en>/<name_ml> (<category>): ₹<price>, Stock: <stock>
	Context(ctx context.Context) (string, error)
	Restock(ctx context.Context, id int, stock float64) (*domain.Product, error)
	Seed(ctx context.Context) error
}

type OrderService interface {
	// Commit finalizes the session's accumulated cart against inventory.
	// language tags the persisted order with the caller's detected language.
	Commit(ctx context.Context, session *domain.CallSession, language string) (*domain.CommitResult, error)
	// CommitCart is the line-item protocol Commit sits on; also the manual
	// confirm endpoint's entry point.
	CommitCart(ctx context.Context, order *domain.Order, cart []domain.CartLine) (*domain.CommitResult, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) error
}

type ConversationService interface {
	ProcessTurn(ctx context.Context, callID string, audio []byte) (*domain.TurnResult, error)
}

// ModelClient is the conversational model boundary: prompt and audio in, raw
// semi-structured text out. The text is untrusted and may be malformed.
type ModelClient interface {
	GenerateTurn(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// EmailProvider sends back-office notifications (confirmed-order alerts).
type EmailProvider interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}
