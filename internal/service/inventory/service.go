package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carttalk/carttalk-server/internal/domain"
	"github.com/carttalk/carttalk-server/internal/ports"
)

const contextCacheKey = "inventory:context"

// Service exposes the product catalogue and renders the inventory context
// block the model prompt embeds. The rendered context is cached briefly so a
// busy call floor does not hammer the store once per turn.
type Service struct {
	repo       ports.ProductRepository
	cache      ports.Cache
	contextTTL time.Duration
	log        *zap.Logger
}

func NewService(repo ports.ProductRepository, cache ports.Cache, contextTTL time.Duration, log *zap.Logger) ports.InventoryService {
	if contextTTL <= 0 {
		contextTTL = 30 * time.Second
	}
	return &Service{
		repo:       repo,
		cache:      cache,
		contextTTL: contextTTL,
		log:        log,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.FindAll(ctx)
}

// Context renders one line per product in the exact shape the model prompt
// depends on for emitting valid product ids:
//
//	[ID: <id>] <name_en>/<name_ml> (<category>): ₹<price>, Stock: <stock>
func (s *Service) Context(ctx context.Context) (string, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, contextCacheKey); err == nil && cached != "" {
			return cached, nil
		}
	}

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("[ID: %d] %s/%s (%s): ₹%g, Stock: %g",
			p.ID, p.NameEN, p.NameML, p.Category, p.Price, p.Stock))
	}
	rendered := strings.Join(lines, "\n")

	if s.cache != nil {
		if err := s.cache.Set(ctx, contextCacheKey, rendered, s.contextTTL); err != nil {
			// Cache loss is not worth failing a turn over.
			s.log.Debug("Failed to cache inventory context", zap.Error(err))
		}
	}

	return rendered, nil
}

// Restock sets a product's absolute stock level. A nil product with no error
// means the id is unknown.
func (s *Service) Restock(ctx context.Context, id int, stock float64) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil || product == nil {
		return nil, err
	}
	if err := s.repo.UpdateStock(ctx, id, stock); err != nil {
		return nil, err
	}
	s.invalidateContext(ctx)
	product.Stock = stock
	return product, nil
}

// Seed populates the catalogue on an empty store, mirroring the shop's
// starter inventory. It is a no-op when products already exist.
func (s *Service) Seed(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []domain.Product{
		{NameEN: "Basmati Rice", NameML: "പാസ്‌മതി അരി", Category: "Grains", Price: 80, Stock: 50},
		{NameEN: "Yellow Onions", NameML: "മഞ്ഞ ഉള്ളി", Category: "Vegetables", Price: 40, Stock: 100},
		{NameEN: "Red Onions", NameML: "ചുവന്ന ഉള്ളി", Category: "Vegetables", Price: 50, Stock: 80},
		{NameEN: "Green Chili", NameML: "പച്ച മുളകി", Category: "Vegetables", Price: 30, Stock: 60},
		{NameEN: "Tomatoes", NameML: "തക്കാളി", Category: "Vegetables", Price: 35, Stock: 70},
		{NameEN: "Coconut Oil", NameML: "തെങ്ങ എണ്ണ", Category: "Oils", Price: 150, Stock: 40},
		{NameEN: "Turmeric Powder", NameML: "ഞാണ്ടൽ പൊടി", Category: "Spices", Price: 100, Stock: 25},
		{NameEN: "Salt", NameML: "ഉപ്പ്", Category: "Spices", Price: 20, Stock: 200},
	}
	for i := range seed {
		if err := s.repo.Save(ctx, &seed[i]); err != nil {
			return err
		}
	}

	s.log.Info("Seeded product catalogue", zap.Int("products", len(seed)))
	return nil
}

func (s *Service) invalidateContext(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, contextCacheKey); err != nil {
		s.log.Debug("Failed to invalidate inventory context cache", zap.Error(err))
	}
}
