package order

import (
	"strconv"

	"github.com/carttalk/carttalk-server/internal/domain"
)

// cartLines coerces the session's accumulated "cart" field into CartLines.
// The model's serialization drifts (id vs product_id, qty vs quantity,
// numbers as strings), so every key variant is accepted and nothing is
// validated here: a malformed line becomes a zero-id line that the commit
// loop skips via the conditional stock write.
func cartLines(fields map[string]any) []domain.CartLine {
	raw, ok := fields["cart"]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		lines = append(lines, domain.CartLine{
			ProductID: int(numField(entry, "product_id", "id")),
			Quantity:  numField(entry, "quantity", "qty"),
			UnitPrice: numField(entry, "price", "unit_price"),
		})
	}
	return lines
}

func numField(entry map[string]any, keys ...string) float64 {
	for _, key := range keys {
		v, ok := entry[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func stringField(fields map[string]any, key, fallback string) string {
	if v, ok := fields[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
