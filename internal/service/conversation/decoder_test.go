package conversation

import (
	"testing"

	"go.uber.org/zap"
)

func newTestDecoder() *Decoder {
	logger, _ := zap.NewDevelopment()
	return NewDecoder(logger)
}

func TestDecode_StrictJSON(t *testing.T) {
	// Arrange
	d := newTestDecoder()

	// Act
	m, ok := d.Decode(`{"name": "Ravi", "cart": [{"id": 1, "qty": 2}]}`)

	// Assert
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if m["name"] != "Ravi" {
		t.Errorf("unexpected name: %v", m["name"])
	}
}

func TestDecode_SingleQuotedDialect(t *testing.T) {
	// Arrange
	d := newTestDecoder()

	// Act
	m, ok := d.Decode(`{'name': 'Ravi', 'address': None, 'confirmed': True}`)

	// Assert
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if m["name"] != "Ravi" {
		t.Errorf("unexpected name: %v", m["name"])
	}
	if v, present := m["address"]; !present || v != nil {
		t.Errorf("expected address present and nil, got %v (present=%v)", v, present)
	}
	if m["confirmed"] != true {
		t.Errorf("expected confirmed true, got %v", m["confirmed"])
	}
}

func TestDecode_DialectEquivalentToJSON(t *testing.T) {
	// Arrange
	d := newTestDecoder()

	// Act
	dialect, ok1 := d.Decode(`{'qty': 2.5, 'ok': False, 'note': None}`)
	strict, ok2 := d.Decode(`{"qty": 2.5, "ok": false, "note": null}`)

	// Assert: both spellings must land on the same mapping.
	if !ok1 || !ok2 {
		t.Fatal("expected both decodes to succeed")
	}
	if dialect["qty"] != strict["qty"] || dialect["ok"] != strict["ok"] {
		t.Errorf("dialect %v != strict %v", dialect, strict)
	}
	if dialect["note"] != nil || strict["note"] != nil {
		t.Error("expected nil note in both")
	}
}

func TestDecode_ApostropheInsideDoubleQuotes(t *testing.T) {
	// Arrange: naive quote replacement would corrupt this; the literal parser
	// must handle it.
	d := newTestDecoder()

	// Act
	m, ok := d.Decode(`{"note": "customer's usual order", "id": 3}`)

	// Assert
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if m["note"] != "customer's usual order" {
		t.Errorf("unexpected note: %v", m["note"])
	}
}

func TestDecode_CodeFence(t *testing.T) {
	// Arrange
	d := newTestDecoder()

	// Act
	m, ok := d.Decode("```json\n{\"cart\": []}\n```")

	// Assert
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if _, present := m["cart"]; !present {
		t.Error("expected cart key")
	}
}

func TestDecode_NestedCart(t *testing.T) {
	// Arrange
	d := newTestDecoder()

	// Act
	m, ok := d.Decode(`{'cart': [{'id': 1, 'qty': 2, 'price': 80}, {'id': 5, 'qty': 1.5, 'price': 35}]}`)

	// Assert
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	cart, isSlice := m["cart"].([]any)
	if !isSlice || len(cart) != 2 {
		t.Fatalf("expected 2 cart lines, got %v", m["cart"])
	}
	first, isMap := cart[0].(map[string]any)
	if !isMap {
		t.Fatalf("expected map cart line, got %T", cart[0])
	}
	if first["qty"] != 2.0 {
		t.Errorf("unexpected qty: %v", first["qty"])
	}
}

func TestDecode_TotalFailure_Absorbed(t *testing.T) {
	// Arrange
	d := newTestDecoder()

	for _, input := range []string{
		"",
		"   ",
		"not a mapping at all",
		"{unclosed",
		"[1, 2, 3]", // valid literal but not an object
	} {
		// Act
		m, ok := d.Decode(input)

		// Assert
		if ok {
			t.Errorf("expected decode of %q to fail, got %v", input, m)
		}
		if m != nil {
			t.Errorf("expected nil mapping for %q", input)
		}
	}
}
