package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Decoder turns the raw DATA section into a field mapping. The upstream model
// is not guaranteed to emit valid JSON; it frequently produces a
// single-quoted, True/False/None-flavored literal dialect instead. The
// decoder runs an ordered chain of strategies and reports the first success;
// total failure is absorbed (the turn proceeds with no data), never raised.
type Decoder struct {
	strategies []decodeStrategy
	log        *zap.Logger
}

type decodeStrategy struct {
	name string
	fn   func(string) (map[string]any, error)
}

func NewDecoder(log *zap.Logger) *Decoder {
	return &Decoder{
		log: log,
		strategies: []decodeStrategy{
			{"strict-json", decodeStrictJSON},
			{"literal-dialect", decodeLiteralDialect},
			{"normalized-json", decodeNormalizedJSON},
		},
	}
}

// Decode returns the decoded mapping and true, or nil and false when every
// strategy failed. It never panics and never returns an error to the caller.
func (d *Decoder) Decode(dataText string) (map[string]any, bool) {
	text := strings.TrimSpace(dataText)
	if text == "" {
		return nil, false
	}

	for _, s := range d.strategies {
		m, err := s.fn(text)
		if err == nil {
			return m, true
		}
	}

	d.log.Warn("structured data decode failed on all strategies",
		zap.String("data", clip(text, 200)),
	)
	return nil, false
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// decodeStrictJSON strips a markdown code fence if present and attempts a
// strict JSON parse.
func decodeStrictJSON(text string) (map[string]any, error) {
	text = stripCodeFence(text)
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop an optional language tag on the opening fence ("```json").
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		first := strings.TrimSpace(text[:i])
		if first == "json" || first == "" {
			text = text[i+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// decodeNormalizedJSON is the brute-force tier: swap single quotes for double
// quotes and the literal dialect's spellings for JSON ones, then retry a
// strict parse. Crude, but it recovers the most common near-JSON the model
// emits when the literal parser also choked.
func decodeNormalizedJSON(text string) (map[string]any, error) {
	text = stripCodeFence(text)
	r := strings.NewReplacer(
		"'", `"`,
		"True", "true",
		"False", "false",
		"None", "null",
	)
	var m map[string]any
	if err := json.Unmarshal([]byte(r.Replace(text)), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// decodeLiteralDialect parses the dynamically-typed literal dialect directly:
// objects and arrays as in JSON, strings quoted with either ' or ", and bare
// True/False/None tokens alongside their JSON spellings. Unlike the
// normalization tier it handles apostrophes inside double-quoted strings.
func decodeLiteralDialect(text string) (map[string]any, error) {
	p := &literalParser{src: stripCodeFence(text)}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing content at offset %d", p.pos)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("top-level value is not an object")
	}
	return m, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) parseValue() (any, error) {
	if p.pos >= len(p.src) {
		return nil, errors.New("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseIdent()
	}
}

func (p *literalParser) parseObject() (map[string]any, error) {
	p.pos++ // consume '{'
	m := make(map[string]any)
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return m, nil
	}
	for {
		p.skipSpace()
		key, err := p.parseString()
		if err != nil {
			return nil, fmt.Errorf("object key: %w", err)
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, fmt.Errorf("expected ':' at offset %d", p.pos)
		}
		p.pos++
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		m[key] = val
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, errors.New("unterminated object")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return m, nil
		default:
			return nil, fmt.Errorf("expected ',' or '}' at offset %d", p.pos)
		}
	}
}

func (p *literalParser) parseArray() ([]any, error) {
	p.pos++ // consume '['
	arr := make([]any, 0)
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return arr, nil
	}
	for {
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, errors.New("unterminated array")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, fmt.Errorf("expected ',' or ']' at offset %d", p.pos)
		}
	}
}

func (p *literalParser) parseString() (string, error) {
	if p.pos >= len(p.src) {
		return "", errors.New("unexpected end of input")
	}
	quote := p.src[p.pos]
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("expected string at offset %d", p.pos)
	}
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", errors.New("unterminated escape")
			}
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				// \', \", \\ and anything else: keep the escaped byte
				b.WriteByte(e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", errors.New("unterminated string")
}

func (p *literalParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	n, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("bad number at offset %d: %w", start, err)
	}
	return n, nil
}

func (p *literalParser) parseIdent() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			p.pos++
			continue
		}
		break
	}
	switch p.src[start:p.pos] {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "None", "null":
		return nil, nil
	default:
		return nil, fmt.Errorf("unrecognized token at offset %d", start)
	}
}
