package conversation

import (
	"regexp"
	"strings"
)

// Sanitize strips structural leakage out of a response before it reaches
// voice synthesis: residual DATA blocks, COMMAND tokens, stray TRANSCRIPT
// lines, product-id annotations like "(ID: 12)" or "ID 12", and decorative
// markup. It is idempotent, so running it on already-clean text is a no-op.
func Sanitize(text string) string {
	text = stripDataBlocks(text)
	text = commandRe.ReplaceAllString(text, "")
	text = transcriptLineRe.ReplaceAllString(text, "")
	text = responseLabelRe.ReplaceAllString(text, "")
	text = idAnnotationRe.ReplaceAllString(text, "")
	text = markupRe.ReplaceAllString(text, "")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = blankLineRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

var (
	commandRe        = regexp.MustCompile(`(?i)\bCOMMAND:\s*\w*`)
	transcriptLineRe = regexp.MustCompile(`(?im)^[ \t]*TRANSCRIPT:.*$`)
	responseLabelRe  = regexp.MustCompile(`(?i)\bRESPONSE:\s*`)
	idAnnotationRe   = regexp.MustCompile(`(?i)[(\[]\s*ID[:\s]*\d+\s*[)\]]|\bID[:\s]+\d+\b`)
	markupRe         = regexp.MustCompile("[*#`]+")
	spaceRunRe       = regexp.MustCompile(`[ \t]{2,}`)
	blankLineRe      = regexp.MustCompile(`\n\s*\n+`)
)

// stripDataBlocks removes "DATA:" payloads. A brace-balanced scan is used
// instead of a regexp because cart payloads nest braces; without a payload
// the cut runs to end of line.
func stripDataBlocks(text string) string {
	upper := strings.ToUpper(text)
	for {
		i := strings.Index(upper, "DATA:")
		if i < 0 {
			return text
		}
		end := i + len("DATA:")
		for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
			end++
		}
		if end < len(text) && text[end] == '{' {
			end = balancedEnd(text, end)
		} else {
			if nl := strings.IndexByte(text[end:], '\n'); nl >= 0 {
				end += nl
			} else {
				end = len(text)
			}
		}
		text = text[:i] + text[end:]
		upper = strings.ToUpper(text)
	}
}

// balancedEnd returns the offset just past the brace-balanced block starting
// at open (which must point at '{'), skipping braces inside quoted strings.
// An unbalanced block runs to end of text.
func balancedEnd(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}
