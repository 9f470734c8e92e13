package conversation

import (
	"strings"

	"github.com/carttalk/carttalk-server/internal/domain"
)

// The model is instructed to reply with line-anchored sections:
//
//	TRANSCRIPT: <what the user said>
//	RESPONSE: <text to speak back>
//	DATA: {...}
//	COMMAND: TOKEN
//
// Real model output drifts from that shape constantly, so extraction is a
// single left-to-right scan with lazy spans (content runs to the next
// recognized marker or end of text) and fail-open defaults instead of a
// chain of regexes.

type sectionKind int

const (
	sectionTranscript sectionKind = iota
	sectionResponse
	sectionData
	sectionCommand
)

var markerLabels = []struct {
	kind  sectionKind
	label string
}{
	{sectionTranscript, "TRANSCRIPT:"},
	{sectionResponse, "RESPONSE:"},
	{sectionData, "DATA:"},
	{sectionCommand, "COMMAND:"},
}

type marker struct {
	kind         sectionKind
	lineStart    int // offset of the marker's line in the raw text
	contentStart int // offset just past the marker label
}

// Extractor splits raw model text into its logical sections. It never fails:
// when nothing is recognizable the entire text becomes the spoken response.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns a best-effort Turn plus the raw text of the DATA section
// (decoded separately, since decoding has its own fallback chain).
func (e *Extractor) Extract(raw string) (domain.Turn, string) {
	found := scanMarkers(raw)
	if len(found) == 0 {
		return domain.Turn{ResponseText: raw}, ""
	}

	var turn domain.Turn
	var dataText string
	seen := make(map[sectionKind]bool, 4)

	for i, m := range found {
		if seen[m.kind] {
			continue
		}
		seen[m.kind] = true

		end := len(raw)
		if i+1 < len(found) {
			end = found[i+1].lineStart
		}
		span := strings.TrimSpace(raw[m.contentStart:end])

		switch m.kind {
		case sectionTranscript:
			turn.Transcript = span
		case sectionResponse:
			turn.ResponseText = span
		case sectionData:
			dataText = span
		case sectionCommand:
			turn.Command = commandToken(span)
		}
	}

	if turn.ResponseText == "" {
		turn.ResponseText = responseFallback(raw, found, seen)
	}

	return turn, dataText
}

// responseFallback recovers a spoken reply when no RESPONSE: marker matched.
// With a transcript present, the transcript span is cut out of the raw text
// so the user's own words are never read back to them. Otherwise the whole
// raw text is used; the sanitizer strips residual DATA/COMMAND leakage later.
func responseFallback(raw string, found []marker, seen map[sectionKind]bool) string {
	if seen[sectionTranscript] {
		for i, m := range found {
			if m.kind != sectionTranscript {
				continue
			}
			end := len(raw)
			if i+1 < len(found) {
				end = found[i+1].lineStart
			}
			remainder := strings.TrimSpace(raw[:m.lineStart] + raw[end:])
			if remainder != "" {
				return remainder
			}
			break
		}
	}
	return raw
}

// scanMarkers walks the raw text line by line and records every recognized
// section marker, case-insensitively, anchored at line starts (leading
// whitespace tolerated).
func scanMarkers(raw string) []marker {
	var out []marker
	offset := 0
	for offset <= len(raw) {
		lineEnd := strings.IndexByte(raw[offset:], '\n')
		var line string
		if lineEnd < 0 {
			line = raw[offset:]
			lineEnd = len(raw)
		} else {
			line = raw[offset : offset+lineEnd]
			lineEnd = offset + lineEnd
		}

		trimmed := strings.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)
		upper := strings.ToUpper(trimmed)
		for _, def := range markerLabels {
			if strings.HasPrefix(upper, def.label) {
				out = append(out, marker{
					kind:         def.kind,
					lineStart:    offset,
					contentStart: offset + indent + len(def.label),
				})
				break
			}
		}

		if lineEnd >= len(raw) {
			break
		}
		offset = lineEnd + 1
	}
	return out
}

// commandToken extracts the leading word token of a COMMAND span, uppercased.
func commandToken(span string) string {
	span = strings.TrimSpace(span)
	end := 0
	for end < len(span) {
		c := span[end]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			end++
			continue
		}
		break
	}
	return strings.ToUpper(span[:end])
}
