// Package parse turns raw model output into term records. Model replies
// approximate one triple per line but arrive with prose, markdown table
// decoration, and inconsistent separators; parsing is tolerant per line and
// only fails when the whole response yields nothing.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
)

// candidate is a possibly incomplete triple recovered from one line.
type candidate struct {
	ordinal int  // 0 when the line carried none
	hasOrd  bool
	source  string
	target  string
}

// matcher attempts to recognize one delimiter convention on a line. Matchers
// run in priority order; the first hit wins.
type matcher func(line string) (candidate, bool)

var matchers = []matcher{
	matchMarkdownRow,
	matchPipe,
	matchTab,
	matchComma,
}

// ordinalRe matches a standalone ordinal cell like "1", "2.", "3)".
var ordinalRe = regexp.MustCompile(`^\s*(\d+)\s*[.)、:：]?\s*$`)

// ordinalPrefixRe peels a leading ordinal off a field, e.g. "1. 服务器".
var ordinalPrefixRe = regexp.MustCompile(`^\s*(\d+)\s*(?:[.)、:：]\s*|\s+)`)

// Parse extracts term records from raw model output. Lines that match no
// known pattern are skipped; a response with no valid triples at all is an
// empty extraction, which is recoverable but must not look like success.
func Parse(raw string) (domain.TermSet, error) {
	var set domain.TermSet

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isSeparatorRow(line) {
			continue
		}

		for _, m := range matchers {
			c, ok := m(line)
			if !ok {
				continue
			}
			rec := domain.TermRecord{
				Index:  c.ordinal,
				Source: strings.TrimSpace(c.source),
				Target: strings.TrimSpace(c.target),
			}
			if !c.hasOrd {
				rec.Index = len(set) + 1
			}
			if rec.Valid() {
				set = append(set, rec)
			}
			break
		}
	}

	if len(set) == 0 {
		return nil, domain.EmptyExtractionError("no term pairs recognized in model response")
	}
	return set, nil
}

// isSeparatorRow recognizes markdown table separator rows like |---|---|---|.
func isSeparatorRow(line string) bool {
	hasDash := false
	for _, r := range line {
		switch r {
		case '-':
			hasDash = true
		case '|', ':', ' ', '\t':
		default:
			return false
		}
	}
	return hasDash
}

// fieldsToCandidate interprets two or three delimited fields as a triple.
// Three fields require a numeric ordinal up front; with only two fields a
// leading ordinal may still be glued to the source term.
func fieldsToCandidate(fields []string) (candidate, bool) {
	switch len(fields) {
	case 3:
		m := ordinalRe.FindStringSubmatch(fields[0])
		if m == nil {
			// Header rows and prose tables land here; nothing usable.
			return candidate{}, false
		}
		n, _ := strconv.Atoi(m[1])
		return candidate{ordinal: n, hasOrd: true, source: fields[1], target: fields[2]}, true
	case 2:
		source := fields[0]
		c := candidate{source: source, target: fields[1]}
		if m := ordinalPrefixRe.FindStringSubmatch(source); m != nil {
			n, _ := strconv.Atoi(m[1])
			c.ordinal = n
			c.hasOrd = true
			c.source = source[len(m[0]):]
		}
		return c, true
	default:
		return candidate{}, false
	}
}

// matchMarkdownRow handles table rows decorated with leading/trailing pipes.
func matchMarkdownRow(line string) (candidate, bool) {
	if !strings.HasPrefix(line, "|") {
		return candidate{}, false
	}
	trimmed := strings.Trim(line, "|")
	fields := splitTrimmed(trimmed, "|")
	return fieldsToCandidate(fields)
}

// matchPipe handles bare pipe-delimited lines.
func matchPipe(line string) (candidate, bool) {
	if !strings.Contains(line, "|") {
		return candidate{}, false
	}
	return fieldsToCandidate(splitTrimmed(line, "|"))
}

// matchTab handles tab-delimited lines.
func matchTab(line string) (candidate, bool) {
	if !strings.Contains(line, "\t") {
		return candidate{}, false
	}
	return fieldsToCandidate(splitTrimmed(line, "\t"))
}

// matchComma handles comma-delimited lines, accepting fullwidth commas the
// model sometimes emits around Chinese text.
func matchComma(line string) (candidate, bool) {
	normalized := strings.ReplaceAll(line, "，", ",")
	if !strings.Contains(normalized, ",") {
		return candidate{}, false
	}
	return fieldsToCandidate(splitTrimmed(normalized, ","))
}

// splitTrimmed splits on sep, trims each field, and drops empty outer fields
// produced by decoration.
func splitTrimmed(s, sep string) []string {
	parts := strings.Split(s, sep)
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}
