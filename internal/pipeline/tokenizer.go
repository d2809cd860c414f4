package pipeline

import "strings"

// Tokenize splits raw CSV text into a RawTable. A double quote toggles
// quoting: inside quotes a comma is literal, not a field boundary. Quotes
// are stripped from values and every field is trimmed after unquoting.
// Lines split on universal newline boundaries; empty data lines are
// dropped. An input with no content at all is the one file-fatal case here.
//
// encoding/csv is deliberately not used: real bank exports carry bare
// quotes and ragged rows that csv.Reader rejects, and this importer's
// policy is to keep going and let the extractor skip what it cannot use.
func Tokenize(raw string) (*RawTable, error) {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}

	table := &RawTable{Header: splitLine(lines[0])}
	for _, line := range lines[1:] {
		table.Rows = append(table.Rows, splitLine(line))
	}
	return table, nil
}

// splitLine splits one CSV line into trimmed, unquoted fields.
func splitLine(line string) []string {
	var fields []string
	var b strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(b.String()))
	return fields
}
