package pipeline

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/csv-importer/internal/domain"
)

// dateLayouts are tried in order. US-style slash dates first; banks that
// export ISO dates fall through to the second group.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"01/02/06",
}

// extractRows applies the column mapping to every data row. Malformed rows
// are common in real exports, so row-level problems are counted on the
// result and the row is dropped; nothing here aborts the file.
func extractRows(mapping ColumnMapping, table *RawTable, sourceFile string, result *ImportResult) []domain.CandidateTransaction {
	idx := indexMapping(mapping, table.Header)

	var out []domain.CandidateTransaction
	for _, row := range table.Rows {
		cand, reason := extractRow(idx, mapping, row, sourceFile)
		if reason != "" {
			result.skip(reason)
			continue
		}
		out = append(out, cand)
	}
	return out
}

// columnIndexes resolves mapped header names to positions once per file.
type columnIndexes struct {
	date, merchant, amount, debit, credit, category int
}

func indexMapping(m ColumnMapping, header []string) columnIndexes {
	find := func(name string) int {
		if name == "" {
			return -1
		}
		for i, h := range header {
			if h == name {
				return i
			}
		}
		return -1
	}
	return columnIndexes{
		date:     find(m.Date),
		merchant: find(m.Merchant),
		amount:   find(m.Amount),
		debit:    find(m.Debit),
		credit:   find(m.Credit),
		category: find(m.Category),
	}
}

// field returns the trimmed cell at i, or "" for unmapped/short rows.
func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// extractRow converts one data row into a candidate transaction. The second
// return value is a skip reason, "" on success.
func extractRow(idx columnIndexes, mapping ColumnMapping, row []string, sourceFile string) (domain.CandidateTransaction, string) {
	dateStr := field(row, idx.date)
	if dateStr == "" {
		return domain.CandidateTransaction{}, SkipShortRow
	}
	date, ok := parseDate(dateStr)
	if !ok {
		return domain.CandidateTransaction{}, SkipBadDate
	}

	desc := field(row, idx.merchant)
	if desc == "" {
		return domain.CandidateTransaction{}, SkipEmptyDescription
	}

	amount, reason := extractAmount(idx, mapping, row)
	if reason != "" {
		return domain.CandidateTransaction{}, reason
	}

	return domain.CandidateTransaction{
		Date:           date,
		Amount:         amount,
		Description:    desc,
		SourceCategory: field(row, idx.category),
		SourceFile:     sourceFile,
	}, ""
}

// extractAmount applies the sign policy:
//   - single amount column: parse as-is, keep the sign the bank gave;
//   - debit/credit columns: a positive debit magnitude becomes a negative
//     amount, otherwise a positive credit magnitude becomes a positive
//     amount; both zero or absent means no transaction.
func extractAmount(idx columnIndexes, mapping ColumnMapping, row []string) (decimal.Decimal, string) {
	if !mapping.usesDebitCredit() {
		raw := field(row, idx.amount)
		if raw == "" {
			return decimal.Zero, SkipShortRow
		}
		amount, ok := parseAmount(raw)
		if !ok {
			return decimal.Zero, SkipBadAmount
		}
		if amount.IsZero() {
			return decimal.Zero, SkipZeroAmount
		}
		return amount, ""
	}

	debit, ok := parseMagnitude(field(row, idx.debit))
	if !ok {
		return decimal.Zero, SkipBadAmount
	}
	credit, ok := parseMagnitude(field(row, idx.credit))
	if !ok {
		return decimal.Zero, SkipBadAmount
	}

	switch {
	case debit.IsPositive():
		return debit.Neg(), ""
	case credit.IsPositive():
		return credit, ""
	default:
		return decimal.Zero, SkipZeroAmount
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount parses a signed decimal after stripping currency symbols and
// thousands separators. An accounting-style parenthesized value is negative.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '£', '€', ',', ' ':
			return -1
		}
		return r
	}, s)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// parseMagnitude parses a debit/credit cell as an unsigned magnitude. Empty
// cells are zero; some banks write signed values into these columns, so the
// sign is discarded.
func parseMagnitude(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, true
	}
	d, ok := parseAmount(s)
	if !ok {
		return decimal.Zero, false
	}
	return d.Abs(), true
}
