package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/csv-importer/internal/logger"
)

// Semantic role names. These are also the JSON keys the classifier is asked
// to return.
const (
	roleDate     = "date"
	roleMerchant = "merchant"
	roleAmount   = "amount"
	roleDebit    = "debit"
	roleCredit   = "credit"
	roleCategory = "category"
)

// roleSynonyms is the deterministic detection table: for each role, an
// ordered list of substrings matched against lowercased headers. Roles are
// tried in this order and a header claimed by an earlier role is not offered
// to later ones, so "Debit Amount"/"Credit Amount" headers resolve to the
// debit/credit representation instead of tripping the amount role.
var roleSynonyms = []struct {
	role     string
	synonyms []string
}{
	{roleDate, []string{"transaction date", "posting date", "date"}},
	{roleMerchant, []string{"description", "merchant", "memo", "details", "payee", "narrative"}},
	{roleDebit, []string{"debit", "withdrawal", "money out", "paid out"}},
	{roleCredit, []string{"credit", "deposit", "money in", "paid in"}},
	{roleCategory, []string{"category"}},
	{roleAmount, []string{"transaction amount", "amount", "value"}},
}

// detectDeterministic runs the synonym pass over the header row. For each
// role the first matching header in header order wins.
func detectDeterministic(header []string) ColumnMapping {
	var m ColumnMapping
	claimed := make(map[int]bool)

	for _, entry := range roleSynonyms {
		idx := -1
	scan:
		for _, syn := range entry.synonyms {
			for i, h := range header {
				if claimed[i] {
					continue
				}
				if strings.Contains(strings.ToLower(h), syn) {
					idx = i
					break scan
				}
			}
		}
		if idx == -1 {
			continue
		}
		claimed[idx] = true
		setRole(&m, entry.role, header[idx])
	}
	return m
}

func setRole(m *ColumnMapping, role, header string) {
	switch role {
	case roleDate:
		m.Date = header
	case roleMerchant:
		m.Merchant = header
	case roleAmount:
		m.Amount = header
	case roleDebit:
		m.Debit = header
	case roleCredit:
		m.Credit = header
	case roleCategory:
		m.Category = header
	}
}

// usable reports whether a mapping carries enough to extract transactions:
// date, merchant, and some amount representation.
func (m ColumnMapping) usable() bool {
	return m.Date != "" && m.Merchant != "" &&
		(m.Amount != "" || m.Debit != "" || m.Credit != "")
}

// sanitizeAIMapping applies the trust boundary to a classifier response:
// only values that literally appear in the header row survive. This is a
// pure function so the invariant holds no matter how the service call is
// implemented or what it returns.
func sanitizeAIMapping(resp map[string]string, header []string) ColumnMapping {
	literal := make(map[string]bool, len(header))
	for _, h := range header {
		literal[h] = true
	}

	var m ColumnMapping
	for _, role := range []string{roleDate, roleMerchant, roleAmount, roleDebit, roleCredit, roleCategory} {
		v, ok := resp[role]
		if !ok || !literal[v] {
			continue
		}
		setRole(&m, role, v)
	}
	return m
}

// mergeMappings combines the deterministic and AI results. Deterministic
// matches take precedence; the AI fills only slots left unset.
func mergeMappings(det, ai ColumnMapping) ColumnMapping {
	out := det
	if out.Date == "" {
		out.Date = ai.Date
	}
	if out.Merchant == "" {
		out.Merchant = ai.Merchant
	}
	if out.Amount == "" {
		out.Amount = ai.Amount
	}
	if out.Debit == "" {
		out.Debit = ai.Debit
	}
	if out.Credit == "" {
		out.Credit = ai.Credit
	}
	if out.Category == "" {
		out.Category = ai.Category
	}
	return out
}

// validateMapping enforces the mapping invariants: date and merchant
// present, exactly one amount representation, and every slot naming a
// literal header.
func validateMapping(m ColumnMapping, header []string) error {
	literal := make(map[string]bool, len(header))
	for _, h := range header {
		literal[h] = true
	}
	for _, v := range []string{m.Date, m.Merchant, m.Amount, m.Debit, m.Credit, m.Category} {
		if v != "" && !literal[v] {
			return fmt.Errorf("%w: mapped column %q not in header", ErrUnmappableColumns, v)
		}
	}

	if m.Date == "" || m.Merchant == "" {
		return fmt.Errorf("%w: missing date or merchant column", ErrUnmappableColumns)
	}

	hasAmount := m.Amount != ""
	hasSplit := m.Debit != "" || m.Credit != ""
	if hasAmount == hasSplit {
		return fmt.Errorf("%w: need exactly one amount representation", ErrUnmappableColumns)
	}
	return nil
}

// detectColumns produces a validated ColumnMapping for the table, escalating
// to the classifier only when the deterministic pass leaves the mapping
// unusable.
func (imp *Importer) detectColumns(ctx context.Context, table *RawTable) (ColumnMapping, error) {
	mapping := detectDeterministic(table.Header)
	if mapping.usable() {
		return mapping, validateMapping(mapping, table.Header)
	}

	log := logger.FromContext(ctx)

	var sample []string
	if len(table.Rows) > 0 {
		sample = table.Rows[0]
	}

	callCtx, cancel := context.WithTimeout(ctx, imp.cfg.BatchTimeout)
	defer cancel()

	resp, err := imp.classifier.ClassifyColumns(callCtx, table.Header, sample)
	if err != nil {
		log.Warn().Err(err).Msg("column classification call failed")
		// Fall through: the deterministic result alone must pass validation.
		return mapping, validateMapping(mapping, table.Header)
	}

	mapping = mergeMappings(mapping, sanitizeAIMapping(resp, table.Header))
	return mapping, validateMapping(mapping, table.Header)
}
