package pipeline

import (
	"strconv"
	"strings"

	"github.com/dvloznov/csv-importer/internal/domain"
)

// buildColumnPrompt asks the model to map semantic roles onto the literal
// header strings of a CSV export. The response is validated again on our
// side; the prompt constraints just make a valid answer more likely.
func buildColumnPrompt(headers []string, sampleRow []string) string {
	var b strings.Builder
	b.WriteString("You are a bank CSV column classifier.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Map each semantic role to one of the column headers below, or null.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a single JSON object with exactly these keys:\n")
	b.WriteString("  \"date\", \"merchant\", \"amount\", \"debit\", \"credit\", \"category\"\n\n")

	b.WriteString("Column headers (use these strings VERBATIM as values):\n")
	for _, h := range headers {
		b.WriteString("- \"" + h + "\"\n")
	}

	if len(sampleRow) > 0 {
		b.WriteString("\nOne sample data row, in header order:\n")
		b.WriteString(strings.Join(sampleRow, " | "))
		b.WriteString("\n")
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Every value must be copied verbatim from the header list or be null.\n")
	b.WriteString("- \"merchant\" is the column describing who the transaction was with.\n")
	b.WriteString("- Use \"amount\" for a single signed amount column; use \"debit\"/\"credit\" when the file splits money out and money in.\n")
	b.WriteString("- Never map the same header to more than one role.\n\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}

// buildStandardizePrompt asks the model to map source category strings onto
// the fixed taxonomy.
func buildStandardizePrompt(categories []string) string {
	var b strings.Builder
	b.WriteString("You are a financial category normalizer.\n\n")
	b.WriteString("Map each input category string to EXACTLY one of these categories:\n")
	for _, c := range domain.AllCategories {
		b.WriteString("- " + string(c) + "\n")
	}

	b.WriteString("\nInput category strings:\n")
	for _, s := range categories {
		b.WriteString("- \"" + s + "\"\n")
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Output STRICT JSON only: a single object whose keys are the input strings, copied verbatim, and whose values are category names from the list above.\n")
	b.WriteString("- If unsure, use \"Other\".\n\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}

// buildMerchantPrompt asks the model to categorize a batch of merchant
// signatures, with amounts and a short recent-resolution window as context.
func buildMerchantPrompt(batch []MerchantQuery) string {
	var b strings.Builder
	b.WriteString("You are a financial transaction categorizer.\n\n")
	b.WriteString("Assign EXACTLY one of these categories to each merchant:\n")
	for _, c := range domain.AllCategories {
		b.WriteString("- " + string(c) + "\n")
	}

	b.WriteString("\nMerchants (index: merchant, signed amount - negative is an expense):\n")
	for i, q := range batch {
		b.WriteString(strings.Join([]string{
			"- ", strconv.Itoa(i), ": \"", q.Signature, "\", amount ", q.Amount.String(), "\n",
		}, ""))
	}

	if len(batch) > 0 && len(batch[0].Recent) > 0 {
		b.WriteString("\nRecently categorized merchants, for consistency:\n")
		for _, pair := range batch[0].Recent {
			b.WriteString("- " + pair + "\n")
		}
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Output STRICT JSON only: a single object mapping each index (as a string) to a category name.\n")
	b.WriteString("- Every index from 0 to " + strconv.Itoa(len(batch)-1) + " must appear.\n")
	b.WriteString("- If unsure, use \"Other\".\n\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the strict-JSON instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON object or array if junk remains.
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start != -1 && end > start {
			return strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
