package pipeline

// RawTable is tokenized CSV content: a header row plus data rows of trimmed
// string fields. Data rows may be shorter than the header; the extractor
// skips rows missing required fields rather than padding them.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// ColumnMapping maps semantic roles onto header names. An empty string means
// the role is unmapped. Every non-empty value must literally appear in the
// header row.
type ColumnMapping struct {
	Date     string
	Merchant string
	Amount   string
	Debit    string
	Credit   string
	Category string
}

// usesDebitCredit reports whether the mapping carries the split debit/credit
// representation rather than a single signed amount column.
func (m ColumnMapping) usesDebitCredit() bool {
	return m.Amount == "" && (m.Debit != "" || m.Credit != "")
}

// Stage identifies where an import is in its lifecycle.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageTokenizing       Stage = "tokenizing"
	StageDetectingColumns Stage = "detecting_columns"
	StageExtracting       Stage = "extracting"
	StageStandardizing    Stage = "standardizing"
	StageCategorizing     Stage = "categorizing"
	StageMerging          Stage = "merging"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

// Row-skip reason keys used in ImportResult.SkipReasons.
const (
	SkipShortRow         = "short_row"
	SkipBadDate          = "bad_date"
	SkipBadAmount        = "bad_amount"
	SkipZeroAmount       = "zero_amount"
	SkipEmptyDescription = "empty_description"
)

// ImportResult reports the outcome of one file import. Only file-fatal
// conditions surface as errors; everything else is absorbed into counts
// here so a degraded import still looks like what it is - a success with
// reduced categorization confidence.
type ImportResult struct {
	SourceFile    string
	State         Stage
	FailureReason string // reason code, set only when State == StageFailed

	RowsSeen    int
	RowsSkipped int
	SkipReasons map[string]int

	TransactionsAdded  int
	DuplicatesRejected int

	// Categorization provenance counts.
	CategorizedFromSource int // source category resolved via standardizer
	CategorizedFromCache  int // merchant cache hit
	CategorizedByAI       int
	CategorizedByKeyword  int // service fallback, keyword table matched
	CategorizedAsFallback int // service fallback, no keyword matched (Other)
}

func (r *ImportResult) skip(reason string) {
	r.RowsSkipped++
	r.SkipReasons[reason]++
}
