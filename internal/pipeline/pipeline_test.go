package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/csv-importer/internal/domain"
)

const sampleCSV = `Date,Description,Amount,Category
01/15/2024,Coffee Shop,-4.50,
01/16/2024,Paycheck,2000.00,Salary
01/17/2024,UBER *TRIP 9876543210,-18.20,
`

const debitCreditCSV = `Posting Date,Details,Debit Amount,Credit Amount
01/15/2024,Coffee Shop,4.50,
01/16/2024,Paycheck,,2000.00
`

// aiClassifier answers all three operations with fixed, well-formed values.
func aiClassifier() *mockClassifier {
	return &mockClassifier{
		StandardizeCategoriesFunc: func(_ context.Context, cats []string) (map[string]string, error) {
			out := make(map[string]string, len(cats))
			for _, c := range cats {
				out[c] = "Income"
			}
			return out, nil
		},
		CategorizeMerchantsFunc: func(_ context.Context, batch []MerchantQuery) (map[int]string, error) {
			out := make(map[int]string, len(batch))
			for i := range batch {
				out[i] = "Food"
			}
			return out, nil
		},
	}
}

func TestImportFile(t *testing.T) {
	imp, st := newTestImporter(aiClassifier())

	result, err := imp.ImportFile(context.Background(), sampleCSV, "jan.csv")
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}

	if result.State != StageDone {
		t.Errorf("state = %v, want done", result.State)
	}
	if result.RowsSeen != 3 || result.RowsSkipped != 0 {
		t.Errorf("rows seen/skipped = %d/%d, want 3/0", result.RowsSeen, result.RowsSkipped)
	}
	if result.TransactionsAdded != 3 {
		t.Errorf("TransactionsAdded = %d, want 3", result.TransactionsAdded)
	}
	if result.CategorizedFromSource != 1 {
		t.Errorf("CategorizedFromSource = %d, want 1 (the Salary row)", result.CategorizedFromSource)
	}
	if result.CategorizedByAI != 2 {
		t.Errorf("CategorizedByAI = %d, want 2", result.CategorizedByAI)
	}

	stored, err := st.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("store holds %d transactions, want 3", len(stored))
	}

	byDesc := map[string]domain.Transaction{}
	for _, txn := range stored {
		byDesc[txn.Description] = txn
	}
	if txn := byDesc["Coffee Shop"]; !txn.Amount.Equal(decimal.RequireFromString("-4.50")) {
		t.Errorf("Coffee Shop amount = %s, want -4.50", txn.Amount)
	}
	if txn := byDesc["Paycheck"]; txn.Category != domain.CategoryIncome {
		t.Errorf("Paycheck category = %v, want Income via the standardizer", txn.Category)
	}
	for _, txn := range stored {
		if txn.ID == "" || txn.SourceFile != "jan.csv" || txn.Category == "" {
			t.Errorf("stored transaction incomplete: %+v", txn)
		}
	}
}

func TestImportFileDebitCreditSigns(t *testing.T) {
	imp, st := newTestImporter(aiClassifier())

	if _, err := imp.ImportFile(context.Background(), debitCreditCSV, "bank.csv"); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}

	stored, _ := st.Read(context.Background())
	amounts := map[string]string{"Coffee Shop": "-4.50", "Paycheck": "2000.00"}
	for _, txn := range stored {
		want, ok := amounts[txn.Description]
		if !ok {
			t.Errorf("unexpected transaction %q", txn.Description)
			continue
		}
		if !txn.Amount.Equal(decimal.RequireFromString(want)) {
			t.Errorf("%s amount = %s, want %s", txn.Description, txn.Amount, want)
		}
	}
}

func TestImportFileIdempotent(t *testing.T) {
	imp, st := newTestImporter(aiClassifier())

	if _, err := imp.ImportFile(context.Background(), sampleCSV, "jan.csv"); err != nil {
		t.Fatalf("first import: %v", err)
	}
	result, err := imp.ImportFile(context.Background(), sampleCSV, "jan.csv")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}

	if result.TransactionsAdded != 0 {
		t.Errorf("second import added %d transactions, want 0", result.TransactionsAdded)
	}
	if result.DuplicatesRejected != 3 {
		t.Errorf("DuplicatesRejected = %d, want 3", result.DuplicatesRejected)
	}
	stored, _ := st.Read(context.Background())
	if len(stored) != 3 {
		t.Errorf("store holds %d transactions after re-import, want 3", len(stored))
	}
}

func TestImportFileEmpty(t *testing.T) {
	imp, _ := newTestImporter(&mockClassifier{})

	result, err := imp.ImportFile(context.Background(), "\n  \n", "empty.csv")
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("error = %v, want ErrEmptyFile", err)
	}
	if result.State != StageFailed || result.FailureReason != ReasonEmptyFile {
		t.Errorf("state = %v/%q, want failed/%s", result.State, result.FailureReason, ReasonEmptyFile)
	}
}

func TestImportFileUnmappableColumns(t *testing.T) {
	mock := &mockClassifier{
		ClassifyColumnsFunc: func(context.Context, []string, []string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}
	imp, st := newTestImporter(mock)

	result, err := imp.ImportFile(context.Background(), "A,B,C\n1,2,3\n", "odd.csv")
	if !errors.Is(err, ErrUnmappableColumns) {
		t.Fatalf("error = %v, want ErrUnmappableColumns", err)
	}
	if result.State != StageFailed || result.FailureReason != ReasonUnmappableColumns {
		t.Errorf("state = %v/%q, want failed/%s", result.State, result.FailureReason, ReasonUnmappableColumns)
	}
	stored, _ := st.Read(context.Background())
	if len(stored) != 0 {
		t.Errorf("store holds %d transactions after a failed import, want 0", len(stored))
	}
}

func TestImportFileServiceDownStillCategorizes(t *testing.T) {
	down := errors.New("service unavailable")
	mock := &mockClassifier{
		StandardizeCategoriesFunc: func(context.Context, []string) (map[string]string, error) {
			return nil, down
		},
		CategorizeMerchantsFunc: func(context.Context, []MerchantQuery) (map[int]string, error) {
			return nil, down
		},
	}
	imp, st := newTestImporter(mock)

	result, err := imp.ImportFile(context.Background(), sampleCSV, "jan.csv")
	if err != nil {
		t.Fatalf("ImportFile() error = %v, want degraded success", err)
	}
	if result.State != StageDone {
		t.Errorf("state = %v, want done", result.State)
	}

	stored, _ := st.Read(context.Background())
	if len(stored) != 3 {
		t.Fatalf("store holds %d transactions, want 3", len(stored))
	}
	for _, txn := range stored {
		if txn.Category == "" {
			t.Errorf("transaction %q left uncategorized", txn.Description)
		}
		if txn.Description == "UBER *TRIP 9876543210" && txn.Category != domain.CategoryTransportation {
			t.Errorf("Uber category = %v, want Transportation via keyword fallback", txn.Category)
		}
	}
	if result.CategorizedByKeyword == 0 {
		t.Errorf("CategorizedByKeyword = 0, want at least the Uber row")
	}
}

func TestImportFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp, st := newTestImporter(aiClassifier())
	result, err := imp.ImportFile(ctx, sampleCSV, "jan.csv")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if result.State != StageFailed || result.FailureReason != "cancelled" {
		t.Errorf("state = %v/%q, want failed/cancelled", result.State, result.FailureReason)
	}
	stored, _ := st.Read(context.Background())
	if len(stored) != 0 {
		t.Errorf("store holds %d transactions after cancellation, want 0", len(stored))
	}
}

// stageRecorder captures stage transitions for ordering assertions.
type stageRecorder struct {
	stages []Stage
}

func (r *stageRecorder) StageChanged(_ string, s Stage)          { r.stages = append(r.stages, s) }
func (r *stageRecorder) CategorizeProgress(string, int, int, int) {}

func TestImportFileStageOrder(t *testing.T) {
	imp, _ := newTestImporter(aiClassifier())
	rec := &stageRecorder{}
	imp.SetProgressSink(rec)

	if _, err := imp.ImportFile(context.Background(), sampleCSV, "jan.csv"); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}

	want := []Stage{
		StageTokenizing, StageDetectingColumns, StageExtracting,
		StageStandardizing, StageCategorizing, StageMerging, StageDone,
	}
	if len(rec.stages) != len(want) {
		t.Fatalf("stages = %v, want %v", rec.stages, want)
	}
	for i := range want {
		if rec.stages[i] != want[i] {
			t.Errorf("stage[%d] = %v, want %v", i, rec.stages[i], want[i])
		}
	}
}
