package store

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/csv-importer/internal/domain"
)

// TransactionRow is the BigQuery row shape for a stored transaction.
type TransactionRow struct {
	TransactionID    string              `bigquery:"transaction_id"`    // REQUIRED
	TransactionDate  civil.Date          `bigquery:"transaction_date"`  // REQUIRED
	Amount           *big.Rat            `bigquery:"amount"`            // REQUIRED NUMERIC
	Description      string              `bigquery:"description"`       // REQUIRED
	CounterpartyHint bigquery.NullString `bigquery:"counterparty_hint"` // NULLABLE
	SourceFile       string              `bigquery:"source_file"`       // NULLABLE
	Category         string              `bigquery:"category"`          // REQUIRED
	CreatedTS        time.Time           `bigquery:"created_ts"`        // REQUIRED
}

// BigQuery is a TransactionStore backed by a single BigQuery table.
//
// Write is insert-only: because a merged set always contains every
// previously stored transaction, Write inserts the rows whose IDs are not
// present yet rather than rewriting the table.
type BigQuery struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
}

// NewBigQuery creates a store against the given table. It assumes
// Application Default Credentials are configured.
func NewBigQuery(ctx context.Context, projectID, datasetID, tableID string) (*BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQuery: bigquery client: %w", err)
	}
	return &BigQuery{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		tableID:   tableID,
	}, nil
}

// Close releases the underlying client.
func (s *BigQuery) Close() error {
	return s.client.Close()
}

// Read implements TransactionStore.
func (s *BigQuery) Read(ctx context.Context) ([]domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			transaction_date,
			amount,
			description,
			counterparty_hint,
			source_file,
			category,
			created_ts
		FROM %s.%s
		ORDER BY transaction_date DESC, created_ts DESC
	`, s.datasetID, s.tableID))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery store: query read: %w", err)
	}

	var txs []domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery store: iterate rows: %w", err)
		}
		txs = append(txs, rowToTransaction(&r))
	}
	return txs, nil
}

// Write implements TransactionStore. Only rows with previously unseen IDs
// are inserted.
func (s *BigQuery) Write(ctx context.Context, merged []domain.Transaction) error {
	existing, err := s.existingIDs(ctx)
	if err != nil {
		return err
	}

	var rows []*TransactionRow
	now := time.Now()
	for i := range merged {
		if existing[merged[i].ID] {
			continue
		}
		rows = append(rows, transactionToRow(&merged[i], now))
	}
	if len(rows) == 0 {
		return nil
	}

	table := s.client.DatasetInProject(s.projectID, s.datasetID).Table(s.tableID)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("bigquery store: inserting rows: %w", err)
	}
	return nil
}

func (s *BigQuery) existingIDs(ctx context.Context) (map[string]bool, error) {
	q := s.client.Query(fmt.Sprintf(`SELECT transaction_id FROM %s.%s`, s.datasetID, s.tableID))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery store: query ids: %w", err)
	}

	ids := make(map[string]bool)
	for {
		var r struct {
			TransactionID string `bigquery:"transaction_id"`
		}
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery store: iterate ids: %w", err)
		}
		ids[r.TransactionID] = true
	}
	return ids, nil
}

func rowToTransaction(r *TransactionRow) domain.Transaction {
	amount := decimal.Zero
	if r.Amount != nil {
		amount = decimal.NewFromBigRat(r.Amount, 2)
	}
	return domain.Transaction{
		ID:               r.TransactionID,
		Date:             r.TransactionDate.In(time.UTC),
		Amount:           amount,
		Description:      r.Description,
		CounterpartyHint: r.CounterpartyHint.StringVal,
		SourceFile:       r.SourceFile,
		Category:         domain.Category(r.Category),
	}
}

func transactionToRow(t *domain.Transaction, now time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID:    t.ID,
		TransactionDate:  civil.DateOf(t.Date),
		Amount:           t.Amount.Rat(),
		Description:      t.Description,
		CounterpartyHint: bigquery.NullString{StringVal: t.CounterpartyHint, Valid: t.CounterpartyHint != ""},
		SourceFile:       t.SourceFile,
		Category:         string(t.Category),
		CreatedTS:        now,
	}
}

var _ TransactionStore = (*BigQuery)(nil)
