package sales

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"retail_sales/internal/migrations"
)

// newTestDB opens a private in-memory SQLite database with the sales schema.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite", "file::memory:?_time_format=sqlite")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Run(db))
	return db
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func mustTime(t *testing.T, s string) Timestamp {
	t.Helper()
	ts, err := ParseTimestamp(s)
	require.NoError(t, err)
	return ts
}

func testRecord(t *testing.T, invoiceNo, stockCode string, quantity int64, price string, date string, country string) Record {
	t.Helper()
	return Record{
		InvoiceNo:   invoiceNo,
		StockCode:   stockCode,
		Description: strPtr("item " + stockCode),
		Quantity:    quantity,
		InvoiceDate: mustTime(t, date),
		UnitPrice:   NewPrice(decimal.RequireFromString(price)),
		CustomerID:  int64Ptr(17850),
		Country:     country,
	}
}

// seedRecords inserts records through the storage under test.
func seedRecords(t *testing.T, s Storage, records ...Record) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := range records {
		_, err := s.Insert(ctx, &records[i])
		require.NoError(t, err)
	}
}
