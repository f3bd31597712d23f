package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const recordColumns = `invoice_no, stock_code, description, quantity, invoice_date, unit_price, customer_id, country`

const keyPredicate = ` WHERE invoice_no = ? AND stock_code = ?`

// SQLStorage keeps sales records in the sales_transactions table of any
// database sqlx can rebind placeholders for (PostgreSQL through pgx, SQLite).
type SQLStorage struct {
	db *sqlx.DB
}

// NewSQLStorage wraps an open database handle.
func NewSQLStorage(db *sqlx.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

// List returns one page of the records matching filter.
func (s *SQLStorage) List(ctx context.Context, filter Filter, sort Sort, page Page) ([]Record, error) {
	where, args := filter.Where()
	query := `SELECT ` + recordColumns + ` FROM sales_transactions` + where + sort.OrderBy() + ` LIMIT ? OFFSET ?`
	args = append(args, page.Size, page.Offset())

	records := make([]Record, 0, page.Size)
	if err := s.db.SelectContext(ctx, &records, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list sales records: %w", err)
	}
	return records, nil
}

// Count returns the number of records matching filter.
func (s *SQLStorage) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args := filter.Where()
	var total int64
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(`SELECT COUNT(*) FROM sales_transactions`+where), args...); err != nil {
		return 0, fmt.Errorf("count sales records: %w", err)
	}
	return total, nil
}

// Read retrieves a record by key.
// Returns ErrNotFound if no row matches.
func (s *SQLStorage) Read(ctx context.Context, key Key) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM sales_transactions` + keyPredicate
	var r Record
	err := s.db.GetContext(ctx, &r, s.db.Rebind(query), key.InvoiceNo, key.StockCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read sales record: %w", err)
	}
	return &r, nil
}

// Insert stores record and returns the row as persisted.
// Returns ErrDuplicate if the key is already taken.
func (s *SQLStorage) Insert(ctx context.Context, record *Record) (*Record, error) {
	query := `INSERT INTO sales_transactions (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING ` + recordColumns
	var out Record
	err := s.db.GetContext(ctx, &out, s.db.Rebind(query),
		record.InvoiceNo,
		record.StockCode,
		record.Description,
		record.Quantity,
		record.InvoiceDate,
		record.UnitPrice,
		record.CustomerID,
		record.Country,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert sales record: %w", err)
	}
	return &out, nil
}

// Update applies set to the record with key and returns the updated row.
// Returns ErrNotFound if no row matches.
func (s *SQLStorage) Update(ctx context.Context, key Key, set []Assignment) (*Record, error) {
	setClause, args, err := SetClause(set)
	if err != nil {
		return nil, err
	}
	query := `UPDATE sales_transactions` + setClause + keyPredicate + ` RETURNING ` + recordColumns
	args = append(args, key.InvoiceNo, key.StockCode)

	var out Record
	err = s.db.GetContext(ctx, &out, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update sales record: %w", err)
	}
	return &out, nil
}

// Delete removes the record with key and returns it.
// Returns ErrNotFound if no row matches.
func (s *SQLStorage) Delete(ctx context.Context, key Key) (*Record, error) {
	query := `DELETE FROM sales_transactions` + keyPredicate + ` RETURNING ` + recordColumns
	var out Record
	err := s.db.GetContext(ctx, &out, s.db.Rebind(query), key.InvoiceNo, key.StockCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete sales record: %w", err)
	}
	return &out, nil
}

type summaryRow struct {
	TotalSales        decimal.Decimal `db:"total_sales"`
	TotalQuantity     int64           `db:"total_quantity"`
	TotalOrders       int64           `db:"total_orders"`
	AverageOrderValue decimal.Decimal `db:"average_order_value"`
}

// Summary aggregates every record matching filter. Empty input yields zeros.
func (s *SQLStorage) Summary(ctx context.Context, filter Filter) (Summary, error) {
	where, args := filter.Where()
	query := `SELECT
			COALESCE(SUM(quantity * unit_price), 0) AS total_sales,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COUNT(*) AS total_orders,
			COALESCE(AVG(quantity * unit_price), 0) AS average_order_value
		FROM sales_transactions` + where

	var row summaryRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(query), args...); err != nil {
		return Summary{}, fmt.Errorf("summarize sales: %w", err)
	}
	return Summary{
		TotalSales:        row.TotalSales.Round(2).InexactFloat64(),
		TotalQuantity:     row.TotalQuantity,
		TotalOrders:       row.TotalOrders,
		AverageOrderValue: row.AverageOrderValue.Round(2).InexactFloat64(),
	}, nil
}

type productRow struct {
	StockCode        string          `db:"stock_code"`
	Description      *string         `db:"description"`
	TotalQuantity    int64           `db:"total_quantity"`
	TotalRevenue     decimal.Decimal `db:"total_revenue"`
	AverageUnitPrice decimal.Decimal `db:"average_unit_price"`
}

// TopProducts ranks products by quantity sold among the records matching
// filter.
func (s *SQLStorage) TopProducts(ctx context.Context, filter Filter, limit int) ([]ProductSales, error) {
	where, args := filter.Where()
	query := `SELECT
			stock_code,
			description,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(quantity * unit_price), 0) AS total_revenue,
			COALESCE(AVG(unit_price), 0) AS average_unit_price
		FROM sales_transactions` + where + `
		GROUP BY stock_code, description
		ORDER BY total_quantity DESC, stock_code ASC
		LIMIT ?`
	args = append(args, limit)

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("rank top products: %w", err)
	}

	products := make([]ProductSales, 0, len(rows))
	for _, r := range rows {
		products = append(products, ProductSales{
			StockCode:        r.StockCode,
			Description:      r.Description,
			TotalQuantity:    r.TotalQuantity,
			TotalRevenue:     r.TotalRevenue.Round(2).InexactFloat64(),
			AverageUnitPrice: r.AverageUnitPrice.Round(2).InexactFloat64(),
		})
	}
	return products, nil
}

// Ping checks the database connection.
func (s *SQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
