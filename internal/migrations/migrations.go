package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is valid for both PostgreSQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sales_transactions (
            invoice_no VARCHAR(20) NOT NULL,
            stock_code VARCHAR(20) NOT NULL,
            description VARCHAR(255),
            quantity INTEGER NOT NULL,
            invoice_date TIMESTAMP NOT NULL,
            unit_price NUMERIC(10, 2) NOT NULL,
            customer_id INTEGER,
            country VARCHAR(100) NOT NULL,
            CONSTRAINT sales_transactions_invoice_stock_key UNIQUE (invoice_no, stock_code)
        )`,
	`CREATE INDEX IF NOT EXISTS idx_sales_transactions_invoice_date ON sales_transactions (invoice_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_transactions_country ON sales_transactions (country)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_transactions_customer_id ON sales_transactions (customer_id)`,
}

// Run creates the sales_transactions table and its indexes if missing.
func Run(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
