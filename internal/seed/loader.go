package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"retail_sales/internal/sales"
)

// Column order of the Online Retail export.
const (
	colInvoiceNo = iota
	colStockCode
	colDescription
	colQuantity
	colInvoiceDate
	colUnitPrice
	colCustomerID
	colCountry
	columnCount
)

const insertRow = `INSERT INTO sales_transactions
	(invoice_no, stock_code, description, quantity, invoice_date, unit_price, customer_id, country)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

// LoadFile ingests the CSV at path. See Load.
func LoadFile(ctx context.Context, db *sqlx.DB, path string, logger *zap.Logger) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	return Load(ctx, db, file, logger)
}

// Load ingests Online Retail rows from r in a single transaction. The first
// line is a header. Malformed rows are skipped and rows whose key already
// exists are ignored. It returns the number of rows inserted.
func Load(ctx context.Context, db *sqlx.DB, r io.Reader, logger *zap.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("read seed header: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertRow))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	inserted, skipped, line := 0, 0, 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			logger.Warn("unreadable seed row", zap.Int("line", line), zap.Error(err))
			skipped++
			continue
		}

		record, err := parseRow(row)
		if err != nil {
			logger.Debug("skipping seed row", zap.Int("line", line), zap.Error(err))
			skipped++
			continue
		}

		res, err := stmt.ExecContext(ctx,
			record.InvoiceNo,
			record.StockCode,
			record.Description,
			record.Quantity,
			record.InvoiceDate,
			record.UnitPrice,
			record.CustomerID,
			record.Country,
		)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert seed row %d: %w", line, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	logger.Info("seeded sales transactions", zap.Int("inserted", inserted), zap.Int("skipped", skipped))
	return inserted, nil
}

func parseRow(row []string) (sales.Record, error) {
	if len(row) < columnCount {
		return sales.Record{}, fmt.Errorf("expected %d columns, got %d", columnCount, len(row))
	}
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	invoiceNo, stockCode, country := row[colInvoiceNo], row[colStockCode], row[colCountry]
	if invoiceNo == "" || stockCode == "" || country == "" {
		return sales.Record{}, errors.New("missing key or country")
	}
	if utf8.RuneCountInString(invoiceNo) > sales.MaxInvoiceNoLen ||
		utf8.RuneCountInString(stockCode) > sales.MaxStockCodeLen ||
		utf8.RuneCountInString(country) > sales.MaxCountryLen {
		return sales.Record{}, errors.New("field too long")
	}

	quantity, err := strconv.ParseInt(row[colQuantity], 10, 64)
	if err != nil {
		return sales.Record{}, fmt.Errorf("quantity: %w", err)
	}
	if !sales.IntegerInRange(quantity) {
		return sales.Record{}, fmt.Errorf("quantity %d out of range", quantity)
	}
	invoiceDate, err := sales.ParseTimestamp(row[colInvoiceDate])
	if err != nil {
		return sales.Record{}, fmt.Errorf("invoice date: %w", err)
	}
	price, err := decimal.NewFromString(row[colUnitPrice])
	if err != nil {
		return sales.Record{}, fmt.Errorf("unit price: %w", err)
	}
	unitPrice := sales.NewPrice(price)
	if !unitPrice.InRange() {
		return sales.Record{}, fmt.Errorf("unit price %s out of range", unitPrice)
	}

	record := sales.Record{
		InvoiceNo:   invoiceNo,
		StockCode:   stockCode,
		Quantity:    quantity,
		InvoiceDate: invoiceDate,
		UnitPrice:   unitPrice,
		Country:     country,
	}

	if d := row[colDescription]; d != "" {
		if runes := []rune(d); len(runes) > sales.MaxDescriptionLen {
			d = string(runes[:sales.MaxDescriptionLen])
		}
		record.Description = &d
	}

	// Some exports write the customer id as a float, e.g. "17850.0".
	if c := row[colCustomerID]; c != "" {
		f, err := strconv.ParseFloat(c, 64)
		if err != nil || f != math.Trunc(f) {
			return sales.Record{}, fmt.Errorf("customer id %q is not an integer", c)
		}
		if f < sales.MinInteger || f > sales.MaxInteger {
			return sales.Record{}, fmt.Errorf("customer id %q out of range", c)
		}
		id := int64(f)
		record.CustomerID = &id
	}

	return record, nil
}
