package sales

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column length limits of the sales_transactions table.
const (
	MaxInvoiceNoLen   = 20
	MaxStockCodeLen   = 20
	MaxDescriptionLen = 255
	MaxCountryLen     = 100
)

// quantity and customer_id are INTEGER columns, 32-bit on PostgreSQL.
const (
	MinInteger = math.MinInt32
	MaxInteger = math.MaxInt32
)

// IntegerInRange reports whether n fits an INTEGER column.
func IntegerInRange(n int64) bool {
	return n >= MinInteger && n <= MaxInteger
}

// maxPrice is the largest magnitude NUMERIC(10, 2) holds.
var maxPrice = decimal.New(9999999999, -2)

// Record represents one sales transaction line, identified by the
// (InvoiceNo, StockCode) pair.
type Record struct {
	InvoiceNo   string    `json:"invoiceNo" db:"invoice_no"`
	StockCode   string    `json:"stockCode" db:"stock_code"`
	Description *string   `json:"description" db:"description"`
	Quantity    int64     `json:"quantity" db:"quantity"`
	InvoiceDate Timestamp `json:"invoiceDate" db:"invoice_date"`
	UnitPrice   Price     `json:"unitPrice" db:"unit_price"`
	CustomerID  *int64    `json:"customerId" db:"customer_id"`
	Country     string    `json:"country" db:"country"`
}

// Key is the composite identity of a Record.
type Key struct {
	InvoiceNo string
	StockCode string
}

// Pagination describes the page returned by a list call.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// Summary holds totals over every record matching a filter.
type Summary struct {
	TotalSales        float64 `json:"totalSales"`
	TotalQuantity     int64   `json:"totalQuantity"`
	TotalOrders       int64   `json:"totalOrders"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

// ProductSales is one row of the top-products ranking.
type ProductSales struct {
	StockCode        string  `json:"stockCode"`
	Description      *string `json:"description"`
	TotalQuantity    int64   `json:"totalQuantity"`
	TotalRevenue     float64 `json:"totalRevenue"`
	AverageUnitPrice float64 `json:"averageUnitPrice"`
}

// Price is a unit price kept at cent precision. It is written to JSON and
// to the database as a fixed two-decimal string.
type Price struct {
	decimal.Decimal
}

// NewPrice rounds d to two decimals.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d.Round(2)}
}

// InRange reports whether p fits the unit_price column.
func (p Price) InRange() bool {
	return p.Abs().LessThanOrEqual(maxPrice)
}

func (p Price) String() string {
	return p.StringFixed(2)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.StringFixed(2) + `"`), nil
}

func (p Price) Value() (driver.Value, error) {
	return p.StringFixed(2), nil
}

func (p *Price) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*p = NewPrice(d)
	return nil
}

// timestampLayouts are tried in order when reading timestamps from requests,
// CSV files or text columns.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04",
}

// Timestamp is a point in time without a zone; it is always held in UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp accepts RFC 3339 and the common zone-less layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Timestamp) Value() (driver.Value, error) {
	return t.Time.UTC(), nil
}

func (t *Timestamp) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*t = NewTimestamp(v)
		return nil
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case nil:
		*t = Timestamp{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", value)
	}
}
