package sales

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Page size bounds for listing and for the top-products ranking.
const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
	DefaultTopLimit  = 10
	MaxTopLimit      = 100
)

// sortColumns maps the accepted sortBy values to table columns. Nothing
// outside this map is ever written into an ORDER BY clause.
var sortColumns = map[string]string{
	"invoiceDate": "invoice_date",
	"unitPrice":   "unit_price",
	"quantity":    "quantity",
	"country":     "country",
	"customerId":  "customer_id",
}

const defaultSortColumn = "invoice_date"

// Filter restricts the rows an operation sees. Zero-valued fields are not
// applied.
type Filter struct {
	Country    string
	CustomerID *int64
	StartDate  *Timestamp
	EndDate    *Timestamp
}

// ParseFilter reads country, customerId, startDate and endDate from q.
// Empty parameters are ignored; present values that do not parse are
// rejected with ErrInvalidInput.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{Country: strings.TrimSpace(q.Get("country"))}

	if raw := strings.TrimSpace(q.Get("customerId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: customerId must be an integer", ErrInvalidInput)
		}
		if !IntegerInRange(id) {
			return Filter{}, fmt.Errorf("%w: customerId must be between %d and %d", ErrInvalidInput, MinInteger, MaxInteger)
		}
		f.CustomerID = &id
	}

	if raw := strings.TrimSpace(q.Get("startDate")); raw != "" {
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: startDate must be a date or timestamp", ErrInvalidInput)
		}
		f.StartDate = &ts
	}

	if raw := strings.TrimSpace(q.Get("endDate")); raw != "" {
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: endDate must be a date or timestamp", ErrInvalidInput)
		}
		f.EndDate = &ts
	}

	return f, nil
}

// Where renders the filter as a WHERE clause with ? placeholders. It returns
// an empty clause when no restriction applies.
func (f Filter) Where() (string, []interface{}) {
	var (
		args    []interface{}
		clauses []string
	)

	if f.Country != "" {
		args = append(args, f.Country)
		clauses = append(clauses, "country = ?")
	}
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		clauses = append(clauses, "customer_id = ?")
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		clauses = append(clauses, "invoice_date >= ?")
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		clauses = append(clauses, "invoice_date <= ?")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Sort is a validated ordering.
type Sort struct {
	Column     string
	Descending bool
}

// ParseSort resolves sortBy against the allow-list, falling back to the
// invoice date. Only the exact value "asc" selects ascending order.
func ParseSort(sortBy, sortOrder string) Sort {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = defaultSortColumn
	}
	return Sort{Column: column, Descending: sortOrder != "asc"}
}

// OrderBy renders the ORDER BY clause. The key columns break ties so that
// pages do not overlap.
func (s Sort) OrderBy() string {
	dir := "ASC"
	if s.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, invoice_no %s, stock_code %s", s.Column, dir, dir, dir)
}

// Page is a clamped page number and size.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads page and limit. Values that are absent or unparseable
// fall back to page 1 and defaultSize; the size is clamped to [1, maxSize].
// The page number is capped so that Offset cannot overflow.
func ParsePage(page, limit string, defaultSize, maxSize int) Page {
	size := clamp(atoiOr(limit, defaultSize), 1, maxSize)
	return Page{
		Number: clamp(atoiOr(page, 1), 1, math.MaxInt/size),
		Size:   size,
	}
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Pagination reports p against a total row count.
func (p Page) Pagination(total int64) Pagination {
	size := int64(p.Size)
	return Pagination{
		Page:       p.Number,
		Limit:      p.Size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Assignment is one column = value pair of an UPDATE.
type Assignment struct {
	Column string
	Value  interface{}
}

// updatableColumns is the set of columns an Assignment may name.
var updatableColumns = map[string]bool{
	"description":  true,
	"quantity":     true,
	"invoice_date": true,
	"unit_price":   true,
	"customer_id":  true,
	"country":      true,
}

// SetClause renders assignments as a SET clause with ? placeholders.
func SetClause(set []Assignment) (string, []interface{}, error) {
	parts := make([]string, 0, len(set))
	args := make([]interface{}, 0, len(set))
	for _, a := range set {
		if !updatableColumns[a.Column] {
			return "", nil, fmt.Errorf("column %q is not updatable", a.Column)
		}
		parts = append(parts, a.Column+" = ?")
		args = append(args, a.Value)
	}
	return " SET " + strings.Join(parts, ", "), args, nil
}
