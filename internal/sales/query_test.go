package sales

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter_EmptyMatchesEverything(t *testing.T) {
	f, err := ParseFilter(url.Values{"unknown": {"x"}, "country": {""}})
	require.NoError(t, err)

	where, args := f.Where()
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestParseFilter_AllParameters(t *testing.T) {
	f, err := ParseFilter(url.Values{
		"country":    {"United Kingdom"},
		"customerId": {"17850"},
		"startDate":  {"2010-12-01"},
		"endDate":    {"2010-12-31T23:59:59Z"},
	})
	require.NoError(t, err)

	where, args := f.Where()
	assert.Equal(t, " WHERE country = ? AND customer_id = ? AND invoice_date >= ? AND invoice_date <= ?", where)
	require.Len(t, args, 4)
	assert.Equal(t, "United Kingdom", args[0])
	assert.Equal(t, int64(17850), args[1])
	assert.Equal(t, "2010-12-01T00:00:00Z", args[2].(Timestamp).Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "2010-12-31T23:59:59Z", args[3].(Timestamp).Format("2006-01-02T15:04:05Z07:00"))
}

func TestParseFilter_RejectsUnparseableValues(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		param string
	}{
		{"customerId", url.Values{"customerId": {"abc"}}, "customerId"},
		{"customerId out of range", url.Values{"customerId": {"9999999999"}}, "customerId"},
		{"startDate", url.Values{"startDate": {"yesterday"}}, "startDate"},
		{"endDate", url.Values{"endDate": {"31/31/2010"}}, "endDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.query)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.param)
		})
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		sortBy, sortOrder string
		want              Sort
	}{
		{"unitPrice", "asc", Sort{Column: "unit_price", Descending: false}},
		{"quantity", "desc", Sort{Column: "quantity", Descending: true}},
		{"invoiceDate", "", Sort{Column: "invoice_date", Descending: true}},
		{"quantity", "ASC", Sort{Column: "quantity", Descending: true}},
		{"invoice_no; DROP TABLE sales_transactions", "asc", Sort{Column: "invoice_date", Descending: false}},
		{"", "", Sort{Column: "invoice_date", Descending: true}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSort(tt.sortBy, tt.sortOrder), "sortBy=%q sortOrder=%q", tt.sortBy, tt.sortOrder)
	}
}

func TestSortOrderBy(t *testing.T) {
	assert.Equal(t, " ORDER BY unit_price ASC, invoice_no ASC, stock_code ASC", Sort{Column: "unit_price"}.OrderBy())
	assert.Equal(t, " ORDER BY invoice_date DESC, invoice_no DESC, stock_code DESC", Sort{Column: "invoice_date", Descending: true}.OrderBy())
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name        string
		page, limit string
		want        Page
		offset      int
	}{
		{"defaults", "", "", Page{Number: 1, Size: 50}, 0},
		{"explicit", "3", "20", Page{Number: 3, Size: 20}, 40},
		{"page below one", "-4", "20", Page{Number: 1, Size: 20}, 0},
		{"limit above max", "2", "5000", Page{Number: 2, Size: 1000}, 1000},
		{"limit below one", "1", "0", Page{Number: 1, Size: 1}, 0},
		{"garbage", "two", "many", Page{Number: 1, Size: 50}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePage(tt.page, tt.limit, DefaultListLimit, MaxListLimit)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.offset, p.Offset())
		})
	}

	top := ParsePage("", "500", DefaultTopLimit, MaxTopLimit)
	assert.Equal(t, MaxTopLimit, top.Size)
	assert.Equal(t, DefaultTopLimit, ParsePage("", "", DefaultTopLimit, MaxTopLimit).Size)
}

func TestParsePage_HugePageDoesNotOverflow(t *testing.T) {
	p := ParsePage(strconv.Itoa(math.MaxInt), "50", DefaultListLimit, MaxListLimit)

	assert.Equal(t, math.MaxInt/50, p.Number)
	assert.Positive(t, p.Offset())
	assert.LessOrEqual(t, p.Offset(), math.MaxInt-50)
}

func TestPagePagination(t *testing.T) {
	p := Page{Number: 2, Size: 10}
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 25, TotalPages: 3}, p.Pagination(25))
	assert.Equal(t, int64(2), p.Pagination(20).TotalPages)
	assert.Equal(t, int64(0), p.Pagination(0).TotalPages)
}

func TestSetClause(t *testing.T) {
	clause, args, err := SetClause([]Assignment{
		{Column: "quantity", Value: int64(3)},
		{Column: "country", Value: "France"},
	})
	require.NoError(t, err)
	assert.Equal(t, " SET quantity = ?, country = ?", clause)
	assert.Equal(t, []interface{}{int64(3), "France"}, args)

	_, _, err = SetClause([]Assignment{{Column: "invoice_no", Value: "X"}})
	assert.Error(t, err)
}
