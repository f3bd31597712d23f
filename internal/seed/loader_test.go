package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"

	"retail_sales/internal/migrations"
	"retail_sales/internal/sales"
)

const onlineRetailCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,12/1/2010 8:26,2.55,17850.0,United Kingdom
536365,71053,WHITE METAL LANTERN,6,12/1/2010 8:26,3.39,17850,United Kingdom
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,12/1/2010 8:26,2.55,17850,United Kingdom
C536379,D,Discount,-1,12/1/2010 9:41,27.50,,United Kingdom
536380,22961,JAM MAKING SET PRINTED,lots,12/1/2010 9:41,1.45,17809,United Kingdom
536381,22139,RETROSPOT TEA SET,1,not a date,4.95,15311,United Kingdom
536382,10002,INFLATABLE POLITICAL GLOBE ,12,2010-12-01 09:45:00,0.85,,France
short,row
`

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", "file::memory:?_time_format=sqlite")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return db
}

func TestLoad(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inserted, err := Load(ctx, db, strings.NewReader(onlineRetailCSV), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 4, inserted)

	storage := sales.NewSQLStorage(db)

	got, err := storage.Read(ctx, sales.Key{InvoiceNo: "536365", StockCode: "85123A"})
	require.NoError(t, err)
	assert.Equal(t, "2.55", got.UnitPrice.String())
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, int64(17850), *got.CustomerID)
	assert.Equal(t, "2010-12-01T08:26:00Z", got.InvoiceDate.Format("2006-01-02T15:04:05Z07:00"))

	discount, err := storage.Read(ctx, sales.Key{InvoiceNo: "C536379", StockCode: "D"})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), discount.Quantity)
	assert.Nil(t, discount.CustomerID)

	globe, err := storage.Read(ctx, sales.Key{InvoiceNo: "536382", StockCode: "10002"})
	require.NoError(t, err)
	assert.Equal(t, "INFLATABLE POLITICAL GLOBE", *globe.Description)
	assert.Equal(t, "France", globe.Country)
}

func TestLoad_IsRepeatable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	_, err := Load(ctx, db, strings.NewReader(onlineRetailCSV), logger)
	require.NoError(t, err)

	inserted, err := Load(ctx, db, strings.NewReader(onlineRetailCSV), logger)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	total, err := sales.NewSQLStorage(db).Count(ctx, sales.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestLoadFile(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "online_retail.csv")
	require.NoError(t, os.WriteFile(path, []byte(onlineRetailCSV), 0o600))

	inserted, err := LoadFile(context.Background(), db, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 4, inserted)

	_, err = LoadFile(context.Background(), db, filepath.Join(t.TempDir(), "nope.csv"), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestParseRow_TruncatesLongDescription(t *testing.T) {
	long := strings.Repeat("é", sales.MaxDescriptionLen+10)
	r, err := parseRow([]string{"536365", "85123A", long, "1", "2010-12-01", "1.00", "", "Spain"})
	require.NoError(t, err)
	assert.Len(t, []rune(*r.Description), sales.MaxDescriptionLen)
}

func TestParseRow_RejectsFractionalCustomer(t *testing.T) {
	_, err := parseRow([]string{"536365", "85123A", "x", "1", "2010-12-01", "1.00", "17850.5", "Spain"})
	assert.Error(t, err)
}

func TestParseRow_CountsCharactersNotBytes(t *testing.T) {
	// 100 characters, 200 bytes.
	country := strings.Repeat("Ö", sales.MaxCountryLen)
	r, err := parseRow([]string{"ÄÄÄÄÄÄÄÄÄÄÄÄ", "85123A", "x", "1", "2010-12-01", "1.00", "", country})
	require.NoError(t, err)
	assert.Equal(t, country, r.Country)

	_, err = parseRow([]string{"536365", "85123A", "x", "1", "2010-12-01", "1.00", "", country + "Ö"})
	assert.Error(t, err)
}

func TestParseRow_RejectsValuesOutsideColumnRange(t *testing.T) {
	rows := map[string][]string{
		"quantity":    {"536365", "85123A", "x", "3000000000", "2010-12-01", "1.00", "", "Spain"},
		"customer id": {"536365", "85123A", "x", "1", "2010-12-01", "1.00", "9999999999.0", "Spain"},
		"unit price":  {"536365", "85123A", "x", "1", "2010-12-01", "123456789.00", "", "Spain"},
	}
	for name, row := range rows {
		t.Run(name, func(t *testing.T) {
			_, err := parseRow(row)
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}
