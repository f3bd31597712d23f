package sales

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when no sales record has the given key.
var ErrNotFound = errors.New("sales record not found")

// ErrDuplicate is returned when a record with the same key already exists.
var ErrDuplicate = errors.New("sales record with this invoice number and stock code already exists")

// Storage is the main interface for our sales storage layer.
type Storage interface {
	List(ctx context.Context, filter Filter, sort Sort, page Page) ([]Record, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Read(ctx context.Context, key Key) (*Record, error)
	Insert(ctx context.Context, record *Record) (*Record, error)
	Update(ctx context.Context, key Key, set []Assignment) (*Record, error)
	Delete(ctx context.Context, key Key) (*Record, error)
	Summary(ctx context.Context, filter Filter) (Summary, error)
	TopProducts(ctx context.Context, filter Filter, limit int) ([]ProductSales, error)
}

// pgUniqueViolation is the SQLSTATE PostgreSQL reports for unique_violation.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a uniqueness constraint failure
// from either supported engine.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
			strings.Contains(liteErr.Error(), "UNIQUE")
	}

	return false
}
