package sales

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// ErrNothingToUpdate is returned when an update names no updatable field.
var ErrNothingToUpdate = errors.New("nothing to update")

// Service provides high-level sales management operations on a Storage backend.
type Service struct {
	storage Storage
	logger  *zap.Logger
}

// ListQuery bundles the parameters of a list call.
type ListQuery struct {
	Filter Filter
	Sort   Sort
	Page   Page
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// List returns one page of matching records together with pagination
// metadata. The page and the total are read concurrently.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Record, Pagination, error) {
	var (
		records []Record
		total   int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.storage.List(gctx, q.Filter, q.Sort, q.Page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.storage.Count(gctx, q.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to list sales records", zap.Error(err))
		return nil, Pagination{}, err
	}

	pagination := q.Page.Pagination(total)
	s.logger.Debug("sales records listed",
		zap.Int("page", pagination.Page),
		zap.Int("limit", pagination.Limit),
		zap.Int64("total", total),
		zap.Int("results_count", len(records)),
	)
	return records, pagination, nil
}

// Get fetches the record with key.
func (s *Service) Get(ctx context.Context, key Key) (*Record, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return s.storage.Read(ctx, key)
}

// Create validates fields and stores them as a new record.
func (s *Service) Create(ctx context.Context, fields Fields) (*Record, error) {
	record, err := fields.Record()
	if err != nil {
		return nil, err
	}

	created, err := s.storage.Insert(ctx, &record)
	if err != nil {
		if !errors.Is(err, ErrDuplicate) {
			s.logger.Error("failed to save sales record",
				zap.String("invoice_no", record.InvoiceNo),
				zap.String("stock_code", record.StockCode),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("sales record created",
		zap.String("invoice_no", created.InvoiceNo),
		zap.String("stock_code", created.StockCode),
	)
	return created, nil
}

// Update overwrites the fields present in fields on the record with key.
func (s *Service) Update(ctx context.Context, key Key, fields Fields) (*Record, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	set, err := fields.Changes()
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, ErrNothingToUpdate
	}

	updated, err := s.storage.Update(ctx, key, set)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to update sales record",
				zap.String("invoice_no", key.InvoiceNo),
				zap.String("stock_code", key.StockCode),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("sales record updated",
		zap.String("invoice_no", key.InvoiceNo),
		zap.String("stock_code", key.StockCode),
		zap.Int("fields", len(set)),
	)
	return updated, nil
}

// Delete removes the record with key and returns it.
func (s *Service) Delete(ctx context.Context, key Key) (*Record, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	deleted, err := s.storage.Delete(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to delete sales record",
				zap.String("invoice_no", key.InvoiceNo),
				zap.String("stock_code", key.StockCode),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("sales record deleted",
		zap.String("invoice_no", key.InvoiceNo),
		zap.String("stock_code", key.StockCode),
	)
	return deleted, nil
}

// Summary totals the records matching filter.
func (s *Service) Summary(ctx context.Context, filter Filter) (Summary, error) {
	summary, err := s.storage.Summary(ctx, filter)
	if err != nil {
		s.logger.Error("failed to summarize sales", zap.Error(err))
		return Summary{}, err
	}
	return summary, nil
}

// TopProducts ranks the best-selling products among the records matching
// filter. limit is clamped to [1, MaxTopLimit].
func (s *Service) TopProducts(ctx context.Context, filter Filter, limit int) ([]ProductSales, error) {
	products, err := s.storage.TopProducts(ctx, filter, clamp(limit, 1, MaxTopLimit))
	if err != nil {
		s.logger.Error("failed to rank top products", zap.Error(err))
		return nil, err
	}
	return products, nil
}

func validateKey(key Key) error {
	if key.InvoiceNo == "" || key.StockCode == "" {
		return fmt.Errorf("%w: invoiceNo and stockCode are required", ErrInvalidInput)
	}
	// Keys longer than their columns cannot match a stored row.
	if utf8.RuneCountInString(key.InvoiceNo) > MaxInvoiceNoLen || utf8.RuneCountInString(key.StockCode) > MaxStockCodeLen {
		return ErrNotFound
	}
	return nil
}
