package api

import (
	"errors"
	"net/http"

	"retail_sales/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

// handleList handles GET / with filters, sorting and pagination.
func (h *salesHandler) handleList(ctx *gin.Context) {
	filter, err := sales.ParseFilter(ctx.Request.URL.Query())
	if err != nil {
		h.fail(ctx, err, "invalid query parameters")
		return
	}

	query := sales.ListQuery{
		Filter: filter,
		Sort:   sales.ParseSort(ctx.Query("sortBy"), ctx.Query("sortOrder")),
		Page:   sales.ParsePage(ctx.Query("page"), ctx.Query("limit"), sales.DefaultListLimit, sales.MaxListLimit),
	}

	records, pagination, err := h.salesService.List(ctx.Request.Context(), query)
	if err != nil {
		h.fail(ctx, err, "failed to fetch sales records")
		return
	}

	respondPage(ctx, http.StatusOK, records, pagination)
}

// handleGet handles GET /:invoiceNo/:stockCode.
func (h *salesHandler) handleGet(ctx *gin.Context) {
	record, err := h.salesService.Get(ctx.Request.Context(), keyFromPath(ctx))
	if err != nil {
		h.fail(ctx, err, "failed to fetch sales record")
		return
	}

	respondData(ctx, http.StatusOK, record, "")
}

// handleCreate handles POST /.
func (h *salesHandler) handleCreate(ctx *gin.Context) {
	fields, ok := h.bindFields(ctx)
	if !ok {
		return
	}

	record, err := h.salesService.Create(ctx.Request.Context(), fields)
	if err != nil {
		h.fail(ctx, err, "failed to create sales record")
		return
	}

	respondData(ctx, http.StatusCreated, record, "Sales record created successfully")
}

// handleUpdate handles PUT /:invoiceNo/:stockCode as a partial update.
func (h *salesHandler) handleUpdate(ctx *gin.Context) {
	fields, ok := h.bindFields(ctx)
	if !ok {
		return
	}

	record, err := h.salesService.Update(ctx.Request.Context(), keyFromPath(ctx), fields)
	if err != nil {
		h.fail(ctx, err, "failed to update sales record")
		return
	}

	respondData(ctx, http.StatusOK, record, "Sales record updated successfully")
}

// handleDelete handles DELETE /:invoiceNo/:stockCode.
func (h *salesHandler) handleDelete(ctx *gin.Context) {
	record, err := h.salesService.Delete(ctx.Request.Context(), keyFromPath(ctx))
	if err != nil {
		h.fail(ctx, err, "failed to delete sales record")
		return
	}

	respondData(ctx, http.StatusOK, record, "Sales record deleted successfully")
}

// handleSummary handles GET /analytics/summary.
func (h *salesHandler) handleSummary(ctx *gin.Context) {
	filter, err := sales.ParseFilter(ctx.Request.URL.Query())
	if err != nil {
		h.fail(ctx, err, "invalid query parameters")
		return
	}
	// Summary filters on date range and country only.
	filter.CustomerID = nil

	summary, err := h.salesService.Summary(ctx.Request.Context(), filter)
	if err != nil {
		h.fail(ctx, err, "failed to compute sales summary")
		return
	}

	respondData(ctx, http.StatusOK, summary, "")
}

// handleTopProducts handles GET /analytics/top-products.
func (h *salesHandler) handleTopProducts(ctx *gin.Context) {
	filter, err := sales.ParseFilter(ctx.Request.URL.Query())
	if err != nil {
		h.fail(ctx, err, "invalid query parameters")
		return
	}
	filter.CustomerID = nil

	limit := sales.ParsePage("", ctx.Query("limit"), sales.DefaultTopLimit, sales.MaxTopLimit).Size

	products, err := h.salesService.TopProducts(ctx.Request.Context(), filter, limit)
	if err != nil {
		h.fail(ctx, err, "failed to compute top products")
		return
	}

	respondData(ctx, http.StatusOK, products, "")
}

func (h *salesHandler) bindFields(ctx *gin.Context) (sales.Fields, bool) {
	var body map[string]interface{}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		respondError(ctx, http.StatusBadRequest, "invalid request payload", err.Error())
		return sales.Fields{}, false
	}

	fields, err := sales.ParseFields(body)
	if err != nil {
		h.fail(ctx, err, "invalid request payload")
		return sales.Fields{}, false
	}
	return fields, true
}

// fail maps a service error onto the envelope. Validation, empty updates
// and duplicate keys are client errors; a missing row is 404; anything else
// is reported as 500 with the underlying message.
func (h *salesHandler) fail(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, sales.ErrNotFound):
		respondError(ctx, http.StatusNotFound, "Sales record not found", err.Error())
	case errors.Is(err, sales.ErrInvalidInput),
		errors.Is(err, sales.ErrNothingToUpdate),
		errors.Is(err, sales.ErrDuplicate):
		respondError(ctx, http.StatusBadRequest, message, err.Error())
	default:
		h.logger.Error(message, zap.Error(err), zap.String("path", ctx.Request.URL.Path))
		_ = ctx.Error(err)
		respondError(ctx, http.StatusInternalServerError, message, err.Error())
	}
}

func keyFromPath(ctx *gin.Context) sales.Key {
	return sales.Key{
		InvoiceNo: ctx.Param("invoiceNo"),
		StockCode: ctx.Param("stockCode"),
	}
}
