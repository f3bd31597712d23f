package sales

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Fields is a decoded request body. Nil pointers mean the field was absent;
// DescriptionSet and CustomerIDSet distinguish an explicit null from absence.
type Fields struct {
	InvoiceNo      *string
	StockCode      *string
	Description    *string
	DescriptionSet bool
	Quantity       *int64
	InvoiceDate    *Timestamp
	UnitPrice      *Price
	CustomerID     *int64
	CustomerIDSet  bool
	Country        *string
}

// ParseFields coerces a JSON object into Fields. Every present field must
// have the right primitive type; numeric fields accept JSON numbers or
// numeric strings.
func ParseFields(body map[string]interface{}) (Fields, error) {
	var f Fields
	var err error

	if f.InvoiceNo, err = stringField(body, "invoiceNo", MaxInvoiceNoLen); err != nil {
		return Fields{}, err
	}
	if f.StockCode, err = stringField(body, "stockCode", MaxStockCodeLen); err != nil {
		return Fields{}, err
	}
	if f.Country, err = stringField(body, "country", MaxCountryLen); err != nil {
		return Fields{}, err
	}

	if _, f.DescriptionSet = body["description"]; f.DescriptionSet {
		if f.Description, err = stringField(body, "description", MaxDescriptionLen); err != nil {
			return Fields{}, err
		}
		if f.Description != nil && *f.Description == "" {
			f.Description = nil
		}
	}

	if raw, ok := body["quantity"]; ok {
		q, err := parseInt(raw)
		if err != nil {
			return Fields{}, fmt.Errorf("%w: quantity must be an integer", ErrInvalidInput)
		}
		if !IntegerInRange(q) {
			return Fields{}, fmt.Errorf("%w: quantity must be between %d and %d", ErrInvalidInput, MinInteger, MaxInteger)
		}
		f.Quantity = &q
	}

	if raw, ok := body["unitPrice"]; ok {
		p, err := parsePrice(raw)
		if err != nil {
			return Fields{}, fmt.Errorf("%w: unitPrice must be a number", ErrInvalidInput)
		}
		if !p.InRange() {
			return Fields{}, fmt.Errorf("%w: unitPrice must be at most %s in magnitude", ErrInvalidInput, maxPrice.StringFixed(2))
		}
		f.UnitPrice = &p
	}

	if raw, ok := body["invoiceDate"]; ok {
		s, isString := raw.(string)
		if !isString || strings.TrimSpace(s) == "" {
			return Fields{}, fmt.Errorf("%w: invoiceDate must be a timestamp", ErrInvalidInput)
		}
		ts, err := ParseTimestamp(s)
		if err != nil {
			return Fields{}, fmt.Errorf("%w: invoiceDate must be a timestamp", ErrInvalidInput)
		}
		f.InvoiceDate = &ts
	}

	if raw, ok := body["customerId"]; ok {
		f.CustomerIDSet = true
		if !isBlank(raw) {
			id, err := parseInt(raw)
			if err != nil {
				return Fields{}, fmt.Errorf("%w: customerId must be an integer", ErrInvalidInput)
			}
			if !IntegerInRange(id) {
				return Fields{}, fmt.Errorf("%w: customerId must be between %d and %d", ErrInvalidInput, MinInteger, MaxInteger)
			}
			f.CustomerID = &id
		}
	}

	return f, nil
}

// Record builds a new record from f, rejecting it when a required field is
// missing or empty.
func (f Fields) Record() (Record, error) {
	var missing []string
	if f.InvoiceNo == nil || *f.InvoiceNo == "" {
		missing = append(missing, "invoiceNo")
	}
	if f.StockCode == nil || *f.StockCode == "" {
		missing = append(missing, "stockCode")
	}
	if f.Quantity == nil {
		missing = append(missing, "quantity")
	}
	if f.InvoiceDate == nil {
		missing = append(missing, "invoiceDate")
	}
	if f.UnitPrice == nil {
		missing = append(missing, "unitPrice")
	}
	if f.Country == nil || *f.Country == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return Record{}, fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	return Record{
		InvoiceNo:   *f.InvoiceNo,
		StockCode:   *f.StockCode,
		Description: f.Description,
		Quantity:    *f.Quantity,
		InvoiceDate: *f.InvoiceDate,
		UnitPrice:   *f.UnitPrice,
		CustomerID:  f.CustomerID,
		Country:     *f.Country,
	}, nil
}

// Changes lists the column assignments for a partial update. Key fields are
// never part of it; identity comes from the request path.
func (f Fields) Changes() ([]Assignment, error) {
	var set []Assignment
	if f.DescriptionSet {
		set = append(set, Assignment{Column: "description", Value: f.Description})
	}
	if f.Quantity != nil {
		set = append(set, Assignment{Column: "quantity", Value: *f.Quantity})
	}
	if f.InvoiceDate != nil {
		set = append(set, Assignment{Column: "invoice_date", Value: *f.InvoiceDate})
	}
	if f.UnitPrice != nil {
		set = append(set, Assignment{Column: "unit_price", Value: *f.UnitPrice})
	}
	if f.CustomerIDSet {
		set = append(set, Assignment{Column: "customer_id", Value: f.CustomerID})
	}
	if f.Country != nil {
		if *f.Country == "" {
			return nil, fmt.Errorf("%w: country must not be empty", ErrInvalidInput)
		}
		set = append(set, Assignment{Column: "country", Value: *f.Country})
	}
	return set, nil
}

func stringField(body map[string]interface{}, name string, maxLen int) (*string, error) {
	raw, ok := body[name]
	if !ok || raw == nil {
		return nil, nil
	}

	var s string
	switch v := raw.(type) {
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidInput, name)
	}

	if utf8.RuneCountInString(s) > maxLen {
		return nil, fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, name, maxLen)
	}
	return &s, nil
}

func isBlank(raw interface{}) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

func parseInt(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if v != math.Trunc(v) || math.IsInf(v, 0) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	case json.Number:
		return strconv.ParseInt(v.String(), 10, 64)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", raw)
	}
}

func parsePrice(raw interface{}) (Price, error) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Price{}, fmt.Errorf("%v is not a number", v)
		}
		return NewPrice(decimal.NewFromFloat(v)), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return Price{}, err
		}
		return NewPrice(d), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return Price{}, err
		}
		return NewPrice(d), nil
	default:
		return Price{}, fmt.Errorf("unexpected type %T", raw)
	}
}
