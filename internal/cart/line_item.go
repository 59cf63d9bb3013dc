package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/primefit/storefront/pkg/imageurl"
	"github.com/shopspring/decimal"
)

// DefaultName labels rows whose product arrived without a name.
const DefaultName = "Produto"

// Product is what a caller hands to AddItem. Price is loosely typed: numbers,
// numeric strings (decimal comma allowed), json.Number, decimal.Decimal or nil.
type Product struct {
	ID       string
	Name     string
	Price    any
	ImageRef string
}

// LineItem is one cart row. (ProductID, Variant) is unique within a cart.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Variant   string          `json:"variant"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice times Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) key() itemKey {
	return itemKey{productID: li.ProductID, variant: li.Variant}
}

type itemKey struct {
	productID string
	variant   string
}

// NewLineItem snapshots p into a row with quantity max(1, qty).
func NewLineItem(p Product, qty any, variant string) LineItem {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = DefaultName
	}
	return LineItem{
		ProductID: p.ID,
		Variant:   variant,
		Name:      name,
		UnitPrice: ParsePrice(p.Price),
		ImageRef:  imageurl.Normalize(p.ImageRef),
		Quantity:  ParseQuantity(qty),
	}
}

// ParseQuantity coerces an add quantity. Fractions truncate toward zero;
// anything absent, invalid or below one becomes 1.
func ParseQuantity(v any) int {
	q, ok := parseNumber(v)
	if !ok {
		return 1
	}
	n := truncate(q)
	if n < 1 {
		return 1
	}
	return n
}

// parseTargetQuantity coerces a SetQuantity value. Absent means 0 so the row
// is removed; unparseable input reports ok=false and is ignored.
func parseTargetQuantity(v any) (int, bool) {
	if v == nil {
		return 0, true
	}
	q, ok := parseNumber(v)
	if !ok {
		return 0, false
	}
	return truncate(q), true
}

// ParsePrice coerces a unit price. Absent, invalid, negative or non-finite
// input becomes zero.
func ParsePrice(v any) decimal.Decimal {
	switch p := v.(type) {
	case decimal.Decimal:
		if p.IsNegative() {
			return decimal.Zero
		}
		return p
	case *decimal.Decimal:
		if p == nil || p.IsNegative() {
			return decimal.Zero
		}
		return *p
	case decimal.NullDecimal:
		if !p.Valid || p.Decimal.IsNegative() {
			return decimal.Zero
		}
		return p.Decimal
	case string:
		d, err := decimal.NewFromString(normalizeNumeric(p))
		if err != nil || d.IsNegative() {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(p.String())
		if err != nil || d.IsNegative() {
			return decimal.Zero
		}
		return d
	}

	f, ok := parseNumber(v)
	if !ok || f < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func parseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case decimal.Decimal:
		f = n.InexactFloat64()
	case string:
		parsed, err := strconv.ParseFloat(normalizeNumeric(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// normalizeNumeric accepts "89,90" as well as "89.90".
func normalizeNumeric(s string) string {
	return strings.Replace(strings.TrimSpace(s), ",", ".", 1)
}

func truncate(f float64) int {
	t := math.Trunc(f)
	if t > math.MaxInt32 {
		return math.MaxInt32
	}
	if t < math.MinInt32 {
		return math.MinInt32
	}
	return int(t)
}
