package model

import (
	"github.com/shopspring/decimal"
)

// ProductKey is a canonical numeric product identifier parsed out of free text
// (a variant title, SKU or bundle property). It holds the normalized decimal
// form, so textual variants that denote the same number compare equal:
// "022" and "22" are both "22", "22.50" is "22.5". Whole numbers carry no
// fractional part, which is also the display rule for sheet headers.
type ProductKey string

// NewProductKey normalizes a numeric string into a ProductKey.
func NewProductKey(s string) (ProductKey, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", err
	}
	return ProductKey(d.String()), nil
}

// Label returns the display form used for sheet headers and stock rows.
func (k ProductKey) Label() string {
	return string(k)
}

// Float returns the numeric value of the key.
func (k ProductKey) Float() float64 {
	d, err := decimal.NewFromString(string(k))
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
