// Package resolver extracts canonical product keys from free-text order
// data: variant titles, SKUs and bundle properties.
package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"stocksync/internal/model"
)

const (
	// BundleMarker flags a composite line item whose members are declared
	// via line-item properties instead of the title.
	BundleMarker = "Fragrance Bundle"

	sampleMarker = "sample"
)

// keyPattern matches the first run of 1-3 digits with an optional decimal
// fraction, ending at a token boundary.
var keyPattern = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\b`)

// bundleSizePattern finds the expected member count marker ("2x" / "3x").
var bundleSizePattern = regexp.MustCompile(`(?i)\b([23])\s*x\b`)

// Resolve scans text for a product number and returns it as a canonical key.
// The second return is false when the text carries no product number.
func Resolve(text string) (model.ProductKey, bool) {
	m := keyPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	key, err := model.NewProductKey(m[1])
	if err != nil {
		return "", false
	}
	return key, true
}

// IsSample reports whether a line-item title marks a free sample. Samples
// never resolve, regardless of digits present in the title.
func IsSample(title string) bool {
	return strings.Contains(strings.ToLower(title), sampleMarker)
}

// IsBundle reports whether a line-item title marks a composite bundle.
func IsBundle(title string) bool {
	return strings.Contains(title, BundleMarker)
}

// BundleSize returns the expected member count declared in a bundle title.
// The second return is false when the title carries no size marker.
func BundleSize(title string) (int, bool) {
	m := bundleSizePattern.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExpandBundle resolves each declared bundle property independently,
// skipping values without a product number.
func ExpandBundle(propertyValues []string) []model.ProductKey {
	keys := make([]model.ProductKey, 0, len(propertyValues))
	for _, v := range propertyValues {
		if key, ok := Resolve(v); ok {
			keys = append(keys, key)
		}
	}
	return keys
}
