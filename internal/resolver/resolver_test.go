package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksync/internal/model"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{name: "number after a word", text: "Parfym 149", want: "149", ok: true},
		{name: "decimal number", text: "22.5 EDT", want: "22.5", ok: true},
		{name: "trailing zero normalized", text: "No 22.50", want: "22.5", ok: true},
		{name: "leading zeros normalized", text: "022 EDP", want: "22", ok: true},
		{name: "first number wins", text: "12 och 34", want: "12", ok: true},
		{name: "no digits", text: "Presentkort", ok: false},
		{name: "empty", text: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := Resolve(tt.text)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, model.ProductKey(tt.want), key)
			}
		})
	}
}

func TestIsSample(t *testing.T) {
	assert.True(t, IsSample("Sample 22"))
	assert.True(t, IsSample("22 sample 2ml"))
	assert.True(t, IsSample("SAMPLE pack"))
	assert.False(t, IsSample("Parfym 22"))
}

func TestIsBundle(t *testing.T) {
	assert.True(t, IsBundle("Fragrance Bundle 3x"))
	assert.False(t, IsBundle("Parfym 149"))
	// the marker is case sensitive, matching how the products are titled
	assert.False(t, IsBundle("fragrance bundle"))
}

func TestBundleSize(t *testing.T) {
	tests := []struct {
		title string
		want  int
		ok    bool
	}{
		{title: "Fragrance Bundle 3x", want: 3, ok: true},
		{title: "Fragrance Bundle 2 x", want: 2, ok: true},
		{title: "Fragrance Bundle 3X", want: 3, ok: true},
		{title: "Fragrance Bundle", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			n, ok := BundleSize(tt.title)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, n)
			}
		})
	}
}

func TestExpandBundle(t *testing.T) {
	keys := ExpandBundle([]string{"Parfym 149", "No 22.50", "Presentkort"})
	assert.Equal(t, []model.ProductKey{"149", "22.5"}, keys)

	assert.Empty(t, ExpandBundle(nil))
	assert.Empty(t, ExpandBundle([]string{"ingen", "siffra"}))
}
