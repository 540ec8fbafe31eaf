package shop

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1000", "1000"},
		{" 250 ", "250"},
		{"1 299,50 ₴", "1299.5"},
		{"99.90грн", "99.9"},
		{"75 грн.", "75"},
		{"12 000", "12000"},
		{"10 UAH", "10"},
		{"0.01", "0.01"},
		{"1.500", "1.5"},
		{"999 999 999 999,99", "999999999999.99"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePrice(tt.raw)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParsePriceRejects(t *testing.T) {
	for _, raw := range []string{
		"", "   ", "abc", "0", "-5", "₴", "1,2,3",
		"1e50000000", "1e-50000000", "1E3", "2.5e2",
		"0.001", "0,005 ₴",
		"1000000000000", "12 345 678 901 234",
	} {
		_, err := ParsePrice(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1000 ₴", FormatPrice(decimal.NewFromInt(1000)))
	assert.Equal(t, "1000 ₴", FormatPrice(decimal.RequireFromString("1000.00")))
	assert.Equal(t, "1299.50 ₴", FormatPrice(decimal.RequireFromString("1299.5")))
}

func TestResolveImageURL(t *testing.T) {
	got, err := ResolveImageURL("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPlaceholderImage, got)

	got, err = ResolveImageURL("  ", "https://cdn.example.com/none.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/none.png", got)

	got, err = ResolveImageURL("http://example.com:8080/x.png", "")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:8080/x.png", got)

	got, err = ResolveImageURL("https://пример.укр/a.png", "")
	require.NoError(t, err)
	assert.Contains(t, got, "xn--e1afmkfd")
	assert.Contains(t, got, "/a.png")

	for _, bad := range []string{"ftp://example.com/a.png", "not a url", "https:///a.png", "/relative.png"} {
		_, err := ResolveImageURL(bad, "")
		assert.ErrorIs(t, err, ErrInvalidImageURL, "input %q", bad)
	}
}
