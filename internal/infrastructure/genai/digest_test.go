package genai

import (
	"testing"

	"github.com/finsite/backend/internal/domain/insight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDigest(t *testing.T) {
	text := `Title: Naira Firms Against Dollar
Summary: The currency gained 2% after
fresh inflows.
Impact: Bullish
Image: https://img.example/naira.jpg
---
**Title**: Oil Prices Slide
**Summary**: Brent fell below $70.
**Impact**: bearish.
Image: not-a-url
---
Summary: Only a summary here.
Impact: Sideways
---

---
Image: https://img.example/orphan.jpg`

	items := ParseDigest(text)
	require.Len(t, items, 3)

	assert.Equal(t, "news-1", items[0].ID)
	assert.Equal(t, "Naira Firms Against Dollar", items[0].Title)
	assert.Equal(t, "The currency gained 2% after fresh inflows.", items[0].Summary)
	assert.Equal(t, insight.ImpactBullish, items[0].Impact)
	assert.Equal(t, "https://img.example/naira.jpg", items[0].ImageURL)

	assert.Equal(t, "Oil Prices Slide", items[1].Title)
	assert.Equal(t, insight.ImpactBearish, items[1].Impact)
	assert.Empty(t, items[1].ImageURL)

	assert.Equal(t, "news-3", items[2].ID)
	assert.Equal(t, DefaultNewsTitle, items[2].Title)
	assert.Equal(t, insight.ImpactNeutral, items[2].Impact)
}

func TestParseDigest_Fallbacks(t *testing.T) {
	items := ParseDigest("Title: Quiet Session")
	require.Len(t, items, 1)
	assert.Equal(t, DefaultNewsSummary, items[0].Summary)
	assert.Equal(t, insight.ImpactNeutral, items[0].Impact)

	assert.Empty(t, ParseDigest(""))
	assert.Empty(t, ParseDigest("no labelled lines at all"))
}

func TestIsAbsoluteHTTPURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://a.example/x.png", true},
		{"http://a.example", true},
		{"ftp://a.example/x.png", false},
		{"/relative/path.png", false},
		{"https://", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, isAbsoluteHTTPURL(tt.in))
		})
	}
}
