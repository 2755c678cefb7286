// Package insight holds the ephemeral AI-derived records: market news
// digests and chat transcripts.
package insight

// Impact is the expected market direction of a news item
type Impact string

const (
	ImpactBullish Impact = "Bullish"
	ImpactBearish Impact = "Bearish"
	ImpactNeutral Impact = "Neutral"
)

// ParseImpact maps free text to an Impact, defaulting to Neutral
func ParseImpact(s string) Impact {
	switch Impact(s) {
	case ImpactBullish, ImpactBearish:
		return Impact(s)
	}
	return ImpactNeutral
}

// Source is a grounding citation attached to a news item
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// NewsItem is an AI-authored market news entry. It is never persisted.
type NewsItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Impact   Impact   `json:"impact"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Sources  []Source `json:"sources,omitempty"`
}

// ChatRole is the author of a chat message
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage is one turn of an in-memory chat transcript
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// FallbackNews returns the static digest shown when the AI is unavailable
func FallbackNews() []NewsItem {
	return []NewsItem{
		{
			ID:      "fallback-1",
			Title:   "Central Bank Holds Rates Steady",
			Summary: "Policymakers kept the benchmark rate unchanged, citing easing inflation but persistent currency pressure.",
			Impact:  ImpactNeutral,
		},
		{
			ID:      "fallback-2",
			Title:   "Banking Stocks Lead Equity Rally",
			Summary: "Tier-one lenders posted strong quarterly earnings, lifting the all-share index to a monthly high.",
			Impact:  ImpactBullish,
		},
		{
			ID:      "fallback-3",
			Title:   "Oil Output Dips on Pipeline Maintenance",
			Summary: "Lower crude production could weigh on export receipts and foreign reserves in the near term.",
			Impact:  ImpactBearish,
		},
	}
}
