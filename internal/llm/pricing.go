package llm

import "strings"

// Price is USD per million tokens.
type Price struct {
	In  float64
	Out float64
}

// Cost of a request with the given token counts, in USD.
func (p Price) Cost(t Tokens) float64 {
	return (float64(t.In)*p.In + float64(t.Out)*p.Out) / 1e6
}

// prices covers the default and alias models of each backend. Dated
// snapshot ids match by prefix.
var prices = map[string]Price{
	"claude-haiku-4-5":  {1, 5},
	"claude-sonnet-4":   {3, 15},
	"gpt-4o":            {2.5, 10},
	"gpt-4o-mini":       {0.15, 0.6},
	"gpt-4.1-mini":      {0.4, 1.6},
	"gemini-2.0-flash":  {0.1, 0.4},
	"gemini-2.5-flash":  {0.3, 2.5},
	"gemini-2.5-pro":    {1.25, 10},
	"google/gemini-2.0": {0.1, 0.4},
}

// PriceOf finds the price for model by longest matching prefix.
func PriceOf(model string) (Price, bool) {
	best, bestLen := Price{}, 0
	for id, p := range prices {
		if strings.HasPrefix(model, id) && len(id) > bestLen {
			best, bestLen = p, len(id)
		}
	}
	return best, bestLen > 0
}
