package selection

import (
	"strings"

	"crypto-indices/src/models"
)

// DefaultStablecoins are excluded from every index.
var DefaultStablecoins = []string{
	"usdt", "usdc", "busd", "dai", "tusd",
	"usdp", "usdd", "fdusd", "pyusd", "gusd",
	"frax", "lusd", "usde", "eurc", "susd",
}

// StablecoinFilter is a case-insensitive symbol denylist.
type StablecoinFilter map[string]struct{}

// -----------------------------------------------------------------------------

// NewStablecoinFilter builds the denylist; an empty list means the defaults.
func NewStablecoinFilter(symbols []string) StablecoinFilter {
	if len(symbols) == 0 {
		symbols = DefaultStablecoins
	}
	f := make(StablecoinFilter, len(symbols))
	for _, s := range symbols {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			f[s] = struct{}{}
		}
	}
	return f
}

// -----------------------------------------------------------------------------

func (f StablecoinFilter) IsStablecoin(symbol string) bool {
	_, ok := f[strings.ToLower(strings.TrimSpace(symbol))]
	return ok
}

// -----------------------------------------------------------------------------

// Exclude returns the assets that are not stablecoins, preserving order.
func (f StablecoinFilter) Exclude(assets []models.MAssetSnapshot) []models.MAssetSnapshot {
	out := make([]models.MAssetSnapshot, 0, len(assets))
	for _, a := range assets {
		if !f.IsStablecoin(a.Symbol) {
			out = append(out, a)
		}
	}
	return out
}
