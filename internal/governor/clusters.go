package governor

import "strings"

// ClusterFor buckets a symbol into a correlation cluster. The mapping is a
// placeholder ticker table behind a stable signature; swap the body for real
// sector/factor reference data without touching callers.
func ClusterFor(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	// Futures/forex style symbols reduce to their root.
	sym = strings.TrimSuffix(sym, "USDT")
	sym = strings.TrimSuffix(sym, "USD")
	sym = strings.TrimSuffix(sym, "/")

	for clusterName, members := range clusterTable {
		for _, m := range members {
			if sym == m {
				return clusterName
			}
		}
	}
	return "uncorrelated"
}

var clusterTable = map[string][]string{
	"megacap_tech": {"AAPL", "MSFT", "GOOGL", "GOOG", "AMZN", "META", "NFLX"},
	"semis":        {"NVDA", "AMD", "AVGO", "TSM", "INTC", "MU", "SMH"},
	"index":        {"SPY", "QQQ", "IWM", "DIA", "ES", "NQ", "RTY"},
	"crypto_major": {"BTC", "ETH", "SOL", "XBT"},
	"energy":       {"XOM", "CVX", "COP", "OXY", "XLE", "CL"},
	"financials":   {"JPM", "BAC", "GS", "MS", "WFC", "XLF"},
	"ev_auto":      {"TSLA", "RIVN", "LCID", "NIO", "F", "GM"},
}
