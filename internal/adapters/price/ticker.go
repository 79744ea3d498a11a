package price

import "strings"

// TickerFor guesses a ticker as the first word of the company name,
// upper-cased. It is a best-effort stub: "Apple Inc" gives "APPLE", not "AAPL".
func TickerFor(company string) string {
	fields := strings.Fields(company)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
