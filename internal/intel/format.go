package intel

import "fmt"

// FormatAmount renders a magnitude with K/M suffixes for readability.
func FormatAmount(n float64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.2fM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.2fK", n/1_000)
	case n >= 1:
		return fmt.Sprintf("%.2f", n)
	default:
		return fmt.Sprintf("%.6f", n)
	}
}

// TypeEmoji maps a classification to its display prefix.
func TypeEmoji(classification string) string {
	emojis := map[string]string{
		"whale_buy":    "🐋🟢",
		"whale_sell":   "🐋🔴",
		"notable_buy":  "💪🟢",
		"notable_sell": "💪🔴",
		"organic_buy":  "🟢",
		"organic_sell": "🔴",
		"transfer":     "↔️",
		"distribution": "📤⚠️",
		"wash_trading": "🔄⚠️",
		"lp_add":       "💧🟢",
		"lp_remove":    "💧🔴",
		"unknown":      "❓",
	}
	if e, ok := emojis[classification]; ok {
		return e
	}
	return "📊"
}
