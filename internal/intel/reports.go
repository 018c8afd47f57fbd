package intel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"tokenintel/internal/models"
)

// Reports renders the text surfaces served to the bot layer. All methods
// read shared state; callers hold the state lock.
type Reports struct {
	state  *models.State
	symbol string
}

// NewReports builds the report renderer for one token symbol.
func NewReports(state *models.State, symbol string) *Reports {
	return &Reports{state: state, symbol: symbol}
}

type rankedWallet struct {
	wallet  string
	profile *models.WalletProfile
}

// WhaleReport lists whale-labeled wallets ranked by volume, top ten.
func (r *Reports) WhaleReport() string {
	var whales []rankedWallet
	for wallet, profile := range r.state.WalletLabels {
		if IsWhaleLabel(profile.Label) {
			whales = append(whales, rankedWallet{wallet, profile})
		}
	}
	if len(whales) == 0 {
		return "🐋 No whales tracked yet. The system is still learning wallet patterns."
	}
	sort.Slice(whales, func(i, j int) bool {
		return whales[i].profile.TotalSolVolume > whales[j].profile.TotalSolVolume
	})
	if len(whales) > 10 {
		whales = whales[:10]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🐋 <b>%s Whale Report</b>\n\n", r.symbol)
	for _, w := range whales {
		fmt.Fprintf(&b, "<b>%s</b> (%s)\n", w.profile.Label, ShortenAddress(w.wallet))
		fmt.Fprintf(&b, "  📊 %d txs | %.2f SOL volume\n", w.profile.TxCount, w.profile.TotalSolVolume)
		fmt.Fprintf(&b, "  🟢 %d buys | 🔴 %d sells\n", w.profile.TotalBuys, w.profile.TotalSells)
		fmt.Fprintf(&b, "  📅 First seen: %s\n\n", humanize.Time(w.profile.FirstSeen))
	}
	return b.String()
}

// DailySummary renders the rollup of the current day with market context.
func (r *Reports) DailySummary(price models.PriceContext) string {
	d := r.state.DailyStats
	label := func(wallet string) string {
		if w, ok := r.state.WalletLabels[wallet]; ok {
			return w.Label
		}
		return ShortenAddress(wallet)
	}

	trades := d.TotalBuys + d.TotalSells
	if trades == 0 {
		trades = 1
	}
	buyPressure := float64(d.TotalBuys) / float64(trades)
	sentiment := "🟡 Neutral"
	if buyPressure > 0.6 {
		sentiment = "🟢 Bullish"
	} else if buyPressure < 0.4 {
		sentiment = "🔴 Bearish"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s Daily Intelligence Report</b>\n", r.symbol)
	fmt.Fprintf(&b, "📅 %s\n\n", d.Date)

	b.WriteString("<b>Volume & Activity</b>\n")
	fmt.Fprintf(&b, "💰 Total Volume: %.2f SOL", d.TotalVolumeSol)
	if price.PriceUsd > 0 && price.PriceNative > 0 {
		fmt.Fprintf(&b, " (~$%s)", FormatAmount(d.TotalVolumeSol/price.PriceNative*price.PriceUsd))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "🟢 Buys: %d | 🔴 Sells: %d | ↔️ Transfers: %d\n", d.TotalBuys, d.TotalSells, d.TotalTransfers)
	fmt.Fprintf(&b, "📈 Sentiment: %s (%.0f%% buy pressure)\n\n", sentiment, buyPressure*100)

	if price.PriceUsd > 0 {
		b.WriteString("<b>Market</b>\n")
		sign := ""
		if price.PriceChange24h > 0 {
			sign = "+"
		}
		fmt.Fprintf(&b, "💲 Price: $%.8f (%s%.2f%% 24h)\n", price.PriceUsd, sign, price.PriceChange24h)
		fmt.Fprintf(&b, "💧 Liquidity: $%s\n", FormatAmount(price.LiquidityUsd))
		fmt.Fprintf(&b, "📊 FDV: $%s\n\n", FormatAmount(price.Fdv))
	}

	writeTop := func(title string, volumes map[string]float64) {
		if len(volumes) == 0 {
			return
		}
		type entry struct {
			wallet string
			sol    float64
		}
		ranked := make([]entry, 0, len(volumes))
		for wallet, sol := range volumes {
			ranked = append(ranked, entry{wallet, sol})
		}
		sort.Slice(ranked, func(i, j int) bool { return ranked[i].sol > ranked[j].sol })
		if len(ranked) > 5 {
			ranked = ranked[:5]
		}
		fmt.Fprintf(&b, "<b>%s</b>\n", title)
		for _, e := range ranked {
			fmt.Fprintf(&b, "  %s: %.4f SOL\n", label(e.wallet), e.sol)
		}
		b.WriteString("\n")
	}
	writeTop("Top Buyers", d.TopBuyers)
	writeTop("Top Sellers", d.TopSellers)

	if len(d.WhaleMovements) > 0 {
		b.WriteString("<b>🐋 Whale Movements</b>\n")
		movements := d.WhaleMovements
		if len(movements) > 5 {
			movements = movements[len(movements)-5:]
		}
		for _, m := range movements {
			fmt.Fprintf(&b, "  %s\n", m)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "🤖 <i>%s On-Chain Intelligence</i>", r.symbol)
	return b.String()
}

// RecentAlerts renders the last n alert lines, newest first.
func (r *Reports) RecentAlerts(n int) string {
	if n <= 0 {
		n = 10
	}
	alerts := r.state.RecentAlerts
	if len(alerts) > n {
		alerts = alerts[len(alerts)-n:]
	}
	if len(alerts) == 0 {
		return "📊 No recent alerts. Monitoring is active."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Last %d %s Alerts</b>\n\n", len(alerts), r.symbol)
	for i := len(alerts) - 1; i >= 0; i-- {
		a := alerts[i]
		fmt.Fprintf(&b, "%s %s\n", TypeEmoji(a.Classification), a.Explanation)
		fmt.Fprintf(&b, "  ⏰ %s UTC | <a href=\"https://solscan.io/tx/%s\">tx</a>\n\n",
			a.Time.UTC().Format("15:04:05"), a.Signature)
	}
	return b.String()
}

// AlertMessage renders the HTML notification for one buy-family event.
func (r *Reports) AlertMessage(ev *models.ParsedEvent, intel models.Intel, price models.PriceContext) string {
	label := ShortenAddress(ev.Signer)
	if w, ok := r.state.WalletLabels[ev.Signer]; ok {
		label = w.Label
	}

	emoji := "🟢"
	if strings.Contains(intel.Classification, "whale") {
		emoji = "🐋"
	}
	usd := ""
	if price.PriceUsd > 0 && ev.TokenAmount > 0 {
		if v := ev.TokenAmount * price.PriceUsd; v >= 0.01 {
			usd = fmt.Sprintf(" ($%s)", FormatAmount(v))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>BUY</b> — %.2f SOL%s\n", emoji, ev.SolAmount, usd)
	fmt.Fprintf(&b, "%s %s → %s\n", FormatAmount(ev.TokenAmount), r.symbol, label)
	fmt.Fprintf(&b, "<a href=\"https://solscan.io/tx/%s\">tx</a>", ev.Signature)
	return b.String()
}

// Diagnostics is the machine-readable pipeline snapshot.
type Diagnostics struct {
	KnownWallets   int                 `json:"knownWallets"`
	WhaleCount     int                 `json:"whaleCount"`
	LastPoll       string              `json:"lastPoll"`
	AlertThreshold float64             `json:"alertThreshold"`
	TodayStats     DiagnosticsToday    `json:"todayStats"`
	RecentAlerts   int                 `json:"recentAlerts"`
	Price          models.PriceContext `json:"price"`
}

// DiagnosticsToday summarizes the current day's counters.
type DiagnosticsToday struct {
	Volume float64 `json:"volume"`
	Buys   int     `json:"buys"`
	Sells  int     `json:"sells"`
	Events int     `json:"events"`
}

// Diagnostics snapshots the observable pipeline state.
func (r *Reports) Diagnostics(price models.PriceContext) Diagnostics {
	lastPoll := ""
	if !r.state.LastPollTime.IsZero() {
		lastPoll = r.state.LastPollTime.UTC().Format("2006-01-02T15:04:05Z")
	}
	return Diagnostics{
		KnownWallets:   len(r.state.WalletLabels),
		WhaleCount:     r.state.WhaleCounter,
		LastPoll:       lastPoll,
		AlertThreshold: r.state.AlertThreshold,
		TodayStats: DiagnosticsToday{
			Volume: r.state.DailyStats.TotalVolumeSol,
			Buys:   r.state.DailyStats.TotalBuys,
			Sells:  r.state.DailyStats.TotalSells,
			Events: len(r.state.DailyStats.Events),
		},
		RecentAlerts: len(r.state.RecentAlerts),
		Price:        price,
	}
}
