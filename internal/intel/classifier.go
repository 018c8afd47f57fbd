package intel

import (
	"fmt"
	"time"

	"tokenintel/internal/models"
)

const (
	washWindow   = 5 * time.Minute
	washMinCount = 3
)

// Classifier refines parsed events into ranked intelligence records using
// the wallet's history and the current price. Pure except for the clock.
type Classifier struct {
	symbol           string
	whaleThreshold   float64
	notableThreshold float64
	now              func() time.Time
}

// NewClassifier builds a classifier for one token symbol.
func NewClassifier(symbol string, whaleThreshold, notableThreshold float64) *Classifier {
	return &Classifier{
		symbol:           symbol,
		whaleThreshold:   whaleThreshold,
		notableThreshold: notableThreshold,
		now:              time.Now,
	}
}

// Classify produces the verdict for one event. profile may be nil when the
// wallet has never been seen; label is the ledger's display label.
func (c *Classifier) Classify(ev *models.ParsedEvent, profile *models.WalletProfile, label string, price models.PriceContext) models.Intel {
	if ev == nil || ev.Type == models.EventUnknown {
		return models.Intel{
			Classification: models.ClassUnknown,
			Confidence:     0.1,
			Explanation:    "Could not determine transaction type",
			Flags:          []string{},
		}
	}

	isWhale := (profile != nil && IsWhaleLabel(profile.Label)) || ev.SolAmount >= c.whaleThreshold
	isNotable := ev.SolAmount >= c.notableThreshold

	intel := models.Intel{
		Classification: string(ev.Type),
		Confidence:     0.7,
		Flags:          []string{},
	}

	switch ev.Type {
	case models.EventBuy:
		switch {
		case isWhale:
			intel.Classification = models.ClassWhaleBuy
			intel.Confidence = 0.9
			intel.Explanation = fmt.Sprintf("🐋 Whale %s bought %s %s for %.4f SOL",
				label, FormatAmount(ev.TokenAmount), c.symbol, ev.SolAmount)
			intel.Flags = append(intel.Flags, models.FlagWhale)
		case isNotable:
			intel.Classification = models.ClassNotableBuy
			intel.Confidence = 0.85
			intel.Explanation = fmt.Sprintf("🟢 Notable buy by %s: %s %s for %.4f SOL",
				label, FormatAmount(ev.TokenAmount), c.symbol, ev.SolAmount)
		default:
			intel.Classification = models.ClassOrganicBuy
			intel.Confidence = 0.75
			intel.Explanation = fmt.Sprintf("🟢 %s bought %s %s for %.4f SOL",
				label, FormatAmount(ev.TokenAmount), c.symbol, ev.SolAmount)
		}

	case models.EventSell:
		switch {
		case isWhale:
			intel.Classification = models.ClassWhaleSell
			intel.Confidence = 0.9
			intel.Explanation = fmt.Sprintf("🐋🔴 Whale %s sold %s %s for %.4f SOL",
				label, FormatAmount(ev.TokenAmount), c.symbol, ev.SolAmount)
			intel.Flags = append(intel.Flags, models.FlagWhale)
		case isNotable:
			intel.Classification = models.ClassNotableSell
			intel.Confidence = 0.85
			intel.Explanation = fmt.Sprintf("🔴 Notable sell by %s: %s %s for %.4f SOL",
				label, FormatAmount(ev.TokenAmount), c.symbol, ev.SolAmount)
		default:
			intel.Classification = models.ClassOrganicSell
			intel.Confidence = 0.75
			intel.Explanation = fmt.Sprintf("🔴 %s sold %s %s for %.4f SOL",
				label, FormatAmount(ev.TokenAmount), c.symbol, ev.SolAmount)
		}

	case models.EventTransfer:
		intel.Classification = models.ClassTransfer
		intel.Confidence = 0.8
		intel.Explanation = fmt.Sprintf("↔️ %s transferred %s %s",
			label, FormatAmount(ev.TokenAmount), c.symbol)

	case models.EventDistribution:
		intel.Classification = models.ClassDistribution
		intel.Confidence = 0.85
		intel.Explanation = fmt.Sprintf("⚠️ Distribution: %s sent %s to %d wallets",
			label, c.symbol, len(ev.Receivers))
		intel.Flags = append(intel.Flags, models.FlagUnusual)

	case models.EventLPAdd:
		intel.Classification = models.ClassLPAdd
		intel.Confidence = 0.9
		intel.Explanation = fmt.Sprintf("💧 Liquidity added: %.4f SOL + %s %s",
			ev.SolAmount, FormatAmount(ev.TokenAmount), c.symbol)
		intel.Flags = append(intel.Flags, models.FlagLPChange)

	case models.EventLPRemove:
		intel.Classification = models.ClassLPRemove
		intel.Confidence = 0.9
		intel.Explanation = fmt.Sprintf("💧🔴 Liquidity removed: %.4f SOL + %s %s",
			ev.SolAmount, FormatAmount(ev.TokenAmount), c.symbol)
		intel.Flags = append(intel.Flags, models.FlagLPChange, models.FlagUnusual)
	}

	// Rapid two-sided activity invalidates the tier computed above. This is
	// a heuristic and can misfire on a legitimate high-frequency trader.
	if profile != nil && (ev.Type == models.EventBuy || ev.Type == models.EventSell) {
		bothSides := profile.TotalBuys > 0 && profile.TotalSells > 0
		recent := 0
		cutoff := c.now().Add(-washWindow)
		for _, t := range profile.RecentTxTimes {
			if t.After(cutoff) {
				recent++
			}
		}
		if bothSides && recent >= washMinCount {
			intel.Classification = models.ClassWashTrading
			intel.Confidence = 0.7
			intel.Explanation = fmt.Sprintf("⚠️ Possible wash trading: %s buying AND selling rapidly (%d txs in 5min)",
				label, recent)
			intel.Flags = append(intel.Flags, models.FlagWash, models.FlagUnusual)
		}
	}

	if price.PriceUsd > 0 && ev.TokenAmount > 0 {
		if usd := ev.TokenAmount * price.PriceUsd; usd >= 1 {
			intel.Explanation += fmt.Sprintf(" (~$%s)", FormatAmount(usd))
		}
	}
	return intel
}
