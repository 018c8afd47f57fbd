package intel

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"tokenintel/internal/models"
)

// WhaleLabelPrefix marks wallets promoted past the whale threshold.
const WhaleLabelPrefix = "whale_"

// Ledger maintains the per-wallet behavioral profiles inside the shared
// state. It is not safe for concurrent use; callers hold the state lock.
type Ledger struct {
	state          *models.State
	whaleThreshold float64
	now            func() time.Time
}

// NewLedger wraps the state's wallet map with the promotion rules.
func NewLedger(state *models.State, whaleThreshold float64) *Ledger {
	return &Ledger{state: state, whaleThreshold: whaleThreshold, now: time.Now}
}

// Ensure creates or updates the profile for one observed transaction and
// returns it. Volume only ever grows; whale promotion is one-directional.
func (l *Ledger) Ensure(wallet string, solAmount float64) *models.WalletProfile {
	w, ok := l.state.WalletLabels[wallet]
	if !ok {
		w = &models.WalletProfile{
			Label:         ShortenAddress(wallet),
			FirstSeen:     l.now(),
			RecentTxTimes: []time.Time{},
		}
		l.state.WalletLabels[wallet] = w
	}
	w.TxCount++
	w.TotalSolVolume += math.Abs(solAmount)

	if w.TotalSolVolume >= l.whaleThreshold && !IsWhaleLabel(w.Label) {
		l.state.WhaleCounter++
		w.Label = fmt.Sprintf("%s%d", WhaleLabelPrefix, l.state.WhaleCounter)
		log.Infof("new whale labeled: %s -> %s", ShortenAddress(wallet), w.Label)
	}

	w.RecentTxTimes = append(w.RecentTxTimes, l.now())
	if len(w.RecentTxTimes) > models.RecentTxWindow {
		w.RecentTxTimes = w.RecentTxTimes[len(w.RecentTxTimes)-models.RecentTxWindow:]
	}
	return w
}

// Label returns the assigned label, or a shortened address for wallets the
// ledger has never seen.
func (l *Ledger) Label(wallet string) string {
	if w, ok := l.state.WalletLabels[wallet]; ok {
		return w.Label
	}
	return ShortenAddress(wallet)
}

// IsWhaleLabel reports whether a label marks a promoted wallet.
func IsWhaleLabel(label string) bool {
	return len(label) >= len(WhaleLabelPrefix) && label[:len(WhaleLabelPrefix)] == WhaleLabelPrefix
}

// ShortenAddress renders an address as its first and last four characters.
func ShortenAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
