// Package monitor runs the single-flight poll loop that drives the
// parse, ledger, classify, aggregate and alert stages.
package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"tokenintel/internal/alerts"
	"tokenintel/internal/intel"
	"tokenintel/internal/models"
	solclient "tokenintel/pkg/solana"
)

// ChainClient lists and fetches transactions for the watched account.
type ChainClient interface {
	NewSignatures(ctx context.Context, since string) ([]solclient.SignatureInfo, error)
	TransactionDetail(ctx context.Context, signature string) (*rpc.GetParsedTransactionResult, error)
}

// PriceSource supplies the cached market snapshot.
type PriceSource interface {
	PriceContext(ctx context.Context) (models.PriceContext, error)
}

// StateStore persists the pipeline state document.
type StateStore interface {
	Save(state *models.State) error
}

// Options tunes the poll loop.
type Options struct {
	PollInterval time.Duration
	BatchWidth   int
	BatchPause   time.Duration
}

// Monitor owns the shared state and coordinates one poll cycle at a time.
type Monitor struct {
	opts   Options
	chain  ChainClient
	price  PriceSource
	parser *intel.Parser
	class  *intel.Classifier
	sender alerts.Sender
	store  StateStore

	mu         sync.Mutex
	state      *models.State
	ledger     *intel.Ledger
	daily      *intel.Daily
	reports    *intel.Reports
	priceCache models.PriceContext

	wake <-chan string
	cron *cron.Cron
}

// New wires the pipeline stages around one shared state.
func New(opts Options, state *models.State, chain ChainClient, price PriceSource,
	parser *intel.Parser, class *intel.Classifier, ledger *intel.Ledger,
	daily *intel.Daily, reports *intel.Reports, sender alerts.Sender,
	store StateStore, wake <-chan string) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.BatchWidth <= 0 {
		opts.BatchWidth = 5
	}
	if opts.BatchPause <= 0 {
		opts.BatchPause = 500 * time.Millisecond
	}
	if sender == nil {
		sender = alerts.Nop{}
	}
	return &Monitor{
		opts:    opts,
		chain:   chain,
		price:   price,
		parser:  parser,
		class:   class,
		sender:  sender,
		store:   store,
		state:   state,
		ledger:  ledger,
		daily:   daily,
		reports: reports,
		wake:    wake,
	}
}

// Run executes poll cycles until the context is cancelled, then flushes
// state. Wake-up signals from the log stream trigger an early cycle.
func (m *Monitor) Run(ctx context.Context) {
	m.Poll(ctx)

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.flush()
			return
		case <-ticker.C:
			m.Poll(ctx)
		case _, ok := <-m.wake:
			if !ok {
				m.wake = nil
				continue
			}
			m.drainWake()
			m.Poll(ctx)
			ticker.Reset(m.opts.PollInterval)
		}
	}
}

func (m *Monitor) drainWake() {
	for {
		select {
		case <-m.wake:
		default:
			return
		}
	}
}

// StartDailyCron posts the end-of-day summary shortly after midnight UTC,
// rotating the day as a safety net for quiet nights.
func (m *Monitor) StartDailyCron(ctx context.Context) {
	m.cron = cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	_, err := m.cron.AddFunc("5 0 0 * * *", func() {
		m.PostDailySummary(ctx)
	})
	if err != nil {
		log.Errorf("schedule daily summary: %v", err)
		return
	}
	m.cron.Start()
	log.Info("daily summary scheduled for 00:00:05 UTC")
}

// StopDailyCron stops the scheduler.
func (m *Monitor) StopDailyCron() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// Poll runs one full cycle. Errors are logged, never fatal: a failed cycle
// just waits for the next tick.
func (m *Monitor) Poll(ctx context.Context) {
	m.refreshPrice(ctx)

	m.mu.Lock()
	m.daily.RotateIfNewDay()
	since := m.state.LastSignature
	m.mu.Unlock()

	coldStart := since == ""

	sigs, err := m.chain.NewSignatures(ctx, since)
	if err != nil {
		log.Errorf("poll failed: %v", err)
		return
	}

	pending := make([]solclient.SignatureInfo, 0, len(sigs))
	m.mu.Lock()
	for _, sig := range sigs {
		if sig.Failed || m.state.Seen(sig.Signature) {
			continue
		}
		pending = append(pending, sig)
	}
	m.mu.Unlock()

	if len(pending) > 0 {
		log.Infof("processing %d new transactions...", len(pending))
		if coldStart {
			log.Info("cold start: seeding state without alerts")
		}
		m.processBatches(ctx, pending, coldStart)

		m.mu.Lock()
		m.state.LastSignature = pending[len(pending)-1].Signature
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.state.LastPollTime = time.Now().UTC()
	err = m.store.Save(m.state)
	m.mu.Unlock()
	if err != nil {
		// State stays intact in memory; the next cycle retries the write.
		log.Errorf("state save failed: %v", err)
	}
}

// processBatches runs detail fetches in bounded-width batches with a pause
// between batches to respect provider rate limits.
func (m *Monitor) processBatches(ctx context.Context, pending []solclient.SignatureInfo, suppressAlerts bool) {
	for start := 0; start < len(pending); start += m.opts.BatchWidth {
		end := start + m.opts.BatchWidth
		if end > len(pending) {
			end = len(pending)
		}

		var wg sync.WaitGroup
		for _, sig := range pending[start:end] {
			wg.Add(1)
			go func(sig solclient.SignatureInfo) {
				defer wg.Done()
				m.processSignature(ctx, sig, suppressAlerts)
			}(sig)
		}
		wg.Wait()

		if end < len(pending) {
			select {
			case <-time.After(m.opts.BatchPause):
			case <-ctx.Done():
				return
			}
		}
	}
}

// processSignature handles one transaction end to end. Any failure is
// logged with the signature and skipped.
func (m *Monitor) processSignature(ctx context.Context, sig solclient.SignatureInfo, suppressAlerts bool) {
	tx, err := m.chain.TransactionDetail(ctx, sig.Signature)
	if err != nil {
		log.Errorf("failed to process tx %s: %v", intel.ShortenAddress(sig.Signature), err)
		return
	}

	ev := m.parser.Parse(tx, sig.Signature)
	if ev == nil || ev.Type == models.EventUnknown {
		return
	}
	if ev.BlockTime.IsZero() {
		ev.BlockTime = sig.BlockTime
	}

	m.mu.Lock()
	if m.state.Seen(ev.Signature) {
		m.mu.Unlock()
		return
	}

	profile := m.ledger.Ensure(ev.Signer, ev.SolAmount)
	switch ev.Type {
	case models.EventBuy:
		profile.TotalBuys++
	case models.EventSell:
		profile.TotalSells++
	}

	verdict := m.class.Classify(ev, profile, profile.Label, m.priceCache)
	m.daily.Record(ev, verdict)
	m.state.MarkProcessed(ev.Signature)
	m.state.PushAlert(models.Alert{
		Time:           ev.BlockTime,
		Signature:      ev.Signature,
		Classification: verdict.Classification,
		Explanation:    verdict.Explanation,
		Confidence:     verdict.Confidence,
		SolAmount:      ev.SolAmount,
		TokenAmount:    ev.TokenAmount,
		Wallet:         ev.Signer,
		WalletLabel:    profile.Label,
	})

	shouldAlert := !suppressAlerts &&
		strings.Contains(verdict.Classification, "buy") &&
		ev.SolAmount >= m.state.AlertThreshold
	var message string
	if shouldAlert {
		message = m.reports.AlertMessage(ev, verdict, m.priceCache)
	}
	m.mu.Unlock()

	log.WithFields(log.Fields{
		"classification": verdict.Classification,
		"sol":            ev.SolAmount,
		"wallet":         intel.ShortenAddress(ev.Signer),
	}).Info("transaction classified")

	if shouldAlert {
		if err := m.sender.Send(ctx, message); err != nil {
			log.Errorf("alert send failed: %v", err)
		} else {
			log.Infof("alert sent: %s - %.4f SOL", verdict.Classification, ev.SolAmount)
		}
	}
}

func (m *Monitor) refreshPrice(ctx context.Context) {
	if m.price == nil {
		return
	}
	snap, err := m.price.PriceContext(ctx)
	if err != nil {
		log.Warnf("price fetch failed: %v", err)
		return
	}
	m.mu.Lock()
	m.priceCache = snap
	m.mu.Unlock()
}

// PostDailySummary sends the rollup of the just-finished day, archives it
// and rotates.
func (m *Monitor) PostDailySummary(ctx context.Context) {
	m.refreshPrice(ctx)

	m.mu.Lock()
	text := m.reports.DailySummary(m.priceCache)
	m.daily.RotateIfNewDay()
	if err := m.store.Save(m.state); err != nil {
		log.Errorf("state save failed: %v", err)
	}
	m.mu.Unlock()

	if err := m.sender.Send(ctx, text); err != nil {
		log.Errorf("daily summary send failed: %v", err)
		return
	}
	log.Info("daily summary posted")
}

func (m *Monitor) flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(m.state); err != nil {
		log.Errorf("final state flush failed: %v", err)
		return
	}
	log.Info("state flushed on shutdown")
}

// DryRun classifies the most recent transactions without alerting or
// persisting, then prints a sample daily summary. Used for smoke testing a
// deployment against live data.
func (m *Monitor) DryRun(ctx context.Context, limit int) {
	log.Info("=== DRY RUN MODE ===")
	m.refreshPrice(ctx)
	log.Infof("current price: $%.8f | liquidity $%s | fdv $%s",
		m.priceCache.PriceUsd, intel.FormatAmount(m.priceCache.LiquidityUsd),
		intel.FormatAmount(m.priceCache.Fdv))

	sigs, err := m.chain.NewSignatures(ctx, "")
	if err != nil {
		log.Errorf("dry run: list signatures: %v", err)
		return
	}
	if len(sigs) > limit {
		sigs = sigs[len(sigs)-limit:]
	}
	log.Infof("got %d signatures", len(sigs))

	for i, sig := range sigs {
		if sig.Failed {
			log.Infof("[%d] %s: failed on chain, skipped", i+1, intel.ShortenAddress(sig.Signature))
			continue
		}
		tx, err := m.chain.TransactionDetail(ctx, sig.Signature)
		if err != nil {
			log.Warnf("[%d] %s: %v", i+1, intel.ShortenAddress(sig.Signature), err)
			continue
		}
		ev := m.parser.Parse(tx, sig.Signature)
		if ev == nil {
			log.Infof("[%d] %s: no relevant balance movement", i+1, intel.ShortenAddress(sig.Signature))
			continue
		}

		m.mu.Lock()
		profile := m.ledger.Ensure(ev.Signer, ev.SolAmount)
		switch ev.Type {
		case models.EventBuy:
			profile.TotalBuys++
		case models.EventSell:
			profile.TotalSells++
		}
		verdict := m.class.Classify(ev, profile, profile.Label, m.priceCache)
		threshold := m.state.AlertThreshold
		m.mu.Unlock()

		log.WithFields(log.Fields{
			"type":           ev.Type,
			"dex":            ev.IsPoolSwap,
			"signer":         intel.ShortenAddress(ev.Signer),
			"sol":            ev.SolAmount,
			"token":          intel.FormatAmount(ev.TokenAmount),
			"classification": verdict.Classification,
			"confidence":     verdict.Confidence,
		}).Infof("[%d] %s", i+1, verdict.Explanation)

		if ev.SolAmount >= threshold {
			log.Info("    would send alert")
		}
	}

	m.mu.Lock()
	log.Infof("unique wallets: %d | whales: %d", len(m.state.WalletLabels), m.state.WhaleCounter)
	m.mu.Unlock()
	log.Info("=== SAMPLE DAILY SUMMARY ===")
	log.Info(m.DailySummaryText())
}

// WhaleReport renders the whale summary text.
func (m *Monitor) WhaleReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports.WhaleReport()
}

// DailySummaryText renders the current day's rollup.
func (m *Monitor) DailySummaryText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.daily.RotateIfNewDay()
	return m.reports.DailySummary(m.priceCache)
}

// RecentAlertsText renders the last n alert lines.
func (m *Monitor) RecentAlertsText(n int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports.RecentAlerts(n)
}

// Diagnostics snapshots the observable pipeline state.
func (m *Monitor) Diagnostics() intel.Diagnostics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports.Diagnostics(m.priceCache)
}
