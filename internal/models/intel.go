package models

import (
	"time"
)

// EventType is the coarse transaction category produced by the parser.
type EventType string

const (
	EventBuy          EventType = "buy"
	EventSell         EventType = "sell"
	EventTransfer     EventType = "transfer"
	EventDistribution EventType = "distribution"
	EventLPAdd        EventType = "lp_add"
	EventLPRemove     EventType = "lp_remove"
	EventUnknown      EventType = "unknown"
)

// Classification labels attached by the classifier.
const (
	ClassWhaleBuy     = "whale_buy"
	ClassWhaleSell    = "whale_sell"
	ClassNotableBuy   = "notable_buy"
	ClassNotableSell  = "notable_sell"
	ClassOrganicBuy   = "organic_buy"
	ClassOrganicSell  = "organic_sell"
	ClassTransfer     = "transfer"
	ClassDistribution = "distribution"
	ClassLPAdd        = "lp_add"
	ClassLPRemove     = "lp_remove"
	ClassWashTrading  = "wash_trading"
	ClassUnknown      = "unknown"
)

// Classifier flags.
const (
	FlagWhale    = "whale"
	FlagNotable  = "notable"
	FlagUnusual  = "unusual"
	FlagWash     = "wash"
	FlagLPChange = "lp_change"
)

const (
	// RecentTxWindow is how many recent trade timestamps a wallet keeps.
	RecentTxWindow = 10
	// RecentAlertCap bounds the persisted alert ring.
	RecentAlertCap = 100
	// DailyEventCap bounds the per-day event log.
	DailyEventCap = 500
	// ProcessedSigCap triggers a trim of the dedup set once exceeded.
	ProcessedSigCap = 500
	// ProcessedSigKeep is how many newest signatures survive a trim.
	ProcessedSigKeep = 300
)

// WalletProfile is the cumulative ledger entry for one signer address.
type WalletProfile struct {
	Label          string      `json:"label"`
	FirstSeen      time.Time   `json:"firstSeen"`
	TxCount        int         `json:"txCount"`
	TotalBuys      int         `json:"totalBuys"`
	TotalSells     int         `json:"totalSells"`
	TotalSolVolume float64     `json:"totalSolVolume"`
	RecentTxTimes  []time.Time `json:"recentTxTimes"`
}

// Receiver is a non-pool account whose token balance grew in a transfer.
type Receiver struct {
	Owner  string  `json:"owner"`
	Amount float64 `json:"amount"`
}

// ParsedEvent is one confirmed transaction reduced to economic effect.
type ParsedEvent struct {
	Signature   string     `json:"signature"`
	BlockTime   time.Time  `json:"blockTime"`
	Signer      string     `json:"signer"`
	Type        EventType  `json:"type"`
	SolAmount   float64    `json:"solAmount"`
	TokenAmount float64    `json:"tokenAmount"`
	IsPoolSwap  bool       `json:"isPoolSwap"`
	Programs    []string   `json:"programs"`
	Receivers   []Receiver `json:"receivers,omitempty"`
}

// Intel is the classifier verdict for a parsed event.
type Intel struct {
	Classification string   `json:"classification"`
	Confidence     float64  `json:"confidence"`
	Explanation    string   `json:"explanation"`
	Flags          []string `json:"flags"`
}

// Alert is one emitted notification, kept for the recent-alerts surface.
type Alert struct {
	Time           time.Time `json:"time"`
	Signature      string    `json:"signature"`
	Classification string    `json:"classification"`
	Explanation    string    `json:"explanation"`
	Confidence     float64   `json:"confidence"`
	SolAmount      float64   `json:"solAmount"`
	TokenAmount    float64   `json:"tokenAmount"`
	Wallet         string    `json:"wallet"`
	WalletLabel    string    `json:"walletLabel"`
}

// EventRecord is the compact per-event row kept inside DailyStats.
type EventRecord struct {
	Time           time.Time `json:"time"`
	Signature      string    `json:"signature"`
	Type           EventType `json:"type"`
	Classification string    `json:"classification"`
	SolAmount      float64   `json:"solAmount"`
	Wallet         string    `json:"wallet"`
}

// DailyStats accumulates one UTC day of activity. WhaleMovements holds the
// classifier explanations of whale-flagged events.
type DailyStats struct {
	Date           string             `json:"date"`
	TotalVolumeSol float64            `json:"totalVolumeSol"`
	TotalBuys      int                `json:"totalBuys"`
	TotalSells     int                `json:"totalSells"`
	TotalTransfers int                `json:"totalTransfers"`
	TopBuyers      map[string]float64 `json:"topBuyers"`
	TopSellers     map[string]float64 `json:"topSellers"`
	WhaleMovements []string           `json:"whaleMovements"`
	Events         []EventRecord      `json:"events"`
}

// NewDailyStats returns an empty accumulator for the given UTC date.
func NewDailyStats(date string) *DailyStats {
	return &DailyStats{
		Date:           date,
		TopBuyers:      map[string]float64{},
		TopSellers:     map[string]float64{},
		WhaleMovements: []string{},
		Events:         []EventRecord{},
	}
}

// PriceContext is the latest market snapshot from DexScreener.
type PriceContext struct {
	PriceNative    float64   `json:"priceNative"`
	PriceUsd       float64   `json:"priceUsd"`
	LiquidityUsd   float64   `json:"liquidityUsd"`
	Fdv            float64   `json:"fdv"`
	Volume24h      float64   `json:"volume24h"`
	PriceChange24h float64   `json:"priceChange24h"`
	FetchedAt      time.Time `json:"fetchedAt"`
}

// State is the single persisted document for the whole pipeline.
type State struct {
	WalletLabels        map[string]*WalletProfile `json:"walletLabels"`
	WhaleCounter        int                       `json:"whaleCounter"`
	LastSignature       string                    `json:"lastSignature"`
	LastPollTime        time.Time                 `json:"lastPollTime"`
	AlertThreshold      float64                   `json:"alertThreshold"`
	DailyStats          *DailyStats               `json:"dailyStats"`
	RecentAlerts        []Alert                   `json:"recentAlerts"`
	ProcessedSignatures []string                  `json:"processedSignatures"`
}

// NewState returns an initialized state for the given UTC date and threshold.
func NewState(date string, alertThreshold float64) *State {
	return &State{
		WalletLabels:        map[string]*WalletProfile{},
		AlertThreshold:      alertThreshold,
		DailyStats:          NewDailyStats(date),
		RecentAlerts:        []Alert{},
		ProcessedSignatures: []string{},
	}
}

// Seen reports whether the signature is in the dedup set.
func (s *State) Seen(signature string) bool {
	for _, sig := range s.ProcessedSignatures {
		if sig == signature {
			return true
		}
	}
	return false
}

// MarkProcessed records a signature and trims the set once it exceeds the cap.
func (s *State) MarkProcessed(signature string) {
	s.ProcessedSignatures = append(s.ProcessedSignatures, signature)
	if len(s.ProcessedSignatures) > ProcessedSigCap {
		s.ProcessedSignatures = append([]string(nil),
			s.ProcessedSignatures[len(s.ProcessedSignatures)-ProcessedSigKeep:]...)
	}
}

// PushAlert appends to the alert ring, keeping the newest RecentAlertCap.
func (s *State) PushAlert(a Alert) {
	s.RecentAlerts = append(s.RecentAlerts, a)
	if len(s.RecentAlerts) > RecentAlertCap {
		s.RecentAlerts = append([]Alert(nil),
			s.RecentAlerts[len(s.RecentAlerts)-RecentAlertCap:]...)
	}
}
