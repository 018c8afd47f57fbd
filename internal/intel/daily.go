package intel

import (
	"time"

	log "github.com/sirupsen/logrus"

	"tokenintel/internal/models"
)

const whaleMovementCap = 50

// ArchiveFunc seals a completed day. Failures are the archiver's problem;
// rotation proceeds regardless so the new day starts clean.
type ArchiveFunc func(stats *models.DailyStats)

// Daily accumulates the rolling per-day statistics held in the shared
// state. Callers hold the state lock.
type Daily struct {
	state   *models.State
	archive ArchiveFunc
	now     func() time.Time
}

// NewDaily wraps the state's daily stats with rotation and recording.
func NewDaily(state *models.State, archive ArchiveFunc) *Daily {
	return &Daily{state: state, archive: archive, now: time.Now}
}

// DateStr is the UTC calendar date used as the rollup key.
func DateStr(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// RotateIfNewDay archives and resets the accumulator when the UTC date has
// moved on. Safe to call any number of times per day.
func (d *Daily) RotateIfNewDay() {
	today := DateStr(d.now())
	if d.state.DailyStats.Date == today {
		return
	}
	if d.archive != nil {
		d.archive(d.state.DailyStats)
	}
	d.state.DailyStats = models.NewDailyStats(today)
	log.Infof("daily stats reset for %s", today)
}

// Record folds one accepted event into the day. Must be called exactly once
// per event, after the dedup check.
func (d *Daily) Record(ev *models.ParsedEvent, intel models.Intel) {
	d.RotateIfNewDay()
	stats := d.state.DailyStats

	stats.TotalVolumeSol += ev.SolAmount
	switch ev.Type {
	case models.EventBuy:
		stats.TotalBuys++
		stats.TopBuyers[ev.Signer] += ev.SolAmount
	case models.EventSell:
		stats.TotalSells++
		stats.TopSellers[ev.Signer] += ev.SolAmount
	case models.EventTransfer, models.EventDistribution:
		stats.TotalTransfers++
	}

	if hasFlag(intel.Flags, models.FlagWhale) {
		stats.WhaleMovements = append(stats.WhaleMovements, intel.Explanation)
		if len(stats.WhaleMovements) > whaleMovementCap {
			stats.WhaleMovements = stats.WhaleMovements[len(stats.WhaleMovements)-whaleMovementCap:]
		}
	}

	stats.Events = append(stats.Events, models.EventRecord{
		Time:           ev.BlockTime,
		Signature:      ev.Signature,
		Type:           ev.Type,
		Classification: intel.Classification,
		SolAmount:      ev.SolAmount,
		Wallet:         ShortenAddress(ev.Signer),
	})
	if len(stats.Events) > models.DailyEventCap {
		stats.Events = stats.Events[len(stats.Events)-models.DailyEventCap:]
	}
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
