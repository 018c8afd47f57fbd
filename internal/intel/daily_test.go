package intel

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenintel/internal/models"
)

func TestDailyRecord(t *testing.T) {
	state := models.NewState("2026-08-29", 5)
	d := NewDaily(state, nil)
	d.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }

	buy := &models.ParsedEvent{Signature: "s1", Signer: "walletA", Type: models.EventBuy, SolAmount: 2}
	sell := &models.ParsedEvent{Signature: "s2", Signer: "walletB", Type: models.EventSell, SolAmount: 3}
	transfer := &models.ParsedEvent{Signature: "s3", Signer: "walletA", Type: models.EventTransfer, SolAmount: 0}

	d.Record(buy, models.Intel{Classification: models.ClassOrganicBuy})
	d.Record(sell, models.Intel{Classification: models.ClassNotableSell})
	d.Record(transfer, models.Intel{Classification: models.ClassTransfer})

	stats := state.DailyStats
	assert.Equal(t, 1, stats.TotalBuys)
	assert.Equal(t, 1, stats.TotalSells)
	assert.Equal(t, 1, stats.TotalTransfers)
	assert.InDelta(t, 5, stats.TotalVolumeSol, 1e-9)
	assert.InDelta(t, 2, stats.TopBuyers["walletA"], 1e-9)
	assert.InDelta(t, 3, stats.TopSellers["walletB"], 1e-9)
	assert.Len(t, stats.Events, 3)
}

func TestDailyWhaleMovements(t *testing.T) {
	state := models.NewState("2026-08-29", 5)
	d := NewDaily(state, nil)
	d.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }

	ev := &models.ParsedEvent{Signature: "s1", Signer: "w", Type: models.EventBuy, SolAmount: 9}
	d.Record(ev, models.Intel{
		Classification: models.ClassWhaleBuy,
		Explanation:    "whale_1 bought big",
		Flags:          []string{models.FlagWhale},
	})
	d.Record(ev, models.Intel{Classification: models.ClassOrganicBuy})

	require.Len(t, state.DailyStats.WhaleMovements, 1)
	assert.Equal(t, "whale_1 bought big", state.DailyStats.WhaleMovements[0])
}

func TestDailyEventLogBounded(t *testing.T) {
	state := models.NewState("2026-08-29", 5)
	d := NewDaily(state, nil)
	d.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }

	for i := 0; i < models.DailyEventCap+50; i++ {
		ev := &models.ParsedEvent{
			Signature: fmt.Sprintf("sig%d", i),
			Signer:    "w",
			Type:      models.EventBuy,
			SolAmount: 0.1,
		}
		d.Record(ev, models.Intel{Classification: models.ClassOrganicBuy})
	}

	assert.Len(t, state.DailyStats.Events, models.DailyEventCap)
	assert.Equal(t, "sig50", state.DailyStats.Events[0].Signature)
}

func TestDailyRotation(t *testing.T) {
	t.Run("rotates exactly once per day boundary", func(t *testing.T) {
		state := models.NewState("2026-08-28", 5)
		state.DailyStats.TotalBuys = 7

		archived := 0
		var sealed *models.DailyStats
		d := NewDaily(state, func(stats *models.DailyStats) {
			archived++
			sealed = stats
		})
		d.now = func() time.Time { return time.Date(2026, 8, 29, 0, 0, 1, 0, time.UTC) }

		d.RotateIfNewDay()
		d.RotateIfNewDay()
		d.RotateIfNewDay()

		assert.Equal(t, 1, archived)
		require.NotNil(t, sealed)
		assert.Equal(t, "2026-08-28", sealed.Date)
		assert.Equal(t, 7, sealed.TotalBuys)
		assert.Equal(t, "2026-08-29", state.DailyStats.Date)
		assert.Zero(t, state.DailyStats.TotalBuys)
	})

	t.Run("same day never rotates", func(t *testing.T) {
		state := models.NewState("2026-08-29", 5)
		archived := 0
		d := NewDaily(state, func(*models.DailyStats) { archived++ })
		d.now = func() time.Time { return time.Date(2026, 8, 29, 23, 59, 59, 0, time.UTC) }

		d.RotateIfNewDay()
		assert.Zero(t, archived)
	})

	t.Run("record rotates lazily before accumulating", func(t *testing.T) {
		state := models.NewState("2026-08-28", 5)
		state.DailyStats.TotalBuys = 3
		archived := 0
		d := NewDaily(state, func(*models.DailyStats) { archived++ })
		d.now = func() time.Time { return time.Date(2026, 8, 29, 0, 5, 0, 0, time.UTC) }

		ev := &models.ParsedEvent{Signature: "s", Signer: "w", Type: models.EventBuy, SolAmount: 1}
		d.Record(ev, models.Intel{Classification: models.ClassOrganicBuy})

		assert.Equal(t, 1, archived)
		assert.Equal(t, 1, state.DailyStats.TotalBuys)
	})
}
