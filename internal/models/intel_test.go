package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupWindow(t *testing.T) {
	state := NewState("2026-08-29", 5)

	t.Run("marks and finds signatures", func(t *testing.T) {
		assert.False(t, state.Seen("sig1"))
		state.MarkProcessed("sig1")
		assert.True(t, state.Seen("sig1"))
	})

	t.Run("trims to the newest entries past the cap", func(t *testing.T) {
		state := NewState("2026-08-29", 5)
		for i := 0; i <= ProcessedSigCap; i++ {
			state.MarkProcessed(fmt.Sprintf("sig%d", i))
		}
		assert.Len(t, state.ProcessedSignatures, ProcessedSigKeep)
		assert.False(t, state.Seen("sig0"))
		assert.True(t, state.Seen(fmt.Sprintf("sig%d", ProcessedSigCap)))
	})
}

func TestRecentAlertRing(t *testing.T) {
	state := NewState("2026-08-29", 5)
	for i := 0; i < RecentAlertCap+20; i++ {
		state.PushAlert(Alert{Signature: fmt.Sprintf("sig%d", i)})
	}
	assert.Len(t, state.RecentAlerts, RecentAlertCap)
	assert.Equal(t, "sig20", state.RecentAlerts[0].Signature)
	assert.Equal(t, fmt.Sprintf("sig%d", RecentAlertCap+19), state.RecentAlerts[RecentAlertCap-1].Signature)
}
