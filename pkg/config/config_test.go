package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		TokenMint:           "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		PairAddress:         "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		WSOLMint:            "So11111111111111111111111111111111111111112",
		NotableThresholdSol: 1,
		WhaleThresholdSol:   5,
		AlertMinSol:         5,
		MaxSigsPerPoll:      25,
		BatchWidth:          5,
		PollInterval:        30 * time.Second,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("bad mint address", func(t *testing.T) {
		cfg := validConfig()
		cfg.TokenMint = "not-base58!!"
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive thresholds", func(t *testing.T) {
		cfg := validConfig()
		cfg.AlertMinSol = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("notable above whale", func(t *testing.T) {
		cfg := validConfig()
		cfg.NotableThresholdSol = 10
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad batch sizing", func(t *testing.T) {
		cfg := validConfig()
		cfg.BatchWidth = 0
		assert.Error(t, cfg.Validate())
	})
}
