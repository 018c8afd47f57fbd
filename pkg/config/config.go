package config

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config holds every tunable of the pipeline, loaded from the environment
// with the INTEL prefix.
type Config struct {
	TokenMint   string `envconfig:"TOKEN_MINT" required:"true"`
	TokenSymbol string `envconfig:"TOKEN_SYMBOL" default:"TOKEN"`
	PairAddress string `envconfig:"PAIR_ADDRESS" required:"true"`
	WSOLMint    string `envconfig:"WSOL_MINT" default:"So11111111111111111111111111111111111111112"`

	RPCEndpoint string `envconfig:"RPC_ENDPOINT" default:"https://api.mainnet-beta.solana.com"`
	WSEndpoint  string `envconfig:"WS_ENDPOINT"`

	DexScreenerURL string `envconfig:"DEXSCREENER_URL" default:"https://api.dexscreener.com/latest/dex/pairs/solana"`

	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`

	AMQPUrl   string `envconfig:"AMQP_URL"`
	AMQPQueue string `envconfig:"AMQP_QUEUE" default:"intel_alerts"`

	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	NotableThresholdSol float64       `envconfig:"NOTABLE_THRESHOLD_SOL" default:"1"`
	WhaleThresholdSol   float64       `envconfig:"WHALE_THRESHOLD_SOL" default:"5"`
	AlertMinSol         float64       `envconfig:"ALERT_MIN_SOL" default:"5"`
	PollInterval        time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
	MaxSigsPerPoll      int           `envconfig:"MAX_SIGS_PER_POLL" default:"25"`
	BatchWidth          int           `envconfig:"BATCH_WIDTH" default:"5"`
	BatchPause          time.Duration `envconfig:"BATCH_PAUSE" default:"500ms"`
	RequestTimeout      time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	RetryAttempts       int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay      time.Duration `envconfig:"RETRY_BASE_DELAY" default:"2s"`
	PriceCacheTTL       time.Duration `envconfig:"PRICE_CACHE_TTL" default:"60s"`

	DataDir   string `envconfig:"DATA_DIR" default:"data"`
	StateFile string `envconfig:"STATE_FILE" default:"intel-state.json"`

	HTTPPort  string `envconfig:"HTTP_PORT" default:"8080"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}
	var cfg Config
	if err := envconfig.Process("INTEL", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks addresses and threshold sanity.
func (c *Config) Validate() error {
	for name, addr := range map[string]string{
		"token mint":   c.TokenMint,
		"pair address": c.PairAddress,
		"wsol mint":    c.WSOLMint,
	} {
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, addr, err)
		}
	}
	if c.WhaleThresholdSol <= 0 || c.NotableThresholdSol <= 0 || c.AlertMinSol <= 0 {
		return fmt.Errorf("thresholds must be positive")
	}
	if c.NotableThresholdSol > c.WhaleThresholdSol {
		return fmt.Errorf("notable threshold %.2f exceeds whale threshold %.2f",
			c.NotableThresholdSol, c.WhaleThresholdSol)
	}
	if c.BatchWidth <= 0 || c.MaxSigsPerPoll <= 0 {
		return fmt.Errorf("batch width and page size must be positive")
	}
	return nil
}
