package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	logrus "github.com/sirupsen/logrus"

	"tokenintel/internal/alerts"
	"tokenintel/internal/intel"
	"tokenintel/internal/models"
	"tokenintel/internal/monitor"
	"tokenintel/internal/routes"
	"tokenintel/internal/store"
	"tokenintel/pkg/config"
	"tokenintel/pkg/dexscreener"
	solclient "tokenintel/pkg/solana"
)

func main() {
	dry := flag.Bool("dry", false, "classify the most recent transactions and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load config: ", err)
	}

	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetLevel(logrus.InfoLevel)

	st := store.New(cfg.DataDir, cfg.StateFile)
	state, err := st.Load(cfg.AlertMinSol)
	if err != nil {
		logrus.Fatal("Failed to load state: ", err)
	}

	chain, err := solclient.NewClient(cfg.RPCEndpoint, cfg.TokenMint, solclient.Options{
		PageSize:       cfg.MaxSigsPerPoll,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		logrus.Fatal("Failed to create rpc client: ", err)
	}

	price := dexscreener.NewClient(cfg.DexScreenerURL, cfg.PairAddress, cfg.PriceCacheTTL, cfg.RequestTimeout)
	parser := intel.NewParser(cfg.TokenMint, cfg.PairAddress, cfg.WSOLMint)
	classifier := intel.NewClassifier(cfg.TokenSymbol, cfg.WhaleThresholdSol, cfg.NotableThresholdSol)
	ledger := intel.NewLedger(state, cfg.WhaleThresholdSol)
	reports := intel.NewReports(state, cfg.TokenSymbol)

	var archiveDB *store.ArchiveDB
	if cfg.PostgresDSN != "" {
		archiveDB, err = store.OpenArchiveDB(cfg.PostgresDSN)
		if err != nil {
			logrus.Error("Archive db unavailable, continuing with file archives only: ", err)
			archiveDB = nil
		}
	}
	archive := func(stats *models.DailyStats) {
		if err := st.ArchiveDay(stats); err != nil {
			logrus.Errorf("Failed to archive day %s: %v", stats.Date, err)
		}
		if archiveDB != nil {
			if err := archiveDB.SaveDay(stats); err != nil {
				logrus.Errorf("Failed to archive day %s to db: %v", stats.Date, err)
			}
		}
	}
	daily := intel.NewDaily(state, archive)

	var senders []alerts.Sender
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := alerts.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logrus.Fatal("Failed to create telegram sender: ", err)
		}
		senders = append(senders, tg)
	}
	if cfg.AMQPUrl != "" {
		mq, err := alerts.NewAMQP(cfg.AMQPUrl, cfg.AMQPQueue)
		if err != nil {
			logrus.Fatal("Failed to create amqp sender: ", err)
		}
		defer mq.Close()
		senders = append(senders, mq)
	}
	if len(senders) == 0 {
		logrus.Warn("No alert channel configured, alerts will be dropped")
	}
	sender := alerts.NewMulti(senders...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wake <-chan string
	if cfg.WSEndpoint != "" {
		stream := solclient.NewLogStream(cfg.WSEndpoint, cfg.TokenMint)
		go stream.Run(ctx)
		wake = stream.Signatures()
	}

	mon := monitor.New(monitor.Options{
		PollInterval: cfg.PollInterval,
		BatchWidth:   cfg.BatchWidth,
		BatchPause:   cfg.BatchPause,
	}, state, chain, price, parser, classifier, ledger, daily, reports, sender, st, wake)

	if *dry {
		mon.DryRun(ctx, 10)
		return
	}

	go func() {
		r := routes.SetupRouter(mon)
		if err := r.Run(":" + cfg.HTTPPort); err != nil {
			logrus.Fatal("Failed to run http server: ", err)
		}
	}()

	mon.StartDailyCron(ctx)
	defer mon.StopDailyCron()

	logrus.Infof("On-chain intelligence started: mint %s, pool %s, poll %s",
		intel.ShortenAddress(cfg.TokenMint), intel.ShortenAddress(cfg.PairAddress), cfg.PollInterval)
	mon.Run(ctx)
	logrus.Info("Shutdown complete")
}
