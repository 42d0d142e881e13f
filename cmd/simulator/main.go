package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"memetrader/config"
	"memetrader/internal/market"
	"memetrader/internal/server"
	"memetrader/internal/session"
	"memetrader/logger"
	"memetrader/pkg/coingecko"
	"memetrader/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg, err := config.Load(os.Getenv("MEMETRADER_CONFIG"))
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// live quotes
	var quotes market.QuoteSource
	if cfg.Quote.Enabled {
		quotes = coingecko.NewRESTClient(cfg.Quote.BaseURL, cfg.Quote.Timeout,
			coingecko.WithVsCurrency(cfg.Quote.VsCurrency))
		log.Info("live quotes enabled", zap.String("base_url", cfg.Quote.BaseURL))
	}

	// trade journal
	var journal session.Journal
	if cfg.Postgres.Enabled {
		pg, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, cfg.Log.Environment != "prod")
		if err != nil {
			log.Fatal("failed to initialize postgres", zap.Error(err))
		}
		defer pg.Close()
		if !pg.IsHealthy(ctx) {
			log.Fatal("postgres is not reachable")
		}
		journal = pg
		log.Info("trade journal enabled", zap.String("dbname", cfg.Postgres.DBName))
	}

	factory := session.NewFactory(cfg.Market, quotes, cfg.Quote.Timeout, journal, log)
	srv := server.New(cfg.Server, factory, session.NewSessionStore(), log)

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server stopped")
}
