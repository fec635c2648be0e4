// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the coordinator packages.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"docproof/internal/audit"
	"docproof/internal/cache"
	"docproof/internal/index"
	"docproof/internal/ledger"
	"docproof/internal/platform/config"
	"docproof/internal/platform/httpserver"
	"docproof/internal/platform/logger"
	platformmetrics "docproof/internal/platform/metrics"
	platformredis "docproof/internal/platform/redis"
	"docproof/internal/reconcile"
	"docproof/internal/registration"
	regmetrics "docproof/internal/registration/metrics"
	httptransport "docproof/internal/transport/http"
	"docproof/internal/verification"
	vermetrics "docproof/internal/verification/metrics"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slogger := logger.NewStructured()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local index: durable when Postgres is configured, in-memory otherwise.
	var store index.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("ping postgres: %v", err)
		}
		if err := index.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		store = index.NewPostgres(db)
		log.Printf("using postgres index")
	} else {
		store = index.NewInMemoryStore()
		log.Printf("using in-memory index; records are lost on restart")
	}

	// Ledger: a real node when configured, in-memory for development.
	var chain ledger.Client
	if cfg.LedgerNodeURL != "" {
		chain = ledger.NewNodeClient(ledger.NodeConfig{
			BaseURL:        cfg.LedgerNodeURL,
			Network:        cfg.Network,
			ConfirmTimeout: cfg.ConfirmTimeout,
		})
		log.Printf("using ledger node at %s (network %s)", cfg.LedgerNodeURL, cfg.Network)
	} else {
		chain = ledger.NewMemory(ledger.MemoryConfig{
			Account: cfg.Account,
			Network: cfg.Network,
		})
		log.Printf("using in-memory ledger; registrations are not durable")
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	var prober registration.ExistenceProber
	if redisClient != nil {
		defer redisClient.Close()
		prober = cache.NewExistenceCache(redisClient.Client, chain, cfg.ExistsCacheTTL)
		log.Printf("existence cache enabled (ttl %s)", cfg.ExistsCacheTTL)
	}

	// Audit trail: events are captured on the request path and drained to the
	// sink by a background worker.
	var sink audit.Store
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Fatalf("connect kafka: %v", err)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Printf("audit trail to kafka topic %s", cfg.AuditTopic)
	} else {
		sink = audit.NewInMemoryStore()
	}
	inbox := audit.NewChannelStore(0)
	publisher := audit.NewPublisher(inbox)
	worker := audit.NewWorker(sink, inbox.Inbox(), log)
	go func() {
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("audit worker stopped: %v", err)
		}
	}()

	registrationSvc := registration.NewService(registration.Config{
		Ledger:  chain,
		Store:   store,
		Prober:  prober,
		Audit:   publisher,
		Metrics: regmetrics.New(),
	})
	verificationSvc := verification.NewService(verification.Config{
		Ledger:  chain,
		Store:   store,
		Audit:   publisher,
		Metrics: vermetrics.New(),
	})
	sweeper := reconcile.NewSweeper(reconcile.Config{
		Ledger: chain,
		Store:  store,
		Audit:  publisher,
		Log:    log,
	})

	handler := httptransport.NewHandler(httptransport.Config{
		Logger:       slogger,
		Registration: registrationSvc,
		Verification: verificationSvc,
		Store:        store,
		Ledger:       chain,
		Reconciler:   sweeper,
		HTTPMetrics:  platformmetrics.New(),
		AdminToken:   cfg.AdminToken,
	})
	router := httptransport.NewRouter(handler)
	srv := httpserver.New(cfg.Addr, router)

	log.Printf("starting docproof on %s", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}
