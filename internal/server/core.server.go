package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"wallet-service/internal/config"
	"wallet-service/internal/domain"
	hrest "wallet-service/internal/handler/rest"
	publisher "wallet-service/internal/pub"
	"wallet-service/internal/repository"
	"wallet-service/internal/service"
	"wallet-service/internal/usecase"
	"wallet-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

func NewWalletRESTServer(ctx context.Context, cfg config.AppConfig) {
	// --- DB connection ---
	dbpool, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbpool.Close()

	if err := service.EnsureSchema(ctx, dbpool); err != nil {
		log.Fatalf("failed to bootstrap schema: %v", err)
	}

	gen := utils.NewRefGenerator()

	// --- Redis client ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	defer rdb.Close()

	// --- Kafka writer ---
	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.LeastBytes{},
	}
	defer kafkaWriter.Close()

	// --- External service clients ---
	contractCli := usecase.NewHTTPContractClient(cfg.ContractServiceURL)

	// --- Repositories ---
	walletRepo := repository.NewWalletRepo(dbpool)
	depositRepo := repository.NewDepositRepo(dbpool)
	ledgerRepo := repository.NewLedgerRepo(dbpool, walletRepo, gen)
	accrualRepo := repository.NewAccrualRepo(dbpool)

	// --- Event publisher ---
	pub := publisher.NewWalletEventPublisher(rdb)

	// --- Usecases ---
	walletUC := usecase.NewWalletUsecase(walletRepo, ledgerRepo, accrualRepo, rdb, gen)
	depositUC := usecase.NewDepositUsecase(depositRepo, walletRepo, ledgerRepo, pub, kafkaWriter, rdb, gen, cfg.QualifyThreshold)
	allocationUC := usecase.NewAllocationUsecase(walletRepo, ledgerRepo, domain.BonusFirstPolicy{}, kafkaWriter, rdb)
	reversalUC := usecase.NewReversalUsecase(depositRepo, walletRepo, ledgerRepo, contractCli, pub, kafkaWriter, rdb, cfg.WithdrawalDays)

	// --- Interest sweep ---
	sweepLog := logrus.New()
	sweepLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	sweep := service.NewInterestSweep(
		walletRepo,
		ledgerRepo,
		accrualRepo,
		pub,
		rdb,
		sweepLog,
		cfg.AnnualInterestRate,
		cfg.QualifyThreshold,
		cfg.SweepHour,
		cfg.SweepInterval,
	)
	sweep.Start(ctx)
	defer sweep.Stop()

	// --- REST handler ---
	walletHandler := hrest.NewWalletRestHandler(walletUC, depositUC, allocationUC, reversalUC)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	walletHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Wallet REST server listening on %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  HTTP shutdown error: %v", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}
}
