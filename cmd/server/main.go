package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/keymarket/ledger-service/internal/api"
	"github.com/keymarket/ledger-service/internal/config"
	"github.com/keymarket/ledger-service/internal/handler"
	"github.com/keymarket/ledger-service/internal/infrastructure/crypto"
	"github.com/keymarket/ledger-service/internal/infrastructure/kafka"
	"github.com/keymarket/ledger-service/internal/infrastructure/redis"
	"github.com/keymarket/ledger-service/internal/observability"
	core "github.com/keymarket/ledger-service/internal/repository/postgres"
	service "github.com/keymarket/ledger-service/internal/services"
)

func main() {
	cfg := config.Load()

	shutdown := observability.Setup("ledger-service")
	defer shutdown(context.Background())

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	cipher, err := crypto.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize cipher: %v", err)
	}

	userRepo := core.NewPostgresUserRepository(db)
	walletRepo := core.NewPostgresWalletRepository(db)
	rechargeRepo := core.NewPostgresRechargeRepository(db)
	withdrawalRepo := core.NewPostgresWithdrawalRepository(db)
	affiliateRepo := core.NewPostgresAffiliateRepository(db)
	transferRepo := core.NewPostgresTransferRepository(db)
	disputeRepo := core.NewPostgresDisputeRepository(db)
	productRepo := core.NewPostgresProductRepository(db)
	pricingRepo := core.NewPostgresPricingRepository(db)

	redisClient := redis.NewClient(cfg.RedisAddr)
	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	authSvc := service.NewAuthService(userRepo, redisClient, producer, cfg.JWTSecret)
	walletSvc := service.NewWalletService(walletRepo, rechargeRepo, redisClient, producer)
	withdrawalSvc := service.NewWithdrawalService(withdrawalRepo, walletRepo, transferRepo, redisClient, producer, cipher)
	pricingSvc := service.NewPricingService(pricingRepo, redisClient)
	referralSvc := service.NewReferralService(affiliateRepo, walletRepo, pricingSvc, redisClient, producer, cfg.PlatformWalletID)
	transferSvc := service.NewTransferService(transferRepo, walletRepo, redisClient, producer, cfg.PlatformWalletID)
	disputeSvc := service.NewDisputeService(disputeRepo, walletRepo, redisClient, producer)
	productSvc := service.NewProductService(productRepo, userRepo, cipher)
	adminSvc := service.NewAdminService(userRepo)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, "payment.confirmations", "ledger-service-group", walletSvc)
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	go consumer.Consume(consumerCtx)
	defer consumer.Close()
	defer stopConsumer()

	h := handler.NewHandler(authSvc, walletSvc, withdrawalSvc, referralSvc, transferSvc, disputeSvc, productSvc, pricingSvc, adminSvc)
	router := api.SetupRouter(h, redisClient, cfg.JWTSecret)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		log.Printf("Starting server on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
