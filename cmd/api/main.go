package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ordercore/internal/config"
	"ordercore/internal/domain/pricing"
	"ordercore/internal/handler"
	"ordercore/internal/infra/db"
	"ordercore/internal/infra/event"
	"ordercore/internal/infra/gateway"
	infraRepo "ordercore/internal/infra/repository"
	"ordercore/internal/metrics"
	"ordercore/internal/server"
	"ordercore/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	//.envは無くてもよい（本番は環境変数）
	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	//メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	//イベント送信（ブローカー未設定なら送らない）
	var publisher event.Publisher = event.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = event.NewKafkaPublisher(event.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
	}
	defer publisher.Close()

	gw := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		APIKey:      cfg.Gateway.APIKey,
		MerchantID:  cfg.Gateway.MerchantID,
		AccountNo:   cfg.Gateway.AccountNo,
		Currency:    cfg.Currency,
		SuccessCode: cfg.Gateway.SuccessCode,
		Timeout:     cfg.Gateway.Timeout,
		Expiry:      cfg.PaymentExpiry,
	})

	//Usecase生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	orderUC := usecase.NewOrderUsecase(txm, pricing.NewEngine(cfg.Pricing), gw, publisher, m, cfg.Currency)
	paymentUC := usecase.NewPaymentUsecase(txm, gw, publisher, m)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, publisher)

	//Handler生成
	e := server.New(cfg)
	server.RegisterRoutes(e, cfg, server.Handlers{
		Orders:      handler.NewOrderHandler(orderUC),
		Payments:    handler.NewPaymentHandler(paymentUC),
		AdminOrders: handler.NewAdminOrderHandler(adminOrderUC),
	}, reg)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, e, addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("server shut down")
}
