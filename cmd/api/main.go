package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"agrivet-checkout/internal/checkout"
	"agrivet-checkout/internal/client"
	"agrivet-checkout/internal/config"
	"agrivet-checkout/internal/metrics"
	"agrivet-checkout/internal/repository"
	"agrivet-checkout/internal/server"
	"agrivet-checkout/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	configureLogging(&cfg.Log)

	egpToUSD, err := decimal.NewFromString(cfg.Checkout.EGPToUSDRate)
	if err != nil {
		log.WithError(err).Fatal("invalid CHECKOUT_EGP_TO_USD_RATE")
	}

	db := client.InitDB(cfg.DatabaseURL)
	paymobClient := client.NewPaymobClient(&cfg.Paymob)
	paypalClient := client.NewPaypalClient(&cfg.Paypal)

	orderRepo := repository.NewOrderRepository(db)
	txnRepo := repository.NewGatewayTxnRepository(db)

	checkoutMetrics := metrics.NewCheckoutMetrics()
	registry := checkout.NewRegistry()

	checkoutService := service.NewCheckoutService(
		db, registry,
		paymobClient, paypalClient,
		orderRepo, txnRepo,
		checkoutMetrics,
		cfg.Checkout.ShippingFeeMinor,
		egpToUSD,
		cfg.Paypal.Currency,
	)
	adminService := service.NewAdminService(db, orderRepo)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(checkoutService, adminService, cfg.BaseURL, cfg.Admin.JWTSecret)

	log.WithField("addr", serverAddr).Info("starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		log.WithError(err).Fatal("HTTP server shutdown error")
	}
}

func configureLogging(cfg *config.Log) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
