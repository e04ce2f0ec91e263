package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/wyvernpos/pos-services/configs"
	"github.com/wyvernpos/pos-services/internal/nats"
	"github.com/wyvernpos/pos-services/internal/possvc/broker"
	"github.com/wyvernpos/pos-services/internal/possvc/db"
	"github.com/wyvernpos/pos-services/internal/possvc/handlers"
	"github.com/wyvernpos/pos-services/internal/possvc/service"
	"github.com/wyvernpos/pos-services/internal/possvc/store"
	"github.com/wyvernpos/pos-services/internal/report"
	"github.com/wyvernpos/pos-services/internal/saleslog"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "pos"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
	config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {

	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	ledgerStore := store.NewLedgerStore(dbpool)
	if err := ledgerStore.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to migrate ledger schema: %v", err)
	}
	ledgerService := service.NewLedgerService(ledgerStore)

	transactionsDir := os.Getenv("TRANSACTIONS_DIR")
	if transactionsDir == "" {
		transactionsDir = "transactions"
	}
	writer := saleslog.NewWriter(transactionsDir)
	aggregator := report.NewAggregator(transactionsDir)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	saleBroker := broker.NewBroker(n.Conn)
	checkoutService := service.NewCheckoutService(ledgerStore, writer, saleBroker)

	stopHeartbeat := make(chan struct{})
	go saleBroker.RunHeartbeat(config.GetInstanceId(), 30*time.Second, stopHeartbeat)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	h := handlers.NewHandler(ledgerService, checkoutService, aggregator)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	close(stopHeartbeat)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
