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
	log "github.com/sirupsen/logrus"

	config "github.com/wyvernpos/pos-services/configs"
	"github.com/wyvernpos/pos-services/internal/nats"

	posbroker "github.com/wyvernpos/pos-services/internal/possvc/broker"

	"github.com/wyvernpos/pos-services/internal/kitchensvc/broker"
	"github.com/wyvernpos/pos-services/internal/kitchensvc/db"
	"github.com/wyvernpos/pos-services/internal/kitchensvc/routes"
	"github.com/wyvernpos/pos-services/internal/kitchensvc/store"
	"github.com/wyvernpos/pos-services/internal/kitchensvc/ws"
)

const SERVICE_NAME = "kitchen"

func init() {
	instanceId := "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
	config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	// mongo holds the kitchen tickets; TTL keeps the collection bounded
	mongoDB, cancelMongo, err := db.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer cancelMongo()
	db.CreateTTLIndexForCollection(mongoDB, store.OrdersCollection)
	log.Printf("mongo connection established successfully")

	ttlHours, err := strconv.Atoi(os.Getenv("KITCHEN_ORDER_TTL_HOURS"))
	if err != nil || ttlHours <= 0 {
		ttlHours = 24
	}
	orderStore := store.NewOrderStore(mongoDB, time.Duration(ttlHours)*time.Hour)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Initialize websocket handler
	s := ws.NewWs(orderStore)

	// Initialize routes
	routes.InitAuth()
	routes.SetRoutes(r, s)

	// subscribe to terminal sale events
	b := broker.NewBroker(n.Conn, orderStore, s.Broadcast)
	subSales, err := b.Subscribe(posbroker.SaleSubject)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("SOCKET_SERVICE_PORT"),
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

	subSales.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
