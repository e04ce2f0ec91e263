package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"time"

	config "github.com/wyvernpos/pos-services/configs"
	"github.com/wyvernpos/pos-services/internal/syncsvc"
	"github.com/wyvernpos/pos-services/internal/syncsvc/central"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "sync"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
	config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	pool, err := central.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to central DB: %v", err)
	}
	defer pool.Close()
	log.Printf("central pg connection established successfully")

	centralStore := central.NewPGStore(pool)
	if err := centralStore.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to migrate central schema: %v", err)
	}

	terminalID := os.Getenv("TERMINAL_ID")
	if terminalID == "" {
		log.Fatal("TERMINAL_ID must be set")
	}

	transactionsDir := os.Getenv("TRANSACTIONS_DIR")
	if transactionsDir == "" {
		transactionsDir = "transactions"
	}

	intervalSec, err := strconv.Atoi(os.Getenv("SYNC_INTERVAL_SEC"))
	if err != nil || intervalSec <= 0 {
		intervalSec = 60
	}

	engine := syncsvc.NewEngine(centralStore, transactionsDir, terminalID,
		time.Duration(intervalSec)*time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	go engine.Run(ctx)
	log.Infof("%s service running", SERVICE_NAME)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	cancel()
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
