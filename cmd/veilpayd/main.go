// Command veilpayd runs the shielded-pool engine behind its HTTP API.
// State lives in a pebble database under the data directory; the slot
// clock driving authorization expiry ticks at a fixed interval.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpay/veilpay-go/log"
	"github.com/veilpay/veilpay-go/pool"
	"github.com/veilpay/veilpay-go/service"
	"github.com/veilpay/veilpay-go/storage"
	"github.com/veilpay/veilpay-go/token"
)

func main() {
	dataDir := flag.String("datadir", "./veilpay-data", "data directory for the pebble database")
	host := flag.String("host", "0.0.0.0", "API host to bind")
	port := flag.Int("port", 9090, "API port to bind")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	slotStart := flag.Uint64("slot-start", 0, "initial slot of the expiry clock")
	slotInterval := flag.Duration("slot-interval", 400*time.Millisecond, "slot clock tick interval")
	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	database, err := metadb.New(db.TypePebble, *dataDir)
	if err != nil {
		log.Fatalf("could not open database at %s: %v", *dataDir, err)
	}
	stg := storage.New(database)

	clock := service.NewSlotClock(*slotStart, *slotInterval)
	p := pool.New(stg, token.NewLedger(database), clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := clock.Start(ctx); err != nil {
		log.Fatalf("could not start slot clock: %v", err)
	}
	apiService := service.NewAPI(stg, p, *host, *port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatalf("could not start API service: %v", err)
	}
	log.Infow("veilpayd running", "host", *host, "port", *port, "datadir", *dataDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Infow("shutting down")
	clock.Stop()
	apiService.Stop()
}
