package service

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpay/veilpay-go/pool"
	"github.com/veilpay/veilpay-go/storage"
	"github.com/veilpay/veilpay-go/token"
)

func TestAPIService(t *testing.T) {
	c := qt.New(t)

	database := metadb.NewTest(t)
	stg := storage.New(database)
	p := pool.New(stg, token.NewLedger(database), nil)

	// port 0 lets the OS choose an available port
	apiService := NewAPI(stg, p, "127.0.0.1", 0)

	ctx := context.Background()
	err := apiService.Start(ctx)
	c.Assert(err, qt.IsNil)

	// starting an already running service must fail
	err = apiService.Start(ctx)
	c.Assert(err, qt.ErrorMatches, "service already running")

	host, port := apiService.HostPort()
	c.Assert(host, qt.Equals, "127.0.0.1")
	c.Assert(port, qt.Equals, 0)

	apiService.Stop()
}

func TestSlotClock(t *testing.T) {
	c := qt.New(t)

	clock := NewSlotClock(100, 10*time.Millisecond)
	c.Assert(clock.Now(), qt.Equals, uint64(100))

	ctx := context.Background()
	c.Assert(clock.Start(ctx), qt.IsNil)
	c.Assert(clock.Start(ctx), qt.ErrorMatches, "slot clock already running")

	// wait for at least one tick
	deadline := time.Now().Add(2 * time.Second)
	for clock.Now() == 100 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Assert(clock.Now() > 100, qt.IsTrue)

	clock.Stop()
	time.Sleep(30 * time.Millisecond) // drain any in-flight tick
	frozen := clock.Now()
	time.Sleep(50 * time.Millisecond)
	c.Assert(clock.Now(), qt.Equals, frozen)

	// a stopped clock can be restarted
	c.Assert(clock.Start(ctx), qt.IsNil)
	clock.Stop()
}
