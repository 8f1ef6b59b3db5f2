package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/veilpay/veilpay-go/api"
	"github.com/veilpay/veilpay-go/pool"
	"github.com/veilpay/veilpay-go/storage"
)

// APIService manages the lifecycle of the HTTP API server on top of a
// pool engine and its storage.
type APIService struct {
	storage *storage.Storage
	pool    *pool.Pool
	api     *api.API
	mu      sync.Mutex
	cancel  context.CancelFunc
	host    string
	port    int
}

// NewAPI creates a new APIService instance.
func NewAPI(stg *storage.Storage, p *pool.Pool, host string, port int) *APIService {
	return &APIService{
		storage: stg,
		pool:    p,
		host:    host,
		port:    port,
	}
}

// Start begins the API server. It returns an error if the service is
// already running or if it fails to start.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		return fmt.Errorf("service already running")
	}

	_, as.cancel = context.WithCancel(ctx)

	var err error
	as.api, err = api.New(&api.APIConfig{
		Host: as.host,
		Port: as.port,
		Pool: as.pool,
	})
	if err != nil {
		as.cancel = nil
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop halts the API server and closes the underlying storage.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		as.cancel()
		as.cancel = nil
	}
	as.storage.Close()
}

// HostPort returns the host and port of the API server.
func (as *APIService) HostPort() (string, int) {
	return as.host, as.port
}
