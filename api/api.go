package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/veilpay/veilpay-go/log"
	"github.com/veilpay/veilpay-go/pool"
)

// APIConfig is the configuration of the API HTTP server.
type APIConfig struct {
	Host string
	Port int
	Pool *pool.Pool
}

// API is the HTTP surface of the pool engine.
type API struct {
	router *chi.Mux
	pool   *pool.Pool
}

// New creates a new API instance with the given configuration and starts
// the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Pool == nil {
		return nil, fmt.Errorf("missing pool instance")
	}
	a := &API{
		pool: conf.Pool,
	}
	a.initRouter()
	go func() {
		log.Infow("starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes.
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	for _, h := range []struct {
		method   string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"GET", PingEndpoint, func(w http.ResponseWriter, _ *http.Request) { httpWriteOK(w) }},
		{"GET", PoolEndpoint, a.poolInfo},
		{"POST", DepositEndpoint, a.deposit},
		{"POST", WithdrawEndpoint, a.withdraw},
		{"POST", InternalTransferEndpoint, a.internalTransfer},
		{"POST", ExternalTransferEndpoint, a.externalTransfer},
		{"POST", AuthorizationsEndpoint, a.createAuthorization},
		{"GET", AuthorizationEndpoint, a.authorization},
		{"POST", SettleEndpoint, a.settleAuthorization},
		{"POST", CancelEndpoint, a.cancelAuthorization},
		{"POST", IdentityEndpoint, a.registerIdentity},
		{"POST", AdminConfigEndpoint, a.initializeConfig},
		{"POST", AdminMintsEndpoint, a.registerMint},
		{"POST", AdminMintStateEndpoint, a.initializeMintState},
		{"POST", AdminChunksEndpoint, a.initializeNullifierChunk},
		{"POST", AdminFeesEndpoint, a.configureFees},
		{"POST", AdminPauseEndpoint, a.setPaused},
		{"POST", AdminKeysEndpoint, a.initializeKey},
	} {
		log.Infow("register handler", "endpoint", h.endpoint, "method", h.method)
		a.router.Method(h.method, h.endpoint, h.handler)
	}
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	a.registerHandlers()
}
