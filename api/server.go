package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	eos "github.com/eoscanada/eos-go"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/api/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/journal"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/queue"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Chain is the part of the chain client the API reports on.
type Chain interface {
	HealthCheck(ctx context.Context) (*eos.InfoResp, error)
	CurrentRPCAddr() string
	NodeCount() int
	FailoverCount() int
}

// History gives access to past claim attempts.
type History interface {
	List(limit int) ([]journal.Record, error)
	ByAsset(assetID uint64, limit int) ([]journal.Record, error)
}

// Sources is everything the read only API serves from.
type Sources struct {
	Store   *store.Store
	Retries *queue.RetryQueue
	Chain   Chain
	History History
	LogFile string
}

type API struct {
	port int64
	srv  *http.Server
}

func NewAPI(port int64) *API {
	return &API{
		port: port,
	}
}

func (a *API) Close() error {
	if a.srv == nil {
		return fmt.Errorf("no server available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.srv.Shutdown(ctx)
}

func newRouter(src Sources) http.Handler {
	r := mux.NewRouter()

	outline := types.NewOutline()

	outline.RegisterGetRoute(r, "/", IndexHandler(src.Store))
	outline.RegisterGetRoute(r, "/assets", AssetsHandler(src.Store))
	outline.RegisterGetRoute(r, "/assets/{id:[0-9]+}", AssetHandler(src.Store, src.Retries, src.History))
	outline.RegisterGetRoute(r, "/claims", ClaimsHandler(src.History))
	outline.RegisterGetRoute(r, "/retries", RetriesHandler(src.Retries))

	outline.RegisterGetRoute(r, "/version", VersionHandler(src.Chain))
	outline.RegisterGetRoute(r, "/network", NetworkHandler(src.Chain))
	outline.RegisterGetRoute(r, "/logs", LogHandler(src.LogFile))

	outline.RegisterGetRoute(r, "/api", outline.OutlineHandler())

	r.Handle("/metrics", promhttp.Handler())
	r.Use(loggingMiddleware)

	return cors.Default().Handler(r)
}

// Serve blocks until the server is closed.
func (a *API) Serve(src Sources) {
	defer log.Info().Msg("API module stopped")

	a.srv = &http.Server{
		Handler:           newRouter(src),
		Addr:              fmt.Sprintf("0.0.0.0:%d", a.port),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", a.srv.Addr).Msg("Claimer API now listening")
	err := a.srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("API server failed")
	}
}
