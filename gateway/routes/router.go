package routes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"passage/contract"
	"passage/core/types"
	"passage/gateway/middleware"
	"passage/native/market"
	"passage/native/minter"
)

// Backend is the contract surface served over HTTP.
type Backend interface {
	Execute(ctx context.Context, env types.Env, info types.MessageInfo, msg contract.ExecuteMsg) (*contract.Response, error)
	Migrate(ctx context.Context, env types.Env, info types.MessageInfo, msg contract.MigrateMsg) (*contract.Response, error)
	Query(ctx context.Context, env types.Env, msg contract.QueryMsg) (json.RawMessage, error)
	MintConfig(ctx context.Context, env types.Env) (minter.Config, error)
	LiveAsk(ctx context.Context, env types.Env, tokenID uint64) (*market.Ask, error)
}

type Config struct {
	Backend       Backend
	Env           *EnvSource
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
	// ServiceName labels the otelhttp server spans.
	ServiceName string
}

// Route keys used for rate limits.
const (
	RouteExecute = "execute"
	RouteQuery   = "query"
)

func New(cfg Config) (http.Handler, error) {
	if cfg.Backend == nil {
		return nil, errors.New("gateway: backend required")
	}
	if cfg.Env == nil {
		return nil, errors.New("gateway: env source required")
	}
	if cfg.Authenticator == nil {
		cfg.Authenticator = middleware.NewAuthenticator(middleware.AuthConfig{}, cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "passage-gateway"
	}
	h := &handlers{backend: cfg.Backend, env: cfg.Env, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestID)
	if cfg.Observability != nil {
		r.Use(cfg.Observability.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(mut chi.Router) {
			if cfg.RateLimiter != nil {
				mut.Use(cfg.RateLimiter.Middleware(RouteExecute))
			}
			mut.Use(cfg.Authenticator.Middleware)
			mut.Post("/execute", h.execute)
			mut.Post("/migrate", h.migrate)
		})
		v1.Group(func(read chi.Router) {
			if cfg.RateLimiter != nil {
				read.Use(cfg.RateLimiter.Middleware(RouteQuery))
			}
			read.Post("/query", h.query)
			read.Get("/tokens/{id}", h.token)
			read.Get("/asks/{id}", h.ask)
			read.Get("/bids/{id}", h.bids)
			read.Get("/minter/config", h.mintConfig)
		})
	})

	return otelhttp.NewHandler(r, cfg.ServiceName), nil
}
