package app

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/RiyaSaju106/QuickIT/internal/api"
	"github.com/RiyaSaju106/QuickIT/internal/localstate"
	"github.com/RiyaSaju106/QuickIT/internal/session"
	"github.com/RiyaSaju106/QuickIT/internal/store"
	"github.com/RiyaSaju106/QuickIT/pkg/httpclient"
	"github.com/RiyaSaju106/QuickIT/pkg/monitor"
)

// Run creates all dependencies, starts the interactive shell, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("api_url", cfg.APIURL), zap.String("state_driver", cfg.State.Driver))

	state, err := newStateStore(cfg)
	if err != nil {
		return errors.Wrap(err, "create state store")
	}
	defer func() {
		if err := state.Close(); err != nil {
			lg.Error("Failed to close state store", zap.Error(err))
		}
	}()

	tokens := session.NewManager(state)

	// Outbound transport: request IDs and logging inside, OTel on the outside
	// so spans cover the full middleware chain.
	transport := otelhttp.NewTransport(
		httpclient.Wrap(nil,
			httpclient.RequestID(),
			httpclient.UserAgent(cfg.UserAgent),
			httpclient.LogRequests(),
		),
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.HTTPTimeout,
	}

	// The expiry hook needs the store, which needs the client. The hook fires
	// only on live traffic, well after both are assembled.
	var st *store.Store
	client, err := api.NewClient(api.Config{
		BaseURL:    cfg.APIURL,
		HTTPClient: httpClient,
		Tokens:     tokens,
		OnSessionExpired: func(ctx context.Context) {
			if st != nil {
				st.HandleSessionExpired(ctx)
			}
		},
	})
	if err != nil {
		return errors.Wrap(err, "create api client")
	}

	st = store.New(client, tokens, state, lg)

	probe := monitor.New(client.Ping, monitor.Config{
		Interval: cfg.Probe.Interval,
		Timeout:  cfg.Probe.Timeout,
	})
	probe.Start(ctx)
	defer probe.Stop()

	if err := st.Start(ctx); err != nil {
		return errors.Wrap(err, "start store")
	}

	sh := newShell(st, probe, lg)
	err = sh.run(ctx)

	// Let background cart mirrors drain before the state store closes.
	st.Wait()
	return err
}

// newStateStore builds the durable local state store for the configured
// driver.
func newStateStore(cfg *Config) (localstate.Store, error) {
	switch localstate.Driver(cfg.State.Driver) {
	case localstate.DriverMemory:
		return localstate.New(localstate.DriverMemory)

	case localstate.DriverFile:
		return localstate.New(localstate.DriverFile, localstate.WithDir(cfg.State.Dir))

	case localstate.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.State.RedisAddr})
		return localstate.New(localstate.DriverRedis,
			localstate.WithRedisClient(client),
			localstate.WithRedisTTL(cfg.State.RedisTTL),
		)

	default:
		return nil, localstate.ErrInvalidDriver
	}
}
