package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/flows-checkout/internal/checkout"
	"github.com/xenking/flows-checkout/internal/flowcrypto"
	"github.com/xenking/flows-checkout/internal/flowtoken"
	"github.com/xenking/flows-checkout/internal/handler"
	"github.com/xenking/flows-checkout/pkg/health"
	"github.com/xenking/flows-checkout/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// Envelope decryption key.
	pemData, err := cfg.PrivateKeyPEM()
	if err != nil {
		return err
	}
	privateKey, err := flowcrypto.ParsePrivateKey(pemData, cfg.Passphrase)
	if err != nil {
		return errors.Wrap(err, "parse private key")
	}

	if cfg.AppSecret == "" {
		lg.Warn("App secret is not set, request signature verification is disabled")
	}

	// Flow token policy.
	var policies flowtoken.Chain
	if cfg.TokenBlocklist != "" {
		blocklist, err := flowtoken.LoadBlocklist(cfg.TokenBlocklist)
		if err != nil {
			return errors.Wrap(err, "load token blocklist")
		}
		policies = append(policies, blocklist)
	}
	if cfg.ReplayGuard.Enabled {
		policies = append(policies, flowtoken.NewReplayGuard(cfg.ReplayGuard.Capacity))
	}
	var tokens flowtoken.Validator = flowtoken.AllowAll{}
	if len(policies) > 0 {
		tokens = policies
	}

	// Engine and endpoint.
	svc := checkout.NewService(checkout.DefaultCatalog(), checkout.DefaultShippingPolicy())
	h := handler.New(cfg.AppSecret, privateKey, tokens, svc)

	healthSvc := health.New(10000)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.HandleFunc("POST /{$}", h.Exchange)
	mux.HandleFunc("GET /{$}", h.Index)

	instrumented := otelhttp.NewHandler(mux, "flow-endpoint",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Drain: stop advertising readiness before shutting the listener down.
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}
