package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"academia/internal/audit"
	"academia/internal/mint"
	minthandler "academia/internal/mint/handler"
	"academia/internal/mint/hedera"
	"academia/internal/pinning"
	"academia/internal/pinning/memory"
	"academia/internal/pinning/pinata"
	"academia/internal/platform/config"
	"academia/internal/platform/httpserver"
	"academia/internal/platform/logger"
	"academia/internal/platform/metrics"
	"academia/internal/ratelimit"
	"academia/internal/session"
	httptransport "academia/internal/transport/http"
	"academia/internal/upload"
	"academia/internal/verification"
	"academia/internal/verification/compare"
	verificationhandler "academia/internal/verification/handler"
	"academia/internal/wallet"
	"academia/internal/web"
	"academia/pkg/platform/circuit"
)

var errNoCollection = errors.New("no collection configured, run `collection create` and set HEDERA_TOKEN_ID")

// serve wires every dependency and runs the HTTP server next to the session
// sweeper until ctx is cancelled.
func serve(ctx context.Context, configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	conn, err := wallet.Connect(cfg.Wallet)
	if err != nil {
		return fmt.Errorf("connect wallet: %w", err)
	}
	defer conn.Close()
	log.InfoContext(ctx, "wallet configured",
		"network", conn.Network(),
		"connected", conn.Connected(),
		"can_sign", conn.CanSign(),
	)

	auditStore := audit.NewInMemoryStore(1000)
	auditor := audit.NewPublisher(256, log)

	sessions := session.NewInMemoryStore(cfg.Session.TTL, m, log)
	verifySvc, expected, err := newVerificationService(cfg, sessions, m, auditor, log)
	if err != nil {
		return err
	}

	pinner, routes, err := newPinner(cfg, log)
	if err != nil {
		return err
	}
	minter, err := newMinter(cfg, conn, log)
	if err != nil {
		return err
	}
	mintSvc := mint.NewService(pinner, minter, conn, collectionFromConfig(cfg.Mint),
		mint.WithMetrics(m),
		mint.WithAuditor(auditor),
		mint.WithLogger(log),
	)

	site, err := web.New(conn, expected, log)
	if err != nil {
		return err
	}
	limiter := ratelimit.New(cfg.RateLimit, log)
	routes = append(routes,
		site,
		verificationhandler.New(verifySvc, cfg.Upload.MaxBytes, log, verificationhandler.WithRateLimiter(limiter)),
		minthandler.New(mintSvc, conn, cfg.Upload.MaxBytes, log, minthandler.WithRateLimiter(limiter)),
		audit.NewHandler(auditStore, log),
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:       log,
		Gatherer:     reg,
		CookieSecure: cfg.Session.CookieSecure,
		SessionTTL:   cfg.Session.TTL,
	}, routes...)

	g, ctx := errgroup.WithContext(ctx)
	srv := httpserver.New(ctx, cfg.Server.Addr, router, cfg.Server.ReadHeaderTimeout)
	g.Go(func() error {
		log.InfoContext(ctx, "starting academia", "addr", cfg.Server.Addr)
		return httpserver.Serve(ctx, srv, cfg.Server.ShutdownTimeout)
	})
	g.Go(func() error {
		return sessions.RunSweeper(ctx, cfg.Session.SweepInterval)
	})
	g.Go(func() error {
		return limiter.RunSweeper(ctx, cfg.Session.SweepInterval)
	})
	g.Go(func() error {
		return audit.NewWorker(auditStore, auditor, log).Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("academia stopped")
	return nil
}

func newVerificationService(cfg config.Config, sessions *session.InMemoryStore, m *metrics.Metrics, auditor *audit.Publisher, log *slog.Logger) (*verification.Service, compare.Expected, error) {
	expected, err := verification.ExpectedFromConfig(cfg.Verification)
	if err != nil {
		return nil, expected, err
	}

	var verifier verification.Verifier
	switch cfg.Verification.Mode {
	case config.VerificationModeHTTP:
		verifier, err = verification.NewHTTPVerifier(verification.HTTPConfig{
			BaseURL:    cfg.Verification.URL,
			HTTPClient: &http.Client{Timeout: cfg.Server.OutboundTimeout},
		})
		if err != nil {
			return nil, expected, fmt.Errorf("verification client: %w", err)
		}
		verifier = verification.NewBreakerVerifier(verifier, circuit.New("verification"), log)
	default:
		verifier = verification.MockVerifier{
			Latency: cfg.Verification.Latency,
			Record:  verification.MockRecordFromConfig(cfg.Verification),
		}
	}

	svc := verification.NewService(
		sessions,
		upload.NewManager(cfg.Upload.MaxBytes, cfg.Upload.MaxPreviewEdge, log, upload.WithMaxPixels(cfg.Upload.MaxPixels)),
		verifier,
		expected,
		verification.WithMetrics(m),
		verification.WithAuditor(auditor),
		verification.WithLogger(log),
	)
	return svc, expected, nil
}

// newPinner returns the configured pinning backend and, for the in-memory
// backend, the gateway route that serves pinned content.
func newPinner(cfg config.Config, log *slog.Logger) (pinning.Pinner, []httptransport.Registrar, error) {
	if cfg.Pinning.Backend == config.PinningBackendPinata {
		client, err := pinata.NewClient(pinata.Config{
			JWT:        cfg.Pinning.JWT,
			Gateway:    cfg.Pinning.Gateway,
			UploadURL:  cfg.Pinning.UploadURL,
			HTTPClient: &http.Client{Timeout: cfg.Server.OutboundTimeout},
		})
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	}

	base := localBaseURL(cfg.Server.Addr)
	log.Warn("using in-memory pinning, content is lost on restart", "gateway", base)
	store := memory.New(base)
	return store, []httptransport.Registrar{store}, nil
}

func newMinter(cfg config.Config, conn *wallet.Connection, log *slog.Logger) (mint.Minter, error) {
	if strings.TrimSpace(cfg.Mint.TokenID) == "" {
		log.Warn("mint.token_id is not set, minting is disabled")
		return unavailableMinter{}, nil
	}
	if !conn.CanSign() {
		log.Warn("wallet cannot sign, minting is disabled")
		return unavailableMinter{}, nil
	}
	return hedera.NewMinter(conn, hedera.Config{
		TokenID:     cfg.Mint.TokenID,
		SupplyKey:   cfg.Mint.SupplyKey,
		ExplorerURL: cfg.Mint.ExplorerURL,
	})
}

func createCollection(ctx context.Context, configPath string) (string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	conn, err := wallet.Connect(cfg.Wallet)
	if err != nil {
		return "", fmt.Errorf("connect wallet: %w", err)
	}
	defer conn.Close()

	tokenID, err := hedera.CreateCollection(ctx, conn, hedera.CollectionSpec{
		Name:               cfg.Mint.Name,
		Symbol:             cfg.Mint.Symbol,
		Memo:               cfg.Mint.Description,
		RoyaltyBasisPoints: cfg.Mint.RoyaltyBasisPoints,
	})
	if err != nil {
		return "", err
	}
	return tokenID.String(), nil
}

func collectionFromConfig(c config.Mint) mint.Collection {
	return mint.Collection{
		Name:               c.Name,
		Symbol:             c.Symbol,
		MetadataName:       c.MetadataName,
		Description:        c.Description,
		Issuer:             c.Issuer,
		RoyaltyBasisPoints: c.RoyaltyBasisPoints,
	}
}

// localBaseURL turns a listen address into a URL browsers on this host can
// reach.
func localBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

type unavailableMinter struct{}

func (unavailableMinter) CreateAsset(context.Context, mint.AssetRequest) (mint.Asset, error) {
	return mint.Asset{}, errNoCollection
}
