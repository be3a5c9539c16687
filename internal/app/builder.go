package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paperdesk/internal/config"
	"paperdesk/internal/decision"
	"paperdesk/internal/ledger"
	"paperdesk/internal/logger"
	"paperdesk/internal/market"
	"paperdesk/internal/profile"
	"paperdesk/internal/session"
	"paperdesk/internal/sizing"
	"paperdesk/internal/store/decisionlog"
	"paperdesk/internal/store/gormstore"
	httpapi "paperdesk/internal/transport/http"
)

// AppBuilder assembles the desk from configuration. The function fields are
// override points for tests and replay harnesses.
type AppBuilder struct {
	cfg *config.Config

	marketSourceFn func(config.MarketConfig) (market.Source, error)
	voteSourceFn   func(*config.Config) decision.Source
	storesFn       func(config.StoreConfig) (*gormstore.Store, *decisionlog.Store, error)
	httpServerFn   func(config.AppConfig, *httpapi.Router) (*httpapi.Server, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:            cfg,
		marketSourceFn: buildMarketSource,
		voteSourceFn:   buildVoteSource,
		storesFn:       buildStores,
		httpServerFn:   buildHTTPServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	registry, weightFn, err := loadProfileRegistry(cfg.Profile)
	if err != nil {
		return nil, err
	}

	aggregator := decision.NewAggregator(decision.Config{
		BuyVoteWeight:  cfg.Trading.BuyVoteWeight,
		SellVoteWeight: cfg.Trading.SellVoteWeight,
		HoldVoteWeight: 1.0,
		BuyThreshold:   cfg.Trading.BuyThreshold,
		SellThreshold:  cfg.Trading.SellThreshold,
		Risk: sizing.RiskConfig{
			StopLossPct:   cfg.Trading.StopLossPct,
			TakeProfitPct: cfg.Trading.TakeProfitPct,
		},
	}, weightFn)

	sizer := sizing.New(sizing.Config{
		MinPositionSize:    cfg.Trading.MinPositionSize,
		MaxPositionSize:    cfg.Trading.MaxPositionSize,
		DefaultSizePercent: cfg.Trading.DefaultSizePercent,
		LowCashFraction:    cfg.Trading.LowCashFraction,
		HighCashFraction:   cfg.Trading.HighCashFraction,
		LowCashMultiplier:  cfg.Trading.LowCashMultiplier,
		HighCashMultiplier: cfg.Trading.HighCashMultiplier,
	})

	marketSrc, err := b.marketSourceFn(cfg.Market)
	if err != nil {
		return nil, err
	}
	logger.Infof("Market source ready: %s", cfg.Market.Source)

	sessionStore, decisionStore, err := b.storesFn(cfg.Store)
	if err != nil {
		return nil, err
	}

	manager := session.NewManager(session.Config{
		InitialBudget:     decimal.NewFromFloat(cfg.Trading.InitialBudget),
		DefaultInterval:   cfg.Trading.DefaultInterval,
		ExecuteThreshold:  cfg.Trading.ExecuteThreshold,
		MaxAutoIterations: cfg.Trading.MaxAutoIterations,
		Limits: ledger.Limits{
			MinPositionSize: cfg.Trading.MinPositionSize,
			MaxPositionSize: cfg.Trading.MaxPositionSize,
		},
	}, session.Deps{
		Market:     marketSrc,
		Votes:      b.voteSourceFn(cfg),
		Aggregator: aggregator,
		Sizer:      sizer,
		Sessions:   sessionStore,
		Decisions:  decisionStore,
	})

	httpServer, err := b.httpServerFn(cfg.App, &httpapi.Router{
		Manager:    manager,
		Aggregator: aggregator,
		Sizer:      sizer,
		Decisions:  decisionStore,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:           cfg,
		manager:       manager,
		httpServer:    httpServer,
		registry:      registry,
		sessionStore:  sessionStore,
		decisionStore: decisionStore,
	}, nil
}

func loadProfileRegistry(cfg config.ProfileConfig) (*profile.Registry, decision.WeightFunc, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		defaults := profile.Defaults()
		return nil, defaults.Weight, nil
	}
	registry, err := profile.NewRegistry(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading agent profiles failed: %w", err)
	}
	registry.OnChange(func(snap profile.Snapshot) {
		logger.Infof("Agent profiles reloaded (version %d, %d agents)", snap.Version, len(snap.Agents))
	})
	return registry, registry.WeightFunc(), nil
}

func buildMarketSource(cfg config.MarketConfig) (market.Source, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "backend":
		return market.NewBackendSource(market.BackendConfig{
			BaseURL: cfg.BackendBaseURL,
			Timeout: timeout,
		})
	case "binance":
		return market.NewBinanceSource(market.BinanceConfig{
			RESTBaseURL: cfg.BinanceRESTURL,
			Timeout:     timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown market source: %s", cfg.Source)
	}
}

func buildVoteSource(*config.Config) decision.Source {
	return decision.StaticSource{}
}

func buildStores(cfg config.StoreConfig) (*gormstore.Store, *decisionlog.Store, error) {
	var sessions *gormstore.Store
	if path := strings.TrimSpace(cfg.SessionDBPath); path != "" {
		s, err := gormstore.NewStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening session store failed: %w", err)
		}
		sessions = s
	}
	var decisions *decisionlog.Store
	if path := strings.TrimSpace(cfg.DecisionLogPath); path != "" {
		s, err := decisionlog.NewStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening decision log failed: %w", err)
		}
		decisions = s
	}
	return sessions, decisions, nil
}

func buildHTTPServer(cfg config.AppConfig, router *httpapi.Router) (*httpapi.Server, error) {
	return httpapi.NewServer(httpapi.ServerConfig{
		Addr:   cfg.HTTPAddr,
		Router: router,
	})
}

func WithMarketSource(fn func(config.MarketConfig) (market.Source, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.marketSourceFn = fn
		}
	}
}

func WithVoteSource(fn func(*config.Config) decision.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.voteSourceFn = fn
		}
	}
}

func WithStores(fn func(config.StoreConfig) (*gormstore.Store, *decisionlog.Store, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.storesFn = fn
		}
	}
}
