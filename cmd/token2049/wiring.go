package main

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/chain"
	"github.com/derek2403/token2049/config"
	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/engine"
	"github.com/derek2403/token2049/executor"
	"github.com/derek2403/token2049/gateway"
	"github.com/derek2403/token2049/memory"
	hashembed "github.com/derek2403/token2049/memory/embedder/hashing"
	openaiembed "github.com/derek2403/token2049/memory/embedder/openai"
	"github.com/derek2403/token2049/memory/store/chromem"
	"github.com/derek2403/token2049/relay"
	"github.com/derek2403/token2049/resolver"
	"github.com/derek2403/token2049/store"
	"github.com/derek2403/token2049/store/db"
	"github.com/derek2403/token2049/tools"
)

// app holds everything built from the configuration.
type app struct {
	engine   *engine.Engine
	relay    *relay.Relay
	balances *chain.BalanceReader
	signer   core.Signer

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}
}

// buildApp wires the engine and its collaborators. The chain client is
// optional: without one, actions can be prepared and payment requests
// published, but nothing is signed here.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	completer, err := newCompleter(cfg.AI)
	if err != nil {
		return nil, err
	}

	directory, err := newDirectory(cfg.ContactsFile)
	if err != nil {
		return nil, err
	}

	converter, err := newConverter(cfg.Conversion)
	if err != nil {
		return nil, err
	}

	a.relay, err = a.newRelay(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	execOpts := []executor.Option{
		executor.WithStakingContract(cfg.Chain.StakingContract),
		executor.WithLogger(logger),
	}
	client, err := chain.Dial(ctx, logger, cfg.Chain.RPCURLs...)
	if err != nil {
		logger.Warn("chain unavailable, signing and balances disabled", zap.Error(err))
	} else {
		a.closers = append(a.closers, func() error { client.Close(); return nil })
		a.balances = chain.NewBalanceReader(client, cfg.Chain.ChainID)
		execOpts = append(execOpts, executor.WithReceiptWatcher(newReceiptPoller(client, cfg.Chain)))
		if cfg.Chain.PrivateKey != "" {
			signer, err := chain.NewKeySigner(client, cfg.Chain.PrivateKey, cfg.Chain.ChainID, logger)
			if err != nil {
				return nil, err
			}
			a.signer = signer
			logger.Info("server-side signing enabled", zap.String("wallet", signer.Address()))
		}
	}

	opts := []engine.Option{
		engine.WithRelay(a.relay),
		engine.WithDirectory(directory),
		engine.WithConverter(converter),
		engine.WithSigners(engine.StaticSigner(a.signer)),
		engine.WithAudit(engine.NewZapAuditLogger(logger)),
		engine.WithConfirmationTTL(cfg.ConfirmationTTL),
		engine.WithHistoryWindow(cfg.AI.HistoryWindow),
		engine.WithLogger(logger),
	}
	if cfg.RateLimit.PerMinute > 0 {
		opts = append(opts, engine.WithGuardrails(engine.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)))
	}
	if cfg.Memory.Enabled {
		mgr, err := a.newMemory(cfg.Memory)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithMemory(mgr))
	}

	a.engine = engine.New(completer, executor.New(a.signer, execOpts...), opts...)
	ok = true
	return a, nil
}

func newCompleter(c config.AIConfig) (gateway.Completer, error) {
	registry := tools.DefaultRegistry()
	switch c.Provider {
	case "anthropic":
		return gateway.NewAnthropic(gateway.AnthropicConfig{
			APIKey:        c.APIKey,
			BaseURL:       c.BaseURL,
			Model:         c.Model,
			MaxTokens:     int64(c.MaxTokens),
			HistoryWindow: c.HistoryWindow,
		}, registry, logger), nil
	case "openai", "":
		return gateway.NewOpenAI(gateway.OpenAIConfig{
			BaseURL:       c.BaseURL,
			APIKey:        c.APIKey,
			Model:         c.Model,
			Temperature:   c.Temperature,
			MaxTokens:     c.MaxTokens,
			HistoryWindow: c.HistoryWindow,
		}, registry, logger), nil
	default:
		return nil, errors.Wrapf(core.ErrValidation, "unknown ai provider %q", c.Provider)
	}
}

func newDirectory(path string) (*resolver.Directory, error) {
	if path == "" {
		return resolver.NewDirectory(nil), nil
	}
	return resolver.LoadDirectory(path)
}

func newConverter(c config.ConversionConfig) (resolver.Converter, error) {
	if c.Policy != "live" {
		return resolver.NewFixedConverter(core.TokenCUSD), nil
	}
	fallback, err := decimal.NewFromString(c.FallbackPrice)
	if err != nil {
		return nil, errors.Wrapf(core.ErrValidation, "conversion.fallback_price %q", c.FallbackPrice)
	}
	return resolver.NewLiveConverter(c.PriceURL, fallback, c.CacheTTL, logger)
}

func (a *app) newRelay(ctx context.Context, c config.StoreConfig) (*relay.Relay, error) {
	var backing relay.Store
	switch c.Driver {
	case "memory":
		backing = relay.NewMemoryStore()
	case "http":
		backing = relay.NewHTTPStore(c.DSN)
	default:
		driver, err := db.NewDBDriver(ctx, c.Driver, c.DSN)
		if err != nil {
			return nil, errors.Wrap(core.ErrStoreFailure, err.Error())
		}
		s := store.New(driver)
		a.closers = append(a.closers, s.Close)
		backing = s
	}
	logger.Info("notification store ready", zap.String("driver", c.Driver))
	return relay.New(backing, relay.WithLogger(logger)), nil
}

func newReceiptPoller(client *ethclient.Client, c config.ChainConfig) *chain.ReceiptPoller {
	p := chain.NewReceiptPoller(client)
	if c.ReceiptTimeout > 0 && p.Interval > 0 {
		p.MaxAttempts = int(c.ReceiptTimeout / p.Interval)
	}
	return p
}

func (a *app) newMemory(c config.MemoryConfig) (memory.Manager, error) {
	var embedder memory.Embedder
	switch c.Embedder {
	case "openai":
		embedder = openaiembed.New(openaiembed.Config{
			BaseURL: c.EmbeddingURL,
			APIKey:  c.EmbeddingKey,
			Model:   c.EmbeddingModel,
		})
	default:
		embedder = hashembed.New()
	}

	var memStore memory.Store
	if c.Dir != "" {
		s, err := chromem.NewPersistent(c.Dir, logger)
		if err != nil {
			return nil, errors.Wrap(err, "open memory store")
		}
		memStore = s
	} else {
		memStore = chromem.New(logger)
	}

	a.closers = append(a.closers, memStore.Close)

	mc := memory.DefaultConfig()
	mc.MinSimilarity = c.MinSimilarity
	return memory.NewSimpleManager(memStore, embedder, mc, logger), nil
}
