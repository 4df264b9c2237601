package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xaenox/vikas-bot/internal/agent"
	"github.com/xaenox/vikas-bot/internal/analytics"
	"github.com/xaenox/vikas-bot/internal/api"
	"github.com/xaenox/vikas-bot/internal/bot"
	"github.com/xaenox/vikas-bot/internal/classifier"
	"github.com/xaenox/vikas-bot/internal/events"
	"github.com/xaenox/vikas-bot/internal/llm"
	"github.com/xaenox/vikas-bot/internal/orchestrator"
	"github.com/xaenox/vikas-bot/internal/storage"
	"github.com/xaenox/vikas-bot/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	// Initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	// Initialize storage
	store, err := newStorage(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	// Analytics, streamed to Kafka when enabled
	var analyticsOpts []analytics.Option
	if cfg.Kafka.Enabled {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Fatal("Failed to create Kafka publisher", zap.Error(err))
		}
		defer publisher.Close()
		analyticsOpts = append(analyticsOpts, analytics.WithSink(publisher))
		logger.Info("Streaming interactions to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	recorder := analytics.NewStore(analytics.Config{
		InteractionCapacity: cfg.Analytics.InteractionCapacity,
		SentimentCapacity:   cfg.Analytics.SentimentCapacity,
		QueryCapacity:       cfg.Analytics.QueryCapacity,
		ContainmentTarget:   cfg.Analytics.ContainmentTarget,
	}, logger, analyticsOpts...)

	// LLM and agents
	groq := llm.NewGroqClient(llm.GroqConfig{
		APIKey:      cfg.Groq.APIKey,
		BaseURL:     cfg.Groq.BaseURL,
		Model:       cfg.Groq.Model,
		MaxTokens:   cfg.Groq.MaxTokens,
		Temperature: cfg.Groq.Temperature,
		Timeout:     cfg.Groq.Timeout,
		MaxRetries:  cfg.Groq.MaxRetries,
		BackoffBase: cfg.Groq.BackoffBase,
	}, logger)
	if !groq.Available() {
		logger.Warn("No Groq API key configured, answers fall back to catalog listings")
	}

	sentiment := classifier.NewSentimentAnalyzer(groq, cfg.Sentiment.EscalateThreshold, logger)
	rag := agent.NewRAG(store, groq, logger)
	assistant := orchestrator.New(orchestrator.Deps{
		Classifier:      classifier.NewIntentClassifier(),
		Experience:      agent.NewCustomerExperience(sentiment),
		Retrieval:       rag,
		Inventory:       agent.NewProductInventory(store, rag, logger),
		Personalization: agent.NewPersonalization(store, store, groq, logger),
		Fulfillment:     agent.NewOrderFulfillment(store, logger),
		Immersive:       agent.NewImmersive(store, logger),
		Analytics:       agent.NewAnalyticsAgent(recorder),
		Recorder:        recorder,
		Metrics:         recorder,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(api.NewHandler(assistant, rag, recorder, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Telegram.Token != "" {
		b, err := bot.New(cfg.Telegram.Token, assistant, rag, logger)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
		g.Go(func() error { return b.Start(ctx) })
	} else {
		logger.Info("No Telegram token configured, running the HTTP API only")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Shutting down with error", zap.Error(err))
		return
	}
	logger.Info("Shut down cleanly")
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = lvl
	}
	return zcfg.Build()
}

func newStorage(cfg config.DatabaseConfig, logger *zap.Logger) (storage.Storage, error) {
	if !cfg.UseInMemory {
		logger.Info("Using PostgreSQL storage")
		return storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		}, logger)
	}

	var (
		catalog storage.Catalog
		err     error
	)
	if cfg.CatalogPath != "" {
		catalog, err = storage.LoadCatalog(cfg.CatalogPath)
	} else {
		catalog, err = storage.DefaultCatalog()
	}
	if err != nil {
		return nil, err
	}

	mem := storage.NewMemoryStorage()
	mem.Seed(catalog)
	logger.Info("Using in-memory storage",
		zap.Int("products", len(catalog.Products)),
		zap.Int("stores", len(catalog.Stores)))
	return mem, nil
}
